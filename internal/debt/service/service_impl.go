package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/recaudo/internal/actorcontext"
	auditdomain "github.com/smallbiznis/recaudo/internal/audit/domain"
	"github.com/smallbiznis/recaudo/internal/clock"
	"github.com/smallbiznis/recaudo/internal/config"
	"github.com/smallbiznis/recaudo/internal/debt/domain"
	obsmetrics "github.com/smallbiznis/recaudo/internal/observability/metrics"
	dbpkg "github.com/smallbiznis/recaudo/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    domain.Repository
	Audit   auditdomain.Recorder
	Billing *config.BillingConfigHolder `optional:"true"`
	Metrics *obsmetrics.DomainMetrics   `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    domain.Repository
	audit   auditdomain.Recorder
	billing *config.BillingConfigHolder
	metrics *obsmetrics.DomainMetrics
}

func New(p Params) domain.Service {
	billing := p.Billing
	if billing == nil {
		billing = config.NewStaticBillingConfigHolder(config.DefaultBillingConfig())
	}
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("debt.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		audit:   p.Audit,
		billing: billing,
		metrics: p.Metrics,
	}
}

func (s *Service) Today() time.Time {
	return clock.Date(s.clock.Now().In(s.billing.Get().Location()))
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Debt, error) {
	var filter domain.ListFilter
	if raw := strings.TrimSpace(req.ClientID); raw != "" {
		clientID, err := snowflake.ParseString(raw)
		if err != nil || clientID == 0 {
			return nil, domain.ErrInvalidClient
		}
		filter.ClientID = &clientID
	}
	if raw := strings.TrimSpace(req.BillingMonth); raw != "" {
		month, err := domain.ParseBillingMonth(raw)
		if err != nil {
			return nil, err
		}
		filter.BillingMonth = &month
	}
	status := domain.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if status != "" && !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if actor, ok := actorcontext.FromContext(ctx); ok && actor.IsCollector() {
		collectorID := actor.ID
		filter.CollectorID = &collectorID
	}

	debts, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, dbpkg.Wrap("debt.list", err)
	}

	today := s.Today()
	out := make([]domain.Debt, 0, len(debts))
	for _, debt := range debts {
		debt.Status = domain.DeriveStatus(debt.PaidAmount, debt.Amount, debt.DueDate, today)
		if status != "" && debt.Status != status {
			continue
		}
		out = append(out, debt)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Debt, error) {
	debtID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || debtID == 0 {
		return domain.Debt{}, domain.ErrInvalidID
	}
	debt, err := s.repo.FindByID(ctx, s.db, debtID)
	if err != nil {
		return domain.Debt{}, dbpkg.Wrap("debt.find", err)
	}
	if debt == nil {
		return domain.Debt{}, domain.ErrNotFound
	}
	if actor, ok := actorcontext.FromContext(ctx); ok && actor.IsCollector() {
		owns, err := s.repo.CollectorOwnsClient(ctx, s.db, actor.ID, debt.ClientID)
		if err != nil {
			return domain.Debt{}, dbpkg.Wrap("debt.collector_owns", err)
		}
		if !owns {
			return domain.Debt{}, domain.ErrNotFound
		}
	}
	debt.Status = domain.DeriveStatus(debt.PaidAmount, debt.Amount, debt.DueDate, s.Today())
	return *debt, nil
}

func (s *Service) Sweep(ctx context.Context, asOf time.Time) (int64, error) {
	asOf = clock.Date(asOf)
	day := asOf.Format(time.DateOnly)

	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		count, err = s.repo.ExpirePending(ctx, tx, asOf, s.clock.Now().UTC())
		if err != nil {
			return dbpkg.Wrap("debt.sweep", err)
		}
		s.audit.Record(ctx, tx, auditdomain.Event{
			EntityName: "debt_sweep",
			EntityID:   day,
			Action:     auditdomain.ActionUpdate,
			Detail: map[string]any{
				"as_of":         day,
				"expired_count": count,
			},
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.metrics.AddExpiredDebts(count)
	s.log.Info("expired pending debts",
		zap.String("as_of", day),
		zap.Int64("count", count),
	)
	return count, nil
}

func (s *Service) Insert(ctx context.Context, debt *domain.Debt) error {
	if err := s.repo.Insert(ctx, s.db, debt); err != nil {
		if dbpkg.IsDuplicateKeyErr(err) {
			return domain.ErrDuplicate
		}
		return dbpkg.Wrap("debt.insert", err)
	}
	return nil
}

func (s *Service) Exists(ctx context.Context, serviceID snowflake.ID, billingMonth time.Time) (bool, error) {
	ok, err := s.repo.Exists(ctx, s.db, serviceID, billingMonth)
	if err != nil {
		return false, dbpkg.Wrap("debt.exists", err)
	}
	return ok, nil
}

func (s *Service) OutstandingTx(ctx context.Context, tx *gorm.DB, clientID snowflake.ID) ([]domain.Debt, error) {
	debts, err := s.repo.ListOutstanding(ctx, tx, clientID, dbpkg.SupportsRowLocks(tx))
	if err != nil {
		return nil, dbpkg.Wrap("debt.outstanding", err)
	}
	return debts, nil
}

func (s *Service) FindTx(ctx context.Context, tx *gorm.DB, ids []snowflake.ID) ([]domain.Debt, error) {
	debts, err := s.repo.FindByIDs(ctx, tx, ids, dbpkg.SupportsRowLocks(tx))
	if err != nil {
		return nil, dbpkg.Wrap("debt.find_many", err)
	}
	return debts, nil
}

func (s *Service) SetPaidTx(ctx context.Context, tx *gorm.DB, debt domain.Debt, paid decimal.Decimal, asOf time.Time) (domain.Debt, error) {
	if paid.IsNegative() || paid.GreaterThan(debt.Amount) {
		return domain.Debt{}, domain.ErrInvalidPaidAmount
	}
	status := domain.DeriveStatus(paid, debt.Amount, debt.DueDate, clock.Date(asOf))
	now := s.clock.Now().UTC()
	if err := s.repo.UpdatePaid(ctx, tx, debt.ID, paid, status, now); err != nil {
		return domain.Debt{}, dbpkg.Wrap("debt.update_paid", err)
	}
	debt.PaidAmount = paid
	debt.Status = status
	debt.UpdatedAt = now
	return debt, nil
}
