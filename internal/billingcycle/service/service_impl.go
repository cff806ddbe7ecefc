package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/recaudo/internal/audit/domain"
	"github.com/smallbiznis/recaudo/internal/billingcycle/domain"
	clientdomain "github.com/smallbiznis/recaudo/internal/client/domain"
	"github.com/smallbiznis/recaudo/internal/clock"
	"github.com/smallbiznis/recaudo/internal/config"
	debtdomain "github.com/smallbiznis/recaudo/internal/debt/domain"
	obsmetrics "github.com/smallbiznis/recaudo/internal/observability/metrics"
	tariffdomain "github.com/smallbiznis/recaudo/internal/tariff/domain"
	dbpkg "github.com/smallbiznis/recaudo/pkg/db"
	"github.com/smallbiznis/recaudo/pkg/db/option"
	"github.com/smallbiznis/recaudo/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const defaultRunsLimit = 20

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	ClientSvc  clientdomain.Service
	TariffSvc  tariffdomain.Service
	DebtSvc    debtdomain.Service
	AuditSvc   auditdomain.Recorder
	Billing    *config.BillingConfigHolder `optional:"true"`
	Metrics    *obsmetrics.DomainMetrics   `optional:"true"`
	ObsMetrics *obsmetrics.Metrics         `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	clientSvc  clientdomain.Service
	tariffSvc  tariffdomain.Service
	debtSvc    debtdomain.Service
	auditSvc   auditdomain.Recorder
	billing    *config.BillingConfigHolder
	metrics    *obsmetrics.DomainMetrics
	obsMetrics *obsmetrics.Metrics

	runrepo repository.Repository[domain.BillingRun]
}

func New(p Params) domain.Service {
	billing := p.Billing
	if billing == nil {
		billing = config.NewStaticBillingConfigHolder(config.DefaultBillingConfig())
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("billingcycle.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		clientSvc:  p.ClientSvc,
		tariffSvc:  p.TariffSvc,
		debtSvc:    p.DebtSvc,
		auditSvc:   p.AuditSvc,
		billing:    billing,
		metrics:    p.Metrics,
		obsMetrics: p.ObsMetrics,
		runrepo:    repository.ProvideStore[domain.BillingRun](p.DB),
	}
}

func (s *Service) Generate(ctx context.Context, month string, trigger domain.Trigger) (domain.Result, error) {
	billingMonth, err := debtdomain.ParseBillingMonth(month)
	if err != nil {
		return domain.Result{}, domain.ErrInvalidBillingMonth
	}
	return s.GenerateMonth(ctx, billingMonth, trigger)
}

type outcome int

const (
	outcomeCreated outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (s *Service) GenerateMonth(ctx context.Context, billingMonth time.Time, trigger domain.Trigger) (domain.Result, error) {
	if billingMonth.IsZero() {
		return domain.Result{}, domain.ErrInvalidBillingMonth
	}
	if trigger == "" {
		trigger = domain.TriggerManual
	}
	if !trigger.Valid() {
		return domain.Result{}, domain.ErrInvalidTrigger
	}
	billingMonth = clock.MonthStart(billingMonth)
	cfg := s.billing.Get()
	startedAt := s.clock.Now().UTC()

	services, err := s.clientSvc.ListActiveServices(ctx)
	if err != nil {
		return domain.Result{}, err
	}

	result := domain.Result{
		BillingMonth: billingMonth.Format("2006-01"),
		Errors:       []domain.GenerationError{},
	}
	var mu sync.Mutex
	record := func(o outcome, genErr *domain.GenerationError) {
		mu.Lock()
		defer mu.Unlock()
		switch o {
		case outcomeCreated:
			result.CreatedCount++
		case outcomeSkipped:
			result.SkippedCount++
		case outcomeFailed:
			result.Errors = append(result.Errors, *genErr)
		}
	}

	limit := cfg.GenerationConcurrency
	if limit <= 0 {
		limit = 1
	}
	g := new(errgroup.Group)
	g.SetLimit(limit)

	var cancelled error
	for _, active := range services {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		g.Go(func() error {
			o, genErr := s.generateOne(ctx, active, billingMonth, cfg.DueOffsetDays)
			record(o, genErr)
			return nil
		})
	}
	_ = g.Wait()

	// The run row is written even for a cancelled run.
	runCtx := context.WithoutCancel(ctx)
	run := domain.BillingRun{
		ID:           s.genID.Generate(),
		BillingMonth: billingMonth,
		Trigger:      trigger,
		CreatedCount: result.CreatedCount,
		SkippedCount: result.SkippedCount,
		ErrorCount:   len(result.Errors),
		Errors:       result.Errors,
		StartedAt:    startedAt,
		FinishedAt:   s.clock.Now().UTC(),
	}
	if err := s.saveRun(runCtx, &run); err != nil {
		s.log.Error("failed to record billing run", zap.Error(err))
	} else {
		result.RunID = run.ID.String()
	}

	s.metrics.AddGenerationResult("created", result.CreatedCount)
	s.metrics.AddGenerationResult("skipped", result.SkippedCount)
	s.metrics.AddGenerationResult("error", len(result.Errors))
	s.obsMetrics.RecordDebtsGenerated(runCtx, string(trigger), result.CreatedCount)

	s.log.Info("billing generation finished",
		zap.String("billing_month", result.BillingMonth),
		zap.String("trigger", string(trigger)),
		zap.Int("services", len(services)),
		zap.Int("created", result.CreatedCount),
		zap.Int("skipped", result.SkippedCount),
		zap.Int("errors", len(result.Errors)),
	)

	return result, cancelled
}

func (s *Service) generateOne(ctx context.Context, active clientdomain.ActiveService, billingMonth time.Time, dueOffsetDays int) (outcome, *domain.GenerationError) {
	fail := func(code string, err error) (outcome, *domain.GenerationError) {
		s.log.Warn("debt generation failed",
			zap.String("service_id", active.ServiceID.String()),
			zap.String("code", code),
			zap.Error(err),
		)
		return outcomeFailed, &domain.GenerationError{
			ServiceID: active.ServiceID.String(),
			Code:      code,
			Message:   err.Error(),
		}
	}

	exists, err := s.debtSvc.Exists(ctx, active.ServiceID, billingMonth)
	if err != nil {
		return fail("persistence_error", err)
	}
	if exists {
		return outcomeSkipped, nil
	}

	amount := active.MonthlyPrice
	if active.ZoneID != nil {
		resolution, err := s.tariffSvc.Resolve(ctx, *active.ZoneID, active.ServiceType, billingMonth)
		switch {
		case err == nil:
			amount = resolution.Price
		case errors.Is(err, tariffdomain.ErrNoTariffFound):
		default:
			return fail("tariff_resolution_failed", err)
		}
	}
	if !amount.IsPositive() {
		return fail("invalid_amount", errors.New("resolved amount is not positive"))
	}

	now := s.clock.Now().UTC()
	debt := debtdomain.Debt{
		ID:           s.genID.Generate(),
		ServiceID:    active.ServiceID,
		ClientID:     active.ClientID,
		BillingMonth: billingMonth,
		Amount:       amount.Round(2),
		DueDate:      billingMonth.AddDate(0, 0, dueOffsetDays),
		Status:       debtdomain.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.debtSvc.Insert(ctx, &debt); err != nil {
		if errors.Is(err, debtdomain.ErrDuplicate) {
			return outcomeSkipped, nil
		}
		return fail("persistence_error", err)
	}
	return outcomeCreated, nil
}

func (s *Service) saveRun(ctx context.Context, run *domain.BillingRun) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.runrepo.WithTrx(tx).Create(ctx, run); err != nil {
			return dbpkg.Wrap("billing_run.create", err)
		}
		s.auditSvc.Record(ctx, tx, auditdomain.Event{
			EntityName: "billing_run",
			EntityID:   run.ID.String(),
			Action:     auditdomain.ActionCreate,
			Detail: map[string]any{
				"billing_month": run.BillingMonth.Format("2006-01"),
				"trigger":       string(run.Trigger),
				"created_count": run.CreatedCount,
				"skipped_count": run.SkippedCount,
				"error_count":   run.ErrorCount,
			},
		})
		return nil
	})
}

func (s *Service) ListRuns(ctx context.Context, limit int) ([]domain.BillingRun, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultRunsLimit
	}
	items, err := s.runrepo.Find(ctx, nil,
		option.WithOrder("started_at", true),
		option.WithLimit(limit),
	)
	if err != nil {
		return nil, dbpkg.Wrap("billing_run.list", err)
	}
	runs := make([]domain.BillingRun, 0, len(items))
	for _, item := range items {
		runs = append(runs, *item)
	}
	return runs, nil
}
