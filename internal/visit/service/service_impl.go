package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/recaudo/internal/actorcontext"
	auditdomain "github.com/smallbiznis/recaudo/internal/audit/domain"
	clientdomain "github.com/smallbiznis/recaudo/internal/client/domain"
	"github.com/smallbiznis/recaudo/internal/clock"
	paymentdomain "github.com/smallbiznis/recaudo/internal/payment/domain"
	"github.com/smallbiznis/recaudo/internal/visit/domain"
	dbpkg "github.com/smallbiznis/recaudo/pkg/db"
	"github.com/smallbiznis/recaudo/pkg/db/option"
	"github.com/smallbiznis/recaudo/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 50
	maxListLimit     = 250
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	ClientSvc  clientdomain.Service
	PaymentSvc paymentdomain.Service
	AuditSvc   auditdomain.Recorder
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	clientSvc  clientdomain.Service
	paymentSvc paymentdomain.Service
	auditSvc   auditdomain.Recorder
	visitrepo  repository.Repository[domain.Visit]
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("visit.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		clientSvc:  p.ClientSvc,
		paymentSvc: p.PaymentSvc,
		auditSvc:   p.AuditSvc,
		visitrepo:  repository.ProvideStore[domain.Visit](p.DB),
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (domain.Visit, error) {
	clientID, err := parseID(req.ClientID)
	if err != nil {
		return domain.Visit{}, domain.ErrInvalidClient
	}
	outcome := domain.Outcome(strings.ToLower(strings.TrimSpace(req.Outcome)))
	if !outcome.Valid() {
		return domain.Visit{}, domain.ErrInvalidOutcome
	}

	actor := actorcontext.ActorOrSystem(ctx)
	var collectorID snowflake.ID
	if actor.IsCollector() {
		collectorID = actor.ID
	} else if collectorID, err = parseID(req.CollectorID); err != nil {
		return domain.Visit{}, domain.ErrInvalidCollector
	}

	var paymentID *snowflake.ID
	if raw := strings.TrimSpace(req.PaymentID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return domain.Visit{}, domain.ErrInvalidPayment
		}
		paymentID = &id
	}
	if outcome == domain.OutcomePaid && paymentID == nil {
		return domain.Visit{}, domain.ErrMissingPayment
	}

	client, err := s.clientSvc.Lookup(ctx, nil, clientID)
	if err != nil {
		return domain.Visit{}, err
	}
	if client == nil {
		return domain.Visit{}, domain.ErrClientNotFound
	}
	if actor.IsCollector() && (client.AssignedCollectorID == nil || *client.AssignedCollectorID != actor.ID) {
		return domain.Visit{}, domain.ErrClientNotFound
	}

	if paymentID != nil {
		detail, err := s.paymentSvc.Get(ctx, paymentID.String())
		if errors.Is(err, paymentdomain.ErrNotFound) {
			return domain.Visit{}, domain.ErrPaymentNotFound
		}
		if err != nil {
			return domain.Visit{}, err
		}
		if detail.ClientID != clientID {
			return domain.Visit{}, domain.ErrInvalidPayment
		}
	}

	visit := domain.Visit{
		ID:          s.genID.Generate(),
		ClientID:    clientID,
		CollectorID: collectorID,
		Outcome:     outcome,
		Notes:       strings.TrimSpace(req.Notes),
		PaymentID:   paymentID,
		VisitedAt:   s.clock.Now().UTC(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.visitrepo.WithTrx(tx).Create(ctx, &visit); err != nil {
			return dbpkg.Wrap("visit.create", err)
		}
		detail := map[string]any{
			"client_id":    clientID.String(),
			"collector_id": collectorID.String(),
			"outcome":      string(outcome),
		}
		if paymentID != nil {
			detail["payment_id"] = paymentID.String()
		}
		s.auditSvc.Record(ctx, tx, auditdomain.Event{
			EntityName: "visit",
			EntityID:   visit.ID.String(),
			Action:     auditdomain.ActionCreate,
			Detail:     detail,
		})
		return nil
	})
	if err != nil {
		return domain.Visit{}, err
	}
	return visit, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Visit, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	opts := []option.QueryOption{
		option.WithOrder("visited_at", true),
		option.WithLimit(limit),
	}

	if raw := strings.TrimSpace(req.ClientID); raw != "" {
		clientID, err := parseID(raw)
		if err != nil {
			return nil, domain.ErrInvalidClient
		}
		opts = append(opts, option.WithWhere("client_id = ?", clientID))
	}
	if actor, ok := actorcontext.FromContext(ctx); ok && actor.IsCollector() {
		opts = append(opts, option.WithWhere("collector_id = ?", actor.ID))
	} else if raw := strings.TrimSpace(req.CollectorID); raw != "" {
		collectorID, err := parseID(raw)
		if err != nil {
			return nil, domain.ErrInvalidCollector
		}
		opts = append(opts, option.WithWhere("collector_id = ?", collectorID))
	}

	items, err := s.visitrepo.Find(ctx, nil, opts...)
	if err != nil {
		return nil, dbpkg.Wrap("visit.list", err)
	}
	visits := make([]domain.Visit, 0, len(items))
	for _, item := range items {
		visits = append(visits, *item)
	}
	return visits, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
