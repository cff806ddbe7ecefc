package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/recaudo/internal/actorcontext"
	auditdomain "github.com/smallbiznis/recaudo/internal/audit/domain"
	"github.com/smallbiznis/recaudo/internal/audit/masking"
	"github.com/smallbiznis/recaudo/internal/clock"
	obsmetrics "github.com/smallbiznis/recaudo/internal/observability/metrics"
	"github.com/smallbiznis/recaudo/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    auditdomain.Repository
	Metrics *obsmetrics.DomainMetrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    auditdomain.Repository
	metrics *obsmetrics.DomainMetrics
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("audit.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

// Record appends inside a nested transaction on db. A failed insert rolls back
// only its savepoint; the caller's transaction and result are unaffected.
func (s *Service) Record(ctx context.Context, db *gorm.DB, event auditdomain.Event) {
	if db == nil {
		db = s.db
	}
	entityName := strings.TrimSpace(event.EntityName)
	if !event.Action.Valid() || entityName == "" {
		s.fail(entityName, event, auditdomain.ErrInvalidAction)
		return
	}

	actor := actorcontext.ActorOrSystem(ctx)
	entry := auditdomain.AuditEntry{
		ID:         s.genID.Generate(),
		Timestamp:  s.clock.Now().UTC(),
		ActorID:    actor.AuditID(),
		EntityName: entityName,
		EntityID:   strings.TrimSpace(event.EntityID),
		Action:     event.Action,
		Detail:     datatypes.JSONMap(masking.MaskFields(event.Detail, masking.SensitiveKeys...)),
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, &entry)
	})
	if err != nil {
		s.fail(entityName, event, err)
	}
}

func (s *Service) fail(entityName string, event auditdomain.Event, err error) {
	s.metrics.IncAuditWriteFailure(entityName)
	s.log.Error("audit write failed",
		zap.String("entity_name", entityName),
		zap.String("entity_id", event.EntityID),
		zap.String("action", string(event.Action)),
		zap.Error(err),
	)
}

func (s *Service) List(ctx context.Context, req auditdomain.ListRequest) (auditdomain.ListResponse, error) {
	action := auditdomain.Action(strings.ToUpper(strings.TrimSpace(req.Action)))
	if action != "" && !action.Valid() {
		return auditdomain.ListResponse{}, auditdomain.ErrInvalidAction
	}

	var cursor *auditdomain.AuditCursor
	if token := strings.TrimSpace(req.PageToken); token != "" {
		decoded, err := decodeCursor(token)
		if err != nil {
			return auditdomain.ListResponse{}, auditdomain.ErrInvalidPageToken
		}
		cursor = decoded
	}

	page := req.Pagination.Normalize()
	items, err := s.repo.List(ctx, s.db, auditdomain.ListFilter{
		EntityName: req.EntityName,
		EntityID:   req.EntityID,
		Action:     action,
		ActorID:    req.ActorID,
		Cursor:     cursor,
		Limit:      page.PageSize,
	})
	if err != nil {
		return auditdomain.ListResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, page.PageSize, func(e *auditdomain.AuditEntry) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        e.ID.String(),
			CreatedAt: e.Timestamp.UTC().Format(time.RFC3339Nano),
		})
		return token
	})

	entries := make([]auditdomain.AuditEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, *item)
	}
	return auditdomain.ListResponse{PageInfo: pageInfo, Entries: entries}, nil
}

func decodeCursor(token string) (*auditdomain.AuditCursor, error) {
	decoded, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
	if err != nil {
		return nil, err
	}
	id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
	if err != nil || id == 0 {
		return nil, fmt.Errorf("invalid cursor id %q", decoded.ID)
	}
	return &auditdomain.AuditCursor{ID: id, Timestamp: ts}, nil
}
