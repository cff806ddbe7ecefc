package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	auditdomain "github.com/smallbiznis/recaudo/internal/audit/domain"
	"github.com/smallbiznis/recaudo/internal/clock"
	"github.com/smallbiznis/recaudo/internal/sede/domain"
	dbpkg "github.com/smallbiznis/recaudo/pkg/db"
	"github.com/smallbiznis/recaudo/pkg/db/option"
	"github.com/smallbiznis/recaudo/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Audit auditdomain.Recorder
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	audit auditdomain.Recorder
	repo  repository.Repository[domain.Sede]
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("sede.service"),
		genID: p.GenID,
		clock: p.Clock,
		audit: p.Audit,
		repo:  repository.ProvideStore[domain.Sede](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.Sede, error) {
	sede, err := s.build(req)
	if err != nil {
		return domain.Sede{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTrx(tx).Create(ctx, &sede); err != nil {
			if dbpkg.IsDuplicateKeyErr(err) {
				return domain.ErrCodeTaken
			}
			return dbpkg.Wrap("sede.create", err)
		}
		s.audit.Record(ctx, tx, auditdomain.Event{
			EntityName: "sede",
			EntityID:   sede.ID.String(),
			Action:     auditdomain.ActionCreate,
			Detail:     map[string]any{"code": sede.Code, "name": sede.Name},
		})
		return nil
	})
	if err != nil {
		return domain.Sede{}, err
	}
	return sede, nil
}

func (s *Service) Ensure(ctx context.Context, req domain.CreateRequest) (domain.Sede, error) {
	code := slug.Make(strings.TrimSpace(req.Name))
	if code == "" {
		return domain.Sede{}, domain.ErrInvalidName
	}
	existing, err := s.repo.FindOne(ctx, &domain.Sede{Code: code})
	if err != nil {
		return domain.Sede{}, dbpkg.Wrap("sede.find", err)
	}
	if existing != nil {
		return *existing, nil
	}
	return s.Create(ctx, req)
}

func (s *Service) build(req domain.CreateRequest) (domain.Sede, error) {
	name := strings.TrimSpace(req.Name)
	code := slug.Make(name)
	if name == "" || code == "" {
		return domain.Sede{}, domain.ErrInvalidName
	}
	return domain.Sede{
		ID:        s.genID.Generate(),
		Code:      code,
		Name:      name,
		Address:   strings.TrimSpace(req.Address),
		Phone:     strings.TrimSpace(req.Phone),
		Active:    true,
		CreatedAt: s.clock.Now().UTC(),
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Sede, error) {
	sedeID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || sedeID == 0 {
		return domain.Sede{}, domain.ErrInvalidID
	}
	sede, err := s.repo.FindOne(ctx, &domain.Sede{ID: sedeID})
	if err != nil {
		return domain.Sede{}, dbpkg.Wrap("sede.find", err)
	}
	if sede == nil {
		return domain.Sede{}, domain.ErrNotFound
	}
	return *sede, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]domain.Sede, error) {
	opts := []option.QueryOption{option.WithOrder("name", false)}
	if activeOnly {
		opts = append(opts, option.WithWhere("active = ?", true))
	}
	items, err := s.repo.Find(ctx, nil, opts...)
	if err != nil {
		return nil, dbpkg.Wrap("sede.list", err)
	}
	out := make([]domain.Sede, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out, nil
}
