package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/recaudo/internal/audit/domain"
	"github.com/smallbiznis/recaudo/internal/cache"
	"github.com/smallbiznis/recaudo/internal/clock"
	"github.com/smallbiznis/recaudo/internal/config"
	obsmetrics "github.com/smallbiznis/recaudo/internal/observability/metrics"
	"github.com/smallbiznis/recaudo/internal/servicetype"
	"github.com/smallbiznis/recaudo/internal/tariff/domain"
	dbpkg "github.com/smallbiznis/recaudo/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Zones     domain.ZoneLookup
	Audit     auditdomain.Recorder
	Billing   *config.BillingConfigHolder `optional:"true"`
	Metrics   *obsmetrics.DomainMetrics   `optional:"true"`
	CacheMode domain.CacheMode            `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	zones   domain.ZoneLookup
	audit   auditdomain.Recorder
	metrics *obsmetrics.DomainMetrics
	cache   *cache.TariffCache[domain.Resolution]
}

func New(p Params) domain.Service {
	ttl := config.DefaultBillingConfig().TariffCacheTTL()
	if p.Billing != nil {
		ttl = p.Billing.Get().TariffCacheTTL()
	}
	var resolutions *cache.TariffCache[domain.Resolution]
	if ttl > 0 && p.CacheMode != domain.CacheOff {
		resolutions = cache.NewTariffCache[domain.Resolution](ttl, cache.WithNow(p.Clock.Now))
	}

	return &Service{
		db:      p.DB,
		log:     p.Log.Named("tariff.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		zones:   p.Zones,
		audit:   p.Audit,
		metrics: p.Metrics,
		cache:   resolutions,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.Tariff, error) {
	zoneID, err := parseID(req.ZoneID)
	if err != nil {
		return domain.Tariff{}, domain.ErrInvalidZone
	}
	serviceType, err := servicetype.Parse(req.ServiceType)
	if err != nil {
		return domain.Tariff{}, err
	}
	if !req.BasePrice.IsPositive() {
		return domain.Tariff{}, domain.ErrInvalidPrice
	}
	effectiveFrom, err := time.Parse(time.DateOnly, strings.TrimSpace(req.EffectiveFrom))
	if err != nil {
		return domain.Tariff{}, domain.ErrInvalidEffectiveFrom
	}

	tariff := domain.Tariff{
		ID:            s.genID.Generate(),
		ZoneID:        zoneID,
		ServiceType:   serviceType,
		BasePrice:     req.BasePrice.Round(2),
		EffectiveFrom: clock.Date(effectiveFrom),
		Active:        true,
		CreatedAt:     s.clock.Now().UTC(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.zones.ZoneExists(ctx, tx, zoneID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidZone
		}

		exists, err := s.repo.ExistsActive(ctx, tx, zoneID, serviceType, tariff.EffectiveFrom)
		if err != nil {
			return dbpkg.Wrap("tariff.exists", err)
		}
		if exists {
			return domain.ErrConflict
		}
		if err := s.repo.Insert(ctx, tx, &tariff); err != nil {
			if dbpkg.IsDuplicateKeyErr(err) {
				return domain.ErrConflict
			}
			return dbpkg.Wrap("tariff.insert", err)
		}

		s.audit.Record(ctx, tx, auditdomain.Event{
			EntityName: "tariff",
			EntityID:   tariff.ID.String(),
			Action:     auditdomain.ActionCreate,
			Detail: map[string]any{
				"zone_id":        tariff.ZoneID.String(),
				"service_type":   string(tariff.ServiceType),
				"base_price":     tariff.BasePrice.StringFixed(2),
				"effective_from": tariff.EffectiveFrom.Format(time.DateOnly),
			},
		})
		return nil
	})
	if err != nil {
		return domain.Tariff{}, err
	}

	s.cache.Purge()
	return tariff, nil
}

func (s *Service) Deactivate(ctx context.Context, id string) (domain.Tariff, error) {
	tariffID, err := parseID(id)
	if err != nil {
		return domain.Tariff{}, domain.ErrInvalidID
	}

	var tariff domain.Tariff
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, tariffID)
		if err != nil {
			return dbpkg.Wrap("tariff.find", err)
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		if !existing.Active {
			return domain.ErrAlreadyInactive
		}
		if err := s.repo.Deactivate(ctx, tx, tariffID); err != nil {
			return dbpkg.Wrap("tariff.deactivate", err)
		}
		existing.Active = false
		tariff = *existing

		s.audit.Record(ctx, tx, auditdomain.Event{
			EntityName: "tariff",
			EntityID:   tariff.ID.String(),
			Action:     auditdomain.ActionUpdate,
			Detail:     map[string]any{"active": false},
		})
		return nil
	})
	if err != nil {
		return domain.Tariff{}, err
	}

	s.cache.Purge()
	return tariff, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Tariff, error) {
	filter := domain.ListFilter{ActiveOnly: req.ActiveOnly}
	if raw := strings.TrimSpace(req.ZoneID); raw != "" {
		zoneID, err := parseID(raw)
		if err != nil {
			return nil, domain.ErrInvalidZone
		}
		filter.ZoneID = &zoneID
	}
	if raw := strings.TrimSpace(req.ServiceType); raw != "" {
		serviceType, err := servicetype.Parse(raw)
		if err != nil {
			return nil, err
		}
		filter.ServiceType = serviceType
	}

	tariffs, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, dbpkg.Wrap("tariff.list", err)
	}
	return tariffs, nil
}

func (s *Service) Resolve(ctx context.Context, zoneID snowflake.ID, serviceType servicetype.Type, asOf time.Time) (domain.Resolution, error) {
	if zoneID == 0 {
		return domain.Resolution{}, domain.ErrInvalidZone
	}
	if !serviceType.Valid() {
		return domain.Resolution{}, servicetype.ErrInvalid
	}
	asOf = clock.Date(asOf)

	if cached, ok := s.cache.Get(zoneID.String(), string(serviceType), asOf); ok {
		s.metrics.IncTariffCache(true)
		return cached, nil
	}
	if s.cache != nil {
		s.metrics.IncTariffCache(false)
	}

	tariffs, err := s.repo.ListActiveFor(ctx, s.db, zoneID, serviceType)
	if err != nil {
		return domain.Resolution{}, dbpkg.Wrap("tariff.resolve", err)
	}
	selected, ok := domain.SelectEffective(tariffs, asOf)
	if !ok {
		return domain.Resolution{}, domain.ErrNoTariffFound
	}

	resolution := domain.Resolution{TariffID: selected.ID, Price: selected.BasePrice}
	s.cache.Set(zoneID.String(), string(serviceType), asOf, resolution)
	return resolution, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
