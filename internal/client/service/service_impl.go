package service

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/recaudo/internal/actorcontext"
	auditdomain "github.com/smallbiznis/recaudo/internal/audit/domain"
	"github.com/smallbiznis/recaudo/internal/client/domain"
	"github.com/smallbiznis/recaudo/internal/clock"
	"github.com/smallbiznis/recaudo/internal/config"
	"github.com/smallbiznis/recaudo/internal/servicetype"
	dbpkg "github.com/smallbiznis/recaudo/pkg/db"
	"github.com/smallbiznis/recaudo/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Zones   domain.ZoneLookup
	Audit   auditdomain.Recorder
	Billing *config.BillingConfigHolder `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	zones   domain.ZoneLookup
	audit   auditdomain.Recorder
	billing *config.BillingConfigHolder
}

func New(p Params) domain.Service {
	billing := p.Billing
	if billing == nil {
		billing = config.NewStaticBillingConfigHolder(config.DefaultBillingConfig())
	}
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("client.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		zones:   p.Zones,
		audit:   p.Audit,
		billing: billing,
	}
}

func (s *Service) CreateClient(ctx context.Context, req domain.CreateClientRequest) (domain.Client, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Client{}, domain.ErrInvalidName
	}
	dni := strings.TrimSpace(req.DNI)
	if !validDNI(dni) {
		return domain.Client{}, domain.ErrInvalidDNI
	}
	zoneID, err := optionalID(req.ZoneID, domain.ErrInvalidZone)
	if err != nil {
		return domain.Client{}, err
	}
	sedeID, err := optionalID(req.SedeID, domain.ErrInvalidSede)
	if err != nil {
		return domain.Client{}, err
	}
	collectorID, err := optionalID(req.CollectorID, domain.ErrInvalidCollector)
	if err != nil {
		return domain.Client{}, err
	}

	now := s.clock.Now().UTC()
	client := domain.Client{
		ID:                  s.genID.Generate(),
		Code:                s.newCode(now),
		Name:                name,
		DNI:                 dni,
		Phone:               strings.TrimSpace(req.Phone),
		Address:             strings.TrimSpace(req.Address),
		ZoneID:              zoneID,
		SedeID:              sedeID,
		AssignedCollectorID: collectorID,
		Active:              true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkZone(ctx, tx, zoneID); err != nil {
			return err
		}
		if sedeID != nil {
			ok, err := s.repo.SedeExists(ctx, tx, *sedeID)
			if err != nil {
				return dbpkg.Wrap("client.sede_exists", err)
			}
			if !ok {
				return domain.ErrInvalidSede
			}
		}
		taken, err := s.repo.DNIExists(ctx, tx, dni)
		if err != nil {
			return dbpkg.Wrap("client.dni_exists", err)
		}
		if taken {
			return domain.ErrDNITaken
		}
		if err := s.repo.InsertClient(ctx, tx, &client); err != nil {
			if dbpkg.IsDuplicateKeyErr(err) {
				return domain.ErrDNITaken
			}
			return dbpkg.Wrap("client.insert", err)
		}

		s.audit.Record(ctx, tx, auditdomain.Event{
			EntityName: "client",
			EntityID:   client.ID.String(),
			Action:     auditdomain.ActionCreate,
			Detail: map[string]any{
				"code": client.Code,
				"name": client.Name,
				"dni":  client.DNI,
			},
		})
		return nil
	})
	if err != nil {
		return domain.Client{}, err
	}
	return client, nil
}

func (s *Service) newCode(now time.Time) string {
	prefix := strings.ToUpper(strings.TrimSpace(s.billing.Get().ClientCodePrefix))
	if prefix == "" {
		prefix = config.DefaultBillingConfig().ClientCodePrefix
	}
	return prefix + "-" + ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}

func (s *Service) checkZone(ctx context.Context, tx *gorm.DB, zoneID *snowflake.ID) error {
	if zoneID == nil {
		return nil
	}
	ok, err := s.zones.ZoneExists(ctx, tx, *zoneID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidZone
	}
	return nil
}

func (s *Service) GetClient(ctx context.Context, id string) (domain.Client, error) {
	clientID, err := parseID(id)
	if err != nil {
		return domain.Client{}, err
	}
	client, err := s.repo.FindClient(ctx, s.db, clientID)
	if err != nil {
		return domain.Client{}, dbpkg.Wrap("client.find", err)
	}
	if client == nil || !visibleTo(ctx, client) {
		return domain.Client{}, domain.ErrNotFound
	}
	return *client, nil
}

func (s *Service) Lookup(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Client, error) {
	if db == nil {
		db = s.db
	}
	client, err := s.repo.FindClient(ctx, db, id)
	if err != nil {
		return nil, dbpkg.Wrap("client.find", err)
	}
	return client, nil
}

func (s *Service) ListClients(ctx context.Context, req domain.ListClientsRequest) (domain.ListClientsResponse, error) {
	page := req.Pagination.Normalize()
	filter := domain.ListClientsFilter{Limit: page.PageSize}

	var err error
	if filter.SedeID, err = optionalID(req.SedeID, domain.ErrInvalidSede); err != nil {
		return domain.ListClientsResponse{}, err
	}
	if filter.CollectorID, err = optionalID(req.CollectorID, domain.ErrInvalidCollector); err != nil {
		return domain.ListClientsResponse{}, err
	}
	if filter.ZoneID, err = optionalID(req.ZoneID, domain.ErrInvalidZone); err != nil {
		return domain.ListClientsResponse{}, err
	}
	if actor, ok := actorcontext.FromContext(ctx); ok && actor.IsCollector() {
		collectorID := actor.ID
		filter.CollectorID = &collectorID
	}

	if token := strings.TrimSpace(page.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return domain.ListClientsResponse{}, domain.ErrInvalidPageToken
		}
		afterID, err := snowflake.ParseString(cursor.ID)
		if err != nil || afterID == 0 {
			return domain.ListClientsResponse{}, domain.ErrInvalidPageToken
		}
		filter.AfterID = &afterID
	}

	items, err := s.repo.ListClients(ctx, s.db, filter)
	if err != nil {
		return domain.ListClientsResponse{}, dbpkg.Wrap("client.list", err)
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, page.PageSize, func(c *domain.Client) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: c.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})

	clients := make([]domain.Client, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		clients = append(clients, *item)
	}
	return domain.ListClientsResponse{PageInfo: pageInfo, Clients: clients}, nil
}

func (s *Service) UpdateClient(ctx context.Context, id string, req domain.UpdateClientRequest) (domain.Client, error) {
	clientID, err := parseID(id)
	if err != nil {
		return domain.Client{}, err
	}

	fields := map[string]any{}
	var zoneID *snowflake.ID
	if req.ZoneID != nil {
		if zoneID, err = optionalID(*req.ZoneID, domain.ErrInvalidZone); err != nil {
			return domain.Client{}, err
		}
		fields["zone_id"] = zoneID
	}
	if req.CollectorID != nil {
		collectorID, err := optionalID(*req.CollectorID, domain.ErrInvalidCollector)
		if err != nil {
			return domain.Client{}, err
		}
		fields["assigned_collector_id"] = collectorID
	}
	if req.Phone != nil {
		fields["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		fields["address"] = strings.TrimSpace(*req.Address)
	}
	if req.Active != nil {
		fields["active"] = *req.Active
	}

	var updated domain.Client
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindClient(ctx, tx, clientID)
		if err != nil {
			return dbpkg.Wrap("client.find", err)
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		if len(fields) == 0 {
			updated = *existing
			return nil
		}
		if err := s.checkZone(ctx, tx, zoneID); err != nil {
			return err
		}

		fields["updated_at"] = s.clock.Now().UTC()
		if err := s.repo.UpdateClient(ctx, tx, clientID, fields); err != nil {
			return dbpkg.Wrap("client.update", err)
		}
		fresh, err := s.repo.FindClient(ctx, tx, clientID)
		if err != nil {
			return dbpkg.Wrap("client.find", err)
		}
		updated = *fresh

		s.audit.Record(ctx, tx, auditdomain.Event{
			EntityName: "client",
			EntityID:   clientID.String(),
			Action:     auditdomain.ActionUpdate,
			Detail:     auditFields(fields),
		})
		return nil
	})
	if err != nil {
		return domain.Client{}, err
	}
	return updated, nil
}

func (s *Service) AddService(ctx context.Context, clientID string, req domain.AddServiceRequest) (domain.ClientService, error) {
	ownerID, err := parseID(clientID)
	if err != nil {
		return domain.ClientService{}, err
	}
	serviceType, err := servicetype.Parse(req.ServiceType)
	if err != nil {
		return domain.ClientService{}, err
	}
	if !req.MonthlyPrice.IsPositive() {
		return domain.ClientService{}, domain.ErrInvalidMonthlyPrice
	}

	now := s.clock.Now().UTC()
	startedAt := clock.Date(now)
	if raw := strings.TrimSpace(req.StartedAt); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return domain.ClientService{}, domain.ErrInvalidStartedAt
		}
		startedAt = parsed
	}

	service := domain.ClientService{
		ID:           s.genID.Generate(),
		ClientID:     ownerID,
		ServiceType:  serviceType,
		MonthlyPrice: req.MonthlyPrice.Round(2),
		Status:       domain.ServiceActive,
		StartedAt:    startedAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		client, err := s.repo.FindClient(ctx, tx, ownerID)
		if err != nil {
			return dbpkg.Wrap("client.find", err)
		}
		if client == nil {
			return domain.ErrNotFound
		}
		if !client.Active {
			return domain.ErrClientInactive
		}
		active, err := s.repo.CountActiveServices(ctx, tx, ownerID, string(serviceType), 0)
		if err != nil {
			return dbpkg.Wrap("client.count_services", err)
		}
		if active > 0 {
			return domain.ErrDuplicateActive
		}
		if err := s.repo.InsertService(ctx, tx, &service); err != nil {
			if dbpkg.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateActive
			}
			return dbpkg.Wrap("client.insert_service", err)
		}

		s.audit.Record(ctx, tx, auditdomain.Event{
			EntityName: "service",
			EntityID:   service.ID.String(),
			Action:     auditdomain.ActionCreate,
			Detail: map[string]any{
				"client_id":     ownerID.String(),
				"service_type":  string(serviceType),
				"monthly_price": service.MonthlyPrice.StringFixed(2),
			},
		})
		return nil
	})
	if err != nil {
		return domain.ClientService{}, err
	}
	return service, nil
}

func (s *Service) ChangeServiceStatus(ctx context.Context, serviceID string, status string) (domain.ClientService, error) {
	id, err := parseID(serviceID)
	if err != nil {
		return domain.ClientService{}, err
	}
	target := domain.ServiceStatus(strings.ToLower(strings.TrimSpace(status)))
	if !target.Valid() {
		return domain.ClientService{}, domain.ErrInvalidStatus
	}

	var updated domain.ClientService
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		service, err := s.repo.FindService(ctx, tx, id)
		if err != nil {
			return dbpkg.Wrap("client.find_service", err)
		}
		if service == nil {
			return domain.ErrServiceNotFound
		}
		if !domain.CanTransition(service.Status, target) {
			return domain.ErrInvalidTransition
		}
		if target == domain.ServiceActive {
			active, err := s.repo.CountActiveServices(ctx, tx, service.ClientID, string(service.ServiceType), service.ID)
			if err != nil {
				return dbpkg.Wrap("client.count_services", err)
			}
			if active > 0 {
				return domain.ErrDuplicateActive
			}
		}

		now := s.clock.Now().UTC()
		if err := s.repo.UpdateServiceStatus(ctx, tx, id, target, map[string]any{"updated_at": now}); err != nil {
			if dbpkg.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateActive
			}
			return dbpkg.Wrap("client.update_service", err)
		}

		s.audit.Record(ctx, tx, auditdomain.Event{
			EntityName: "service",
			EntityID:   id.String(),
			Action:     auditdomain.ActionUpdate,
			Detail: map[string]any{
				"from": string(service.Status),
				"to":   string(target),
			},
		})

		service.Status = target
		service.UpdatedAt = now
		updated = *service
		return nil
	})
	if err != nil {
		return domain.ClientService{}, err
	}
	return updated, nil
}

func (s *Service) ListServices(ctx context.Context, clientID string) ([]domain.ClientService, error) {
	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	services, err := s.repo.ListServices(ctx, s.db, client.ID)
	if err != nil {
		return nil, dbpkg.Wrap("client.list_services", err)
	}
	return services, nil
}

func (s *Service) ListActiveServices(ctx context.Context) ([]domain.ActiveService, error) {
	services, err := s.repo.ListActiveServices(ctx, s.db)
	if err != nil {
		return nil, dbpkg.Wrap("client.list_active_services", err)
	}
	return services, nil
}

func visibleTo(ctx context.Context, client *domain.Client) bool {
	actor, ok := actorcontext.FromContext(ctx)
	if !ok || !actor.IsCollector() {
		return true
	}
	return client.AssignedCollectorID != nil && *client.AssignedCollectorID == actor.ID
}

func validDNI(dni string) bool {
	if len(dni) != 8 {
		return false
	}
	for _, r := range dni {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func optionalID(value string, invalid error) (*snowflake.ID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(value)
	if err != nil || id == 0 {
		return nil, invalid
	}
	return &id, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func auditFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch value := v.(type) {
		case *snowflake.ID:
			if value == nil {
				out[k] = nil
			} else {
				out[k] = value.String()
			}
		case time.Time:
			out[k] = value.Format(time.RFC3339)
		case bool:
			out[k] = strconv.FormatBool(value)
		default:
			out[k] = value
		}
	}
	return out
}
