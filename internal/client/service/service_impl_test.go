package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/recaudo/internal/actorcontext"
	auditdomain "github.com/smallbiznis/recaudo/internal/audit/domain"
	"github.com/smallbiznis/recaudo/internal/audit/audittest"
	"github.com/smallbiznis/recaudo/internal/client/domain"
	"github.com/smallbiznis/recaudo/internal/client/repository"
	"github.com/smallbiznis/recaudo/internal/clock"
	"github.com/smallbiznis/recaudo/internal/config"
	sededomain "github.com/smallbiznis/recaudo/internal/sede/domain"
	"github.com/smallbiznis/recaudo/internal/servicetype"
	"github.com/smallbiznis/recaudo/pkg/db/dbtest"
	"github.com/smallbiznis/recaudo/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	zoneID    snowflake.ID = 501
	collector snowflake.ID = 9001
)

type zoneStub struct{}

func (zoneStub) ZoneExists(_ context.Context, _ *gorm.DB, id snowflake.ID) (bool, error) {
	return id == zoneID, nil
}

type fixture struct {
	svc *Service
	db  *gorm.DB
	rec *audittest.Recorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := dbtest.Open(t, &domain.Client{}, &domain.ClientService{}, &sededomain.Sede{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	billing := config.DefaultBillingConfig()
	billing.ClientCodePrefix = "mir"
	rec := audittest.NewRecorder()
	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clock.NewFakeClock(time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)),
		Repo:    repository.Provide(),
		Zones:   zoneStub{},
		Audit:   rec,
		Billing: config.NewStaticBillingConfigHolder(billing),
	}).(*Service)
	return fixture{svc: svc, db: db, rec: rec}
}

func (f fixture) client(t *testing.T, dni string, collectorID string) domain.Client {
	t.Helper()
	c, err := f.svc.CreateClient(context.Background(), domain.CreateClientRequest{
		Name:        "Cliente " + dni,
		DNI:         dni,
		Address:     "Jr. Lima 123",
		ZoneID:      zoneID.String(),
		CollectorID: collectorID,
	})
	require.NoError(t, err)
	return c
}

func TestCreateClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.client(t, "45678912", "")
	assert.True(t, strings.HasPrefix(c.Code, "MIR-"))
	assert.Len(t, c.Code, len("MIR-")+26)
	assert.True(t, c.Active)
	require.NotNil(t, c.ZoneID)

	_, err := f.svc.CreateClient(ctx, domain.CreateClientRequest{Name: "Otro", DNI: "45678912"})
	assert.ErrorIs(t, err, domain.ErrDNITaken)

	_, err = f.svc.CreateClient(ctx, domain.CreateClientRequest{Name: "Otro", DNI: "4567A912"})
	assert.ErrorIs(t, err, domain.ErrInvalidDNI)

	_, err = f.svc.CreateClient(ctx, domain.CreateClientRequest{Name: "Otro", DNI: "11112222", ZoneID: "777"})
	assert.ErrorIs(t, err, domain.ErrInvalidZone)

	_, err = f.svc.CreateClient(ctx, domain.CreateClientRequest{Name: "Otro", DNI: "11112222", SedeID: "777"})
	assert.ErrorIs(t, err, domain.ErrInvalidSede)

	_, err = f.svc.CreateClient(ctx, domain.CreateClientRequest{DNI: "11112222"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	assert.Equal(t, []auditdomain.Action{auditdomain.ActionCreate}, f.rec.Actions("client"))
}

func TestCollectorSeesOnlyAssignedClients(t *testing.T) {
	f := newFixture(t)
	mine := f.client(t, "10000001", collector.String())
	other := f.client(t, "10000002", "")

	ctx := actorcontext.WithActor(context.Background(), actorcontext.Actor{ID: collector, Role: "cobrador"})

	_, err := f.svc.GetClient(ctx, other.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	got, err := f.svc.GetClient(ctx, mine.ID.String())
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	list, err := f.svc.ListClients(ctx, domain.ListClientsRequest{})
	require.NoError(t, err)
	require.Len(t, list.Clients, 1)
	assert.Equal(t, mine.ID, list.Clients[0].ID)

	office := actorcontext.WithActor(context.Background(), actorcontext.Actor{ID: 1, Role: "oficina"})
	list, err = f.svc.ListClients(office, domain.ListClientsRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Clients, 2)
}

func TestListClientsPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, dni := range []string{"20000001", "20000002", "20000003"} {
		f.client(t, dni, "")
	}

	first, err := f.svc.ListClients(ctx, domain.ListClientsRequest{Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, first.Clients, 2)
	require.True(t, first.HasMore)

	second, err := f.svc.ListClients(ctx, domain.ListClientsRequest{Pagination: pagination.Pagination{PageSize: 2, PageToken: first.NextPageToken}})
	require.NoError(t, err)
	require.Len(t, second.Clients, 1)
	assert.False(t, second.HasMore)
	assert.Less(t, int64(second.Clients[0].ID), int64(first.Clients[1].ID))

	_, err = f.svc.ListClients(ctx, domain.ListClientsRequest{Pagination: pagination.Pagination{PageToken: "%%"}})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestUpdateClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "30000001", "")

	empty := ""
	phone := " 987654321 "
	updated, err := f.svc.UpdateClient(ctx, c.ID.String(), domain.UpdateClientRequest{
		ZoneID:      &empty,
		CollectorID: ptr(collector.String()),
		Phone:       &phone,
	})
	require.NoError(t, err)
	assert.Nil(t, updated.ZoneID)
	require.NotNil(t, updated.AssignedCollectorID)
	assert.Equal(t, collector, *updated.AssignedCollectorID)
	assert.Equal(t, "987654321", updated.Phone)

	bad := "12345"
	_, err = f.svc.UpdateClient(ctx, c.ID.String(), domain.UpdateClientRequest{ZoneID: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidZone)

	_, err = f.svc.UpdateClient(ctx, "42", domain.UpdateClientRequest{Phone: &phone})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, []auditdomain.Action{auditdomain.ActionCreate, auditdomain.ActionUpdate}, f.rec.Actions("client"))
}

func TestServicesOnePerTypeAndCancelledIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "40000001", "")

	internet, err := f.svc.AddService(ctx, c.ID.String(), domain.AddServiceRequest{
		ServiceType:  "internet",
		MonthlyPrice: decimal.RequireFromString("59.90"),
		StartedAt:    "2024-05-01",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ServiceActive, internet.Status)

	_, err = f.svc.AddService(ctx, c.ID.String(), domain.AddServiceRequest{ServiceType: "internet", MonthlyPrice: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, domain.ErrDuplicateActive)

	_, err = f.svc.AddService(ctx, c.ID.String(), domain.AddServiceRequest{ServiceType: "cable", MonthlyPrice: decimal.Zero})
	assert.ErrorIs(t, err, domain.ErrInvalidMonthlyPrice)

	cable, err := f.svc.AddService(ctx, c.ID.String(), domain.AddServiceRequest{ServiceType: "cable", MonthlyPrice: decimal.NewFromInt(30)})
	require.NoError(t, err)

	_, err = f.svc.ChangeServiceStatus(ctx, internet.ID.String(), "suspended")
	require.NoError(t, err)

	second, err := f.svc.AddService(ctx, c.ID.String(), domain.AddServiceRequest{ServiceType: "internet", MonthlyPrice: decimal.NewFromInt(70)})
	require.NoError(t, err)

	_, err = f.svc.ChangeServiceStatus(ctx, internet.ID.String(), "active")
	assert.ErrorIs(t, err, domain.ErrDuplicateActive)

	_, err = f.svc.ChangeServiceStatus(ctx, cable.ID.String(), "cancelled")
	require.NoError(t, err)
	_, err = f.svc.ChangeServiceStatus(ctx, cable.ID.String(), "active")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	active, err := f.svc.ListActiveServices(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ServiceID)
	assert.Equal(t, servicetype.Internet, active[0].ServiceType)
	require.NotNil(t, active[0].ZoneID)
	assert.Equal(t, zoneID, *active[0].ZoneID)
	assert.True(t, active[0].MonthlyPrice.Equal(decimal.NewFromInt(70)))

	all, err := f.svc.ListServices(ctx, c.ID.String())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// staleCountRepo reports no active services, as a concurrent writer would see
// before the other transaction commits.
type staleCountRepo struct{ domain.Repository }

func (staleCountRepo) CountActiveServices(context.Context, *gorm.DB, snowflake.ID, string, snowflake.ID) (int64, error) {
	return 0, nil
}

func TestActiveServiceUniqueIndexBacksCountCheck(t *testing.T) {
	f := newFixture(t)
	f.svc.repo = staleCountRepo{Repository: repository.Provide()}
	ctx := context.Background()
	c := f.client(t, "60000001", "")

	first, err := f.svc.AddService(ctx, c.ID.String(), domain.AddServiceRequest{ServiceType: "internet", MonthlyPrice: decimal.NewFromInt(50)})
	require.NoError(t, err)

	_, err = f.svc.AddService(ctx, c.ID.String(), domain.AddServiceRequest{ServiceType: "internet", MonthlyPrice: decimal.NewFromInt(60)})
	assert.ErrorIs(t, err, domain.ErrDuplicateActive)

	_, err = f.svc.ChangeServiceStatus(ctx, first.ID.String(), "suspended")
	require.NoError(t, err)
	second, err := f.svc.AddService(ctx, c.ID.String(), domain.AddServiceRequest{ServiceType: "internet", MonthlyPrice: decimal.NewFromInt(60)})
	require.NoError(t, err)

	_, err = f.svc.ChangeServiceStatus(ctx, first.ID.String(), "active")
	assert.ErrorIs(t, err, domain.ErrDuplicateActive)

	_, err = f.svc.ChangeServiceStatus(ctx, second.ID.String(), "cancelled")
	require.NoError(t, err)
	_, err = f.svc.ChangeServiceStatus(ctx, first.ID.String(), "active")
	require.NoError(t, err)

	var stored []domain.ClientService
	require.NoError(t, f.db.Order("id").Find(&stored).Error)
	require.Len(t, stored, 2)
	require.NotNil(t, stored[0].ActiveType)
	assert.Equal(t, servicetype.Internet, *stored[0].ActiveType)
	assert.Equal(t, domain.ServiceCancelled, stored[1].Status)
	assert.Nil(t, stored[1].ActiveType)
}

func TestAddServiceRejectsInactiveClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "50000001", "")

	inactive := false
	_, err := f.svc.UpdateClient(ctx, c.ID.String(), domain.UpdateClientRequest{Active: &inactive})
	require.NoError(t, err)

	_, err = f.svc.AddService(ctx, c.ID.String(), domain.AddServiceRequest{ServiceType: "internet", MonthlyPrice: decimal.NewFromInt(50)})
	assert.ErrorIs(t, err, domain.ErrClientInactive)
}

func ptr(s string) *string { return &s }
