package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/recaudo/internal/audit/audittest"
	auditdomain "github.com/smallbiznis/recaudo/internal/audit/domain"
	"github.com/smallbiznis/recaudo/internal/billingcycle/domain"
	clientdomain "github.com/smallbiznis/recaudo/internal/client/domain"
	clientrepo "github.com/smallbiznis/recaudo/internal/client/repository"
	clientservice "github.com/smallbiznis/recaudo/internal/client/service"
	"github.com/smallbiznis/recaudo/internal/clock"
	"github.com/smallbiznis/recaudo/internal/config"
	debtdomain "github.com/smallbiznis/recaudo/internal/debt/domain"
	debtrepo "github.com/smallbiznis/recaudo/internal/debt/repository"
	debtservice "github.com/smallbiznis/recaudo/internal/debt/service"
	"github.com/smallbiznis/recaudo/internal/servicetype"
	tariffdomain "github.com/smallbiznis/recaudo/internal/tariff/domain"
	tariffrepo "github.com/smallbiznis/recaudo/internal/tariff/repository"
	tariffservice "github.com/smallbiznis/recaudo/internal/tariff/service"
	"github.com/smallbiznis/recaudo/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const zoneNorte snowflake.ID = 500

type zonesStub struct{}

func (zonesStub) ZoneExists(context.Context, *gorm.DB, snowflake.ID) (bool, error) { return true, nil }

type failingTariffs struct {
	tariffdomain.Service
	err error
}

func (f failingTariffs) Resolve(context.Context, snowflake.ID, servicetype.Type, time.Time) (tariffdomain.Resolution, error) {
	return tariffdomain.Resolution{}, f.err
}

type fixture struct {
	svc   *Service
	db    *gorm.DB
	clock *clock.FakeClock
	audit *audittest.Recorder
}

func newFixture(t *testing.T, wrap func(tariffdomain.Service) tariffdomain.Service) fixture {
	t.Helper()
	db := dbtest.Open(t,
		&clientdomain.Client{},
		&clientdomain.ClientService{},
		&tariffdomain.Tariff{},
		&debtdomain.Debt{},
		&domain.BillingRun{},
	)
	fake := clock.NewFakeClock(time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	cfg := config.DefaultBillingConfig()
	cfg.Timezone = "UTC"
	cfg.GenerationConcurrency = 4
	holder := config.NewStaticBillingConfigHolder(cfg)
	rec := audittest.NewRecorder()

	var tariffs tariffdomain.Service = tariffservice.New(tariffservice.Params{
		DB: db, Log: zap.NewNop(), GenID: node, Clock: fake,
		Repo: tariffrepo.Provide(), Zones: zonesStub{}, Audit: rec, Billing: holder,
	})
	if wrap != nil {
		tariffs = wrap(tariffs)
	}
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		ClientSvc: clientservice.New(clientservice.Params{
			DB: db, Log: zap.NewNop(), GenID: node, Clock: fake,
			Repo: clientrepo.Provide(), Zones: zonesStub{}, Audit: rec, Billing: holder,
		}),
		TariffSvc: tariffs,
		DebtSvc: debtservice.New(debtservice.Params{
			DB: db, Log: zap.NewNop(), Clock: fake, Repo: debtrepo.Provide(), Audit: rec, Billing: holder,
		}),
		AuditSvc: rec,
		Billing:  holder,
	}).(*Service)
	return fixture{svc: svc, db: db, clock: fake, audit: rec}
}

func (f fixture) seed(t *testing.T) {
	t.Helper()
	zone := zoneNorte
	started := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.db.Create(&[]clientdomain.Client{
		{ID: 1, Code: "MIR-1", Name: "Ana Torres", DNI: "40000001", ZoneID: &zone, Active: true},
		{ID: 2, Code: "MIR-2", Name: "Jorge Paz", DNI: "40000002", Active: true},
	}).Error)
	require.NoError(t, f.db.Create(&[]clientdomain.ClientService{
		{ID: 11, ClientID: 1, ServiceType: servicetype.Internet, MonthlyPrice: decimal.NewFromInt(50), Status: clientdomain.ServiceActive, StartedAt: started},
		{ID: 12, ClientID: 1, ServiceType: servicetype.Cable, MonthlyPrice: decimal.NewFromInt(30), Status: clientdomain.ServiceActive, StartedAt: started},
		{ID: 21, ClientID: 2, ServiceType: servicetype.Internet, MonthlyPrice: decimal.NewFromInt(45), Status: clientdomain.ServiceActive, StartedAt: started},
		{ID: 22, ClientID: 2, ServiceType: servicetype.Cable, MonthlyPrice: decimal.NewFromInt(25), Status: clientdomain.ServiceSuspended, StartedAt: started},
	}).Error)
	require.NoError(t, f.db.Create(&[]tariffdomain.Tariff{
		{ID: 901, ZoneID: zoneNorte, ServiceType: servicetype.Internet, BasePrice: decimal.NewFromInt(60), EffectiveFrom: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Active: true},
		// Not yet in force for March.
		{ID: 902, ZoneID: zoneNorte, ServiceType: servicetype.Cable, BasePrice: decimal.NewFromInt(35), EffectiveFrom: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), Active: true},
	}).Error)
}

func (f fixture) debts(t *testing.T) map[snowflake.ID]debtdomain.Debt {
	t.Helper()
	var rows []debtdomain.Debt
	require.NoError(t, f.db.Find(&rows).Error)
	out := make(map[snowflake.ID]debtdomain.Debt, len(rows))
	for _, row := range rows {
		out[row.ServiceID] = row
	}
	return out
}

func TestGenerateCreatesOneDebtPerActiveService(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)

	result, err := f.svc.Generate(context.Background(), "2024-03", domain.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 3, result.CreatedCount)
	assert.Equal(t, 0, result.SkippedCount)
	assert.Empty(t, result.Errors)
	assert.NotEmpty(t, result.RunID)

	debts := f.debts(t)
	require.Len(t, debts, 3)
	assert.Equal(t, "60.00", debts[11].Amount.StringFixed(2), "zone tariff")
	assert.Equal(t, "30.00", debts[12].Amount.StringFixed(2), "future tariff falls back to the service price")
	assert.Equal(t, "45.00", debts[21].Amount.StringFixed(2), "no zone")
	assert.NotContains(t, debts, snowflake.ID(22))

	d := debts[11]
	assert.Equal(t, debtdomain.StatusPending, d.Status)
	assert.True(t, d.PaidAmount.IsZero())
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), d.DueDate.UTC())
	assert.Equal(t, snowflake.ID(1), d.ClientID)

	assert.Equal(t, []auditdomain.Action{auditdomain.ActionCreate}, f.audit.Actions("billing_run"))
}

func TestGenerateIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)
	ctx := context.Background()

	_, err := f.svc.Generate(ctx, "2024-03", domain.TriggerScheduler)
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	again, err := f.svc.Generate(ctx, "2024-03-20", domain.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 0, again.CreatedCount)
	assert.Equal(t, 3, again.SkippedCount)
	assert.Len(t, f.debts(t), 3)

	runs, err := f.svc.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, domain.TriggerManual, runs[0].Trigger)
	assert.Equal(t, 3, runs[0].SkippedCount)
	assert.Equal(t, domain.TriggerScheduler, runs[1].Trigger)
}

func TestGenerateCollectsPerServiceErrors(t *testing.T) {
	boom := errors.New("tariff store unavailable")
	f := newFixture(t, func(s tariffdomain.Service) tariffdomain.Service {
		return failingTariffs{Service: s, err: boom}
	})
	f.seed(t)

	result, err := f.svc.Generate(context.Background(), "2024-03", domain.TriggerManual)
	require.NoError(t, err)
	// Both services of the zoned client fail; the unzoned one is billed.
	assert.Equal(t, 1, result.CreatedCount)
	require.Len(t, result.Errors, 2)
	for _, genErr := range result.Errors {
		assert.Equal(t, "tariff_resolution_failed", genErr.Code)
		assert.Contains(t, []string{"11", "12"}, genErr.ServiceID)
	}

	runs, err := f.svc.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].ErrorCount)
	assert.Len(t, runs[0].Errors, 2)
}

func TestGenerateStopsOnCancelledContext(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.svc.Generate(ctx, "2024-03", domain.TriggerManual)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, result.CreatedCount)
	assert.Empty(t, f.debts(t))
}

func TestGenerateRejectsBadInput(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Generate(context.Background(), "March", domain.TriggerManual)
	assert.ErrorIs(t, err, domain.ErrInvalidBillingMonth)
	_, err = f.svc.Generate(context.Background(), "2024-03", domain.Trigger("cron"))
	assert.ErrorIs(t, err, domain.ErrInvalidTrigger)
}
