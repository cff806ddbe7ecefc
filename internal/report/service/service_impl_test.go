package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/recaudo/internal/actorcontext"
	clientdomain "github.com/smallbiznis/recaudo/internal/client/domain"
	"github.com/smallbiznis/recaudo/internal/clock"
	"github.com/smallbiznis/recaudo/internal/config"
	debtdomain "github.com/smallbiznis/recaudo/internal/debt/domain"
	paymentdomain "github.com/smallbiznis/recaudo/internal/payment/domain"
	"github.com/smallbiznis/recaudo/internal/report/domain"
	"github.com/smallbiznis/recaudo/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	sedeCentro snowflake.ID = 10
	sedeSur    snowflake.ID = 20
	collector  snowflake.ID = 77
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := dbtest.Open(t, &clientdomain.Client{}, &debtdomain.Debt{}, &paymentdomain.Payment{})
	fake := clock.NewFakeClock(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC))
	cfg := config.DefaultBillingConfig()
	cfg.Timezone = "UTC"

	centro, sur, col := sedeCentro, sedeSur, collector
	require.NoError(t, db.Create(&[]clientdomain.Client{
		{ID: 1, Code: "MIR-1", Name: "Ana", DNI: "30000001", SedeID: &centro, AssignedCollectorID: &col, Active: true},
		{ID: 2, Code: "MIR-2", Name: "Beto", DNI: "30000002", SedeID: &centro, Active: true},
		{ID: 3, Code: "MIR-3", Name: "Carla", DNI: "30000003", SedeID: &sur, Active: true},
	}).Error)
	// Client 3 is inactive; the column defaults to true on insert.
	require.NoError(t, db.Model(&clientdomain.Client{}).Where("id = ?", 3).Update("active", false).Error)

	m := func(month time.Month) time.Time { return time.Date(2024, month, 1, 0, 0, 0, 0, time.UTC) }
	debt := func(id, client snowflake.ID, month time.Month, amount, paid int64) debtdomain.Debt {
		return debtdomain.Debt{
			ID: id, ServiceID: id, ClientID: client, BillingMonth: m(month),
			Amount: decimal.NewFromInt(amount), PaidAmount: decimal.NewFromInt(paid),
			DueDate: m(month).AddDate(0, 0, 14), Status: debtdomain.StatusPending,
		}
	}
	require.NoError(t, db.Create(&[]debtdomain.Debt{
		debt(101, 1, time.January, 50, 0),
		debt(102, 1, time.February, 50, 20),
		debt(103, 1, time.March, 50, 50),
		debt(201, 2, time.March, 80, 0),
		debt(202, 2, time.April, 80, 0),
		debt(301, 3, time.February, 40, 10),
	}).Error)

	validatedAt := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2024, 2, 25, 10, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&[]paymentdomain.Payment{
		{ID: 1, ClientID: 1, Amount: decimal.NewFromInt(70), Method: paymentdomain.MethodCash, ValidationStatus: paymentdomain.StatusValidated, ValidatedAt: &validatedAt},
		{ID: 2, ClientID: 3, Amount: decimal.NewFromInt(10), Method: paymentdomain.MethodCash, ValidationStatus: paymentdomain.StatusValidated, ValidatedAt: &lastMonth},
		{ID: 3, ClientID: 2, Amount: decimal.NewFromInt(15), Method: paymentdomain.MethodCash, ValidationStatus: paymentdomain.StatusPending},
		{ID: 4, ClientID: 2, Amount: decimal.NewFromInt(15), Method: paymentdomain.MethodYape, ValidationStatus: paymentdomain.StatusValidated, ValidatedAt: &validatedAt, Cancelled: true},
	}).Error)

	return New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		Clock:   fake,
		Billing: config.NewStaticBillingConfigHolder(cfg),
	}).(*Service)
}

func TestDashboard(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.Dashboard(context.Background(), domain.DashboardRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-20", got.AsOf)
	assert.Equal(t, int64(3), got.TotalClients)
	assert.Equal(t, int64(2), got.ActiveClients)
	// 50 + 30 + 80 + 30; April is not billed yet.
	assert.Equal(t, "190.00", got.TotalDebt.StringFixed(2))
	assert.Equal(t, "70.00", got.MonthlyRevenue.StringFixed(2))
	assert.Equal(t, int64(1), got.PendingPayments)
}

func TestDashboardScopes(t *testing.T) {
	svc := newTestService(t)

	sur, err := svc.Dashboard(context.Background(), domain.DashboardRequest{SedeID: sedeSur.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), sur.TotalClients)
	assert.Equal(t, "30.00", sur.TotalDebt.StringFixed(2))

	centro := sedeCentro
	office := actorcontext.WithActor(context.Background(), actorcontext.Actor{ID: 5, Role: actorcontext.RoleOffice, SedeID: &centro})
	pinned, err := svc.Dashboard(office, domain.DashboardRequest{SedeID: sedeSur.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), pinned.TotalClients, "office staff stay in their sede")

	col := actorcontext.WithActor(context.Background(), actorcontext.Actor{ID: collector, Role: actorcontext.RoleCollector})
	mine, err := svc.Dashboard(col, domain.DashboardRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), mine.TotalClients)
	assert.Equal(t, "80.00", mine.TotalDebt.StringFixed(2))

	_, err = svc.Dashboard(context.Background(), domain.DashboardRequest{AsOf: "20-03-2024"})
	assert.ErrorIs(t, err, domain.ErrInvalidAsOf)
	_, err = svc.Dashboard(context.Background(), domain.DashboardRequest{SedeID: "centro"})
	assert.ErrorIs(t, err, domain.ErrInvalidSede)
}

func TestDebtorsOrderedByBalance(t *testing.T) {
	svc := newTestService(t)

	debtors, err := svc.Debtors(context.Background(), domain.DebtorsRequest{})
	require.NoError(t, err)
	require.Len(t, debtors, 3)

	assert.Equal(t, "1", debtors[0].ClientID)
	assert.Equal(t, "80.00", debtors[0].Outstanding.StringFixed(2))
	assert.Equal(t, 2, debtors[0].DebtCount)
	assert.Equal(t, "2024-01", debtors[0].OldestMonth)
	assert.Equal(t, "Ana", debtors[0].Name)

	assert.Equal(t, "2", debtors[1].ClientID)
	assert.Equal(t, 1, debtors[1].DebtCount)
	assert.Equal(t, "3", debtors[2].ClientID)

	withApril, err := svc.Debtors(context.Background(), domain.DebtorsRequest{AsOf: "2024-04-30", Limit: 1})
	require.NoError(t, err)
	require.Len(t, withApril, 1)
	assert.Equal(t, "2", withApril[0].ClientID)
	assert.Equal(t, "160.00", withApril[0].Outstanding.StringFixed(2))
}

func TestRevenueListsValidatedPayments(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	all, err := svc.Revenue(ctx, domain.RevenueRequest{})
	require.NoError(t, err)
	require.Len(t, all.Transactions, 2, "pending and cancelled payments are not revenue")
	assert.Equal(t, "80.00", all.TotalRevenue.StringFixed(2))
	assert.Equal(t, "1", all.Transactions[0].PaymentID)
	assert.Equal(t, "2024-03-05", all.Transactions[0].Date)
	assert.Equal(t, "MIR-1", all.Transactions[0].ClientCode)
	assert.Equal(t, "Ana", all.Transactions[0].ClientName)
	assert.Equal(t, "cash", all.Transactions[0].Method)
	assert.Equal(t, "2", all.Transactions[1].PaymentID)

	march, err := svc.Revenue(ctx, domain.RevenueRequest{StartDate: "2024-03-01", EndDate: "2024-03-31"})
	require.NoError(t, err)
	require.Len(t, march.Transactions, 1)
	assert.Equal(t, "70.00", march.TotalRevenue.StringFixed(2))
	assert.Equal(t, "2024-03-01", march.StartDate)
	assert.Equal(t, "2024-03-31", march.EndDate)

	sameDay, err := svc.Revenue(ctx, domain.RevenueRequest{StartDate: "2024-02-25", EndDate: "2024-02-25"})
	require.NoError(t, err)
	require.Len(t, sameDay.Transactions, 1, "end date is inclusive")
	assert.Equal(t, "2", sameDay.Transactions[0].PaymentID)

	_, err = svc.Revenue(ctx, domain.RevenueRequest{StartDate: "03/01/2024"})
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
	_, err = svc.Revenue(ctx, domain.RevenueRequest{StartDate: "2024-03-31", EndDate: "2024-03-01"})
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestRevenueScopes(t *testing.T) {
	svc := newTestService(t)

	sur, err := svc.Revenue(context.Background(), domain.RevenueRequest{SedeID: sedeSur.String()})
	require.NoError(t, err)
	require.Len(t, sur.Transactions, 1)
	assert.Equal(t, "10.00", sur.TotalRevenue.StringFixed(2))

	centro := sedeCentro
	office := actorcontext.WithActor(context.Background(), actorcontext.Actor{ID: 5, Role: actorcontext.RoleOffice, SedeID: &centro})
	pinned, err := svc.Revenue(office, domain.RevenueRequest{SedeID: sedeSur.String()})
	require.NoError(t, err)
	require.Len(t, pinned.Transactions, 1)
	assert.Equal(t, "1", pinned.Transactions[0].PaymentID)

	col := actorcontext.WithActor(context.Background(), actorcontext.Actor{ID: collector, Role: actorcontext.RoleCollector})
	mine, err := svc.Revenue(col, domain.RevenueRequest{})
	require.NoError(t, err)
	assert.Equal(t, "70.00", mine.TotalRevenue.StringFixed(2))

	empty, err := svc.Revenue(context.Background(), domain.RevenueRequest{StartDate: "2025-01-01"})
	require.NoError(t, err)
	assert.NotNil(t, empty.Transactions)
	assert.True(t, empty.TotalRevenue.IsZero())
}

func TestCollectorsGroupsByAssignedCollector(t *testing.T) {
	svc := newTestService(t)

	admin := actorcontext.WithActor(context.Background(), actorcontext.Actor{ID: 1, Role: actorcontext.RoleAdmin})
	totals, err := svc.Collectors(admin, domain.CollectorsRequest{})
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, collector.String(), totals[0].CollectorID)
	assert.Equal(t, "70.00", totals[0].TotalCollected.StringFixed(2))
	assert.Equal(t, int64(1), totals[0].TransactionCount)
	assert.Equal(t, "", totals[1].CollectorID, "clients without a collector")
	assert.Equal(t, "10.00", totals[1].TotalCollected.StringFixed(2))

	centro := sedeCentro
	office := actorcontext.WithActor(context.Background(), actorcontext.Actor{ID: 5, Role: actorcontext.RoleOffice, SedeID: &centro})
	pinned, err := svc.Collectors(office, domain.CollectorsRequest{})
	require.NoError(t, err)
	require.Len(t, pinned, 1)
	assert.Equal(t, collector.String(), pinned[0].CollectorID)

	feb, err := svc.Collectors(admin, domain.CollectorsRequest{EndDate: "2024-02-29"})
	require.NoError(t, err)
	require.Len(t, feb, 1)
	assert.Equal(t, "", feb[0].CollectorID)

	for _, role := range []string{actorcontext.RoleManager, actorcontext.RoleCollector} {
		ctx := actorcontext.WithActor(context.Background(), actorcontext.Actor{ID: 9, Role: role})
		_, err := svc.Collectors(ctx, domain.CollectorsRequest{})
		assert.ErrorIs(t, err, domain.ErrForbidden, role)
	}
}
