package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/recaudo/internal/actorcontext"
	"github.com/smallbiznis/recaudo/internal/audit/audittest"
	auditdomain "github.com/smallbiznis/recaudo/internal/audit/domain"
	clientdomain "github.com/smallbiznis/recaudo/internal/client/domain"
	clientrepo "github.com/smallbiznis/recaudo/internal/client/repository"
	clientservice "github.com/smallbiznis/recaudo/internal/client/service"
	"github.com/smallbiznis/recaudo/internal/clock"
	paymentdomain "github.com/smallbiznis/recaudo/internal/payment/domain"
	"github.com/smallbiznis/recaudo/internal/visit/domain"
	"github.com/smallbiznis/recaudo/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	collector snowflake.ID = 77
	assigned  snowflake.ID = 1
	other     snowflake.ID = 2
)

type zonesStub struct{}

func (zonesStub) ZoneExists(context.Context, *gorm.DB, snowflake.ID) (bool, error) { return true, nil }

type paymentsStub struct {
	paymentdomain.Service
	payments map[string]paymentdomain.Payment
}

func (p paymentsStub) Get(_ context.Context, id string) (paymentdomain.Detail, error) {
	payment, ok := p.payments[id]
	if !ok {
		return paymentdomain.Detail{}, paymentdomain.ErrNotFound
	}
	return paymentdomain.Detail{Payment: payment}, nil
}

func newTestService(t *testing.T) (*Service, *clock.FakeClock, *audittest.Recorder) {
	t.Helper()
	db := dbtest.Open(t, &clientdomain.Client{}, &domain.Visit{})
	fake := clock.NewFakeClock(time.Date(2024, 5, 2, 15, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	rec := audittest.NewRecorder()

	collectorID := collector
	require.NoError(t, db.Create(&[]clientdomain.Client{
		{ID: assigned, Code: "MIR-1", Name: "Rosa", DNI: "20000001", AssignedCollectorID: &collectorID, Active: true},
		{ID: other, Code: "MIR-2", Name: "Pedro", DNI: "20000002", Active: true},
	}).Error)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		ClientSvc: clientservice.New(clientservice.Params{
			DB: db, Log: zap.NewNop(), GenID: node, Clock: fake,
			Repo: clientrepo.Provide(), Zones: zonesStub{}, Audit: rec,
		}),
		PaymentSvc: paymentsStub{payments: map[string]paymentdomain.Payment{
			"900": {ID: 900, ClientID: assigned},
			"901": {ID: 901, ClientID: other},
		}},
		AuditSvc: rec,
	}).(*Service)
	return svc, fake, rec
}

func collectorCtx() context.Context {
	return actorcontext.WithActor(context.Background(), actorcontext.Actor{ID: collector, Role: actorcontext.RoleCollector})
}

func TestRecordAsCollector(t *testing.T) {
	svc, _, rec := newTestService(t)

	visit, err := svc.Record(collectorCtx(), domain.RecordRequest{
		ClientID:    assigned.String(),
		CollectorID: "12345",
		Outcome:     "NOT_HOME",
		Notes:       " vecina avisara ",
	})
	require.NoError(t, err)
	assert.Equal(t, collector, visit.CollectorID, "collector id comes from the actor")
	assert.Equal(t, domain.OutcomeNotHome, visit.Outcome)
	assert.Equal(t, "vecina avisara", visit.Notes)
	assert.Equal(t, []auditdomain.Action{auditdomain.ActionCreate}, rec.Actions("visit"))

	_, err = svc.Record(collectorCtx(), domain.RecordRequest{ClientID: other.String(), Outcome: "moved"})
	assert.ErrorIs(t, err, domain.ErrClientNotFound)
}

func TestRecordValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  domain.RecordRequest
		want error
	}{
		{"bad client", domain.RecordRequest{ClientID: "abc", CollectorID: "77", Outcome: "moved"}, domain.ErrInvalidClient},
		{"bad outcome", domain.RecordRequest{ClientID: "1", CollectorID: "77", Outcome: "escaped"}, domain.ErrInvalidOutcome},
		{"office without collector", domain.RecordRequest{ClientID: "1", Outcome: "moved"}, domain.ErrInvalidCollector},
		{"paid without payment", domain.RecordRequest{ClientID: "1", CollectorID: "77", Outcome: "paid"}, domain.ErrMissingPayment},
		{"unknown payment", domain.RecordRequest{ClientID: "1", CollectorID: "77", Outcome: "paid", PaymentID: "555"}, domain.ErrPaymentNotFound},
		{"payment of another client", domain.RecordRequest{ClientID: "1", CollectorID: "77", Outcome: "paid", PaymentID: "901"}, domain.ErrInvalidPayment},
		{"unknown client", domain.RecordRequest{ClientID: "404", CollectorID: "77", Outcome: "moved"}, domain.ErrClientNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Record(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	visit, err := svc.Record(ctx, domain.RecordRequest{ClientID: "1", CollectorID: "77", Outcome: "paid", PaymentID: "900"})
	require.NoError(t, err)
	require.NotNil(t, visit.PaymentID)
	assert.Equal(t, snowflake.ID(900), *visit.PaymentID)
}

func TestListNewestFirstAndScoped(t *testing.T) {
	svc, fake, _ := newTestService(t)
	office := context.Background()

	_, err := svc.Record(office, domain.RecordRequest{ClientID: "2", CollectorID: "88", Outcome: "no_answer"})
	require.NoError(t, err)
	fake.Advance(time.Hour)
	_, err = svc.Record(collectorCtx(), domain.RecordRequest{ClientID: "1", Outcome: "moved"})
	require.NoError(t, err)

	all, err := svc.List(office, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, assigned, all[0].ClientID)

	mine, err := svc.List(collectorCtx(), domain.ListRequest{CollectorID: "88"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, collector, mine[0].CollectorID)

	byClient, err := svc.List(office, domain.ListRequest{ClientID: "2"})
	require.NoError(t, err)
	require.Len(t, byClient, 1)
	assert.Equal(t, snowflake.ID(88), byClient[0].CollectorID)
}
