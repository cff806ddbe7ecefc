package authorization

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/recaudo/internal/actorcontext"
	"github.com/smallbiznis/recaudo/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	db := dbtest.Open(t)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func as(role string, id int64) context.Context {
	return actorcontext.WithActor(context.Background(), actorcontext.Actor{ID: snowflake.ID(id), Role: role})
}

func TestAuthorizeRoleMatrix(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name    string
		role    string
		object  string
		action  string
		allowed bool
	}{
		{"admin validates", actorcontext.RoleAdmin, ObjectPayment, ActionPaymentValidate, true},
		{"admin reads audit", actorcontext.RoleAdmin, ObjectAuditLog, ActionView, true},
		{"office validates", actorcontext.RoleOffice, ObjectPayment, ActionPaymentValidate, true},
		{"office cancels", actorcontext.RoleOffice, ObjectPayment, ActionPaymentCancel, true},
		{"office generates", actorcontext.RoleOffice, ObjectBillingCycle, ActionBillingCycleGenerate, true},
		{"office cannot read audit", actorcontext.RoleOffice, ObjectAuditLog, ActionView, false},
		{"collector submits", actorcontext.RoleCollector, ObjectPayment, ActionPaymentSubmit, true},
		{"collector records visits", actorcontext.RoleCollector, ObjectVisit, ActionVisitRecord, true},
		{"collector reads debts", actorcontext.RoleCollector, ObjectDebt, ActionView, true},
		{"collector cannot validate", actorcontext.RoleCollector, ObjectPayment, ActionPaymentValidate, false},
		{"collector cannot generate", actorcontext.RoleCollector, ObjectBillingCycle, ActionBillingCycleGenerate, false},
		{"collector cannot see reports", actorcontext.RoleCollector, ObjectReport, ActionView, false},
		{"manager sees reports", actorcontext.RoleManager, ObjectReport, ActionView, true},
		{"admin sees collector totals", actorcontext.RoleAdmin, ObjectReport, ActionReportCollectors, true},
		{"office sees collector totals", actorcontext.RoleOffice, ObjectReport, ActionReportCollectors, true},
		{"manager cannot see collector totals", actorcontext.RoleManager, ObjectReport, ActionReportCollectors, false},
		{"collector cannot see collector totals", actorcontext.RoleCollector, ObjectReport, ActionReportCollectors, false},
		{"manager cannot validate", actorcontext.RoleManager, ObjectPayment, ActionPaymentValidate, false},
		{"manager cannot read audit", actorcontext.RoleManager, ObjectAuditLog, ActionView, false},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Authorize(as(tt.role, int64(100+i)), tt.object, tt.action)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrForbidden)
		})
	}
}

func TestAuthorizeFollowsRoleChange(t *testing.T) {
	svc := newTestService(t)

	require.ErrorIs(t, svc.Authorize(as(actorcontext.RoleCollector, 7), ObjectPayment, ActionPaymentValidate), ErrForbidden)
	require.NoError(t, svc.Authorize(as(actorcontext.RoleOffice, 7), ObjectPayment, ActionPaymentValidate))
	assert.ErrorIs(t, svc.Authorize(as(actorcontext.RoleCollector, 7), ObjectPayment, ActionPaymentValidate), ErrForbidden)
}

func TestAuthorizeRejectsUnknownActors(t *testing.T) {
	svc := newTestService(t)

	assert.ErrorIs(t, svc.Authorize(context.Background(), ObjectPayment, ActionView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(as("intern", 5), ObjectPayment, ActionView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(as(actorcontext.RoleAdmin, 0), ObjectPayment, ActionView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(as(actorcontext.RoleAdmin, 5), "", ActionView), ErrInvalidObject)
}

func TestSystemActorRunsJobs(t *testing.T) {
	svc := newTestService(t)
	ctx := actorcontext.WithActor(context.Background(), actorcontext.System)

	assert.NoError(t, svc.Authorize(ctx, ObjectBillingCycle, ActionBillingCycleGenerate))
	assert.NoError(t, svc.Authorize(ctx, ObjectDebt, ActionDebtSweep))
	assert.ErrorIs(t, svc.Authorize(ctx, ObjectPayment, ActionPaymentValidate), ErrForbidden)
}

func TestNewEnforcerIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	_, err := NewEnforcer(db)
	require.NoError(t, err)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)

	policies, err := enforcer.GetPolicy()
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, p := range policies {
		key := p[0] + "|" + p[1] + "|" + p[2]
		assert.False(t, seen[key], "duplicate policy %s", key)
		seen[key] = true
	}
}
