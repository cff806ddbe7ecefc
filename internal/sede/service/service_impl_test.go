package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/recaudo/internal/audit/audittest"
	"github.com/smallbiznis/recaudo/internal/clock"
	"github.com/smallbiznis/recaudo/internal/sede/domain"
	"github.com/smallbiznis/recaudo/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := dbtest.Open(t, &domain.Sede{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
		Audit: audittest.NewRecorder(),
	}).(*Service)
}

func TestCreateSlugsName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sede, err := svc.Create(ctx, domain.CreateRequest{Name: "Sede Chulucanás Centro", Phone: " 073-123 "})
	require.NoError(t, err)
	assert.Equal(t, "sede-chulucanas-centro", sede.Code)
	assert.Equal(t, "073-123", sede.Phone)
	assert.True(t, sede.Active)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "sede chulucanas centro"})
	assert.ErrorIs(t, err, domain.ErrCodeTaken)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestEnsureIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Ensure(ctx, domain.CreateRequest{Name: "Principal"})
	require.NoError(t, err)
	second, err := svc.Ensure(ctx, domain.CreateRequest{Name: "principal"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := svc.Get(ctx, first.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Principal", got.Name)

	_, err = svc.Get(ctx, "42")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
