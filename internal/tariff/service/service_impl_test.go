package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/recaudo/internal/audit/audittest"
	"github.com/smallbiznis/recaudo/internal/clock"
	"github.com/smallbiznis/recaudo/internal/servicetype"
	"github.com/smallbiznis/recaudo/internal/tariff/domain"
	"github.com/smallbiznis/recaudo/internal/tariff/repository"
	"github.com/smallbiznis/recaudo/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const zoneID snowflake.ID = 7001

type zoneStub map[snowflake.ID]bool

func (z zoneStub) ZoneExists(_ context.Context, _ *gorm.DB, id snowflake.ID) (bool, error) {
	return z[id], nil
}

func newTestService(t *testing.T) (*Service, *audittest.Recorder) {
	t.Helper()
	return newTestServiceWithCache(t, domain.CacheDefault)
}

func newTestServiceWithCache(t *testing.T, mode domain.CacheMode) (*Service, *audittest.Recorder) {
	t.Helper()
	db := dbtest.Open(t, &domain.Tariff{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	rec := audittest.NewRecorder()
	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     clock.NewFakeClock(time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)),
		Repo:      repository.Provide(),
		Zones:     zoneStub{zoneID: true},
		Audit:     rec,
		CacheMode: mode,
	}).(*Service)
	return svc, rec
}

func createReq(price int64, from string) domain.CreateRequest {
	return domain.CreateRequest{
		ZoneID:        zoneID.String(),
		ServiceType:   "internet",
		BasePrice:     decimal.NewFromInt(price),
		EffectiveFrom: from,
	}
}

func TestCreateValidation(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq(0, "2024-01-01"))
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = svc.Create(ctx, createReq(-5, "2024-01-01"))
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = svc.Create(ctx, createReq(50, "01/01/2024"))
	assert.ErrorIs(t, err, domain.ErrInvalidEffectiveFrom)

	req := createReq(50, "2024-01-01")
	req.ServiceType = "phone"
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, servicetype.ErrInvalid)

	req = createReq(50, "2024-01-01")
	req.ZoneID = "999"
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidZone)

	assert.Empty(t, rec.Events())
}

func TestCreateRejectsDuplicateActiveTariff(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, createReq(50, "2024-01-01"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, createReq(55, "2024-01-01"))
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.Deactivate(ctx, first.ID.String())
	require.NoError(t, err)
	_, err = svc.Deactivate(ctx, first.ID.String())
	assert.ErrorIs(t, err, domain.ErrAlreadyInactive)

	_, err = svc.Create(ctx, createReq(55, "2024-01-01"))
	require.NoError(t, err)
	assert.Len(t, rec.Actions("tariff"), 3)
}

// staleExistsRepo never sees an active tariff, as a concurrent writer would
// before the other transaction commits.
type staleExistsRepo struct{ domain.Repository }

func (staleExistsRepo) ExistsActive(context.Context, *gorm.DB, snowflake.ID, servicetype.Type, time.Time) (bool, error) {
	return false, nil
}

func TestActiveTariffUniqueIndexBacksExistsCheck(t *testing.T) {
	svc, _ := newTestService(t)
	svc.repo = staleExistsRepo{Repository: repository.Provide()}
	ctx := context.Background()

	first, err := svc.Create(ctx, createReq(50, "2024-01-01"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, createReq(55, "2024-01-01"))
	assert.ErrorIs(t, err, domain.ErrConflict)

	other := createReq(55, "2024-02-01")
	_, err = svc.Create(ctx, other)
	require.NoError(t, err, "different effective_from does not collide")

	_, err = svc.Deactivate(ctx, first.ID.String())
	require.NoError(t, err)
	_, err = svc.Create(ctx, createReq(55, "2024-01-01"))
	require.NoError(t, err, "deactivated tariffs leave the active key")

	var stored []domain.Tariff
	require.NoError(t, svc.db.Order("id").Find(&stored).Error)
	require.Len(t, stored, 3)
	assert.False(t, stored[0].Active)
	assert.Nil(t, stored[0].ActiveFrom)
	require.NotNil(t, stored[2].ActiveFrom)
	assert.Equal(t, "2024-01-01", stored[2].ActiveFrom.Format(time.DateOnly))
}

func TestResolvePicksLatestEffectiveTariff(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Resolve(ctx, zoneID, servicetype.Internet, asOf)
	assert.ErrorIs(t, err, domain.ErrNoTariffFound)

	_, err = svc.Create(ctx, createReq(40, "2023-01-01"))
	require.NoError(t, err)
	jan, err := svc.Create(ctx, createReq(45, "2024-01-01"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, createReq(70, "2024-07-01"))
	require.NoError(t, err)

	got, err := svc.Resolve(ctx, zoneID, servicetype.Internet, asOf)
	require.NoError(t, err)
	assert.Equal(t, jan.ID, got.TariffID)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(45)))

	_, err = svc.Resolve(ctx, zoneID, servicetype.Cable, asOf)
	assert.ErrorIs(t, err, domain.ErrNoTariffFound)

	may, err := svc.Create(ctx, createReq(50, "2024-05-01"))
	require.NoError(t, err)
	got, err = svc.Resolve(ctx, zoneID, servicetype.Internet, asOf)
	require.NoError(t, err)
	assert.Equal(t, may.ID, got.TariffID, "cache must be purged by writes")
}

func TestListFilters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq(40, "2023-01-01"))
	require.NoError(t, err)
	cable := createReq(30, "2023-01-01")
	cable.ServiceType = "cable"
	_, err = svc.Create(ctx, cable)
	require.NoError(t, err)

	all, err := svc.List(ctx, domain.ListRequest{ZoneID: zoneID.String()})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	internet, err := svc.List(ctx, domain.ListRequest{ServiceType: "internet", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, internet, 1)
	assert.Equal(t, servicetype.Internet, internet[0].ServiceType)
}

func TestResolveWithCacheOffSeesOtherWriters(t *testing.T) {
	ctx := context.Background()
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	newer := func(id snowflake.ID) *domain.Tariff {
		return &domain.Tariff{
			ID:            id,
			ZoneID:        zoneID,
			ServiceType:   servicetype.Internet,
			BasePrice:     decimal.NewFromInt(65),
			EffectiveFrom: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			Active:        true,
			CreatedAt:     asOf,
		}
	}

	cached, _ := newTestService(t)
	_, err := cached.Create(ctx, createReq(45, "2024-01-01"))
	require.NoError(t, err)
	_, err = cached.Resolve(ctx, zoneID, servicetype.Internet, asOf)
	require.NoError(t, err)
	require.NoError(t, cached.repo.Insert(ctx, cached.db, newer(1)))
	got, err := cached.Resolve(ctx, zoneID, servicetype.Internet, asOf)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(45)), "writes outside the service are not seen until expiry")

	direct, _ := newTestServiceWithCache(t, domain.CacheOff)
	assert.Nil(t, direct.cache)
	_, err = direct.Create(ctx, createReq(45, "2024-01-01"))
	require.NoError(t, err)
	_, err = direct.Resolve(ctx, zoneID, servicetype.Internet, asOf)
	require.NoError(t, err)
	require.NoError(t, direct.repo.Insert(ctx, direct.db, newer(2)))
	got, err = direct.Resolve(ctx, zoneID, servicetype.Internet, asOf)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.TariffID)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(65)))
}
