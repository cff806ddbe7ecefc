package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/recaudo/internal/audit/domain"
	"github.com/smallbiznis/recaudo/internal/audit/audittest"
	"github.com/smallbiznis/recaudo/internal/clock"
	"github.com/smallbiznis/recaudo/internal/geo/domain"
	"github.com/smallbiznis/recaudo/internal/geo/repository"
	"github.com/smallbiznis/recaudo/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type clientRow struct {
	ID     int64 `gorm:"primaryKey"`
	ZoneID *int64
}

func (clientRow) TableName() string { return "clients" }

type tariffRow struct {
	ID     int64 `gorm:"primaryKey"`
	ZoneID int64
}

func (tariffRow) TableName() string { return "tariffs" }

func newTestService(t *testing.T) (*Service, *gorm.DB, *audittest.Recorder) {
	t.Helper()
	db := dbtest.Open(t, &domain.GeoNode{}, &clientRow{}, &tariffRow{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	rec := audittest.NewRecorder()
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
		Audit: rec,
	}).(*Service)
	return svc, db, rec
}

type chain struct {
	department, province, district, zoneA, zoneB domain.GeoNode
}

func buildChain(t *testing.T, svc *Service) chain {
	t.Helper()
	ctx := context.Background()
	var c chain
	var err error
	c.department, err = svc.Create(ctx, domain.CreateRequest{Level: "department", Name: "Piura"})
	require.NoError(t, err)
	c.province, err = svc.Create(ctx, domain.CreateRequest{Level: "province", Name: "Morropon", ParentID: c.department.ID.String()})
	require.NoError(t, err)
	c.district, err = svc.Create(ctx, domain.CreateRequest{Level: "district", Name: "Chulucanas", ParentID: c.province.ID.String()})
	require.NoError(t, err)
	c.zoneA, err = svc.Create(ctx, domain.CreateRequest{Level: "zone", Name: "Vicus", Code: " vic01 ", ParentID: c.district.ID.String()})
	require.NoError(t, err)
	c.zoneB, err = svc.Create(ctx, domain.CreateRequest{Level: "zone", Name: "Sol Sol", Code: "SOL", ParentID: c.district.ID.String()})
	require.NoError(t, err)
	return c
}

func TestCreateValidatesHierarchy(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()
	c := buildChain(t, svc)

	require.NotNil(t, c.zoneA.Code)
	assert.Equal(t, "VIC01", *c.zoneA.Code)
	assert.Len(t, rec.Actions("geo_node"), 5)

	_, err := svc.Create(ctx, domain.CreateRequest{Level: "province", Name: "Orphan"})
	assert.ErrorIs(t, err, domain.ErrInvalidParent)

	_, err = svc.Create(ctx, domain.CreateRequest{Level: "zone", Name: "Skip", Code: "SKP", ParentID: c.province.ID.String()})
	assert.ErrorIs(t, err, domain.ErrInvalidParent)

	_, err = svc.Create(ctx, domain.CreateRequest{Level: "department", Name: "Lima", ParentID: c.department.ID.String()})
	assert.ErrorIs(t, err, domain.ErrInvalidParent)

	_, err = svc.Create(ctx, domain.CreateRequest{Level: "hamlet", Name: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidLevel)

	_, err = svc.Create(ctx, domain.CreateRequest{Level: "zone", Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestCreateZoneCodeRules(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	c := buildChain(t, svc)

	_, err := svc.Create(ctx, domain.CreateRequest{Level: "zone", Name: "Long", Code: "ABCDEFGHIJK", ParentID: c.district.ID.String()})
	assert.ErrorIs(t, err, domain.ErrInvalidCode)

	_, err = svc.Create(ctx, domain.CreateRequest{Level: "zone", Name: "Empty", ParentID: c.district.ID.String()})
	assert.ErrorIs(t, err, domain.ErrInvalidCode)

	_, err = svc.Create(ctx, domain.CreateRequest{Level: "district", Name: "Coded", Code: "X", ParentID: c.province.ID.String()})
	assert.ErrorIs(t, err, domain.ErrInvalidCode)

	_, err = svc.Create(ctx, domain.CreateRequest{Level: "zone", Name: "Dup", Code: "vic01", ParentID: c.district.ID.String()})
	assert.ErrorIs(t, err, domain.ErrCodeTaken)
}

func TestTreeQueries(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	c := buildChain(t, svc)

	ancestors, err := svc.Ancestors(ctx, c.zoneA.ID.String())
	require.NoError(t, err)
	require.Len(t, ancestors, 3)
	assert.Equal(t, c.department.ID, ancestors[2].ID)

	descendants, err := svc.Descendants(ctx, c.province.ID.String())
	require.NoError(t, err)
	assert.Len(t, descendants, 3)

	zones, err := svc.List(ctx, domain.ListRequest{Level: "zone", ParentID: c.district.ID.String()})
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, "Sol Sol", zones[0].Name)

	_, err = svc.Get(ctx, "123")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Ancestors(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestDeleteRejectedWhenClientsReferenceSubtree(t *testing.T) {
	svc, db, rec := newTestService(t)
	ctx := context.Background()
	c := buildChain(t, svc)

	zoneID := int64(c.zoneB.ID)
	require.NoError(t, db.Create(&clientRow{ID: 1, ZoneID: &zoneID}).Error)
	require.NoError(t, db.Create(&tariffRow{ID: 1, ZoneID: int64(c.zoneA.ID)}).Error)

	err := svc.Delete(ctx, c.province.ID.String())
	require.ErrorIs(t, err, domain.ErrHasDependents)

	var nodes, tariffs int64
	require.NoError(t, db.Model(&domain.GeoNode{}).Count(&nodes).Error)
	require.NoError(t, db.Model(&tariffRow{}).Count(&tariffs).Error)
	assert.EqualValues(t, 5, nodes)
	assert.EqualValues(t, 1, tariffs)
	assert.NotContains(t, rec.Actions("geo_node"), auditdomain.ActionDelete)
}

func TestDeleteCascadesToDescendantsAndTariffs(t *testing.T) {
	svc, db, rec := newTestService(t)
	ctx := context.Background()
	c := buildChain(t, svc)

	require.NoError(t, db.Create(&tariffRow{ID: 1, ZoneID: int64(c.zoneA.ID)}).Error)
	require.NoError(t, svc.Delete(ctx, c.province.ID.String()))

	var remaining []domain.GeoNode
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, c.department.ID, remaining[0].ID)

	var tariffs int64
	require.NoError(t, db.Model(&tariffRow{}).Count(&tariffs).Error)
	assert.Zero(t, tariffs)
	assert.Contains(t, rec.Actions("geo_node"), auditdomain.ActionDelete)

	assert.ErrorIs(t, svc.Delete(ctx, c.province.ID.String()), domain.ErrNotFound)
}

func TestZoneExists(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	c := buildChain(t, svc)

	ok, err := svc.ZoneExists(ctx, nil, c.zoneA.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.ZoneExists(ctx, nil, c.district.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
