package repository

import (
	"context"
	"testing"

	"github.com/smallbiznis/recaudo/pkg/db/dbtest"
	"github.com/smallbiznis/recaudo/pkg/db/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type widget struct {
	ID     int64  `gorm:"primaryKey"`
	Name   string `gorm:"not null"`
	Active bool
}

func setupStore(t *testing.T) (*gorm.DB, Repository[widget]) {
	t.Helper()
	db := dbtest.Open(t, &widget{})
	return db, ProvideStore[widget](db)
}

func TestStoreCreateFindUpdate(t *testing.T) {
	ctx := context.Background()
	_, store := setupStore(t)

	require.NoError(t, store.Create(ctx, &widget{ID: 1, Name: "a", Active: true}))
	require.NoError(t, store.Create(ctx, &widget{ID: 2, Name: "b", Active: true}))

	found, err := store.FindOne(ctx, &widget{ID: 2})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "b", found.Name)

	missing, err := store.FindOne(ctx, &widget{ID: 99})
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.Update(ctx, int64(1), map[string]any{"name": "renamed"}))
	rows, err := store.Find(ctx, nil, option.WithOrder("id", true), option.WithLimit(1))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].ID)

	count, err := store.Count(ctx, &widget{Name: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStoreWithTrxRollsBack(t *testing.T) {
	ctx := context.Background()
	db, store := setupStore(t)

	_ = db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, store.WithTrx(tx).Create(ctx, &widget{ID: 5, Name: "tmp"}))
		return assert.AnError
	})

	count, err := store.Count(ctx, &widget{})
	require.NoError(t, err)
	assert.Zero(t, count)
}
