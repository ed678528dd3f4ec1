package database

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-sod/quad/internal/database"
	"github.com/go-sod/quad/internal/point/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewFromEnv(ctx, &database.Config{
		FileName: filepath.Join(t.TempDir(), "quad.db"),
		Timeout:  time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(ctx) })

	return New(db)
}

func TestStoreAndFind(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	a := model.NewPoint("cafes", 1.5, -2.25, json.RawMessage(`{"name":"a"}`))
	b := model.NewPoint("cafes", 3, 4, nil)
	c := model.NewPoint("shops", 0, 0, nil)
	require.NoError(t, db.StoreMany(ctx, []model.Point{a, b}))
	require.NoError(t, db.Store(ctx, c))

	layers, err := db.Layers()
	require.NoError(t, err)
	sort.Strings(layers)
	assert.Equal(t, []string{"cafes", "shops"}, layers)

	found, err := db.FindByLayer("cafes", nil)
	require.NoError(t, err)
	require.Len(t, found, 2)

	byID := map[string]model.Point{}
	for _, p := range found {
		byID[p.ID.String()] = p
	}
	got := byID[a.ID.String()]
	assert.Equal(t, a.X, got.X)
	assert.Equal(t, a.Y, got.Y)
	assert.Equal(t, a.Layer, got.Layer)
	assert.JSONEq(t, string(a.Extra), string(got.Extra))
	assert.True(t, a.CreatedAt.Equal(got.CreatedAt))
	assert.Nil(t, byID[b.ID.String()].Extra)

	all, err := db.FindAll(ctx, func(p model.Point) bool { return p.X > 1 })
	require.NoError(t, err)
	assert.Len(t, all, 2)

	n, err := db.CountByLayer("cafes")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	a := model.NewPoint("cafes", 1, 1, nil)
	b := model.NewPoint("cafes", 2, 2, nil)
	require.NoError(t, db.StoreMany(ctx, []model.Point{a, b}))

	require.NoError(t, db.Delete(ctx, a))
	n, err := db.CountByLayer("cafes")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// unknown layer is a no-op
	require.NoError(t, db.Delete(ctx, model.NewPoint("missing", 0, 0, nil)))

	require.NoError(t, db.DeleteLayer(ctx, "cafes"))
	layers, err := db.Layers()
	require.NoError(t, err)
	assert.Empty(t, layers)

	found, err := db.FindByLayer("cafes", nil)
	require.NoError(t, err)
	assert.Empty(t, found)
}
