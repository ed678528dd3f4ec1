package integration

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-sod/quad/internal/api"
	"github.com/go-sod/quad/internal/index"
	"github.com/go-sod/quad/internal/server"
	"github.com/go-sod/quad/pkg/geom"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	m, err := index.New(nil, index.WithDefaultBounds(geom.Rect{MaxX: 10, MaxY: 10}))
	require.NoError(t, err)
	require.NoError(t, m.Run(ctx))
	t.Cleanup(m.Stop)

	router, err := api.NewRouter(ctx, &api.Config{RequestTimeout: 5 * time.Second, MaxDataItemsLen: 100}, m,
		api.WithHandler("/health", server.HandleHealth(ctx)))
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return NewClient(srv.Listener.Addr().String())
}

func TestClient(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	resp, err := c.Health(ctx)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	inserted, err := c.Insert(ctx, InsertRequest{Layer: "a", Data: []PointData{
		{X: 1, Y: 1, Extra: []byte(`{"k":"v"}`)},
		{X: 2, Y: 2},
		{X: 8, Y: 8},
	}})
	require.NoError(t, err)
	require.Equal(t, 3, inserted.Accepted)
	first := inserted.Data[0].ID

	found, err := c.Query(ctx, QueryRequest{Layer: "a", Rect: &geom.Rect{MaxX: 3, MaxY: 3}})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = c.Query(ctx, QueryRequest{Layer: "a", Circle: &geom.Circle{CX: 8, CY: 8, R: 0.5}})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	moved, err := c.Move(ctx, "a", first, 9, 9)
	require.NoError(t, err)
	assert.True(t, moved)

	results, err := c.KNN(ctx, KNNRequest{Layer: "a", K: 1, Points: []geom.Point{{X: 10, Y: 10}}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Neighbors, 1)
	assert.Equal(t, first, results[0].Neighbors[0].ID)
	assert.JSONEq(t, `{"k":"v"}`, string(results[0].Neighbors[0].Extra))

	n, err := c.Remove(ctx, "a", first)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	layers, err := c.Layers(ctx)
	require.NoError(t, err)
	require.Len(t, layers, 1)
	assert.Equal(t, 2, layers[0].Size)

	require.NoError(t, c.Clear(ctx, "a"))

	_, err = c.Query(ctx, QueryRequest{Layer: "a", Rect: &geom.Rect{MaxX: 3, MaxY: 3}})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Contains(t, statusErr.Message, "layer not found")
}
