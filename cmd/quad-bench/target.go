package main

import (
	"context"
	"fmt"

	"github.com/go-sod/quad/internal/index"
	"github.com/go-sod/quad/internal/integration"
	"github.com/go-sod/quad/internal/point/model"
	"github.com/go-sod/quad/pkg/geom"
)

// target is what the load runs against: an in-process index or a server.
type target interface {
	insert(ctx context.Context, points []geom.Point) error
	query(ctx context.Context, r geom.Rect) (int, error)
	knn(ctx context.Context, x, y float64, k int) error
	layers(ctx context.Context) ([]index.LayerStats, error)
}

type local struct {
	m index.Manager
}

func (l local) insert(ctx context.Context, points []geom.Point) error {
	batch := make([]model.Point, len(points))
	for i, p := range points {
		batch[i] = model.NewPoint(layer, p.X, p.Y, nil)
	}
	_, err := l.m.Insert(ctx, layer, batch...)
	return err
}

func (l local) query(ctx context.Context, r geom.Rect) (int, error) {
	points, err := l.m.Query(ctx, layer, r)
	return len(points), err
}

func (l local) knn(ctx context.Context, x, y float64, k int) error {
	_, err := l.m.KNN(ctx, layer, x, y, k)
	return err
}

func (l local) layers(ctx context.Context) ([]index.LayerStats, error) {
	return l.m.Layers(ctx), nil
}

type remote struct {
	c *integration.Client
}

func (r remote) insert(ctx context.Context, points []geom.Point) error {
	req := integration.InsertRequest{Layer: layer, Data: make([]integration.PointData, len(points))}
	for i, p := range points {
		req.Data[i] = integration.PointData{X: p.X, Y: p.Y}
	}
	resp, err := r.c.Insert(ctx, req)
	if err != nil {
		return err
	}
	if resp.Accepted != len(points) {
		return fmt.Errorf("server accepted %d of %d points", resp.Accepted, len(points))
	}
	return nil
}

func (r remote) query(ctx context.Context, rect geom.Rect) (int, error) {
	points, err := r.c.Query(ctx, integration.QueryRequest{Layer: layer, Rect: &rect})
	return len(points), err
}

func (r remote) knn(ctx context.Context, x, y float64, k int) error {
	_, err := r.c.KNN(ctx, integration.KNNRequest{Layer: layer, K: k, Points: []geom.Point{{X: x, Y: y}}})
	return err
}

func (r remote) layers(ctx context.Context) ([]index.LayerStats, error) {
	return r.c.Layers(ctx)
}
