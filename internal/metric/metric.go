// Package metric records index activity with opencensus and exposes it in
// the prometheus text format.
package metric

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"contrib.go.opencensus.io/exporter/prometheus"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

const (
	OpInsert = "insert"
	OpRemove = "remove"
	OpMove   = "move"
	OpQuery  = "query"
	OpKNN    = "knn"
	OpClear  = "clear"
)

var (
	KeyLayer = mustKey("layer")
	KeyOp    = mustKey("op")
)

var (
	MInserted = stats.Int64("quad/points_inserted", "Number of points accepted by an index", stats.UnitDimensionless)
	MRemoved  = stats.Int64("quad/points_removed", "Number of points removed from an index", stats.UnitDimensionless)
	MRejected = stats.Int64("quad/points_rejected", "Number of points an index refused", stats.UnitDimensionless)
	MQueries  = stats.Int64("quad/queries", "Number of search operations", stats.UnitDimensionless)
	MLatency  = stats.Float64("quad/latency", "Operation latency", stats.UnitMilliseconds)
	MSize     = stats.Int64("quad/layer_size", "Number of points held by a layer", stats.UnitDimensionless)
)

var Views = []*view.View{
	{
		Name:        "quad/points_inserted_total",
		Measure:     MInserted,
		Description: MInserted.Description(),
		TagKeys:     []tag.Key{KeyLayer},
		Aggregation: view.Sum(),
	},
	{
		Name:        "quad/points_removed_total",
		Measure:     MRemoved,
		Description: MRemoved.Description(),
		TagKeys:     []tag.Key{KeyLayer},
		Aggregation: view.Sum(),
	},
	{
		Name:        "quad/points_rejected_total",
		Measure:     MRejected,
		Description: MRejected.Description(),
		TagKeys:     []tag.Key{KeyLayer},
		Aggregation: view.Sum(),
	},
	{
		Name:        "quad/queries_total",
		Measure:     MQueries,
		Description: MQueries.Description(),
		TagKeys:     []tag.Key{KeyLayer, KeyOp},
		Aggregation: view.Count(),
	},
	{
		Name:        "quad/latency_ms",
		Measure:     MLatency,
		Description: MLatency.Description(),
		TagKeys:     []tag.Key{KeyOp},
		Aggregation: view.Distribution(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000),
	},
	{
		Name:        "quad/layer_size",
		Measure:     MSize,
		Description: MSize.Description(),
		TagKeys:     []tag.Key{KeyLayer},
		Aggregation: view.LastValue(),
	},
}

func mustKey(name string) tag.Key {
	k, err := tag.NewKey(name)
	if err != nil {
		panic(fmt.Sprintf("metric: tag key %q: %v", name, err))
	}
	return k
}

// NewExporter registers Views and returns a handler serving them.
func NewExporter(namespace string) (http.Handler, error) {
	if err := view.Register(Views...); err != nil {
		return nil, fmt.Errorf("register views: %w", err)
	}
	exporter, err := prometheus.NewExporter(prometheus.Options{Namespace: namespace})
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return exporter, nil
}

func record(ctx context.Context, layer string, ms ...stats.Measurement) {
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(KeyLayer, layer)}, ms...)
}

func Inserted(ctx context.Context, layer string, n int) {
	if n > 0 {
		record(ctx, layer, MInserted.M(int64(n)))
	}
}

func Removed(ctx context.Context, layer string, n int) {
	if n > 0 {
		record(ctx, layer, MRemoved.M(int64(n)))
	}
}

func Rejected(ctx context.Context, layer string, n int) {
	if n > 0 {
		record(ctx, layer, MRejected.M(int64(n)))
	}
}

func Size(ctx context.Context, layer string, n int) {
	record(ctx, layer, MSize.M(int64(n)))
}

// Since records one search operation and the time elapsed from start.
func Since(ctx context.Context, layer, op string, start time.Time) {
	ms := float64(time.Since(start)) / float64(time.Millisecond)
	_ = stats.RecordWithTags(ctx,
		[]tag.Mutator{tag.Upsert(KeyLayer, layer), tag.Upsert(KeyOp, op)},
		MQueries.M(1), MLatency.M(ms))
}
