package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/valyala/fastrand"
	"golang.org/x/sync/errgroup"

	"github.com/go-sod/quad/internal/index"
	"github.com/go-sod/quad/internal/integration"
	"github.com/go-sod/quad/internal/logging"
	"github.com/go-sod/quad/internal/shutdown"
	"github.com/go-sod/quad/pkg/geom"
)

const layer = "bench"

type config struct {
	// Server to load, empty runs an in-process index
	Addr     string  `envconfig:"QUAD_BENCH_ADDR"`
	Points   int     `envconfig:"QUAD_BENCH_POINTS" default:"100000"`
	Queries  int     `envconfig:"QUAD_BENCH_QUERIES" default:"10000"`
	Workers  int     `envconfig:"QUAD_BENCH_WORKERS" default:"8"`
	Batch    int     `envconfig:"QUAD_BENCH_BATCH" default:"500"`
	K        int     `envconfig:"QUAD_BENCH_K" default:"10"`
	Extent   float64 `envconfig:"QUAD_BENCH_EXTENT" default:"1000"`
	Window   float64 `envconfig:"QUAD_BENCH_WINDOW" default:"10"`
	Capacity int     `envconfig:"QUAD_CAPACITY" default:"16"`
	MaxDepth int     `envconfig:"QUAD_MAX_DEPTH" default:"16"`
}

func main() {
	ctx, done := shutdown.New()
	defer done()

	logger := logging.NewLoggerFromEnv()
	ctx = logging.WithLogger(ctx, logger)
	if err := run(ctx); err != nil {
		logger.Fatal(err)
	}
}

func run(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}
	if cfg.Workers <= 0 || cfg.Batch <= 0 || cfg.Extent <= 0 {
		return fmt.Errorf("workers, batch and extent must be positive")
	}

	var t target
	if cfg.Addr != "" {
		logger.Infof("loading server %s", cfg.Addr)
		t = remote{c: integration.NewClient(cfg.Addr)}
	} else {
		bounds, err := geom.NewRect(0, 0, cfg.Extent, cfg.Extent)
		if err != nil {
			return err
		}
		m, err := index.New(nil,
			index.WithDefaultBounds(bounds),
			index.WithCapacity(cfg.Capacity),
			index.WithMaxDepth(cfg.MaxDepth),
			index.WithMaxKNN(cfg.K),
			index.WithStatsInterval(0),
		)
		if err != nil {
			return fmt.Errorf("index.New: %w", err)
		}
		if err := m.Run(ctx); err != nil {
			return fmt.Errorf("index.Run: %w", err)
		}
		defer m.Stop()
		t = local{m: m}
	}

	start := time.Now()
	if err := parallel(ctx, cfg.Workers, cfg.Points/cfg.Batch, func(ctx context.Context, rng *fastrand.RNG) error {
		points := make([]geom.Point, cfg.Batch)
		for i := range points {
			points[i] = geom.Point{X: coord(rng, cfg.Extent), Y: coord(rng, cfg.Extent)}
		}
		return t.insert(ctx, points)
	}); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	report(ctx, "insert", cfg.Points/cfg.Batch*cfg.Batch, time.Since(start))

	var found int64
	start = time.Now()
	if err := parallel(ctx, cfg.Workers, cfg.Queries, func(ctx context.Context, rng *fastrand.RNG) error {
		x, y := coord(rng, cfg.Extent), coord(rng, cfg.Extent)
		r := geom.Rect{MinX: x, MinY: y, MaxX: x + cfg.Window, MaxY: y + cfg.Window}
		n, err := t.query(ctx, r)
		atomic.AddInt64(&found, int64(n))
		return err
	}); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	report(ctx, "query", cfg.Queries, time.Since(start))
	logger.Infof("query: %d points found", atomic.LoadInt64(&found))

	start = time.Now()
	if err := parallel(ctx, cfg.Workers, cfg.Queries, func(ctx context.Context, rng *fastrand.RNG) error {
		return t.knn(ctx, coord(rng, cfg.Extent), coord(rng, cfg.Extent), cfg.K)
	}); err != nil {
		return fmt.Errorf("knn: %w", err)
	}
	report(ctx, "knn", cfg.Queries, time.Since(start))

	stats, err := t.layers(ctx)
	if err != nil {
		return fmt.Errorf("layers: %w", err)
	}
	for _, s := range stats {
		if s.Name != layer {
			continue
		}
		logger.Infow("layer", "name", s.Name, "size", s.Size, "nodes", s.Nodes, "leaves", s.Leaves, "depth", s.Depth)
	}
	return nil
}

// parallel runs fn n times spread over workers, each with its own generator.
func parallel(ctx context.Context, workers, n int, fn func(context.Context, *fastrand.RNG) error) error {
	grp, grpCtx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		count := n / workers
		if w < n%workers {
			count++
		}
		grp.Go(func() error {
			// zero RNG seeds itself on first use
			var rng fastrand.RNG
			for i := 0; i < count; i++ {
				if err := grpCtx.Err(); err != nil {
					return err
				}
				if err := fn(grpCtx, &rng); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return grp.Wait()
}

func coord(rng *fastrand.RNG, extent float64) float64 {
	return float64(rng.Uint32()) / float64(^uint32(0)) * extent
}

func report(ctx context.Context, op string, n int, elapsed time.Duration) {
	var perOp time.Duration
	if n > 0 {
		perOp = elapsed / time.Duration(n)
	}
	logging.FromContext(ctx).Infow("bench", "op", op, "count", n, "elapsed", elapsed, "per_op", perOp)
}
