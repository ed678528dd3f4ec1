package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/go-sod/quad/internal/database"
	"github.com/go-sod/quad/internal/logging"
	"github.com/go-sod/quad/internal/metric"
	pointDb "github.com/go-sod/quad/internal/point/database"
	"github.com/go-sod/quad/internal/point/model"
	"github.com/go-sod/quad/pkg/container/quadtree"
	"github.com/go-sod/quad/pkg/geom"
)

var (
	ErrLayerNotFound = errors.New("layer not found")
	ErrInvalidLayer  = errors.New("invalid layer name")
	ErrClosed        = errors.New("index is shutting down")
)

const maxLayerNameLen = 128

// Contract for returning the Manager instance
type ProvideFn func() (Manager, error)

// Manager hosts named layers of points and keeps them in sync with storage.
type Manager interface {
	Indexer
	Searcher
	// Loads stored points and starts background reporting
	Run(context.Context) error
	Stop()
}

// Indexer mutates layers.
type Indexer interface {
	// Insert adds points to a layer, creating it on first use. The result
	// reports per point whether it was accepted.
	Insert(ctx context.Context, layer string, points ...model.Point) ([]bool, error)
	// Remove deletes points by id and returns how many were found.
	Remove(ctx context.Context, layer string, ids ...uuid.UUID) (int, error)
	// Move relocates one point, keeping its payload.
	Move(ctx context.Context, layer string, id uuid.UUID, x, y float64) (bool, error)
	// Clear drops a layer with all its points.
	Clear(ctx context.Context, layer string) error
}

// Searcher answers spatial queries against one layer.
type Searcher interface {
	Query(ctx context.Context, layer string, r geom.Rect) ([]model.Point, error)
	QueryCircle(ctx context.Context, layer string, c geom.Circle) ([]model.Point, error)
	KNN(ctx context.Context, layer string, x, y float64, k int) ([]model.Point, error)
	Layers(ctx context.Context) []LayerStats
}

type LayerStats struct {
	Name   string    `json:"name"`
	Size   int       `json:"size"`
	Nodes  int       `json:"nodes"`
	Leaves int       `json:"leaves"`
	Depth  int       `json:"depth"`
	Bounds geom.Rect `json:"bounds"`
}

// Abstractions for getting dependencies
type (
	fetchPointsFn  func(context.Context, pointDb.FilterFn) ([]model.Point, error)
	storePointsFn  func(context.Context, []model.Point) error
	deletePointsFn func(context.Context, []model.Point) error
	deleteLayerFn  func(context.Context, string) error
)

type pullDependencies struct {
	fetchPoints  fetchPointsFn
	storePoints  storePointsFn
	deletePoints deletePointsFn
	deleteLayer  deleteLayerFn
}

type Options struct {
	bounds        geom.Rect
	capacity      int
	maxDepth      int
	autoExpand    bool
	maxKNN        int
	statsInterval time.Duration
	layers        map[string]LayerConfig
	deps          pullDependencies
}

type Option func(*manager)

func WithDefaultBounds(r geom.Rect) Option {
	return func(m *manager) {
		m.opts.bounds = r
	}
}

func WithCapacity(n int) Option {
	return func(m *manager) {
		m.opts.capacity = n
	}
}

func WithMaxDepth(n int) Option {
	return func(m *manager) {
		m.opts.maxDepth = n
	}
}

func WithAutoExpand(t bool) Option {
	return func(m *manager) {
		m.opts.autoExpand = t
	}
}

func WithMaxKNN(n int) Option {
	return func(m *manager) {
		m.opts.maxKNN = n
	}
}

func WithStatsInterval(t time.Duration) Option {
	return func(m *manager) {
		m.opts.statsInterval = t
	}
}

func WithLayers(layers map[string]LayerConfig) Option {
	return func(m *manager) {
		m.opts.layers = layers
	}
}

// New returns a manager persisting to db. A nil db keeps everything in memory.
func New(db *database.DB, opts ...Option) (*manager, error) {
	m := &manager{
		opts: Options{
			bounds:        geom.Rect{MinX: -1000, MinY: -1000, MaxX: 1000, MaxY: 1000},
			capacity:      quadtree.DefaultCapacity,
			maxDepth:      quadtree.DefaultMaxDepth,
			autoExpand:    true,
			maxKNN:        1000,
			statsInterval: 15 * time.Second,
		},
		layers: map[string]*layer{},
	}

	for _, f := range opts {
		f(m)
	}

	if err := m.opts.bounds.Validate(); err != nil {
		return nil, fmt.Errorf("default bounds: %w", err)
	}
	if m.opts.maxKNN <= 0 {
		return nil, fmt.Errorf("max knn %d must be > 0: %w", m.opts.maxKNN, geom.ErrInvalidArgument)
	}
	if _, err := m.newTree(""); err != nil {
		return nil, fmt.Errorf("layer defaults: %w", err)
	}
	// fail fast on presets the tree would refuse
	for name := range m.opts.layers {
		if _, err := m.newTree(name); err != nil {
			return nil, fmt.Errorf("layer %s: %w", name, err)
		}
	}

	if db != nil {
		store := pointDb.New(db)
		m.opts.deps = pullDependencies{
			fetchPoints:  store.FindAll,
			storePoints:  store.StoreMany,
			deletePoints: store.DeleteMany,
			deleteLayer:  store.DeleteLayer,
		}
	} else {
		m.opts.deps = pullDependencies{
			fetchPoints:  func(context.Context, pointDb.FilterFn) ([]model.Point, error) { return nil, nil },
			storePoints:  func(context.Context, []model.Point) error { return nil },
			deletePoints: func(context.Context, []model.Point) error { return nil },
			deleteLayer:  func(context.Context, string) error { return nil },
		}
	}

	return m, nil
}

// layer pairs a tree of entries with the full points they stand for.
type layer struct {
	mtx    sync.RWMutex
	name   string
	tree   *quadtree.Tree[model.Entry]
	points map[uuid.UUID]model.Point
	// set by Clear once the layer is unlinked from the manager
	dropped bool
}

type manager struct {
	mtx sync.RWMutex

	opts   Options
	layers map[string]*layer
	closed bool

	cancel func()
}

func (m *manager) newTree(name string) (*quadtree.Tree[model.Entry], error) {
	bounds, capacity, maxDepth, autoExpand := m.opts.bounds, m.opts.capacity, m.opts.maxDepth, m.opts.autoExpand
	if preset, ok := m.opts.layers[name]; ok {
		if preset.Bounds != nil {
			bounds = *preset.Bounds
		}
		if preset.Capacity > 0 {
			capacity = preset.Capacity
		}
		if preset.MaxDepth > 0 {
			maxDepth = preset.MaxDepth
		}
		if preset.AutoExpand != nil {
			autoExpand = *preset.AutoExpand
		}
	}

	// ids are unique per layer, so the tree need not look for equal entries
	return quadtree.New[model.Entry](
		model.EntryAdapter,
		quadtree.WithBounds(bounds),
		quadtree.WithCapacity(capacity),
		quadtree.WithMaxDepth(maxDepth),
		quadtree.WithAutoExpand(autoExpand),
		quadtree.WithAllowDuplicates(true),
	)
}

func validLayerName(name string) error {
	if name == "" || len(name) > maxLayerNameLen {
		return fmt.Errorf("%q: %w", name, ErrInvalidLayer)
	}
	return nil
}

// layer returns the named layer, creating it when create is set.
func (m *manager) layer(name string, create bool) (*layer, error) {
	m.mtx.RLock()
	if m.closed {
		m.mtx.RUnlock()
		return nil, ErrClosed
	}
	l, ok := m.layers[name]
	m.mtx.RUnlock()
	if ok {
		return l, nil
	}
	if !create {
		return nil, fmt.Errorf("%q: %w", name, ErrLayerNotFound)
	}
	if err := validLayerName(name); err != nil {
		return nil, err
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()
	if l, ok := m.layers[name]; ok {
		return l, nil
	}
	tree, err := m.newTree(name)
	if err != nil {
		return nil, fmt.Errorf("can not create layer %s: %w", name, err)
	}
	l = &layer{name: name, tree: tree, points: map[uuid.UUID]model.Point{}}
	m.layers[name] = l
	return l, nil
}

// acquire returns the named layer locked for writing.
func (m *manager) acquire(name string, create bool) (*layer, error) {
	for {
		l, err := m.layer(name, create)
		if err != nil {
			return nil, err
		}
		l.mtx.Lock()
		if !l.dropped {
			return l, nil
		}
		l.mtx.Unlock()
		if !create {
			return nil, fmt.Errorf("%q: %w", name, ErrLayerNotFound)
		}
	}
}

// Run loads stored points into memory and starts size reporting.
func (m *manager) Run(ctx context.Context) error {
	if err := m.bulkLoad(ctx); err != nil {
		return fmt.Errorf("can not start index manager: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	go m.schedule(ctx)

	return nil
}

func (m *manager) Stop() {
	m.mtx.Lock()
	m.closed = true
	m.mtx.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *manager) bulkLoad(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	points, err := m.opts.deps.fetchPoints(ctx, nil)
	if err != nil {
		return fmt.Errorf("error fetching all points: %w", err)
	}

	byLayer := map[string][]model.Point{}
	for _, p := range points {
		byLayer[p.Layer] = append(byLayer[p.Layer], p)
	}

	for name, list := range byLayer {
		l, err := m.acquire(name, true)
		if err != nil {
			return err
		}
		var rejected int
		for _, p := range list {
			ok, err := l.tree.Insert(p.Entry())
			if err != nil || !ok {
				rejected++
				continue
			}
			l.points[p.ID] = p
		}
		l.mtx.Unlock()
		if rejected > 0 {
			logger.Warnf("layer %s: %d stored points do not fit the layer and were skipped", name, rejected)
		}
		logger.Infof("layer %s: loaded %d points", name, len(list)-rejected)
	}

	return nil
}

func (m *manager) Insert(ctx context.Context, name string, points ...model.Point) ([]bool, error) {
	for _, p := range points {
		if !geom.Finite(p.X, p.Y) {
			return nil, fmt.Errorf("point %s at (%v, %v): %w", p.ID, p.X, p.Y, geom.ErrInvalidArgument)
		}
	}
	l, err := m.acquire(name, true)
	if err != nil {
		return nil, err
	}
	defer l.mtx.Unlock()

	results := make([]bool, len(points))
	accepted := make([]model.Point, 0, len(points))
	for i := range points {
		p := points[i]
		p.Layer = name
		if _, ok := l.points[p.ID]; ok {
			continue
		}
		ok, err := l.tree.Insert(p.Entry())
		if err != nil {
			m.rollbackInsert(l, accepted)
			return nil, err
		}
		if !ok {
			continue
		}
		l.points[p.ID] = p
		accepted = append(accepted, p)
		results[i] = true
	}

	if err := m.opts.deps.storePoints(ctx, accepted); err != nil {
		m.rollbackInsert(l, accepted)
		return nil, fmt.Errorf("unable store points: %w", err)
	}

	metric.Inserted(ctx, name, len(accepted))
	metric.Rejected(ctx, name, len(points)-len(accepted))

	return results, nil
}

func (m *manager) rollbackInsert(l *layer, accepted []model.Point) {
	for _, p := range accepted {
		l.tree.Remove(p.Entry())
		delete(l.points, p.ID)
	}
}

func (m *manager) Remove(ctx context.Context, name string, ids ...uuid.UUID) (int, error) {
	l, err := m.acquire(name, false)
	if err != nil {
		return 0, err
	}
	defer l.mtx.Unlock()

	found := make([]model.Point, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := l.points[id]; ok {
			found = append(found, p)
		}
	}

	if err := m.opts.deps.deletePoints(ctx, found); err != nil {
		return 0, fmt.Errorf("unable delete points: %w", err)
	}
	for _, p := range found {
		l.tree.Remove(p.Entry())
		delete(l.points, p.ID)
	}

	metric.Removed(ctx, name, len(found))

	return len(found), nil
}

func (m *manager) Move(ctx context.Context, name string, id uuid.UUID, x, y float64) (bool, error) {
	if !geom.Finite(x, y) {
		return false, fmt.Errorf("move to (%v, %v): %w", x, y, geom.ErrInvalidArgument)
	}
	start := time.Now()
	defer metric.Since(ctx, name, metric.OpMove, start)

	l, err := m.acquire(name, false)
	if err != nil {
		return false, err
	}
	defer l.mtx.Unlock()

	old, ok := l.points[id]
	if !ok {
		return false, nil
	}
	updated := old
	updated.X, updated.Y = x, y

	ok, err = l.tree.Replace(old.Entry(), updated.Entry())
	if err != nil || !ok {
		return false, err
	}
	if err := m.opts.deps.storePoints(ctx, []model.Point{updated}); err != nil {
		_, _ = l.tree.Replace(updated.Entry(), old.Entry())
		return false, fmt.Errorf("unable store point: %w", err)
	}
	l.points[id] = updated

	return true, nil
}

func (m *manager) Clear(ctx context.Context, name string) error {
	l, err := m.acquire(name, false)
	if err != nil {
		return err
	}
	defer l.mtx.Unlock()

	if err := m.opts.deps.deleteLayer(ctx, name); err != nil {
		return fmt.Errorf("unable delete layer: %w", err)
	}
	n := l.tree.Len()
	l.tree.Clear()
	l.points = map[uuid.UUID]model.Point{}
	l.dropped = true

	m.mtx.Lock()
	delete(m.layers, name)
	m.mtx.Unlock()

	metric.Removed(ctx, name, n)
	logging.FromContext(ctx).Infof("layer %s cleared, %d points dropped", name, n)

	return nil
}

func (m *manager) Query(ctx context.Context, name string, r geom.Rect) ([]model.Point, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return m.search(ctx, name, metric.OpQuery, func(t *quadtree.Tree[model.Entry]) []model.Entry {
		return t.Query(r)
	})
}

func (m *manager) QueryCircle(ctx context.Context, name string, c geom.Circle) ([]model.Point, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return m.search(ctx, name, metric.OpQuery, func(t *quadtree.Tree[model.Entry]) []model.Entry {
		return t.QueryCircle(c)
	})
}

// KNN returns up to k points closest to (x, y), closest first.
func (m *manager) KNN(ctx context.Context, name string, x, y float64, k int) ([]model.Point, error) {
	if !geom.Finite(x, y) {
		return nil, fmt.Errorf("knn at (%v, %v): %w", x, y, geom.ErrInvalidArgument)
	}
	if k > m.opts.maxKNN {
		return nil, fmt.Errorf("k %d exceeds limit %d: %w", k, m.opts.maxKNN, geom.ErrInvalidArgument)
	}
	return m.search(ctx, name, metric.OpKNN, func(t *quadtree.Tree[model.Entry]) []model.Entry {
		return t.KNN(x, y, k)
	})
}

func (m *manager) search(
	ctx context.Context,
	name, op string,
	fn func(*quadtree.Tree[model.Entry]) []model.Entry,
) ([]model.Point, error) {
	start := time.Now()
	defer metric.Since(ctx, name, op, start)

	l, err := m.layer(name, false)
	if err != nil {
		return nil, err
	}

	l.mtx.RLock()
	defer l.mtx.RUnlock()
	if l.dropped {
		return nil, fmt.Errorf("%q: %w", name, ErrLayerNotFound)
	}

	entries := fn(l.tree)
	points := make([]model.Point, 0, len(entries))
	for _, e := range entries {
		points = append(points, l.points[e.ID])
	}
	return points, nil
}

// Layers reports every layer sorted by name.
func (m *manager) Layers(_ context.Context) []LayerStats {
	m.mtx.RLock()
	layers := make([]*layer, 0, len(m.layers))
	for _, l := range m.layers {
		layers = append(layers, l)
	}
	m.mtx.RUnlock()

	stats := make([]LayerStats, 0, len(layers))
	for _, l := range layers {
		l.mtx.RLock()
		s := l.tree.Stats()
		l.mtx.RUnlock()
		stats = append(stats, LayerStats{
			Name:   l.name,
			Size:   s.Size,
			Nodes:  s.Nodes,
			Leaves: s.Leaves,
			Depth:  s.Depth,
			Bounds: s.Bounds,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Name < stats[j].Name
	})
	return stats
}

// schedule reports layer sizes until ctx is done.
func (m *manager) schedule(ctx context.Context) {
	if m.opts.statsInterval <= 0 {
		return
	}
	ticker := time.NewTicker(m.opts.statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for _, s := range m.Layers(ctx) {
				metric.Size(ctx, s.Name, s.Size)
			}
		case <-ctx.Done():
			return
		}
	}
}
