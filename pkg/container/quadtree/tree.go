// Package quadtree implements a dynamic point-region quadtree over arbitrary
// item types.
//
// A Tree is not safe for concurrent use. Callers sharing one across
// goroutines must serialize mutations against each other and against
// queries, for example with a sync.RWMutex.
package quadtree

import (
	"fmt"

	"github.com/go-sod/quad/pkg/geom"
)

// New builds an empty tree. Bounds are required; the adapter must be non-nil.
func New[T comparable](adapter Adapter[T], opts ...Option) (*Tree[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if adapter == nil {
		return nil, fmt.Errorf("adapter must be set: %w", ErrInvalidState)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	t := &Tree[T]{adapter: adapter, opts: o}
	t.reset(*o.bounds)
	return t, nil
}

// Tree is a quadtree whose nodes live in an arena; nodes[0] is the root.
type Tree[T comparable] struct {
	adapter Adapter[T]
	opts    options
	nodes   []node[T]
	size    int
}

// Insert validates the item's coordinates and stores it. It reports false when
// the item lies outside the bounds and auto-expand is off, or when an equal
// item is already held at the target node and duplicates are disallowed.
func (t *Tree[T]) Insert(item T) (bool, error) {
	if err := Validate(t.adapter, item); err != nil {
		return false, err
	}
	return t.insert(item, t.adapter.X(item), t.adapter.Y(item)), nil
}

// InsertAll inserts items in order and returns how many were stored. It stops
// at the first item with invalid coordinates.
func (t *Tree[T]) InsertAll(items ...T) (int, error) {
	var n int
	for _, item := range items {
		ok, err := t.Insert(item)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// Remove deletes one item equal to item, looked up at the coordinates the
// adapter currently reports for it.
func (t *Tree[T]) Remove(item T) bool {
	x, y := t.adapter.X(item), t.adapter.Y(item)
	idx := 0
	for {
		n := &t.nodes[idx]
		if !n.bounds.ContainsPoint(x, y) {
			return false
		}
		if i := indexOf(n.items, item); i >= 0 {
			n.items = removeAt(n.items, i)
			t.size--
			return true
		}
		if n.leaf() {
			return false
		}
		q, ok := quadrantOf(n.bounds, x, y)
		if !ok {
			return false
		}
		idx = n.children[q]
	}
}

// RemoveIf deletes every item matching pred and returns how many were removed.
func (t *Tree[T]) RemoveIf(pred func(T) bool) int {
	var removed int
	t.walk(0, func(n *node[T]) {
		kept := n.items[:0]
		for _, item := range n.items {
			if pred(item) {
				removed++
				continue
			}
			kept = append(kept, item)
		}
		var zero T
		for i := len(kept); i < len(n.items); i++ {
			n.items[i] = zero
		}
		n.items = kept
	})
	t.size -= removed
	return removed
}

// Update removes item and inserts it again, reporting true only if both
// succeeded. Removal uses the coordinates the adapter reports now, so an item
// whose position already changed is not found; use Replace for moves.
func (t *Tree[T]) Update(item T) (bool, error) {
	removed := t.Remove(item)
	inserted, err := t.Insert(item)
	if err != nil {
		return false, err
	}
	return removed && inserted, nil
}

// Replace removes old under its own coordinates and inserts updated. When
// updated is rejected, old is put back and false is returned.
func (t *Tree[T]) Replace(old, updated T) (bool, error) {
	if err := Validate(t.adapter, updated); err != nil {
		return false, err
	}
	if !t.Remove(old) {
		return false, nil
	}
	if t.insert(updated, t.adapter.X(updated), t.adapter.Y(updated)) {
		return true, nil
	}
	t.insert(old, t.adapter.X(old), t.adapter.Y(old))
	return false, nil
}

// Clear drops every item and keeps the current bounds.
func (t *Tree[T]) Clear() {
	t.reset(t.nodes[0].bounds)
}

func (t *Tree[T]) Len() int {
	return t.size
}

func (t *Tree[T]) Bounds() geom.Rect {
	return t.nodes[0].bounds
}

// Items returns every stored item, parents before children and children in
// NW, NE, SW, SE order.
func (t *Tree[T]) Items() []T {
	out := make([]T, 0, t.size)
	t.walk(0, func(n *node[T]) {
		out = append(out, n.items...)
	})
	return out
}

type Stats struct {
	Nodes  int       `json:"nodes"`
	Leaves int       `json:"leaves"`
	Depth  int       `json:"depth"`
	Size   int       `json:"size"`
	Bounds geom.Rect `json:"bounds"`
}

func (t *Tree[T]) Stats() Stats {
	s := Stats{Nodes: len(t.nodes), Size: t.size, Bounds: t.Bounds()}
	for i := range t.nodes {
		if t.nodes[i].leaf() {
			s.Leaves++
		}
		if t.nodes[i].depth > s.Depth {
			s.Depth = t.nodes[i].depth
		}
	}
	return s
}

func (t *Tree[T]) reset(bounds geom.Rect) {
	t.nodes = []node[T]{{bounds: bounds}}
	t.size = 0
}

func (t *Tree[T]) insert(item T, x, y float64) bool {
	if !t.nodes[0].bounds.ContainsPoint(x, y) {
		if !t.opts.autoExpand {
			return false
		}
		t.rebuild(t.nodes[0].bounds.ExpandToFit(x, y))
	}
	if !t.insertInto(0, item, x, y) {
		return false
	}
	t.size++
	return true
}

// rebuild reinserts every item into a fresh root with the given bounds.
func (t *Tree[T]) rebuild(bounds geom.Rect) {
	all := t.Items()
	t.reset(bounds)
	for _, item := range all {
		t.insert(item, t.adapter.X(item), t.adapter.Y(item))
	}
}

func (t *Tree[T]) insertInto(idx int, item T, x, y float64) bool {
	for {
		n := &t.nodes[idx]
		if !n.bounds.ContainsPoint(x, y) {
			return false
		}
		if !n.leaf() {
			if q, ok := quadrantOf(n.bounds, x, y); ok {
				idx = n.children[q]
				continue
			}
		}
		if !t.opts.allowDuplicates && indexOf(n.items, item) >= 0 {
			return false
		}
		n.items = append(n.items, item)
		if n.leaf() && len(n.items) > t.opts.capacity && n.depth < t.opts.maxDepth {
			t.subdivide(idx)
		}
		return true
	}
}

// subdivide attaches four empty children to a leaf and moves every item that
// falls strictly inside one quadrant down into it.
func (t *Tree[T]) subdivide(idx int) {
	bounds, depth := t.nodes[idx].bounds, t.nodes[idx].depth
	quads := bounds.Quadrants()
	var children [4]int
	for q := range quads {
		children[q] = len(t.nodes)
		t.nodes = append(t.nodes, node[T]{bounds: quads[q], depth: depth + 1})
	}

	drained := t.nodes[idx].items
	var kept []T
	for _, item := range drained {
		q, ok := quadrantOf(bounds, t.adapter.X(item), t.adapter.Y(item))
		if !ok {
			kept = append(kept, item)
			continue
		}
		c := &t.nodes[children[q]]
		c.items = append(c.items, item)
	}

	n := &t.nodes[idx]
	n.items = kept
	n.children = &children
}

func (t *Tree[T]) walk(idx int, fn func(n *node[T])) {
	n := &t.nodes[idx]
	fn(n)
	if n.children == nil {
		return
	}
	for _, c := range n.children {
		t.walk(c, fn)
	}
}
