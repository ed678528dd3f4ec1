package quadtree

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/go-sod/quad/pkg/geom"
)

type item struct {
	id   int
	x, y float64
}

var itemAdapter = NewAdapter(func(i item) float64 { return i.x }, func(i item) float64 { return i.y })

func newTestTree(t *testing.T, opts ...Option) *Tree[item] {
	t.Helper()
	tree, err := New[item](itemAdapter, opts...)
	if err != nil {
		t.Fatalf("the error should not be returned, got: %v", err)
	}
	return tree
}

// checkInvariants verifies containment of every held item and that Len
// matches a full traversal.
func checkInvariants(t *testing.T, tree *Tree[item]) {
	t.Helper()
	var counted int
	tree.walk(0, func(n *node[item]) {
		counted += len(n.items)
		for _, it := range n.items {
			if !n.bounds.ContainsPoint(it.x, it.y) {
				t.Errorf("item %v is held by a node with bounds %v", it, n.bounds)
			}
			if !tree.Bounds().ContainsPoint(it.x, it.y) {
				t.Errorf("item %v is outside the root bounds %v", it, tree.Bounds())
			}
		}
		if n.children != nil {
			for _, c := range n.children {
				if tree.nodes[c].depth != n.depth+1 {
					t.Errorf("child depth got: %d, expected: %d", tree.nodes[c].depth, n.depth+1)
				}
			}
		}
	})
	if counted != tree.Len() {
		t.Errorf("size got: %d, traversal counted: %d\n%s", tree.Len(), counted, spew.Sdump(tree.Stats()))
	}
}

func TestNew(t *testing.T) {
	bounds := geom.Rect{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	tests := []struct {
		name        string
		adapter     Adapter[item]
		opts        []Option
		expectedErr error
	}{
		{name: "positive", adapter: itemAdapter, opts: []Option{WithBounds(bounds)}},
		{name: "negative_no_bounds", adapter: itemAdapter, expectedErr: ErrInvalidState},
		{name: "negative_no_adapter", opts: []Option{WithBounds(bounds)}, expectedErr: ErrInvalidState},
		{
			name:        "negative_capacity",
			adapter:     itemAdapter,
			opts:        []Option{WithBounds(bounds), WithCapacity(0)},
			expectedErr: ErrInvalidArgument,
		},
		{
			name:        "negative_max_depth",
			adapter:     itemAdapter,
			opts:        []Option{WithBounds(bounds), WithMaxDepth(0)},
			expectedErr: ErrInvalidArgument,
		},
		{
			name:        "negative_inverted_bounds",
			adapter:     itemAdapter,
			opts:        []Option{WithBounds(geom.Rect{MinX: 1, MaxX: 0})},
			expectedErr: ErrInvalidArgument,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tree, err := New[item](test.adapter, test.opts...)
			if !errors.Is(err, test.expectedErr) {
				t.Errorf("creating tree, err got: %v, expected: %v", err, test.expectedErr)
			}
			if err != nil && tree != nil {
				t.Errorf("no tree must be returned on error")
			}
			if err == nil && (tree.Len() != 0 || tree.Bounds() != bounds) {
				t.Errorf("new tree, got len: %d bounds: %v", tree.Len(), tree.Bounds())
			}
		})
	}
}

func TestTree_Defaults(t *testing.T) {
	tree := newTestTree(t, WithBounds(geom.Rect{MaxX: 1, MaxY: 1}))
	expected := options{capacity: 16, maxDepth: 16, autoExpand: true, allowDuplicates: true}
	tree.opts.bounds = nil
	if !reflect.DeepEqual(tree.opts, expected) {
		t.Errorf("default options, got: %+v, expected: %+v", tree.opts, expected)
	}
}

func TestTree_SubdivideAndQuery(t *testing.T) {
	tree := newTestTree(t,
		WithBounds(geom.Rect{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}),
		WithCapacity(2),
		WithMaxDepth(4),
		WithAllowDuplicates(false),
	)
	a, b, c := item{1, 10, 10}, item{2, 20, 20}, item{3, 80, 80}
	for _, it := range []item{a, b, c} {
		if ok, err := tree.Insert(it); !ok || err != nil {
			t.Fatalf("inserting %v, got: %v %v, expected: true <nil>", it, ok, err)
		}
	}
	if tree.nodes[0].leaf() {
		t.Fatalf("the root must subdivide once it holds more than capacity items")
	}
	if len(tree.nodes[0].items) != 0 {
		t.Errorf("the root must hold no items after redistribution, got: %v", tree.nodes[0].items)
	}
	if got := tree.nodes[tree.nodes[0].children[sw]].items; !reflect.DeepEqual(got, []item{a, b}) {
		t.Errorf("south west items, got: %v, expected: %v", got, []item{a, b})
	}
	if got := tree.nodes[tree.nodes[0].children[ne]].items; !reflect.DeepEqual(got, []item{c}) {
		t.Errorf("north east items, got: %v, expected: %v", got, []item{c})
	}

	if got := tree.Query(geom.Rect{MinX: 0, MinY: 0, MaxX: 50, MaxY: 50}); !reflect.DeepEqual(got, []item{a, b}) {
		t.Errorf("query, got: %v, expected: %v", got, []item{a, b})
	}
	if got := tree.KNN(15, 15, 1); !reflect.DeepEqual(got, []item{a}) {
		t.Errorf("knn, got: %v, expected: %v", got, []item{a})
	}
	checkInvariants(t, tree)
}

func TestTree_BoundaryItem(t *testing.T) {
	tree := newTestTree(t,
		WithBounds(geom.Rect{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}),
		WithCapacity(2),
		WithMaxDepth(4),
		WithAllowDuplicates(false),
	)
	_, _ = tree.InsertAll(item{1, 10, 10}, item{2, 20, 20}, item{3, 80, 80})

	center := item{4, 50, 50}
	if ok, _ := tree.Insert(center); !ok {
		t.Fatalf("inserting the center item must succeed")
	}
	if got := tree.nodes[0].items; !reflect.DeepEqual(got, []item{center}) {
		t.Errorf("the center item must stay at the root, root items got: %v", got)
	}
	if got := tree.KNN(50, 50, 1); !reflect.DeepEqual(got, []item{center}) {
		t.Errorf("knn must see items held by internal nodes, got: %v", got)
	}
	if !tree.Remove(center) {
		t.Errorf("removing the center item must succeed")
	}
	if tree.Len() != 3 {
		t.Errorf("size after remove, got: %d, expected: 3", tree.Len())
	}
	checkInvariants(t, tree)
}

func TestTree_BoundaryDeterminism(t *testing.T) {
	for run := 0; run < 3; run++ {
		tree := newTestTree(t, WithBounds(geom.Rect{MaxX: 100, MaxY: 100}), WithCapacity(1))
		onLine := []item{{1, 50, 10}, {2, 50, 90}, {3, 25, 50}}
		_, _ = tree.InsertAll(item{0, 10, 10})
		_, _ = tree.InsertAll(onLine...)
		if !reflect.DeepEqual(tree.nodes[0].items, onLine) {
			t.Errorf("run %d: items on the split lines must stay at the root, got: %v", run, tree.nodes[0].items)
		}
		checkInvariants(t, tree)
	}
}

func TestTree_EpsilonBoundary(t *testing.T) {
	tree := newTestTree(t, WithBounds(geom.Rect{MaxX: 100, MaxY: 100}), WithCapacity(1))
	near := item{1, 50 + BoundaryEpsilon/2, 10}
	far := item{2, 50 + 1e-9, 10}
	_, _ = tree.InsertAll(item{0, 10, 10}, near, far)
	if indexOf(tree.nodes[0].items, near) < 0 {
		t.Errorf("item within epsilon of the split line must stay at the root")
	}
	if indexOf(tree.nodes[0].items, far) >= 0 {
		t.Errorf("item beyond epsilon of the split line must move to a child")
	}
}

func TestTree_MaxDepth(t *testing.T) {
	tree := newTestTree(t, WithBounds(geom.Rect{MaxX: 100, MaxY: 100}), WithCapacity(1), WithMaxDepth(2))
	for i := 0; i < 20; i++ {
		_, _ = tree.Insert(item{i, 1 + float64(i)*0.01, 1})
	}
	if s := tree.Stats(); s.Depth != 2 || s.Size != 20 {
		t.Errorf("stats, got: %s", spew.Sdump(s))
	}
	checkInvariants(t, tree)
}

func TestTree_AutoExpand(t *testing.T) {
	tree := newTestTree(t, WithBounds(geom.Rect{MaxX: 10, MaxY: 10}), WithCapacity(1))
	inside := []item{{1, 1, 1}, {2, 9, 9}, {3, 5, 5}, {4, 2, 8}}
	_, _ = tree.InsertAll(inside...)

	outside := item{5, 30, -5}
	if ok, err := tree.Insert(outside); !ok || err != nil {
		t.Fatalf("inserting outside with auto expand, got: %v %v", ok, err)
	}
	expected := geom.Rect{MinX: 0, MinY: -5, MaxX: 30, MaxY: 10}
	if tree.Bounds() != expected {
		t.Errorf("bounds after expand, got: %v, expected: %v", tree.Bounds(), expected)
	}
	if tree.Len() != 5 {
		t.Errorf("size after expand, got: %d, expected: 5", tree.Len())
	}
	for _, it := range append(inside, outside) {
		got := tree.Query(geom.Rect{MinX: it.x, MinY: it.y, MaxX: it.x, MaxY: it.y})
		if !reflect.DeepEqual(got, []item{it}) {
			t.Errorf("item %v must be retrievable after expand, got: %v", it, got)
		}
	}
	checkInvariants(t, tree)
}

func TestTree_NoAutoExpand(t *testing.T) {
	tree := newTestTree(t, WithBounds(geom.Rect{MaxX: 10, MaxY: 10}), WithAutoExpand(false))
	ok, err := tree.Insert(item{1, 11, 5})
	if ok || err != nil {
		t.Errorf("inserting outside without auto expand, got: %v %v, expected: false <nil>", ok, err)
	}
	if tree.Len() != 0 || tree.Bounds() != (geom.Rect{MaxX: 10, MaxY: 10}) {
		t.Errorf("rejected insert must not change the tree")
	}
}

func TestTree_Duplicates(t *testing.T) {
	tests := []struct {
		name            string
		allowDuplicates bool
		expectedLen     int
	}{
		{name: "allowed", allowDuplicates: true, expectedLen: 2},
		{name: "disallowed", allowDuplicates: false, expectedLen: 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tree := newTestTree(t, WithBounds(geom.Rect{MaxX: 10, MaxY: 10}), WithAllowDuplicates(test.allowDuplicates))
			it := item{1, 3, 3}
			n, err := tree.InsertAll(it, it)
			if err != nil || n != test.expectedLen || tree.Len() != test.expectedLen {
				t.Errorf("inserting duplicates, got: %d %v, expected: %d", n, err, test.expectedLen)
			}
		})
	}
}

func TestTree_InvalidCoordinates(t *testing.T) {
	tree := newTestTree(t, WithBounds(geom.Rect{MaxX: 10, MaxY: 10}))
	n, err := tree.InsertAll(item{1, 1, 1}, item{2, math.NaN(), 1}, item{3, 2, 2})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("inserting NaN, err got: %v, expected: %v", err, ErrInvalidArgument)
	}
	if n != 1 || tree.Len() != 1 {
		t.Errorf("insert all must stop at the invalid item, got count: %d len: %d", n, tree.Len())
	}
	if _, err := tree.Insert(item{4, 1, math.Inf(1)}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("inserting Inf, err got: %v, expected: %v", err, ErrInvalidArgument)
	}
}

type strictAdapter struct{ Adapter[item] }

var errNegative = errors.New("negative id")

func (strictAdapter) Validate(i item) error {
	if i.id < 0 {
		return errNegative
	}
	return nil
}

func TestTree_CustomValidator(t *testing.T) {
	tree, err := New[item](strictAdapter{itemAdapter}, WithBounds(geom.Rect{MaxX: 10, MaxY: 10}))
	if err != nil {
		t.Fatalf("the error should not be returned, got: %v", err)
	}
	if _, err := tree.Insert(item{-1, 1, 1}); !errors.Is(err, errNegative) {
		t.Errorf("custom validation, err got: %v, expected: %v", err, errNegative)
	}
}

func TestTree_Remove(t *testing.T) {
	tree := newTestTree(t, WithBounds(geom.Rect{MaxX: 100, MaxY: 100}), WithCapacity(2))
	items := []item{{1, 10, 10}, {2, 20, 20}, {3, 80, 80}, {4, 70, 20}, {5, 30, 60}}
	_, _ = tree.InsertAll(items...)

	if tree.Remove(item{9, 10, 10}) {
		t.Errorf("removing an absent item must fail")
	}
	if tree.Remove(item{1, 200, 200}) {
		t.Errorf("removing an item outside the bounds must fail")
	}
	for i, it := range items {
		if !tree.Remove(it) {
			t.Errorf("removing %v must succeed", it)
		}
		if tree.Len() != len(items)-i-1 {
			t.Errorf("size after remove, got: %d, expected: %d", tree.Len(), len(items)-i-1)
		}
		checkInvariants(t, tree)
	}
	if tree.Remove(items[0]) {
		t.Errorf("removing twice must fail")
	}
	if tree.nodes[0].leaf() {
		t.Errorf("removal must not collapse subdivided nodes")
	}
}

func TestTree_RemoveIf(t *testing.T) {
	tree := newTestTree(t, WithBounds(geom.Rect{MaxX: 100, MaxY: 100}), WithCapacity(1))
	for i := 0; i < 50; i++ {
		_, _ = tree.Insert(item{i, float64(i*2) + 0.5, float64(100-i*2) - 0.5})
	}
	_, _ = tree.Insert(item{100, 50, 50})
	removed := tree.RemoveIf(func(i item) bool { return i.id%2 == 0 })
	if removed != 26 {
		t.Errorf("removed got: %d, expected: 26", removed)
	}
	if tree.Len() != 25 {
		t.Errorf("size after remove if, got: %d, expected: 25", tree.Len())
	}
	for _, it := range tree.Items() {
		if it.id%2 == 0 {
			t.Errorf("item %v must have been removed", it)
		}
	}
	checkInvariants(t, tree)
}

func TestTree_Update(t *testing.T) {
	tree := newTestTree(t, WithBounds(geom.Rect{MaxX: 10, MaxY: 10}))
	it := item{1, 2, 2}
	_, _ = tree.Insert(it)
	if ok, err := tree.Update(it); !ok || err != nil {
		t.Errorf("updating a stored item, got: %v %v", ok, err)
	}
	if tree.Len() != 1 {
		t.Errorf("size after update, got: %d, expected: 1", tree.Len())
	}
	absent := item{2, 3, 3}
	if ok, _ := tree.Update(absent); ok {
		t.Errorf("updating an absent item must report false")
	}
	if tree.Len() != 2 {
		t.Errorf("update of an absent item still inserts it, size got: %d, expected: 2", tree.Len())
	}
}

func TestTree_Replace(t *testing.T) {
	tree := newTestTree(t, WithBounds(geom.Rect{MaxX: 10, MaxY: 10}), WithCapacity(1), WithAutoExpand(false))
	old := item{1, 2, 2}
	_, _ = tree.InsertAll(old, item{2, 8, 8})

	moved := item{1, 7, 1}
	if ok, err := tree.Replace(old, moved); !ok || err != nil {
		t.Fatalf("replacing, got: %v %v", ok, err)
	}
	if got := tree.Query(geom.Rect{MinX: 7, MinY: 1, MaxX: 7, MaxY: 1}); !reflect.DeepEqual(got, []item{moved}) {
		t.Errorf("moved item, got: %v, expected: %v", got, []item{moved})
	}

	if ok, _ := tree.Replace(moved, item{1, 50, 50}); ok {
		t.Errorf("replacing with an out of bounds item must fail without auto expand")
	}
	if got := tree.Query(geom.Rect{MinX: 7, MinY: 1, MaxX: 7, MaxY: 1}); !reflect.DeepEqual(got, []item{moved}) {
		t.Errorf("a failed replace must restore the old item, got: %v", got)
	}
	if ok, _ := tree.Replace(item{9, 1, 1}, item{9, 2, 2}); ok {
		t.Errorf("replacing an absent item must fail")
	}
	if _, err := tree.Replace(moved, item{1, math.NaN(), 1}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("replacing with NaN, err got: %v, expected: %v", err, ErrInvalidArgument)
	}
	if tree.Len() != 2 {
		t.Errorf("size after replaces, got: %d, expected: 2", tree.Len())
	}
	checkInvariants(t, tree)
}

func TestTree_Clear(t *testing.T) {
	tree := newTestTree(t, WithBounds(geom.Rect{MaxX: 10, MaxY: 10}), WithCapacity(1))
	_, _ = tree.InsertAll(item{1, 1, 1}, item{2, 9, 9}, item{3, 20, 20})
	grown := tree.Bounds()
	tree.Clear()
	if tree.Len() != 0 || tree.Bounds() != grown || len(tree.nodes) != 1 {
		t.Errorf("clear, got len: %d bounds: %v nodes: %d", tree.Len(), tree.Bounds(), len(tree.nodes))
	}
	if got := tree.Query(grown); len(got) != 0 {
		t.Errorf("query after clear, got: %v", got)
	}
	if got := tree.QueryCircle(geom.Circle{CX: 5, CY: 5, R: 100}); len(got) != 0 {
		t.Errorf("circle query after clear, got: %v", got)
	}
	if got := tree.KNN(1, 1, 3); len(got) != 0 {
		t.Errorf("knn after clear, got: %v", got)
	}
}

func TestTree_QueryCircle(t *testing.T) {
	tree := newTestTree(t, WithBounds(geom.Rect{MaxX: 100, MaxY: 100}), WithCapacity(1))
	in := []item{{1, 50, 50}, {2, 53, 54}, {3, 45, 50}}
	out := []item{{4, 54, 54}, {5, 10, 10}, {6, 90, 90}}
	_, _ = tree.InsertAll(append(in, out...)...)
	got := tree.QueryCircle(geom.Circle{CX: 50, CY: 50, R: 5})
	if len(got) != len(in) {
		t.Fatalf("circle query, got: %v, expected: %v", got, in)
	}
	for _, it := range in {
		if indexOf(got, it) < 0 {
			t.Errorf("circle query must return %v, got: %v", it, got)
		}
	}
}

func TestTree_PointAdapter(t *testing.T) {
	tree, err := New[geom.Point](PointAdapter{}, WithBounds(geom.Rect{MaxX: 1, MaxY: 1}))
	if err != nil {
		t.Fatalf("the error should not be returned, got: %v", err)
	}
	_, _ = tree.InsertAll(geom.Point{X: 0.1, Y: 0.1}, geom.Point{X: 0.9, Y: 0.9})
	if got := tree.KNN(1, 1, 1); !reflect.DeepEqual(got, []geom.Point{{X: 0.9, Y: 0.9}}) {
		t.Errorf("knn over points, got: %v", got)
	}
}
