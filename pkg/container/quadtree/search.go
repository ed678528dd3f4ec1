package quadtree

import "github.com/go-sod/quad/pkg/geom"

// Region is a query area. Nodes whose bounds it does not intersect are
// pruned along with their subtrees.
type Region interface {
	ContainsPoint(x, y float64) bool
	IntersectsRect(r geom.Rect) bool
}

var (
	_ Region = geom.Rect{}
	_ Region = geom.Circle{}
)

// Query returns the items inside r, edges included.
func (t *Tree[T]) Query(r geom.Rect) []T {
	return t.Search(r)
}

// QueryCircle returns the items within c.R of the circle's center.
func (t *Tree[T]) QueryCircle(c geom.Circle) []T {
	return t.Search(c)
}

// Search returns the items inside region in node visitation order: a node's
// own items first, then its NW, NE, SW and SE subtrees.
func (t *Tree[T]) Search(region Region) []T {
	return t.search(0, region, make([]T, 0))
}

func (t *Tree[T]) search(idx int, region Region, out []T) []T {
	n := &t.nodes[idx]
	if !region.IntersectsRect(n.bounds) {
		return out
	}
	for _, item := range n.items {
		if region.ContainsPoint(t.adapter.X(item), t.adapter.Y(item)) {
			out = append(out, item)
		}
	}
	if n.children == nil {
		return out
	}
	for _, c := range n.children {
		out = t.search(c, region, out)
	}
	return out
}
