package quadtree

import (
	"math"

	"github.com/go-sod/quad/pkg/geom"
)

// Child slots, in the order children are visited.
const (
	nw = iota
	ne
	sw
	se
)

// node is an arena entry. children holds the arena indices of all four
// quadrants, or is nil for a leaf.
type node[T any] struct {
	bounds   geom.Rect
	depth    int
	items    []T
	children *[4]int
}

func (n *node[T]) leaf() bool {
	return n.children == nil
}

// quadrantOf returns the child slot strictly containing (x, y). Points within
// BoundaryEpsilon of either center line have no child and stay at the node.
func quadrantOf(b geom.Rect, x, y float64) (int, bool) {
	mx, my := b.CenterX(), b.CenterY()
	if math.Abs(x-mx) <= BoundaryEpsilon || math.Abs(y-my) <= BoundaryEpsilon {
		return 0, false
	}
	if x < mx {
		if y >= my {
			return nw, true
		}
		return sw, true
	}
	if y >= my {
		return ne, true
	}
	return se, true
}

func indexOf[T comparable](items []T, item T) int {
	for i := range items {
		if items[i] == item {
			return i
		}
	}
	return -1
}

// removeAt deletes items[i] keeping the order of the rest.
func removeAt[T any](items []T, i int) []T {
	var zero T
	copy(items[i:], items[i+1:])
	items[len(items)-1] = zero
	return items[:len(items)-1]
}
