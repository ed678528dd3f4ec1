package quadtree

import (
	"github.com/go-sod/quad/pkg/pqueue"
)

// KNN returns up to k items closest to (x, y) by Euclidean distance, closest
// first. Equal distances are ordered deterministically for a given tree.
func (t *Tree[T]) KNN(x, y float64, k int) []T {
	if k <= 0 {
		return []T{}
	}

	frontier := pqueue.New[int](pqueue.WithOrderAsc())
	best := pqueue.New[T](pqueue.WithOrderDesc(), pqueue.WithCap(uint(k)))
	frontier.Push(0, t.nodes[0].bounds.DistanceSquaredToPoint(x, y))

	for frontier.Len() > 0 {
		idx, dist, _ := frontier.Head()
		// Children are never closer than their parent, so the frontier pops in
		// non-decreasing order and nothing left can beat the k-th candidate.
		if best.Full() && dist > kthDistance(best) {
			break
		}
		n := &t.nodes[idx]
		for _, item := range n.items {
			dx, dy := t.adapter.X(item)-x, t.adapter.Y(item)-y
			best.Push(item, dx*dx+dy*dy)
		}
		if n.children == nil {
			continue
		}
		for _, c := range n.children {
			cd := t.nodes[c].bounds.DistanceSquaredToPoint(x, y)
			if !best.Full() || cd <= kthDistance(best) {
				frontier.Push(c, cd)
			}
		}
	}

	out := best.PopAll()
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func kthDistance[T any](best *pqueue.Queue[T]) float64 {
	_, d, _ := best.Peek()
	return d
}
