package quadtree

import (
	"fmt"

	"github.com/go-sod/quad/pkg/geom"
)

const (
	DefaultCapacity = 16
	DefaultMaxDepth = 16
)

// BoundaryEpsilon is the absolute distance from a node's center lines within
// which an item is kept at the node instead of a child.
const BoundaryEpsilon = 1e-12

// WithBounds sets the root rectangle. Required.
func WithBounds(r geom.Rect) Option {
	return func(o *options) {
		o.bounds = &r
	}
}

// WithCapacity sets how many items a leaf holds before it subdivides.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithMaxDepth sets the depth at which leaves stop subdividing.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		o.maxDepth = n
	}
}

// WithAutoExpand controls whether an insert outside the bounds grows the root
// and rebuilds the tree, or is rejected.
func WithAutoExpand(t bool) Option {
	return func(o *options) {
		o.autoExpand = t
	}
}

// WithAllowDuplicates controls whether an item equal to one already held by
// the target node may be inserted.
func WithAllowDuplicates(t bool) Option {
	return func(o *options) {
		o.allowDuplicates = t
	}
}

type Option func(*options)

type options struct {
	bounds          *geom.Rect
	capacity        int
	maxDepth        int
	autoExpand      bool
	allowDuplicates bool
}

func defaultOptions() options {
	return options{
		capacity:        DefaultCapacity,
		maxDepth:        DefaultMaxDepth,
		autoExpand:      true,
		allowDuplicates: true,
	}
}

func (o options) validate() error {
	if o.bounds == nil {
		return fmt.Errorf("bounds must be set: %w", ErrInvalidState)
	}
	if err := o.bounds.Validate(); err != nil {
		return fmt.Errorf("bounds: %w", err)
	}
	if o.capacity <= 0 {
		return fmt.Errorf("capacity %d must be > 0: %w", o.capacity, ErrInvalidArgument)
	}
	if o.maxDepth < 1 {
		return fmt.Errorf("max depth %d must be >= 1: %w", o.maxDepth, ErrInvalidArgument)
	}
	return nil
}
