package quadtree

import (
	"fmt"

	"github.com/go-sod/quad/pkg/geom"
)

// Adapter extracts coordinates from an item stored in the tree.
type Adapter[T any] interface {
	X(item T) float64
	Y(item T) float64
}

// Validator can be implemented by an Adapter to replace the default finite
// coordinate check run on every insert.
type Validator[T any] interface {
	Validate(item T) error
}

// Validate runs the adapter's own validation when it has one, otherwise it
// rejects NaN and infinite coordinates.
func Validate[T any](a Adapter[T], item T) error {
	if v, ok := a.(Validator[T]); ok {
		return v.Validate(item)
	}
	x, y := a.X(item), a.Y(item)
	if !geom.Finite(x, y) {
		return fmt.Errorf("coordinates (%v, %v) must be finite: %w", x, y, ErrInvalidArgument)
	}
	return nil
}

type funcAdapter[T any] struct {
	x, y func(T) float64
}

func (f funcAdapter[T]) X(item T) float64 { return f.x(item) }

func (f funcAdapter[T]) Y(item T) float64 { return f.y(item) }

// NewAdapter builds an Adapter from two accessor functions.
func NewAdapter[T any](x, y func(T) float64) Adapter[T] {
	return funcAdapter[T]{x: x, y: y}
}

// PointAdapter adapts geom.Point.
type PointAdapter struct{}

func (PointAdapter) X(p geom.Point) float64 { return p.X }

func (PointAdapter) Y(p geom.Point) float64 { return p.Y }
