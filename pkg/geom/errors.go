package geom

import (
	"errors"
	"math"
)

// ErrInvalidArgument is returned for non-finite coordinates, negative radii
// and inverted rectangles.
var ErrInvalidArgument = errors.New("invalid argument")

func finite(v ...float64) bool {
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Finite reports whether x and y are both neither NaN nor infinite.
func Finite(x, y float64) bool {
	return finite(x, y)
}
