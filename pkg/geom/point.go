package geom

import (
	"fmt"
	"strconv"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewPoint(x, y float64) (Point, error) {
	if !finite(x, y) {
		return Point{}, fmt.Errorf("point (%v, %v) must be finite: %w", x, y, ErrInvalidArgument)
	}
	return Point{X: x, Y: y}, nil
}

func (p Point) DistanceSquaredTo(x, y float64) float64 {
	dx := p.X - x
	dy := p.Y - y
	return dx*dx + dy*dy
}

func (p Point) String() string {
	return "[" + strconv.FormatFloat(p.X, 'f', -1, 64) + "," + strconv.FormatFloat(p.Y, 'f', -1, 64) + "]"
}
