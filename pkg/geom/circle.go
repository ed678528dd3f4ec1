package geom

import (
	"fmt"
	"math"
)

type Circle struct {
	CX float64 `json:"cx"`
	CY float64 `json:"cy"`
	R  float64 `json:"r"`
}

func NewCircle(cx, cy, r float64) (Circle, error) {
	c := Circle{CX: cx, CY: cy, R: r}
	if err := c.Validate(); err != nil {
		return Circle{}, err
	}
	return c, nil
}

func (c Circle) Validate() error {
	if math.IsNaN(c.R) || c.R < 0 {
		return fmt.Errorf("radius %v must be >= 0: %w", c.R, ErrInvalidArgument)
	}
	if !finite(c.CX, c.CY) {
		return fmt.Errorf("center (%v, %v) must be finite: %w", c.CX, c.CY, ErrInvalidArgument)
	}
	return nil
}

func (c Circle) ContainsPoint(x, y float64) bool {
	dx := x - c.CX
	dy := y - c.CY
	return dx*dx+dy*dy <= c.R*c.R
}

func (c Circle) IntersectsRect(r Rect) bool {
	return r.DistanceSquaredToPoint(c.CX, c.CY) <= c.R*c.R
}
