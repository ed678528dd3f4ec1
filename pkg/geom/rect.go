package geom

import (
	"fmt"
	"math"
	"strconv"
)

// Rect is an axis-aligned rectangle. Containment and intersection are
// inclusive on every edge.
type Rect struct {
	MinX float64 `json:"minX" toml:"min_x"`
	MinY float64 `json:"minY" toml:"min_y"`
	MaxX float64 `json:"maxX" toml:"max_x"`
	MaxY float64 `json:"maxY" toml:"max_y"`
}

func NewRect(minX, minY, maxX, maxY float64) (Rect, error) {
	r := Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
	if err := r.Validate(); err != nil {
		return Rect{}, err
	}
	return r, nil
}

// OfCenter builds a rectangle from its center and half extents.
func OfCenter(cx, cy, halfWidth, halfHeight float64) (Rect, error) {
	if halfWidth < 0 || halfHeight < 0 {
		return Rect{}, fmt.Errorf("half extents (%v, %v) must be >= 0: %w", halfWidth, halfHeight, ErrInvalidArgument)
	}
	return NewRect(cx-halfWidth, cy-halfHeight, cx+halfWidth, cy+halfHeight)
}

// Validate checks a rectangle built as a literal or decoded from input.
func (r Rect) Validate() error {
	if !finite(r.MinX, r.MinY, r.MaxX, r.MaxY) {
		return fmt.Errorf("rect %s must be finite: %w", r, ErrInvalidArgument)
	}
	if r.MinX > r.MaxX || r.MinY > r.MaxY {
		return fmt.Errorf("rect %s has min greater than max: %w", r, ErrInvalidArgument)
	}
	return nil
}

func (r Rect) Width() float64 { return r.MaxX - r.MinX }

func (r Rect) Height() float64 { return r.MaxY - r.MinY }

func (r Rect) CenterX() float64 { return (r.MinX + r.MaxX) * 0.5 }

func (r Rect) CenterY() float64 { return (r.MinY + r.MaxY) * 0.5 }

func (r Rect) ContainsPoint(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

func (r Rect) Intersects(other Rect) bool {
	return r.MinX <= other.MaxX && r.MaxX >= other.MinX &&
		r.MinY <= other.MaxY && r.MaxY >= other.MinY
}

// IntersectsRect is Intersects under the name range regions share.
func (r Rect) IntersectsRect(other Rect) bool {
	return r.Intersects(other)
}

// ExpandToFit returns the smallest rectangle covering r and (x, y). The
// receiver is returned unchanged when it already contains the point.
func (r Rect) ExpandToFit(x, y float64) Rect {
	if r.ContainsPoint(x, y) {
		return r
	}
	return Rect{
		MinX: math.Min(r.MinX, x),
		MinY: math.Min(r.MinY, y),
		MaxX: math.Max(r.MaxX, x),
		MaxY: math.Max(r.MaxY, y),
	}
}

// DistanceSquaredToPoint is the squared distance from (x, y) to the nearest
// point of r, zero when the point is inside.
func (r Rect) DistanceSquaredToPoint(x, y float64) float64 {
	var dx, dy float64
	if x < r.MinX {
		dx = r.MinX - x
	} else if x > r.MaxX {
		dx = x - r.MaxX
	}
	if y < r.MinY {
		dy = r.MinY - y
	} else if y > r.MaxY {
		dy = y - r.MaxY
	}
	return dx*dx + dy*dy
}

// Quadrants splits r at its center into NW, NE, SW, SE, where north is
// toward MaxY.
func (r Rect) Quadrants() [4]Rect {
	mx, my := r.CenterX(), r.CenterY()
	return [4]Rect{
		{MinX: r.MinX, MinY: my, MaxX: mx, MaxY: r.MaxY},
		{MinX: mx, MinY: my, MaxX: r.MaxX, MaxY: r.MaxY},
		{MinX: r.MinX, MinY: r.MinY, MaxX: mx, MaxY: my},
		{MinX: mx, MinY: r.MinY, MaxX: r.MaxX, MaxY: my},
	}
}

func (r Rect) String() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return "Rect[" + f(r.MinX) + "," + f(r.MinY) + " .. " + f(r.MaxX) + "," + f(r.MaxY) + "]"
}
