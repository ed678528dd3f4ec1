package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/go-sod/quad/pkg/container/quadtree"
)

func NewPoint(layer string, x, y float64, extra json.RawMessage) Point {
	return Point{
		ID:        uuid.New(),
		Layer:     layer,
		X:         x,
		Y:         y,
		Extra:     extra,
		CreatedAt: time.Now().UTC(),
	}
}

// Point is a stored location together with its caller supplied payload.
type Point struct {
	ID        uuid.UUID       `json:"id"`
	Layer     string          `json:"layer"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Extra     json.RawMessage `json:"extra,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (p Point) Entry() Entry {
	return Entry{ID: p.ID, X: p.X, Y: p.Y}
}

// Entry is the comparable part of a Point kept inside the quadtree.
type Entry struct {
	ID uuid.UUID
	X  float64
	Y  float64
}

var EntryAdapter = quadtree.NewAdapter(
	func(e Entry) float64 { return e.X },
	func(e Entry) float64 { return e.Y },
)
