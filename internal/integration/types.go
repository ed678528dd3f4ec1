package integration

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/go-sod/quad/internal/index"
	"github.com/go-sod/quad/internal/point/model"
	"github.com/go-sod/quad/pkg/geom"
)

type PointData struct {
	ID    *uuid.UUID      `json:"id,omitempty"`
	X     float64         `json:"x"`
	Y     float64         `json:"y"`
	Extra json.RawMessage `json:"extra,omitempty"`
}

type InsertRequest struct {
	Layer string      `json:"layer"`
	Data  []PointData `json:"data"`
}

type InsertResponse struct {
	Layer    string `json:"layer"`
	Accepted int    `json:"accepted"`
	Data     []struct {
		ID       uuid.UUID `json:"id"`
		Accepted bool      `json:"accepted"`
	} `json:"data"`
}

type QueryRequest struct {
	Layer  string       `json:"layer"`
	Rect   *geom.Rect   `json:"rect,omitempty"`
	Circle *geom.Circle `json:"circle,omitempty"`
}

type KNNRequest struct {
	Layer  string       `json:"layer"`
	K      int          `json:"k"`
	Points []geom.Point `json:"points"`
}

type KNNResult struct {
	X         float64       `json:"x"`
	Y         float64       `json:"y"`
	Neighbors []model.Point `json:"neighbors"`
}

type pointsResponse struct {
	Data []model.Point `json:"data"`
}

type knnResponse struct {
	Data []KNNResult `json:"data"`
}

type layersResponse struct {
	Data []index.LayerStats `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}
