package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/go-sod/quad/internal/httputil"
	"github.com/go-sod/quad/internal/logging"
	"github.com/go-sod/quad/internal/point/model"
	"github.com/go-sod/quad/pkg/geom"
)

type insertRequest struct {
	Layer string `json:"layer"`
	Data  []struct {
		ID    *uuid.UUID      `json:"id"`
		X     float64         `json:"x"`
		Y     float64         `json:"y"`
		Extra json.RawMessage `json:"extra"`
	} `json:"data"`
}

type insertResponse struct {
	Layer    string `json:"layer"`
	Accepted int    `json:"accepted"`
	Data     []struct {
		ID       uuid.UUID `json:"id"`
		Accepted bool      `json:"accepted"`
	} `json:"data"`
}

type removeRequest struct {
	Layer string      `json:"layer"`
	IDs   []uuid.UUID `json:"ids"`
}

type moveRequest struct {
	Layer string    `json:"layer"`
	ID    uuid.UUID `json:"id"`
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
}

type queryRequest struct {
	Layer  string       `json:"layer"`
	Rect   *geom.Rect   `json:"rect"`
	Circle *geom.Circle `json:"circle"`
}

type knnRequest struct {
	Layer  string       `json:"layer"`
	K      int          `json:"k"`
	Points []geom.Point `json:"points"`
}

type knnResult struct {
	X         float64       `json:"x"`
	Y         float64       `json:"y"`
	Neighbors []model.Point `json:"neighbors"`
}

type layerRequest struct {
	Layer string `json:"layer"`
}

type dataResponse struct {
	Data interface{} `json:"data"`
}

// decode reads a JSON body into v and answers the request itself on failure.
func (h *handler) decode(ctx context.Context, w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields()
	if err := d.Decode(v); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return false
	}
	return true
}

func (h *handler) tooLarge(ctx context.Context, w http.ResponseWriter, n int) bool {
	if n > h.cfg.MaxDataItemsLen {
		httputil.RespJSON(ctx, w, http.StatusBadRequest, errorBody{
			Error: fmt.Sprintf("data items is too large, max allowed len is %d", h.cfg.MaxDataItemsLen),
		})
		return true
	}
	return false
}

func (h *handler) insert(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	var req insertRequest
	if !h.decode(ctx, w, r, &req) || h.tooLarge(ctx, w, len(req.Data)) {
		return
	}

	points := make([]model.Point, 0, len(req.Data))
	for _, dat := range req.Data {
		p := model.NewPoint(req.Layer, dat.X, dat.Y, dat.Extra)
		if dat.ID != nil {
			p.ID = *dat.ID
		}
		points = append(points, p)
	}

	accepted, err := h.index.Insert(ctx, req.Layer, points...)
	if err != nil {
		respErr(ctx, w, err)
		return
	}

	resp := insertResponse{Layer: req.Layer}
	resp.Data = make([]struct {
		ID       uuid.UUID `json:"id"`
		Accepted bool      `json:"accepted"`
	}, len(points))
	for i, p := range points {
		resp.Data[i].ID = p.ID
		resp.Data[i].Accepted = accepted[i]
		if accepted[i] {
			resp.Accepted++
		}
	}
	logging.FromContext(ctx).Debugf("layer %s: accepted %d of %d points", req.Layer, resp.Accepted, len(points))
	httputil.RespJSON(ctx, w, http.StatusOK, resp)
}

func (h *handler) remove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	var req removeRequest
	if !h.decode(ctx, w, r, &req) || h.tooLarge(ctx, w, len(req.IDs)) {
		return
	}

	n, err := h.index.Remove(ctx, req.Layer, req.IDs...)
	if err != nil {
		respErr(ctx, w, err)
		return
	}
	httputil.RespJSON(ctx, w, http.StatusOK, struct {
		Removed int `json:"removed"`
	}{Removed: n})
}

func (h *handler) move(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	var req moveRequest
	if !h.decode(ctx, w, r, &req) {
		return
	}

	moved, err := h.index.Move(ctx, req.Layer, req.ID, req.X, req.Y)
	if err != nil {
		respErr(ctx, w, err)
		return
	}
	httputil.RespJSON(ctx, w, http.StatusOK, struct {
		Moved bool `json:"moved"`
	}{Moved: moved})
}

func (h *handler) query(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	var req queryRequest
	if !h.decode(ctx, w, r, &req) {
		return
	}

	var (
		points []model.Point
		err    error
	)
	switch {
	case req.Rect != nil && req.Circle == nil:
		points, err = h.index.Query(ctx, req.Layer, *req.Rect)
	case req.Circle != nil && req.Rect == nil:
		points, err = h.index.QueryCircle(ctx, req.Layer, *req.Circle)
	default:
		httputil.RespJSON(ctx, w, http.StatusBadRequest, errorBody{Error: "exactly one of rect or circle is required"})
		return
	}
	if err != nil {
		respErr(ctx, w, err)
		return
	}
	httputil.RespJSON(ctx, w, http.StatusOK, dataResponse{Data: points})
}

// knn answers every query point of the request concurrently.
func (h *handler) knn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	var req knnRequest
	if !h.decode(ctx, w, r, &req) || h.tooLarge(ctx, w, len(req.Points)) {
		return
	}

	results := make([]knnResult, len(req.Points))
	errGrp, grpCtx := errgroup.WithContext(ctx)
	for i := range req.Points {
		i := i
		errGrp.Go(func() error {
			p := req.Points[i]
			found, err := h.index.KNN(grpCtx, req.Layer, p.X, p.Y, req.K)
			if err != nil {
				return err
			}
			results[i] = knnResult{X: p.X, Y: p.Y, Neighbors: found}
			return nil
		})
	}
	if err := errGrp.Wait(); err != nil {
		respErr(ctx, w, err)
		return
	}
	httputil.RespJSON(ctx, w, http.StatusOK, dataResponse{Data: results})
}

func (h *handler) clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	var req layerRequest
	if !h.decode(ctx, w, r, &req) {
		return
	}
	if err := h.index.Clear(ctx, req.Layer); err != nil {
		respErr(ctx, w, err)
		return
	}
	httputil.RespJSON(ctx, w, http.StatusOK, struct {
		Status string `json:"status"`
	}{Status: "ok"})
}

func (h *handler) layers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	httputil.RespJSON(ctx, w, http.StatusOK, dataResponse{Data: h.index.Layers(ctx)})
}
