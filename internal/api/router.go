// Package api exposes the index over HTTP with JSON bodies.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/go-sod/quad/internal/httputil"
	"github.com/go-sod/quad/internal/index"
	"github.com/go-sod/quad/internal/logging"
	"github.com/go-sod/quad/pkg/geom"
)

const maxBodyBytes = 64 * 1024 * 1024

type Option func(*mux.Router)

// WithHandler mounts an extra GET handler, such as health or metrics.
func WithHandler(path string, h http.Handler) Option {
	return func(r *mux.Router) {
		r.Handle(path, h).Methods(http.MethodGet)
	}
}

// NewRouter builds the routes served by the index api. Request contexts carry
// the logger found in ctx.
func NewRouter(ctx context.Context, cfg *Config, manager index.Manager, opts ...Option) (*mux.Router, error) {
	if manager == nil {
		return nil, fmt.Errorf("index manager is not created")
	}
	if cfg == nil {
		return nil, fmt.Errorf("api config is not set")
	}

	h := &handler{cfg: cfg, index: manager}
	router := mux.NewRouter()
	router.Use(withLogger(logging.FromContext(ctx)))

	for path, fn := range map[string]http.HandlerFunc{
		"/points":        h.insert,
		"/points/remove": h.remove,
		"/points/move":   h.move,
		"/query":         h.query,
		"/knn":           h.knn,
		"/layers/clear":  h.clear,
	} {
		router.Handle(path, requireJSON(fn)).Methods(http.MethodPost)
	}

	router.HandleFunc("/layers", h.layers).Methods(http.MethodGet)

	for _, f := range opts {
		f(router)
	}

	return router, nil
}

type handler struct {
	cfg   *Config
	index index.Manager
}

func withLogger(logger *zap.SugaredLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logging.WithLogger(r.Context(), logger.With("path", r.URL.Path))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if t := r.Header.Get("content-type"); !strings.HasPrefix(t, "application/json") {
			httputil.RespJSON(r.Context(), w, http.StatusUnsupportedMediaType,
				errorBody{Error: "content-type is not application/json"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorBody struct {
	Error string `json:"error"`
}

// respErr maps index errors to status codes.
func respErr(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, index.ErrLayerNotFound):
		logging.FromContext(ctx).Debug(err)
		httputil.RespJSON(ctx, w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, geom.ErrInvalidArgument), errors.Is(err, index.ErrInvalidLayer):
		logging.FromContext(ctx).Debug(err)
		httputil.RespJSON(ctx, w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, index.ErrClosed):
		httputil.RespJSON(ctx, w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
	default:
		httputil.RespInternalError(ctx, w, `{"error": "%v"}`, err)
	}
}
