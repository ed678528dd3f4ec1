// Package integration is a client for the quad HTTP api.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/go-sod/quad/internal/index"
	"github.com/go-sod/quad/internal/point/model"
)

type prefixRoundTripper struct {
	addr string
	rt   http.RoundTripper
}

func (p *prefixRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	u := r.URL
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	if u.Host == "" {
		u.Host = p.addr
	}

	return p.rt.RoundTrip(r)
}

// NewClient returns a client sending requests to addr (host:port).
func NewClient(addr string) *Client {
	return &Client{client: &http.Client{Transport: &prefixRoundTripper{addr: addr, rt: http.DefaultTransport}}}
}

type Client struct {
	client *http.Client
}

// StatusError is returned for any non 200 answer.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

func (c *Client) Insert(ctx context.Context, r InsertRequest) (*InsertResponse, error) {
	var resp InsertResponse
	if err := c.post(ctx, "/points", r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Remove(ctx context.Context, layer string, ids ...uuid.UUID) (int, error) {
	var resp struct {
		Removed int `json:"removed"`
	}
	req := struct {
		Layer string      `json:"layer"`
		IDs   []uuid.UUID `json:"ids"`
	}{Layer: layer, IDs: ids}
	if err := c.post(ctx, "/points/remove", req, &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (c *Client) Move(ctx context.Context, layer string, id uuid.UUID, x, y float64) (bool, error) {
	var resp struct {
		Moved bool `json:"moved"`
	}
	req := struct {
		Layer string    `json:"layer"`
		ID    uuid.UUID `json:"id"`
		X     float64   `json:"x"`
		Y     float64   `json:"y"`
	}{Layer: layer, ID: id, X: x, Y: y}
	if err := c.post(ctx, "/points/move", req, &resp); err != nil {
		return false, err
	}
	return resp.Moved, nil
}

func (c *Client) Query(ctx context.Context, r QueryRequest) ([]model.Point, error) {
	var resp pointsResponse
	if err := c.post(ctx, "/query", r, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) KNN(ctx context.Context, r KNNRequest) ([]KNNResult, error) {
	var resp knnResponse
	if err := c.post(ctx, "/knn", r, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) Clear(ctx context.Context, layer string) error {
	req := struct {
		Layer string `json:"layer"`
	}{Layer: layer}
	return c.post(ctx, "/layers/clear", req, nil)
}

func (c *Client) Layers(ctx context.Context) ([]index.LayerStats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "/layers", nil)
	if err != nil {
		return nil, fmt.Errorf("create new request: %w", err)
	}
	var resp layersResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) Health(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, fmt.Errorf("create new request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	return resp, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("unable marshal %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error with sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		b, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(b, &e) != nil || e.Error == "" {
			e.Error = string(bytes.TrimSpace(b))
		}
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("unable decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
