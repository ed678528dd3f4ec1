package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHandleHealth(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := HandleHealth(ctx)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health, got: %d, expected: %d", w.Code, http.StatusOK)
	}

	cancel()
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("health after shutdown, got: %d, expected: %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestServer_ServeHTTPHandler(t *testing.T) {
	srv, err := New("127.0.0.1:0", WithMaxConns(4))
	if err != nil {
		t.Fatalf("new server, got: %v, expected: nil", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ServeHTTPHandler(ctx, HandleHealth(ctx))
	}()

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	if err != nil {
		t.Fatalf("get, got: %v, expected: nil", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(body) != `{"status": "ok"}` {
		t.Errorf("body, got: %s, expected: {\"status\": \"ok\"}", body)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("serve, got: %v, expected: nil", err)
		}
	case <-time.After(10 * time.Second):
		t.Errorf("serve did not stop after cancel")
	}
}
