package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-sod/quad/internal/logging"
)

func DecodeErr(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		syntaxErr      *json.SyntaxError
		unmarshalError *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &syntaxErr):
		RespBadRequest(ctx, w, `{"error": "malformed json at position %v"}`, syntaxErr.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		RespBadRequest(ctx, w, `{"error": "malformed json"}`)
	case errors.As(err, &unmarshalError):
		RespBadRequest(ctx, w, `{"error": "invalid value %v at position %v"}`, unmarshalError.Field, unmarshalError.Offset)
	case strings.HasPrefix(err.Error(), "json: unknown field"):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		RespBadRequest(ctx, w, `{"error": "unknown field %s"}`, fieldName)
	case errors.Is(err, io.EOF):
		RespBadRequest(ctx, w, `{"error": "body must not be empty"}`)
	case err.Error() == "http: request body too large":
		w.WriteHeader(http.StatusRequestEntityTooLarge)
	default:
		RespInternalError(ctx, w, `{"error": "failed to decode json %v"}`, err)
	}
}

func RespBadRequest(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logging.FromContext(ctx).Debug(msg)
	respError(w, msg, http.StatusBadRequest)
}

func RespNotFound(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logging.FromContext(ctx).Debug(msg)
	respError(w, msg, http.StatusNotFound)
}

func RespInternalError(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	logging.FromContext(ctx).Errorf(format, args...)
	respError(w, `{"error": "internal error"}`, http.StatusInternalServerError)
}

// RespJSON writes v as the response body with the given status.
func RespJSON(ctx context.Context, w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		RespInternalError(ctx, w, `{"error": "failed to encode json %v"}`, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func respError(w http.ResponseWriter, body string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = fmt.Fprintln(w, body)
}
