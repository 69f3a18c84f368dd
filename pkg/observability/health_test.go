package observability_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/timegraph/pkg/observability"
)

func serveHealth(t *testing.T, handler http.Handler) (int, map[string]any) {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return rec.Code, body
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	code, body := serveHealth(t, observability.HealthHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestReadyHandler(t *testing.T) {
	t.Parallel()

	ok := observability.ReadyCheck{Name: "index", Check: func(context.Context) error { return nil }}
	down := observability.ReadyCheck{Name: "engine", Check: func(context.Context) error { return errors.New("down") }}

	code, body := serveHealth(t, observability.ReadyHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, _ = serveHealth(t, observability.ReadyHandler(ok))
	assert.Equal(t, http.StatusOK, code)

	code, body = serveHealth(t, observability.ReadyHandler(ok, down))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", body["status"])
	assert.Equal(t, []any{"engine"}, body["failed"])
}
