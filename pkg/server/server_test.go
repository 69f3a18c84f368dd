package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/timegraph/pkg/observability"
	"github.com/Sumatoshi-tech/timegraph/pkg/query"
	"github.com/Sumatoshi-tech/timegraph/pkg/timeline"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()

	loader, err := timeline.NewLoader()
	require.NoError(t, err)

	doc, err := loader.LoadFile("../query/testdata/network.json")
	require.NoError(t, err)

	network, err := timeline.Build(doc)
	require.NoError(t, err)

	svc := query.New(network, network.NewEngine("weight"))

	return New(Config{Addr: "127.0.0.1:0"}, svc, opts...)
}

func get(t *testing.T, h http.Handler, target string) (int, map[string]any) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, http.NoBody))

	var body map[string]any

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())

	return rec.Code, body
}

func ids(t *testing.T, items any) []string {
	t.Helper()

	list, ok := items.([]any)
	require.True(t, ok, "%v is not a list", items)

	out := make([]string, 0, len(list))

	for _, item := range list {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case map[string]any:
			out = append(out, v["id"].(string))
		}
	}

	return out
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()

	code, body := get(t, h, "/v1/snapshot?at=6")
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, []string{"A", "B", "C"}, ids(t, body["nodes"]))
	assert.Equal(t, []string{"AB", "AC", "BC"}, ids(t, body["edges"]))
	assert.Equal(t, map[string]any{"start": 6.0, "end": 6.0}, body["query"])

	delta, ok := body["delta"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B", "C"}, ids(t, delta["nodes_added"]))

	edges, ok := body["edges"].([]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{
		"id": "AB", "source": "A", "target": "B", "label": "ab", "weight": 1.0,
	}, edges[0])
}

// TestSnapshot_OpenRange verifies that a missing bound is encoded as null.
func TestSnapshot_OpenRange(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()

	code, body := get(t, h, "/v1/snapshot?start=16")
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, map[string]any{"start": 16.0, "end": nil}, body["query"])
	assert.Equal(t, []string{"B", "C", "D"}, ids(t, body["nodes"]))
}

func TestSnapshot_BadRequests(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()

	for _, target := range []string{
		"/v1/snapshot",
		"/v1/snapshot?at=later",
		"/v1/snapshot?at=1&start=0",
		"/v1/snapshot?start=9&end=2",
		"/v1/neighbors/A?at=6&direction=up",
		"/v1/paths?at=6&from=A",
		"/v1/rank?at=6&damping=high",
	} {
		code, body := get(t, h, target)
		assert.Equal(t, http.StatusBadRequest, code, target)
		assert.NotEmpty(t, body["error"], target)
	}
}

func TestNeighbors(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()

	code, body := get(t, h, "/v1/neighbors/A?at=6&direction=out")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "A", body["node"])
	assert.Equal(t, "out", body["direction"])
	assert.Equal(t, []string{"B", "C"}, ids(t, body["neighbors"]))
	assert.Equal(t, []string{"AB", "AC"}, ids(t, body["edges"]))

	code, _ = get(t, h, "/v1/neighbors/D?at=6")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestEvents(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()

	code, body := get(t, h, "/v1/events")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{0.0, 5.0, 10.0, 15.0, 20.0, 30.0}, body["times"])
	assert.InDelta(t, 30.0, body["last"], 0)
}

func TestPathsAndRank(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()

	code, body := get(t, h, "/v1/paths?at=6&from=A&to=C")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"A", "B", "C"}, ids(t, body["nodes"]))
	assert.InDelta(t, 3.0, body["weight"], 1e-9)

	code, _ = get(t, h, "/v1/paths?at=16&from=C&to=B")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = get(t, h, "/v1/rank?at=6")
	require.Equal(t, http.StatusOK, code)

	scores, ok := body["scores"].([]any)
	require.True(t, ok)
	require.Len(t, scores, 3)
	assert.Equal(t, "C", scores[0].(map[string]any)["node"])
}

func TestHealthAndReady(t *testing.T) {
	t.Parallel()

	h := newTestServer(t,
		WithReadyChecks(observability.ReadyCheck{
			Name:  "network",
			Check: func(context.Context) error { return errors.New("not loaded") },
		}),
	).Handler()

	code, body := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, body = get(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, []any{"network"}, body["failed"])
}

func TestMetricsRoute(t *testing.T) {
	t.Parallel()

	metrics := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(rw, "# metrics\n")
	})

	rec := httptest.NewRecorder()
	newTestServer(t, WithMetricsHandler(metrics)).Handler().
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	assert.Equal(t, "# metrics\n", rec.Body.String())

	rec = httptest.NewRecorder()
	newTestServer(t).Handler().
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestHandler_SpansUseRoutes verifies that request spans carry the route
// pattern and not the raw path.
func TestHandler_SpansUseRoutes(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	h := newTestServer(t, WithTracer(tp.Tracer("test"))).Handler()
	get(t, h, "/v1/neighbors/B?at=6")

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /v1/neighbors/{node}", spans[0].Name)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	var lc net.ListenConfig

	ln, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"

	require.Eventually(t, func() bool {
		req, reqErr := http.NewRequestWithContext(context.Background(), http.MethodGet, url, http.NoBody)
		if reqErr != nil {
			return false
		}

		resp, getErr := http.DefaultClient.Do(req)
		if getErr != nil {
			return false
		}

		resp.Body.Close()

		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
