package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/timegraph/pkg/observability"
	"github.com/Sumatoshi-tech/timegraph/pkg/query"
	"github.com/Sumatoshi-tech/timegraph/pkg/timeline"
)

func newTestServer(t *testing.T, deps ServerDeps) *Server {
	t.Helper()

	loader, err := timeline.NewLoader()
	require.NoError(t, err)

	doc, err := loader.LoadFile("../query/testdata/network.json")
	require.NoError(t, err)

	network, err := timeline.Build(doc)
	require.NoError(t, err)

	deps.Service = query.New(network, network.NewEngine("weight"))

	return NewServer(deps)
}

func ptr(v float64) *float64 {
	return &v
}

func decodeText(t *testing.T, result *mcpsdk.CallToolResult) map[string]any {
	t.Helper()

	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	var body map[string]any

	require.NoError(t, json.Unmarshal([]byte(text.Text), &body), text.Text)

	return body
}

func errorText(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()

	require.NotNil(t, result)
	assert.True(t, result.IsError)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	return text.Text
}

func TestNewServer_ToolsRegistered(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, ServerDeps{})

	assert.Equal(t, []string{
		ToolNameEvents, ToolNameNeighbors, ToolNamePath, ToolNameRank, ToolNameSnapshot,
	}, srv.ListToolNames())
}

func TestHandleSnapshot(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, ServerDeps{})

	result, out, err := srv.handleSnapshot(context.Background(), &mcpsdk.CallToolRequest{}, SnapshotInput{At: ptr(6)})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	view, ok := out.Data.(*query.View)
	require.True(t, ok)
	assert.Len(t, view.Nodes, 3)

	body := decodeText(t, result)
	assert.Len(t, body["edges"], 3)

	result, _, err = srv.handleSnapshot(context.Background(), &mcpsdk.CallToolRequest{}, SnapshotInput{})
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "query needs at, start or end")
}

func TestHandleEvents(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, ServerDeps{})

	result, _, err := srv.handleEvents(context.Background(), &mcpsdk.CallToolRequest{}, EventsInput{})
	require.NoError(t, err)

	body := decodeText(t, result)
	assert.Len(t, body["times"], 6)
}

func TestHandleNeighbors(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, ServerDeps{})
	ctx := context.Background()

	result, _, err := srv.handleNeighbors(ctx, &mcpsdk.CallToolRequest{}, NeighborsInput{Node: "C", Direction: "in", At: ptr(6)})
	require.NoError(t, err)

	body := decodeText(t, result)
	assert.Equal(t, []any{"A", "B"}, body["neighbors"])

	result, _, err = srv.handleNeighbors(ctx, &mcpsdk.CallToolRequest{}, NeighborsInput{At: ptr(6)})
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "node parameter is required")

	result, _, err = srv.handleNeighbors(ctx, &mcpsdk.CallToolRequest{}, NeighborsInput{Node: "D", At: ptr(6)})
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "node not in snapshot")
}

func TestHandlePathAndRank(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, ServerDeps{})
	ctx := context.Background()

	result, _, err := srv.handlePath(ctx, &mcpsdk.CallToolRequest{}, PathInput{From: "A", To: "C", Start: ptr(5), End: ptr(10)})
	require.NoError(t, err)

	body := decodeText(t, result)
	assert.Equal(t, []any{"A", "B", "C"}, body["nodes"])

	result, _, err = srv.handlePath(ctx, &mcpsdk.CallToolRequest{}, PathInput{From: "A"})
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "from and to parameters are required")

	result, _, err = srv.handleRank(ctx, &mcpsdk.CallToolRequest{}, RankInput{At: ptr(6)})
	require.NoError(t, err)

	body = decodeText(t, result)
	assert.Len(t, body["scores"], 3)
}

// TestWithTracingAndMetrics verifies that wrapped tools emit a span, report
// the trace id and count failed calls as errors.
func TestWithTracingAndMetrics(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	srv := newTestServer(t, ServerDeps{})
	handler := withMetrics[SnapshotInput](red, ToolNameSnapshot,
		withTracing[SnapshotInput](tp.Tracer("test"), ToolNameSnapshot, srv.handleSnapshot))

	result, _, err := handler(context.Background(), &mcpsdk.CallToolRequest{}, SnapshotInput{})
	require.NoError(t, err)
	require.Len(t, result.Content, 2)

	traceLine, ok := result.Content[1].(*mcpsdk.TextContent)
	require.True(t, ok)
	assert.Contains(t, traceLine.Text, traceIDMetaKey+"=")

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "mcp."+ToolNameSnapshot, spans[0].Name)

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	var errorsTotal int64

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "timegraph.errors.total" {
				continue
			}

			sum, isSum := m.Data.(metricdata.Sum[int64])
			require.True(t, isSum)

			for _, dp := range sum.DataPoints {
				errorsTotal += dp.Value
			}
		}
	}

	assert.Equal(t, int64(1), errorsTotal)
}
