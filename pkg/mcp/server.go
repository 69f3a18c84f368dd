// Package mcp implements a Model Context Protocol server exposing snapshot
// queries as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/timegraph/pkg/observability"
	"github.com/Sumatoshi-tech/timegraph/pkg/query"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "timegraph"

	// toolCount is the expected number of registered tools.
	toolCount = 5
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Service answers every tool call. Required.
	Service *query.Service

	// Version is reported as the implementation version.
	Version string

	// Logger is an optional structured logger. Nil discards.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer
}

// Server wraps the MCP SDK server with the snapshot tools.
type Server struct {
	inner   *mcpsdk.Server
	service *query.Service
	logger  *slog.Logger

	mu    sync.RWMutex
	tools []string

	metrics *observability.REDMetrics
	tracer  trace.Tracer
}

// NewServer creates an MCP server with all tools registered.
func NewServer(deps ServerDeps) *Server {
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	srv := &Server{
		inner: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    serverName,
			Version: version,
		}, nil),
		service: deps.Service,
		logger:  logger,
		tools:   make([]string, 0, toolCount),
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(slices.Values(s.tools))
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport starts the MCP server on the given transport.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	s.logger.InfoContext(ctx, "mcp server starting", "tools", s.ListToolNames())

	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	addTool[SnapshotInput](s, ToolNameSnapshot, snapshotToolDescription, s.handleSnapshot)
	addTool[EventsInput](s, ToolNameEvents, eventsToolDescription, s.handleEvents)
	addTool[NeighborsInput](s, ToolNameNeighbors, neighborsToolDescription, s.handleNeighbors)
	addTool[PathInput](s, ToolNamePath, pathToolDescription, s.handlePath)
	addTool[RankInput](s, ToolNameRank, rankToolDescription, s.handleRank)
}

// toolHandler is the typed handler signature shared by every tool.
type toolHandler[Input any] func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error)

func addTool[Input any](s *Server, name, description string, handler toolHandler[Input]) {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        name,
		Description: description,
	}, mcpsdk.ToolHandlerFor[Input, ToolOutput](withMetrics(s.metrics, name, withTracing(s.tracer, name, handler))))

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// mcpSpanPrefix is the prefix for MCP tool span names and RED ops.
const mcpSpanPrefix = "mcp."

// traceIDMetaKey is the key of the trace_id line in tool responses.
const traceIDMetaKey = "trace_id"

// withTracing wraps a tool handler in a span and appends the trace id to
// the response when the span is sampled.
func withTracing[Input any](tracer trace.Tracer, toolName string, handler toolHandler[Input]) toolHandler[Input] {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		if err != nil || (result != nil && result.IsError) {
			span.SetStatus(codes.Error, "tool call failed")
		}

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			result.Content = append(result.Content,
				&mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())})
		}

		return result, output, err
	}
}

// withMetrics wraps a tool handler to record RED metrics per invocation.
func withMetrics[Input any](metrics *observability.REDMetrics, toolName string, handler toolHandler[Input]) toolHandler[Input] {
	if metrics == nil {
		return handler
	}

	op := mcpSpanPrefix + toolName

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		done := metrics.TrackInflight(ctx, op)
		defer done()

		result, output, err := handler(ctx, req, input)

		status := observability.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = observability.StatusError
		}

		metrics.RecordRequest(ctx, op, status, time.Since(start))

		return result, output, err
	}
}

// Tool description constants.
const (
	snapshotToolDescription = "Return the nodes and edges of the temporal graph that exist during a time window, " +
		"with degrees, edge weights and the change since the previous query. " +
		"Give either at (an instant) or start and/or end (a half-open range)."

	eventsToolDescription = "List every time at which a node or edge appears or disappears."

	neighborsToolDescription = "List the neighbors of one node during a time window. " +
		"direction is out, in or both (default both)."

	pathToolDescription = "Find the cheapest path between two nodes during a time window, " +
		"using edge weights as costs."

	rankToolDescription = "Rank the nodes of the snapshot during a time window by PageRank."
)
