package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/timegraph/pkg/query"
)

// Tool name constants.
const (
	ToolNameSnapshot  = "timegraph_snapshot"
	ToolNameEvents    = "timegraph_events"
	ToolNameNeighbors = "timegraph_neighbors"
	ToolNamePath      = "timegraph_path"
	ToolNameRank      = "timegraph_rank"
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyNode indicates the node parameter is empty.
	ErrEmptyNode = errors.New("node parameter is required and must not be empty")
	// ErrEmptyEndpoints indicates from or to is empty.
	ErrEmptyEndpoints = errors.New("from and to parameters are required and must not be empty")
)

// Input types (auto-generate JSON schemas via struct tags).

// SnapshotInput is the input schema for the timegraph_snapshot tool.
type SnapshotInput struct {
	At    *float64 `json:"at,omitempty"    jsonschema:"instant to query; cannot be combined with start or end"`
	Start *float64 `json:"start,omitempty" jsonschema:"inclusive start of the query range (default unbounded)"`
	End   *float64 `json:"end,omitempty"   jsonschema:"exclusive end of the query range (default unbounded)"`
}

// EventsInput is the input schema for the timegraph_events tool.
type EventsInput struct{}

// NeighborsInput is the input schema for the timegraph_neighbors tool.
type NeighborsInput struct {
	Node      string   `json:"node"                jsonschema:"node id"`
	Direction string   `json:"direction,omitempty" jsonschema:"out, in or both (default both)"`
	At        *float64 `json:"at,omitempty"        jsonschema:"instant to query; cannot be combined with start or end"`
	Start     *float64 `json:"start,omitempty"     jsonschema:"inclusive start of the query range (default unbounded)"`
	End       *float64 `json:"end,omitempty"       jsonschema:"exclusive end of the query range (default unbounded)"`
}

// PathInput is the input schema for the timegraph_path tool.
type PathInput struct {
	From  string   `json:"from"            jsonschema:"source node id"`
	To    string   `json:"to"              jsonschema:"target node id"`
	At    *float64 `json:"at,omitempty"    jsonschema:"instant to query; cannot be combined with start or end"`
	Start *float64 `json:"start,omitempty" jsonschema:"inclusive start of the query range (default unbounded)"`
	End   *float64 `json:"end,omitempty"   jsonschema:"exclusive end of the query range (default unbounded)"`
}

// RankInput is the input schema for the timegraph_rank tool.
type RankInput struct {
	Damping float64  `json:"damping,omitempty" jsonschema:"PageRank damping factor in (0, 1) (default 0.85)"`
	At      *float64 `json:"at,omitempty"      jsonschema:"instant to query; cannot be combined with start or end"`
	Start   *float64 `json:"start,omitempty"   jsonschema:"inclusive start of the query range (default unbounded)"`
	End     *float64 `json:"end,omitempty"     jsonschema:"exclusive end of the query range (default unbounded)"`
}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

func (s *Server) handleSnapshot(ctx context.Context, _ *mcpsdk.CallToolRequest, input SnapshotInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	view, err := s.service.Snapshot(ctx, query.Window{At: input.At, Start: input.Start, End: input.End})
	if err != nil {
		return s.errorResult(ctx, ToolNameSnapshot, err)
	}

	return jsonResult(view)
}

func (s *Server) handleEvents(_ context.Context, _ *mcpsdk.CallToolRequest, _ EventsInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return jsonResult(s.service.Events())
}

func (s *Server) handleNeighbors(ctx context.Context, _ *mcpsdk.CallToolRequest, input NeighborsInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.Node == "" {
		return s.errorResult(ctx, ToolNameNeighbors, ErrEmptyNode)
	}

	w := query.Window{At: input.At, Start: input.Start, End: input.End}

	view, err := s.service.Neighbors(ctx, w, input.Node, query.Direction(input.Direction))
	if err != nil {
		return s.errorResult(ctx, ToolNameNeighbors, err)
	}

	return jsonResult(view)
}

func (s *Server) handlePath(ctx context.Context, _ *mcpsdk.CallToolRequest, input PathInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.From == "" || input.To == "" {
		return s.errorResult(ctx, ToolNamePath, ErrEmptyEndpoints)
	}

	w := query.Window{At: input.At, Start: input.Start, End: input.End}

	view, err := s.service.Path(ctx, w, input.From, input.To)
	if err != nil {
		return s.errorResult(ctx, ToolNamePath, err)
	}

	return jsonResult(view)
}

func (s *Server) handleRank(ctx context.Context, _ *mcpsdk.CallToolRequest, input RankInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	w := query.Window{At: input.At, Start: input.Start, End: input.End}

	view, err := s.service.Rank(ctx, w, input.Damping, 0)
	if err != nil {
		return s.errorResult(ctx, ToolNameRank, err)
	}

	return jsonResult(view)
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func (s *Server) errorResult(ctx context.Context, tool string, err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	s.logger.DebugContext(ctx, "tool call rejected", "tool", tool, "error", err)

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: fmt.Sprintf("encode result: %v", err)}},
			IsError: true,
		}, ToolOutput{}, nil
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
