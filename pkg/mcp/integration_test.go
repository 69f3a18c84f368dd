package mcp_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/timegraph/pkg/mcp"
	"github.com/Sumatoshi-tech/timegraph/pkg/query"
	"github.com/Sumatoshi-tech/timegraph/pkg/timeline"
)

func connect(t *testing.T) (context.Context, *mcpsdk.ClientSession) {
	t.Helper()

	loader, err := timeline.NewLoader()
	require.NoError(t, err)

	doc, err := loader.LoadFile("../query/testdata/network.json")
	require.NoError(t, err)

	network, err := timeline.Build(doc)
	require.NoError(t, err)

	srv := mcp.NewServer(mcp.ServerDeps{Service: query.New(network, network.NewEngine("weight")), Version: "test"})

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()

		cancel()
		<-serverDone
	})

	return ctx, session
}

func TestMCPServer_InMemoryTransport_ToolsList(t *testing.T) {
	t.Parallel()

	ctx, session := connect(t)

	toolsResult, err := session.ListTools(ctx, nil)
	require.NoError(t, err)

	names := make([]string, 0, len(toolsResult.Tools))
	for _, tool := range toolsResult.Tools {
		names = append(names, tool.Name)

		assert.NotNil(t, tool.InputSchema, "tool %s missing input schema", tool.Name)
	}

	assert.ElementsMatch(t, []string{
		mcp.ToolNameSnapshot, mcp.ToolNameEvents, mcp.ToolNameNeighbors, mcp.ToolNamePath, mcp.ToolNameRank,
	}, names)
}

func TestMCPServer_InMemoryTransport_CallSnapshot(t *testing.T) {
	t.Parallel()

	ctx, session := connect(t)

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      mcp.ToolNameSnapshot,
		Arguments: map[string]any{"start": 16},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	var view struct {
		Nodes []struct {
			ID string `json:"id"`
		} `json:"nodes"`
	}

	require.NoError(t, json.Unmarshal([]byte(text.Text), &view))
	require.Len(t, view.Nodes, 3)
	assert.Equal(t, "D", view.Nodes[2].ID)
}
