package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/timegraph/pkg/mcp"
	"github.com/Sumatoshi-tech/timegraph/pkg/observability"
	"github.com/Sumatoshi-tech/timegraph/pkg/version"
)

func newMCPCommand(flags *globalFlags) *cobra.Command {
	nf := &networkFlags{}

	cmd := &cobra.Command{
		Use:   "mcp <network>",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes snapshot queries over one network as tools:
  - timegraph_snapshot: nodes and edges present during a window
  - timegraph_events: times at which the network changes
  - timegraph_neighbors: neighbors of a node during a window
  - timegraph_path: cheapest path between two nodes
  - timegraph_rank: PageRank of the nodes present during a window

Logs go to stderr; stdout carries the protocol.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, flags, observability.ModeMCP, func(ctx context.Context, e *env) error {
				err := nf.apply(cmd, e.cfg)
				if err != nil {
					return err
				}

				svc, err := e.openService(ctx, args[0])
				if err != nil {
					return err
				}

				red, err := observability.NewREDMetrics(e.providers.Meter)
				if err != nil {
					return fmt.Errorf("red metrics: %w", err)
				}

				srv := mcp.NewServer(mcp.ServerDeps{
					Service: svc,
					Version: version.Version,
					Logger:  observability.Component(e.logger, "mcp"),
					Metrics: red,
					Tracer:  e.providers.Tracer,
				})

				return srv.Run(ctx)
			})
		},
	}

	nf.register(cmd)

	return cmd
}
