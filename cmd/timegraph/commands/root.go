// Package commands implements the timegraph CLI commands.
package commands

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Output formats.
const (
	outputTable = "table"
	outputJSON  = "json"
)

// ErrUnknownOutput is returned for an --output value other than table or json.
var ErrUnknownOutput = errors.New("output must be table or json")

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	output     string
	verbose    bool
	quiet      bool
	noColor    bool
}

// NewRootCommand creates the timegraph command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "timegraph",
		Short: "Timegraph - snapshots of temporal networks",
		Long: `Timegraph loads a temporal network, where every node, edge and attribute
exists over time intervals, and answers what the network looks like during
any time window.

Commands:
  events     List the times at which the network changes
  snapshot   Show the nodes and edges present during a window
  neighbors  Show the neighbors of a node during a window
  replay     Step through event times and report each change
  path       Find the cheapest path between two nodes
  rank       Rank nodes by PageRank
  serve      Serve queries over HTTP
  mcp        Serve queries as MCP tools on stdio
  config     Show or edit the configuration file`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if flags.output != outputTable && flags.output != outputJSON {
				return fmt.Errorf("%w: %q", ErrUnknownOutput, flags.output)
			}

			if flags.noColor {
				color.NoColor = true //nolint:reassign // intentional override of library global
			}

			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "configuration file (default: timegraph.yaml in ., ./config, /etc/timegraph)")
	pf.StringVarP(&flags.output, "output", "o", outputTable, "output format: table or json")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "suppress log output below errors")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		newEventsCommand(flags),
		newSnapshotCommand(flags),
		newNeighborsCommand(flags),
		newReplayCommand(flags),
		newPathCommand(flags),
		newRankCommand(flags),
		newServeCommand(flags),
		newMCPCommand(flags),
		newConfigCommand(flags),
		newVersionCommand(),
	)

	return rootCmd
}
