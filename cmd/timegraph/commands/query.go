package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/timegraph/pkg/observability"
	"github.com/Sumatoshi-tech/timegraph/pkg/persist"
	"github.com/Sumatoshi-tech/timegraph/pkg/query"
)

// windowFlags select the query window of a command.
type windowFlags struct {
	at    string
	start string
	end   string
}

func (wf *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&wf.at, "at", "", "query a single time (widened by --window)")
	cmd.Flags().StringVar(&wf.start, "start", "", "inclusive start of the query range (default -inf)")
	cmd.Flags().StringVar(&wf.end, "end", "", "exclusive end of the query range (default +inf)")
}

func (wf *windowFlags) window() (query.Window, error) {
	return query.ParseWindow(wf.at, wf.start, wf.end)
}

// runQuery opens the network at path with the command's overrides and runs fn.
func runQuery(
	cmd *cobra.Command,
	flags *globalFlags,
	nf *networkFlags,
	path string,
	fn func(ctx context.Context, e *env, svc *query.Service) error,
) error {
	return withEnv(cmd, flags, observability.ModeCLI, func(ctx context.Context, e *env) error {
		err := nf.apply(cmd, e.cfg)
		if err != nil {
			return err
		}

		svc, err := e.openService(ctx, path)
		if err != nil {
			return err
		}

		return fn(ctx, e, svc)
	})
}

func newEventsCommand(flags *globalFlags) *cobra.Command {
	nf := &networkFlags{}

	cmd := &cobra.Command{
		Use:   "events <network>",
		Short: "List the times at which the network changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, flags, nf, args[0], func(_ context.Context, e *env, svc *query.Service) error {
				events := svc.Events()
				if e.out.isJSON() {
					return e.out.json(events)
				}

				rows := make([]table.Row, 0, len(events.Times))
				for i, t := range events.Times {
					rows = append(rows, table.Row{i, formatTime(t)})
				}

				e.out.table(svc.Network().Name, table.Row{"#", "Time"}, rows,
					humanize.Comma(int64(len(events.Times)))+" events")

				return nil
			})
		},
	}

	nf.register(cmd)

	return cmd
}

func newSnapshotCommand(flags *globalFlags) *cobra.Command {
	nf := &networkFlags{}
	wf := &windowFlags{}

	var save string

	cmd := &cobra.Command{
		Use:   "snapshot <network>",
		Short: "Show the nodes and edges present during a window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := wf.window()
			if err != nil {
				return err
			}

			return runQuery(cmd, flags, nf, args[0], func(ctx context.Context, e *env, svc *query.Service) error {
				view, err := svc.Snapshot(ctx, w)
				if err != nil {
					return err
				}

				if save != "" {
					err = persist.SaveFile(save, view)
					if err != nil {
						return fmt.Errorf("save snapshot: %w", err)
					}

					e.logger.InfoContext(ctx, "snapshot saved", "path", save)
				}

				if e.out.isJSON() {
					return e.out.json(view)
				}

				printSnapshot(e.out, view)

				return nil
			})
		},
	}

	nf.register(cmd)
	wf.register(cmd)
	cmd.Flags().StringVar(&save, "save", "", "also write the snapshot to a .json or .gob file (append .lz4 to compress)")

	return cmd
}

func printSnapshot(out *printer, view *query.View) {
	out.line("snapshot %s", formatQuery(view.Query))

	nodes := make([]table.Row, 0, len(view.Nodes))
	for _, n := range view.Nodes {
		nodes = append(nodes, table.Row{n.ID, n.Label, n.InDegree, n.OutDegree, n.Degree})
	}

	out.table("Nodes", table.Row{"ID", "Label", "In", "Out", "Degree"}, nodes,
		humanize.Comma(int64(len(view.Nodes)))+" nodes")

	edges := make([]table.Row, 0, len(view.Edges))
	for _, ed := range view.Edges {
		edges = append(edges, table.Row{ed.ID, ed.Source, ed.Target, ed.Label, strconv.FormatFloat(ed.Weight, 'g', -1, 64)})
	}

	out.table("Edges", table.Row{"ID", "Source", "Target", "Label", "Weight"}, edges,
		humanize.Comma(int64(len(view.Edges)))+" edges")
}

func newNeighborsCommand(flags *globalFlags) *cobra.Command {
	nf := &networkFlags{}
	wf := &windowFlags{}

	var direction string

	cmd := &cobra.Command{
		Use:   "neighbors <network> <node>",
		Short: "Show the neighbors of a node during a window",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := wf.window()
			if err != nil {
				return err
			}

			dir, err := query.ParseDirection(direction)
			if err != nil {
				return err
			}

			return runQuery(cmd, flags, nf, args[0], func(ctx context.Context, e *env, svc *query.Service) error {
				view, err := svc.Neighbors(ctx, w, args[1], dir)
				if err != nil {
					return err
				}

				if e.out.isJSON() {
					return e.out.json(view)
				}

				rows := make([]table.Row, 0, len(view.Neighbors))
				for _, n := range view.Neighbors {
					rows = append(rows, table.Row{n})
				}

				e.out.table(fmt.Sprintf("%s (%s) %s", view.Node, view.Direction, formatQuery(view.Query)),
					table.Row{"Neighbor"}, rows, fmt.Sprintf("%d edges", len(view.Edges)))

				return nil
			})
		},
	}

	nf.register(cmd)
	wf.register(cmd)
	cmd.Flags().StringVar(&direction, "direction", string(query.DirectionBoth), "edges to follow: out, in or both")

	return cmd
}
