package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/timegraph/pkg/query"
	"github.com/Sumatoshi-tech/timegraph/pkg/snapshot"
)

func newReplayCommand(flags *globalFlags) *cobra.Command {
	nf := &networkFlags{}

	var (
		from    float64
		to      float64
		showIDs bool
	)

	cmd := &cobra.Command{
		Use:   "replay <network>",
		Short: "Step through event times and report each change",
		Long: `Replay moves the snapshot through every event time in [--from, --to]
in order. Each step reports the node and edge counts and what was added or
removed. With --output json every step is printed as one JSON line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, flags, nf, args[0], func(ctx context.Context, e *env, svc *query.Service) error {
				times := eventsBetween(svc.Events().Times, from, to)
				started := time.Now()

				var (
					rows []table.Row
					enc  = json.NewEncoder(e.out.w)
				)

				err := svc.Replay(ctx, times, func(step snapshot.Step) error {
					if e.out.isJSON() {
						return enc.Encode(step)
					}

					if showIDs {
						e.out.line("t=%s", formatTime(step.Time))
						e.out.delta(step.Delta)
					}

					rows = append(rows, table.Row{
						step.Index, formatTime(step.Time), step.Nodes, step.Edges,
						len(step.Delta.NodesAdded), len(step.Delta.NodesRemoved),
						len(step.Delta.EdgesAdded), len(step.Delta.EdgesRemoved),
					})

					return nil
				})
				if err != nil {
					return err
				}

				e.logger.InfoContext(ctx, "replay finished",
					"steps", len(times), "elapsed", time.Since(started))

				if e.out.isJSON() {
					return nil
				}

				e.out.table("Replay",
					table.Row{"#", "Time", "Nodes", "Edges", "+Nodes", "-Nodes", "+Edges", "-Edges"},
					rows, fmt.Sprintf("%s steps", humanize.Comma(int64(len(times)))))

				return nil
			})
		},
	}

	nf.register(cmd)
	cmd.Flags().Float64Var(&from, "from", math.Inf(-1), "first event time to visit")
	cmd.Flags().Float64Var(&to, "to", math.Inf(1), "last event time to visit")
	cmd.Flags().BoolVar(&showIDs, "ids", false, "print the ids added and removed at every step")

	return cmd
}

// eventsBetween returns the times within [from, to]. The result is never nil
// so that an empty range replays nothing.
func eventsBetween(times []float64, from, to float64) []float64 {
	out := make([]float64, 0, len(times))

	for _, t := range times {
		if t >= from && t <= to {
			out = append(out, t)
		}
	}

	return out
}
