package commands

import (
	"context"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/timegraph/pkg/query"
)

func newPathCommand(flags *globalFlags) *cobra.Command {
	nf := &networkFlags{}
	wf := &windowFlags{}

	cmd := &cobra.Command{
		Use:   "path <network> <from> <to>",
		Short: "Find the cheapest path between two nodes during a window",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := wf.window()
			if err != nil {
				return err
			}

			return runQuery(cmd, flags, nf, args[0], func(ctx context.Context, e *env, svc *query.Service) error {
				route, err := svc.Path(ctx, w, args[1], args[2])
				if err != nil {
					return err
				}

				if e.out.isJSON() {
					return e.out.json(route)
				}

				e.out.line("%s %s", strings.Join(route.Nodes, " -> "), formatQuery(route.Query))
				e.out.line("weight %s via %s", strconv.FormatFloat(route.Weight, 'g', -1, 64), strings.Join(route.Edges, ", "))

				return nil
			})
		},
	}

	nf.register(cmd)
	wf.register(cmd)

	return cmd
}

func newRankCommand(flags *globalFlags) *cobra.Command {
	nf := &networkFlags{}
	wf := &windowFlags{}

	var (
		damping float64
		top     int
	)

	cmd := &cobra.Command{
		Use:   "rank <network>",
		Short: "Rank the nodes present during a window by PageRank",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := wf.window()
			if err != nil {
				return err
			}

			return runQuery(cmd, flags, nf, args[0], func(ctx context.Context, e *env, svc *query.Service) error {
				ranks, err := svc.Rank(ctx, w, damping, 0)
				if err != nil {
					return err
				}

				if top > 0 && len(ranks.Scores) > top {
					ranks.Scores = ranks.Scores[:top]
				}

				if e.out.isJSON() {
					return e.out.json(ranks)
				}

				rows := make([]table.Row, 0, len(ranks.Scores))
				for i, sc := range ranks.Scores {
					rows = append(rows, table.Row{i + 1, sc.Node, strconv.FormatFloat(sc.Score, 'f', 4, 64)})
				}

				e.out.table("PageRank "+formatQuery(ranks.Query), table.Row{"#", "Node", "Score"}, rows, "")

				return nil
			})
		},
	}

	nf.register(cmd)
	wf.register(cmd)
	cmd.Flags().Float64Var(&damping, "damping", query.DefaultDamping, "PageRank damping factor")
	cmd.Flags().IntVar(&top, "top", 0, "show only the highest n nodes (0 shows all)")

	return cmd
}
