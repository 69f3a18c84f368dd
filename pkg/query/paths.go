package query

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/path"

	"github.com/Sumatoshi-tech/timegraph/pkg/alg/interval"
)

// ErrNoPath is returned when the target cannot be reached from the source.
var ErrNoPath = errors.New("no path")

// PageRank defaults.
const (
	DefaultDamping   = 0.85
	DefaultTolerance = 1e-6
)

// PathView is a cheapest route through one snapshot.
type PathView struct {
	Query  interval.Interval `json:"query"`
	Nodes  []string          `json:"nodes"`
	Edges  []string          `json:"edges"`
	Weight float64           `json:"weight"`
}

// Score is the rank of one node.
type Score struct {
	Node  string  `json:"node"`
	Score float64 `json:"score"`
}

// RankView is the PageRank of every node of one snapshot, highest first.
type RankView struct {
	Query  interval.Interval `json:"query"`
	Scores []Score           `json:"scores"`
}

// Path returns the cheapest route from one node to another in the snapshot
// of w, using edge weights as costs.
func (s *Service) Path(ctx context.Context, w Window, from, to string) (*PathView, error) {
	query, g, err := s.graph(ctx, w)
	if err != nil {
		return nil, err
	}

	src, ok := g.NodeFor(from)
	if !ok {
		return nil, fmt.Errorf("%w: %q during %s", ErrUnknownNode, from, query)
	}

	dst, ok := g.NodeFor(to)
	if !ok {
		return nil, fmt.Errorf("%w: %q during %s", ErrUnknownNode, to, query)
	}

	route, weight := path.DijkstraFrom(src, g).To(dst.ID())
	if len(route) == 0 || math.IsInf(weight, 1) {
		return nil, fmt.Errorf("%w from %q to %q during %s", ErrNoPath, from, to, query)
	}

	view := &PathView{
		Query:  query,
		Nodes:  make([]string, 0, len(route)),
		Edges:  make([]string, 0, len(route)-1),
		Weight: weight,
	}

	for i, n := range route {
		name, _ := g.NameOf(n.ID())
		view.Nodes = append(view.Nodes, name)

		if i > 0 {
			edge, _ := g.EdgeID(route[i-1].ID(), n.ID())
			view.Edges = append(view.Edges, edge)
		}
	}

	return view, nil
}

// Rank computes PageRank over the snapshot of w. Non-positive damping or
// tolerance fall back to the defaults.
func (s *Service) Rank(ctx context.Context, w Window, damping, tolerance float64) (*RankView, error) {
	query, g, err := s.graph(ctx, w)
	if err != nil {
		return nil, err
	}

	if damping <= 0 || damping >= 1 {
		damping = DefaultDamping
	}

	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	view := &RankView{Query: query, Scores: []Score{}}

	if g.Nodes().Len() == 0 {
		return view, nil
	}

	for id, score := range network.PageRank(g, damping, tolerance) {
		name, _ := g.NameOf(id)
		view.Scores = append(view.Scores, Score{Node: name, Score: score})
	}

	slices.SortFunc(view.Scores, byScore)

	return view, nil
}
