package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/timegraph/pkg/alg/interval"
)

// fixture assembles the trees of a small temporal graph.
type fixture struct {
	nodes   *interval.Tree[bool]
	edges   *interval.Tree[bool]
	weights *interval.Tree[any]
	ends    map[string]Endpoints
}

func newFixture() *fixture {
	return &fixture{
		nodes:   interval.NewTree[bool](),
		edges:   interval.NewTree[bool](),
		weights: interval.NewTree[any](),
		ends:    make(map[string]Endpoints),
	}
}

func (f *fixture) node(t *testing.T, id string, start, end float64) *interval.Record[bool] {
	t.Helper()

	rec, err := interval.NewRecord(start, end, true)
	require.NoError(t, err)

	f.nodes.Insert(rec, id)

	return rec
}

func (f *fixture) edge(t *testing.T, id, source, target string, start, end float64) *interval.Record[bool] {
	t.Helper()

	rec, err := interval.NewRecord(start, end, true)
	require.NoError(t, err)

	f.edges.Insert(rec, id)
	f.ends[id] = Endpoints{Source: source, Target: target}

	return rec
}

func (f *fixture) weight(t *testing.T, edge string, start, end float64, value any) *interval.Record[any] {
	t.Helper()

	rec, err := interval.NewRecord[any](start, end, value)
	require.NoError(t, err)

	f.weights.Insert(rec, edge)

	return rec
}

func (f *fixture) engine(opts ...Option) *Engine {
	return NewEngine(Sources{Nodes: f.nodes, Edges: f.edges, Weights: f.weights}, f.ends, opts...)
}

func setInterval(t *testing.T, e *Engine, start, end float64) Delta {
	t.Helper()

	delta, err := e.SetInterval(context.Background(), interval.Interval{Start: start, End: end})
	require.NoError(t, err)

	return delta
}
