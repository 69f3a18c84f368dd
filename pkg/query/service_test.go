package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/timegraph/pkg/alg/interval"
	"github.com/Sumatoshi-tech/timegraph/pkg/snapshot"
	"github.com/Sumatoshi-tech/timegraph/pkg/timeline"
)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()

	loader, err := timeline.NewLoader()
	require.NoError(t, err)

	doc, err := loader.LoadFile("testdata/network.json")
	require.NoError(t, err)

	network, err := timeline.Build(doc)
	require.NoError(t, err)

	return New(network, network.NewEngine("weight"), opts...)
}

func TestService_Snapshot(t *testing.T) {
	t.Parallel()

	s := newTestService(t)

	view, err := s.Snapshot(context.Background(), At(6))
	require.NoError(t, err)

	assert.Equal(t, interval.Instant(6), view.Query)
	assert.Equal(t, []NodeView{
		{ID: "A", Label: "alpha", Degree: 2, InDegree: 0, OutDegree: 2},
		{ID: "B", Degree: 2, InDegree: 1, OutDegree: 1},
		{ID: "C", Degree: 2, InDegree: 2, OutDegree: 0},
	}, view.Nodes)
	assert.Equal(t, []EdgeView{
		{ID: "AB", Source: "A", Target: "B", Label: "ab", Weight: 1},
		{ID: "AC", Source: "A", Target: "C", Weight: 5},
		{ID: "BC", Source: "B", Target: "C", Weight: 2},
	}, view.Edges)
	assert.Equal(t, []string{"A", "B", "C"}, view.Delta.NodesAdded)
	assert.Equal(t, []string{"AB", "AC", "BC"}, view.Delta.EdgesAdded)

	view, err = s.Snapshot(context.Background(), At(16))
	require.NoError(t, err)

	assert.Equal(t, []string{"D"}, view.Delta.NodesAdded)
	assert.Equal(t, []string{"A"}, view.Delta.NodesRemoved)
	assert.Equal(t, []string{"CD"}, view.Delta.EdgesAdded)
	assert.Equal(t, []string{"AB", "AC"}, view.Delta.EdgesRemoved)
	assert.Len(t, view.Nodes, 3)
}

// TestService_SnapshotWindow verifies that an instant widens to the
// configured window.
func TestService_SnapshotWindow(t *testing.T) {
	t.Parallel()

	s := newTestService(t, WithWindow(7))
	assert.InDelta(t, 7.0, s.Window(), 0)

	view, err := s.Snapshot(context.Background(), At(9))
	require.NoError(t, err)

	assert.Equal(t, interval.Interval{Start: 9, End: 16}, view.Query)
	assert.Len(t, view.Nodes, 4)
	assert.Len(t, view.Edges, 4)
}

// TestService_SnapshotRejectsBadWindow verifies that a rejected query leaves
// the previous snapshot in place.
func TestService_SnapshotRejectsBadWindow(t *testing.T) {
	t.Parallel()

	s := newTestService(t)

	_, err := s.Snapshot(context.Background(), At(6))
	require.NoError(t, err)

	_, err = s.Snapshot(context.Background(), Between(9, 2))
	require.ErrorIs(t, err, interval.ErrInvalidInterval)

	_, err = s.Snapshot(context.Background(), Window{})
	require.ErrorIs(t, err, ErrEmptyQuery)

	view, err := s.Snapshot(context.Background(), At(6))
	require.NoError(t, err)
	assert.True(t, view.Delta.Empty())
}

func TestService_Neighbors(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		node      string
		dir       Direction
		neighbors []string
		edges     []string
	}{
		{"A", DirectionOut, []string{"B", "C"}, []string{"AB", "AC"}},
		{"A", DirectionIn, []string{}, []string{}},
		{"C", DirectionIn, []string{"A", "B"}, []string{"AC", "BC"}},
		{"B", "", []string{"A", "C"}, []string{"AB", "BC"}},
	}

	for _, tt := range tests {
		view, err := s.Neighbors(ctx, At(6), tt.node, tt.dir)
		require.NoError(t, err)
		assert.Equal(t, tt.neighbors, view.Neighbors, "%s %s", tt.node, tt.dir)
		assert.Equal(t, tt.edges, view.Edges, "%s %s", tt.node, tt.dir)
	}

	_, err := s.Neighbors(ctx, At(6), "D", DirectionBoth)
	require.ErrorIs(t, err, ErrUnknownNode)

	_, err = s.Neighbors(ctx, At(6), "A", "sideways")
	require.ErrorIs(t, err, ErrInvalidDirection)
}

func TestService_Events(t *testing.T) {
	t.Parallel()

	s := newTestService(t)

	events := s.Events()
	assert.Equal(t, []float64{0, 5, 10, 15, 20, 30}, events.Times)
	require.NotNil(t, events.First)
	assert.InDelta(t, 0.0, *events.First, 0)
	assert.InDelta(t, 30.0, *events.Last, 0)
}

func TestService_Replay(t *testing.T) {
	t.Parallel()

	s := newTestService(t)

	var nodes []int

	err := s.Replay(context.Background(), nil, func(step snapshot.Step) error {
		nodes = append(nodes, step.Nodes)

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 2, 3, 1, 0}, nodes)
}

func TestParseDirection(t *testing.T) {
	t.Parallel()

	dir, err := ParseDirection("")
	require.NoError(t, err)
	assert.Equal(t, DirectionBoth, dir)

	dir, err = ParseDirection("in")
	require.NoError(t, err)
	assert.Equal(t, DirectionIn, dir)

	_, err = ParseDirection("up")
	require.ErrorIs(t, err, ErrInvalidDirection)
}
