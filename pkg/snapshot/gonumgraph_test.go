package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/path"
)

// TestGraph_ShortestPath runs gonum's Dijkstra on a weighted snapshot.
func TestGraph_ShortestPath(t *testing.T) {
	t.Parallel()

	f := newFixture()
	for _, id := range []string{"A", "B", "C", "D"} {
		f.node(t, id, 0, 100)
	}

	f.edge(t, "AB", "A", "B", 0, 100)
	f.edge(t, "BD", "B", "D", 0, 100)
	f.edge(t, "AC", "A", "C", 0, 100)
	f.edge(t, "CD", "C", "D", 0, 100)
	f.weight(t, "AB", 0, 100, 1)
	f.weight(t, "BD", 0, 100, 10)
	f.weight(t, "AC", 0, 100, 2)
	f.weight(t, "CD", 0, 100, 2)

	e := f.engine()
	setInterval(t, e, 1, 1)

	g, err := e.Graph()
	require.NoError(t, err)

	from, ok := g.NodeFor("A")
	require.True(t, ok)

	to, ok := g.NodeFor("D")
	require.True(t, ok)

	shortest := path.DijkstraFrom(from, g)
	route, weight := shortest.To(to.ID())

	assert.InDelta(t, 4.0, weight, 1e-9)

	names := make([]string, len(route))
	for i, n := range route {
		names[i], _ = g.NameOf(n.ID())
	}

	assert.Equal(t, []string{"A", "C", "D"}, names)

	b, _ := g.NodeFor("B")
	edge, ok := g.EdgeID(from.ID(), b.ID())
	assert.True(t, ok)
	assert.Equal(t, "AB", edge)
}

// TestGraph_Interface verifies the graph.Directed contract on a small snapshot.
func TestGraph_Interface(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.node(t, "A", 0, 10)
	f.node(t, "B", 0, 10)
	f.node(t, "C", 20, 30)
	f.edge(t, "AB", "A", "B", 0, 10)

	e := f.engine()
	setInterval(t, e, 1, 1)

	g, err := e.Graph()
	require.NoError(t, err)

	assert.Equal(t, 2, g.Nodes().Len())

	a, _ := g.NodeFor("A")
	b, _ := g.NodeFor("B")

	_, ok := g.NodeFor("C")
	assert.False(t, ok, "C is outside the snapshot")

	assert.True(t, g.HasEdgeFromTo(a.ID(), b.ID()))
	assert.False(t, g.HasEdgeFromTo(b.ID(), a.ID()))
	assert.True(t, g.HasEdgeBetween(b.ID(), a.ID()))
	assert.Nil(t, g.Edge(b.ID(), a.ID()))
	assert.Equal(t, 1, g.To(b.ID()).Len())
	assert.Equal(t, 0, g.From(b.ID()).Len())
	assert.Nil(t, g.Node(42))

	w, ok := g.Weight(a.ID(), a.ID())
	assert.True(t, ok)
	assert.InDelta(t, 0.0, w, 0)

	_, ok = g.Weight(b.ID(), a.ID())
	assert.False(t, ok)
}

// TestGraph_Undirected verifies that an undirected engine yields both directions.
func TestGraph_Undirected(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.node(t, "A", 0, 10)
	f.node(t, "B", 0, 10)
	f.node(t, "C", 0, 10)
	f.edge(t, "AB", "A", "B", 0, 10)
	f.edge(t, "CB", "C", "B", 0, 10)

	e := f.engine(WithUndirected())
	setInterval(t, e, 1, 1)

	g, err := e.Graph()
	require.NoError(t, err)

	a, _ := g.NodeFor("A")
	b, _ := g.NodeFor("B")
	assert.True(t, g.HasEdgeFromTo(b.ID(), a.ID()))

	ranks := network.PageRank(g, 0.85, 1e-6)
	assert.Len(t, ranks, 3)
	assert.Greater(t, ranks[b.ID()], ranks[a.ID()])
}
