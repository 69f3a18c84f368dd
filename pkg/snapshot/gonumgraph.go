package snapshot

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/simple"
)

// Graph is an immutable copy of a snapshot that implements gonum's
// graph.Directed and graph.Weighted, so gonum's path and network algorithms
// run on it directly.
//
// Node ids are assigned in sorted node-name order. Parallel edges between
// the same pair collapse to the lightest one. An undirected engine yields a
// graph with every edge present in both directions.
type Graph struct {
	names []string
	ids   map[string]int64
	from  map[int64]map[int64]float64
	to    map[int64]map[int64]float64
	edge  map[[2]int64]string
}

var (
	_ graph.Directed = (*Graph)(nil)
	_ graph.Weighted = (*Graph)(nil)
)

// Graph copies the current snapshot, weighted by WeightMap.
func (e *Engine) Graph() (*Graph, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := sortedKeys(e.state.nodes)
	g := &Graph{
		names: names,
		ids:   make(map[string]int64, len(names)),
		from:  make(map[int64]map[int64]float64),
		to:    make(map[int64]map[int64]float64),
		edge:  make(map[[2]int64]string),
	}

	for i, name := range names {
		g.ids[name] = int64(i)
	}

	for _, edge := range sortedKeys(e.state.edges) {
		w, err := e.weight(edge)
		if err != nil {
			return nil, err
		}

		ep := e.state.edgeEnds[edge]
		u, v := g.ids[ep.Source], g.ids[ep.Target]

		g.setEdge(u, v, w, edge)

		if e.undirected {
			g.setEdge(v, u, w, edge)
		}
	}

	return g, nil
}

func (g *Graph) setEdge(u, v int64, w float64, edge string) {
	if cur, ok := g.from[u][v]; ok && cur <= w {
		return
	}

	if g.from[u] == nil {
		g.from[u] = make(map[int64]float64)
	}

	if g.to[v] == nil {
		g.to[v] = make(map[int64]float64)
	}

	g.from[u][v] = w
	g.to[v][u] = w
	g.edge[[2]int64{u, v}] = edge
}

// NodeFor returns the gonum node for a snapshot node name.
func (g *Graph) NodeFor(name string) (graph.Node, bool) {
	id, ok := g.ids[name]
	if !ok {
		return nil, false
	}

	return simple.Node(id), true
}

// NameOf returns the snapshot node name for a gonum node id.
func (g *Graph) NameOf(id int64) (string, bool) {
	if id < 0 || id >= int64(len(g.names)) {
		return "", false
	}

	return g.names[id], true
}

// EdgeID returns the snapshot edge id behind the gonum edge u→v.
func (g *Graph) EdgeID(uid, vid int64) (string, bool) {
	id, ok := g.edge[[2]int64{uid, vid}]

	return id, ok
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id int64) graph.Node {
	if _, ok := g.NameOf(id); !ok {
		return nil
	}

	return simple.Node(id)
}

// Nodes returns all nodes.
func (g *Graph) Nodes() graph.Nodes {
	if len(g.names) == 0 {
		return graph.Empty
	}

	nodes := make([]graph.Node, len(g.names))
	for i := range g.names {
		nodes[i] = simple.Node(int64(i))
	}

	return iterator.NewOrderedNodes(nodes)
}

// From returns the nodes reachable from id by one edge.
func (g *Graph) From(id int64) graph.Nodes {
	return adjacent(g.from[id])
}

// To returns the nodes with an edge into id.
func (g *Graph) To(id int64) graph.Nodes {
	return adjacent(g.to[id])
}

// HasEdgeBetween reports an edge in either direction.
func (g *Graph) HasEdgeBetween(xid, yid int64) bool {
	return g.HasEdgeFromTo(xid, yid) || g.HasEdgeFromTo(yid, xid)
}

// HasEdgeFromTo reports an edge u→v.
func (g *Graph) HasEdgeFromTo(uid, vid int64) bool {
	_, ok := g.from[uid][vid]

	return ok
}

// Edge returns the edge u→v, or nil.
func (g *Graph) Edge(uid, vid int64) graph.Edge {
	return g.WeightedEdge(uid, vid)
}

// WeightedEdge returns the weighted edge u→v, or nil.
func (g *Graph) WeightedEdge(uid, vid int64) graph.WeightedEdge {
	w, ok := g.from[uid][vid]
	if !ok {
		return nil
	}

	return simple.WeightedEdge{F: simple.Node(uid), T: simple.Node(vid), W: w}
}

// Weight returns the weight of x→y. A node reaches itself at zero cost;
// absent edges report +Inf.
func (g *Graph) Weight(xid, yid int64) (float64, bool) {
	if xid == yid {
		return 0, true
	}

	w, ok := g.from[xid][yid]
	if !ok {
		return math.Inf(1), false
	}

	return w, true
}

func adjacent(neighbors map[int64]float64) graph.Nodes {
	if len(neighbors) == 0 {
		return graph.Empty
	}

	ids := make([]int64, 0, len(neighbors))
	for id := range neighbors {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	nodes := make([]graph.Node, len(ids))
	for i, id := range ids {
		nodes[i] = simple.Node(id)
	}

	return iterator.NewOrderedNodes(nodes)
}
