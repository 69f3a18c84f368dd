package snapshot

import (
	"slices"

	"github.com/Sumatoshi-tech/timegraph/pkg/alg/interval"
)

// Interval returns the query of the last applied SetInterval call. ok is
// false while the engine is Empty.
func (e *Engine) Interval() (query interval.Interval, ok bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.state.query, e.state.materialized
}

// Materialized reports whether SetInterval has been applied at least once.
func (e *Engine) Materialized() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.state.materialized
}

// Nodes returns the ids of the nodes in the snapshot, sorted.
func (e *Engine) Nodes() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return sortedKeys(e.state.nodes)
}

// Edges returns the ids of the materialized edges, sorted.
func (e *Engine) Edges() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return sortedKeys(e.state.edges)
}

// NodeCount returns the number of nodes in the snapshot.
func (e *Engine) NodeCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.state.nodes)
}

// EdgeCount returns the number of materialized edges.
func (e *Engine) EdgeCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.state.edges)
}

// ContainsNode reports whether node id is in the snapshot.
func (e *Engine) ContainsNode(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.state.hasNode(id)
}

// ContainsEdge reports whether edge id is materialized.
func (e *Engine) ContainsEdge(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	_, ok := e.state.edges[id]

	return ok
}

// OutEdges returns the materialized edges leaving node id, sorted. On an
// undirected engine it returns every incident edge.
func (e *Engine) OutEdges(id string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.undirected {
		return e.incidentEdges(id)
	}

	return sortedCopy(e.state.out[id])
}

// InEdges returns the materialized edges entering node id, sorted. On an
// undirected engine it returns every incident edge.
func (e *Engine) InEdges(id string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.undirected {
		return e.incidentEdges(id)
	}

	return sortedCopy(e.state.in[id])
}

// OutDegree returns the number of materialized edges leaving node id.
func (e *Engine) OutDegree(id string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.undirected {
		return e.degree(id)
	}

	return len(e.state.out[id])
}

// InDegree returns the number of materialized edges entering node id.
func (e *Engine) InDegree(id string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.undirected {
		return e.degree(id)
	}

	return len(e.state.in[id])
}

// Degree returns the number of edge ends at node id; a self-loop counts twice.
func (e *Engine) Degree(id string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.degree(id)
}

// Successors returns the distinct targets of node id's outgoing edges, sorted.
func (e *Engine) Successors(id string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.undirected {
		return e.neighbors(id)
	}

	return e.opposite(e.state.out[id], func(ep Endpoints) string { return ep.Target })
}

// Predecessors returns the distinct sources of node id's incoming edges, sorted.
func (e *Engine) Predecessors(id string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.undirected {
		return e.neighbors(id)
	}

	return e.opposite(e.state.in[id], func(ep Endpoints) string { return ep.Source })
}

// Neighbors returns every node joined to node id by a materialized edge in
// either direction, sorted.
func (e *Engine) Neighbors(id string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.neighbors(id)
}

// FindEdge returns a materialized edge from a to b. On an undirected engine
// an edge from b to a also matches. When several edges qualify the smallest
// id wins.
func (e *Engine) FindEdge(a, b string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var found []string

	for _, edge := range e.state.out[a] {
		if e.state.edgeEnds[edge].Target == b {
			found = append(found, edge)
		}
	}

	if e.undirected {
		for _, edge := range e.state.out[b] {
			if e.state.edgeEnds[edge].Target == a {
				found = append(found, edge)
			}
		}
	}

	if len(found) == 0 {
		return "", false
	}

	return slices.Min(found), true
}

func (e *Engine) degree(id string) int {
	return len(e.state.out[id]) + len(e.state.in[id])
}

func (e *Engine) incidentEdges(id string) []string {
	edges := append(slices.Clone(e.state.out[id]), e.state.in[id]...)
	slices.Sort(edges)

	return slices.Compact(edges)
}

func (e *Engine) neighbors(id string) []string {
	set := make(map[string]struct{})

	for _, edge := range e.state.out[id] {
		set[e.state.edgeEnds[edge].Target] = struct{}{}
	}

	for _, edge := range e.state.in[id] {
		set[e.state.edgeEnds[edge].Source] = struct{}{}
	}

	return sortedKeys(set)
}

func (e *Engine) opposite(edges []string, end func(Endpoints) string) []string {
	set := make(map[string]struct{}, len(edges))
	for _, edge := range edges {
		set[end(e.state.edgeEnds[edge])] = struct{}{}
	}

	return sortedKeys(set)
}

func sortedCopy(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}

	out := slices.Clone(ids)
	slices.Sort(out)

	return out
}
