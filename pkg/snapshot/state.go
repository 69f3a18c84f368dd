package snapshot

import (
	"slices"

	"github.com/Sumatoshi-tech/timegraph/pkg/alg/interval"
)

// State is the materialized snapshot owned by one Engine.
//
// An edge is active while one of its records is in the query result. It is
// materialized, that is part of the edge set and the adjacency lists, only
// while both endpoints are in the node set as well. Active edges waiting for
// an endpoint are promoted when that node arrives.
type State struct {
	query        interval.Interval
	materialized bool

	nodes    map[string]struct{}
	nodeRefs map[string]int

	edges     map[string]struct{}
	edgeRefs  map[string]int
	edgeEnds  map[string]Endpoints
	incident  map[string]map[string]struct{}
	out, in   map[string][]string
	weightRec map[string][]*interval.Record[any]

	lastNodes   map[*interval.Record[bool]]string
	lastEdges   map[*interval.Record[bool]]string
	lastWeights map[*interval.Record[any]]string
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		nodes:     make(map[string]struct{}),
		nodeRefs:  make(map[string]int),
		edges:     make(map[string]struct{}),
		edgeRefs:  make(map[string]int),
		edgeEnds:  make(map[string]Endpoints),
		incident:  make(map[string]map[string]struct{}),
		out:       make(map[string][]string),
		in:        make(map[string][]string),
		weightRec: make(map[string][]*interval.Record[any]),
	}
}

// apply mutates the state by a staged plan: node changes first, then edge
// changes, then weight records. It cannot fail.
func (st *State) apply(p *plan) Delta {
	nodeDelta := newDeltaBuilder()
	edgeDelta := newDeltaBuilder()

	for _, ch := range p.nodes.off {
		ch.rec.IsOn = false

		st.nodeRefs[ch.entity]--
		if st.nodeRefs[ch.entity] > 0 {
			continue
		}

		delete(st.nodeRefs, ch.entity)
		st.removeNode(ch.entity, nodeDelta, edgeDelta)
	}

	for _, ch := range p.nodes.on {
		ch.rec.IsOn = true

		st.nodeRefs[ch.entity]++
		if st.nodeRefs[ch.entity] == 1 {
			st.addNode(ch.entity, nodeDelta, edgeDelta)
		}
	}

	for _, ch := range p.edges.off {
		ch.rec.IsOn = false

		st.edgeRefs[ch.entity]--
		if st.edgeRefs[ch.entity] > 0 {
			continue
		}

		delete(st.edgeRefs, ch.entity)
		st.deactivateEdge(ch.entity, edgeDelta)
	}

	for _, ch := range p.edges.on {
		ch.rec.IsOn = true

		st.edgeRefs[ch.entity]++
		if st.edgeRefs[ch.entity] == 1 {
			st.activateEdge(ch.entity, p.ends[ch.entity], edgeDelta)
		}
	}

	for _, ch := range p.weights.off {
		ch.rec.IsOn = false

		recs := st.weightRec[ch.entity]
		if pos := slices.Index(recs, ch.rec); pos >= 0 {
			recs = slices.Delete(recs, pos, pos+1)
		}

		if len(recs) == 0 {
			delete(st.weightRec, ch.entity)
		} else {
			st.weightRec[ch.entity] = recs
		}
	}

	for _, ch := range p.weights.on {
		ch.rec.IsOn = true
		st.weightRec[ch.entity] = append(st.weightRec[ch.entity], ch.rec)
	}

	st.lastNodes = p.nodes.next
	st.lastEdges = p.edges.next
	st.lastWeights = p.weights.next
	st.query = p.query
	st.materialized = true

	delta := Delta{
		Query:      p.query,
		RecordsOn:  len(p.nodes.on) + len(p.edges.on) + len(p.weights.on),
		RecordsOff: len(p.nodes.off) + len(p.edges.off) + len(p.weights.off),
		Nodes:      len(st.nodes),
		Edges:      len(st.edges),
	}
	delta.NodesAdded, delta.NodesRemoved = nodeDelta.result()
	delta.EdgesAdded, delta.EdgesRemoved = edgeDelta.result()

	return delta
}

// addNode inserts a node and promotes active edges that now have both endpoints.
func (st *State) addNode(id string, nodeDelta, edgeDelta *deltaBuilder) {
	st.nodes[id] = struct{}{}
	nodeDelta.add(id)

	for _, edge := range sortedKeys(st.incident[id]) {
		st.materializeEdge(edge, edgeDelta)
	}
}

// removeNode drops a node and dematerializes its edges; they stay active.
func (st *State) removeNode(id string, nodeDelta, edgeDelta *deltaBuilder) {
	for _, edge := range sortedKeys(st.incident[id]) {
		st.dematerializeEdge(edge, edgeDelta)
	}

	delete(st.nodes, id)
	delete(st.out, id)
	delete(st.in, id)
	nodeDelta.remove(id)
}

func (st *State) activateEdge(id string, ep Endpoints, edgeDelta *deltaBuilder) {
	st.edgeEnds[id] = ep
	st.link(ep.Source, id)
	st.link(ep.Target, id)
	st.materializeEdge(id, edgeDelta)
}

func (st *State) deactivateEdge(id string, edgeDelta *deltaBuilder) {
	st.dematerializeEdge(id, edgeDelta)

	ep := st.edgeEnds[id]
	st.unlink(ep.Source, id)
	st.unlink(ep.Target, id)
	delete(st.edgeEnds, id)
}

// materializeEdge adds an active edge to the edge set and adjacency when both
// endpoints are present. It is a no-op otherwise or if already materialized.
func (st *State) materializeEdge(id string, edgeDelta *deltaBuilder) {
	if _, ok := st.edges[id]; ok {
		return
	}

	ep, ok := st.edgeEnds[id]
	if !ok || !st.hasNode(ep.Source) || !st.hasNode(ep.Target) {
		return
	}

	st.edges[id] = struct{}{}
	st.out[ep.Source] = append(st.out[ep.Source], id)
	st.in[ep.Target] = append(st.in[ep.Target], id)
	edgeDelta.add(id)
}

func (st *State) dematerializeEdge(id string, edgeDelta *deltaBuilder) {
	if _, ok := st.edges[id]; !ok {
		return
	}

	ep := st.edgeEnds[id]
	delete(st.edges, id)
	st.out[ep.Source] = removeID(st.out[ep.Source], id)
	st.in[ep.Target] = removeID(st.in[ep.Target], id)
	edgeDelta.remove(id)
}

func (st *State) link(node, edge string) {
	set := st.incident[node]
	if set == nil {
		set = make(map[string]struct{})
		st.incident[node] = set
	}

	set[edge] = struct{}{}
}

func (st *State) unlink(node, edge string) {
	set := st.incident[node]
	delete(set, edge)

	if len(set) == 0 {
		delete(st.incident, node)
	}
}

func (st *State) hasNode(id string) bool {
	_, ok := st.nodes[id]

	return ok
}

func removeID(ids []string, id string) []string {
	pos := slices.Index(ids, id)
	if pos < 0 {
		return ids
	}

	return slices.Delete(ids, pos, pos+1)
}
