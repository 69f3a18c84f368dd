package query

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/Sumatoshi-tech/timegraph/pkg/alg/interval"
	"github.com/Sumatoshi-tech/timegraph/pkg/alg/lru"
	"github.com/Sumatoshi-tech/timegraph/pkg/snapshot"
	"github.com/Sumatoshi-tech/timegraph/pkg/timeline"
)

// Sentinel errors.
var (
	// ErrUnknownNode is returned when a node is not in the requested snapshot.
	ErrUnknownNode = errors.New("node not in snapshot")
	// ErrInvalidDirection is returned for a direction other than out, in or both.
	ErrInvalidDirection = errors.New("direction must be out, in or both")
)

// DefaultGraphCacheSize is the number of snapshot graph copies kept for
// path and rank queries.
const DefaultGraphCacheSize = 16

// Direction selects which edges of a node a neighbor query follows.
type Direction string

// Direction values.
const (
	DirectionOut  Direction = "out"
	DirectionIn   Direction = "in"
	DirectionBoth Direction = "both"
)

// ParseDirection validates s. An empty string means DirectionBoth.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case "", DirectionBoth:
		return DirectionBoth, nil
	case DirectionOut, DirectionIn:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// NodeView is one node of a snapshot.
type NodeView struct {
	ID        string `json:"id"`
	Label     string `json:"label,omitempty"`
	Degree    int    `json:"degree"`
	InDegree  int    `json:"in_degree"`
	OutDegree int    `json:"out_degree"`
}

// EdgeView is one materialized edge of a snapshot.
type EdgeView struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Target string  `json:"target"`
	Label  string  `json:"label,omitempty"`
	Weight float64 `json:"weight"`
}

// View is a full snapshot plus the delta that led to it from the previous
// query served by the same Service.
type View struct {
	Query interval.Interval `json:"query"`
	Nodes []NodeView        `json:"nodes"`
	Edges []EdgeView        `json:"edges"`
	Delta snapshot.Delta    `json:"delta"`
}

// NeighborsView lists the neighbors of one node.
type NeighborsView struct {
	Query     interval.Interval `json:"query"`
	Node      string            `json:"node"`
	Direction Direction         `json:"direction"`
	Neighbors []string          `json:"neighbors"`
	Edges     []string          `json:"edges"`
}

// EventsView lists the instants at which the snapshot can change.
type EventsView struct {
	Times []float64 `json:"times"`
	First *float64  `json:"first,omitempty"`
	Last  *float64  `json:"last,omitempty"`
}

// Option configures a Service.
type Option func(*Service)

// WithWindow sets the width of the interval an At window expands to.
func WithWindow(width float64) Option {
	return func(s *Service) {
		s.window = max(width, 0)
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGraphCacheSize sets how many graph copies are cached; 0 disables the cache.
func WithGraphCacheSize(n int) Option {
	return func(s *Service) {
		s.graphs = lru.New[interval.Interval, *snapshot.Graph](n)
	}
}

// Service answers queries against one network through one engine.
type Service struct {
	mu sync.Mutex

	network *timeline.Network
	engine  *snapshot.Engine
	window  float64
	graphs  *lru.Cache[interval.Interval, *snapshot.Graph]
	logger  *slog.Logger
}

// New creates a service over network. engine must have been built from the
// same network, typically with network.NewEngine.
func New(network *timeline.Network, engine *snapshot.Engine, opts ...Option) *Service {
	s := &Service{
		network: network,
		engine:  engine,
		graphs:  lru.New[interval.Interval, *snapshot.Graph](DefaultGraphCacheSize),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Network returns the network the service reads.
func (s *Service) Network() *timeline.Network {
	return s.network
}

// Window returns the width an At window expands to.
func (s *Service) Window() float64 {
	return s.window
}

// GraphCacheStats returns the counters of the graph cache.
func (s *Service) GraphCacheStats() lru.Stats {
	return s.graphs.Stats()
}

// Resolve turns w into the query interval this service would use.
func (s *Service) Resolve(w Window) (interval.Interval, error) {
	return w.Resolve(s.window)
}

// Events returns every event time of the network.
func (s *Service) Events() EventsView {
	view := EventsView{Times: s.network.EventTimes()}

	if first, last, ok := s.network.Bounds(); ok {
		view.First = &first
		view.Last = &last
	}

	if view.Times == nil {
		view.Times = []float64{}
	}

	return view
}

// Snapshot moves the engine to w and returns everything in the snapshot.
func (s *Service) Snapshot(ctx context.Context, w Window) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delta, err := s.move(ctx, w)
	if err != nil {
		return nil, err
	}

	weights, err := s.engine.WeightMap()
	if err != nil {
		return nil, fmt.Errorf("snapshot weights: %w", err)
	}

	view := &View{
		Query: delta.Query,
		Nodes: make([]NodeView, 0, s.engine.NodeCount()),
		Edges: make([]EdgeView, 0, len(weights)),
		Delta: delta,
	}

	for _, id := range s.engine.Nodes() {
		view.Nodes = append(view.Nodes, NodeView{
			ID:        id,
			Label:     s.network.Labels[id],
			Degree:    s.engine.Degree(id),
			InDegree:  s.engine.InDegree(id),
			OutDegree: s.engine.OutDegree(id),
		})
	}

	for _, id := range s.engine.Edges() {
		ep, _ := s.engine.EndpointsOf(id)
		view.Edges = append(view.Edges, EdgeView{
			ID:     id,
			Source: ep.Source,
			Target: ep.Target,
			Label:  s.network.Labels[id],
			Weight: weights[id],
		})
	}

	return view, nil
}

// Neighbors returns the nodes adjacent to node in the snapshot of w.
func (s *Service) Neighbors(ctx context.Context, w Window, node string, dir Direction) (*NeighborsView, error) {
	dir, err := ParseDirection(string(dir))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delta, err := s.move(ctx, w)
	if err != nil {
		return nil, err
	}

	if !s.engine.ContainsNode(node) {
		return nil, fmt.Errorf("%w: %q during %s", ErrUnknownNode, node, delta.Query)
	}

	view := &NeighborsView{Query: delta.Query, Node: node, Direction: dir}

	switch dir {
	case DirectionOut:
		view.Neighbors = s.engine.Successors(node)
		view.Edges = s.engine.OutEdges(node)
	case DirectionIn:
		view.Neighbors = s.engine.Predecessors(node)
		view.Edges = s.engine.InEdges(node)
	default:
		view.Neighbors = s.engine.Neighbors(node)
		view.Edges = slices.Compact(slices.Sorted(slices.Values(
			append(s.engine.OutEdges(node), s.engine.InEdges(node)...))))
	}

	view.Neighbors = nonNil(view.Neighbors)
	view.Edges = nonNil(view.Edges)

	return view, nil
}

// Replay steps the engine through times (every event time when nil),
// handing each step to fn while holding the service lock.
func (s *Service) Replay(ctx context.Context, times []float64, fn snapshot.StepFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.engine.Replay(ctx, times, fn)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	return nil
}

// move resolves w and moves the engine. Caller holds s.mu.
func (s *Service) move(ctx context.Context, w Window) (snapshot.Delta, error) {
	query, err := s.Resolve(w)
	if err != nil {
		return snapshot.Delta{}, err
	}

	delta, err := s.engine.SetInterval(ctx, query)
	if err != nil {
		return snapshot.Delta{}, fmt.Errorf("move snapshot: %w", err)
	}

	s.logger.DebugContext(ctx, "snapshot moved",
		"query", query.String(),
		"nodes_added", len(delta.NodesAdded),
		"nodes_removed", len(delta.NodesRemoved),
	)

	return delta, nil
}

// graph returns a gonum copy of the snapshot of w, from the cache when the
// same interval was asked for before.
func (s *Service) graph(ctx context.Context, w Window) (interval.Interval, *snapshot.Graph, error) {
	query, err := s.Resolve(w)
	if err != nil {
		return interval.Interval{}, nil, err
	}

	if g, ok := s.graphs.Get(query); ok {
		return query, g, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.move(ctx, w)
	if err != nil {
		return interval.Interval{}, nil, err
	}

	g, err := s.engine.Graph()
	if err != nil {
		return interval.Interval{}, nil, fmt.Errorf("snapshot graph: %w", err)
	}

	s.graphs.Put(query, g)

	return query, g, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}

	return ids
}

func byScore(a, b Score) int {
	return cmp.Or(cmp.Compare(b.Score, a.Score), cmp.Compare(a.Node, b.Node))
}
