// Package snapshot materializes the graph that is visible over a query
// interval and keeps it current as the interval moves.
//
// An Engine watches one interval tree per entity class: node existence,
// edge existence and, optionally, an edge attribute used for weighting.
// Each SetInterval call searches those trees, diffs the results against the
// previous call by record identity and applies only the difference to the
// node set, edge set and adjacency lists.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/timegraph/pkg/alg/interval"
	"github.com/Sumatoshi-tech/timegraph/pkg/observability"
)

// Sentinel errors.
var (
	// ErrUnknownEndpoint is returned when an edge record turns on for an edge
	// whose endpoints were never declared.
	ErrUnknownEndpoint = errors.New("edge has no declared endpoints")
	// ErrNonNumericWeight is returned by WeightMap for a weight value that is
	// neither an integer nor a float.
	ErrNonNumericWeight = errors.New("non-numeric edge weight")
	// ErrNegativeWeight is returned by WeightMap when an edge's averaged
	// weight is negative.
	ErrNegativeWeight = errors.New("negative edge weight")
)

const tracerName = "timegraph.snapshot"

// Sources are the trees an Engine reads. Nodes and Edges hold existence
// records keyed by node and edge id; Weights, if set, holds edge attribute
// records keyed by edge id.
type Sources struct {
	Nodes   *interval.Tree[bool]
	Edges   *interval.Tree[bool]
	Weights *interval.Tree[any]
}

// Endpoints are the source and target node of an edge.
type Endpoints struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracer sets the tracer used for SetInterval spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithMetrics records every applied update.
func WithMetrics(metrics *observability.SnapshotMetrics) Option {
	return func(e *Engine) {
		e.metrics = metrics
	}
}

// WithWeightAttribute restricts weighting to weight records whose attribute
// has the given name. Records inserted without an attribute always count.
func WithWeightAttribute(name string) Option {
	return func(e *Engine) {
		e.weightAttribute = name
	}
}

// WithUndirected makes traversal ignore edge orientation.
func WithUndirected() Option {
	return func(e *Engine) {
		e.undirected = true
	}
}

// Engine maintains the snapshot for one moving query interval.
//
// SetInterval is one critical section: readers never observe a partially
// applied delta. Trees may be shared between engines; mutating a tree while
// an engine queries it is the caller's responsibility.
type Engine struct {
	mu sync.RWMutex

	sources   Sources
	endpoints map[string]Endpoints
	state     *State

	undirected      bool
	weightAttribute string

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.SnapshotMetrics
}

// NewEngine creates an engine in the Empty state. endpoints maps every edge
// id stored in sources.Edges to its end nodes.
func NewEngine(sources Sources, endpoints map[string]Endpoints, opts ...Option) *Engine {
	ends := make(map[string]Endpoints, len(endpoints))
	for id, ep := range endpoints {
		ends[id] = ep
	}

	e := &Engine{
		sources:   sources,
		endpoints: ends,
		state:     NewState(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:    nooptrace.NewTracerProvider().Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// SetEndpoints declares or replaces the endpoints of edge id. It takes effect
// at the next SetInterval call that turns the edge on.
func (e *Engine) SetEndpoints(id string, ep Endpoints) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.endpoints[id] = ep
}

// EndpointsOf returns the declared endpoints of edge id.
func (e *Engine) EndpointsOf(id string) (Endpoints, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ep, ok := e.endpoints[id]

	return ep, ok
}

// Reset discards the snapshot and returns the engine to the Empty state.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = NewState()
}

// SetInterval moves the snapshot to query and returns what changed.
//
// All searches and validation run before the state is touched; on error the
// previous snapshot stays in place.
func (e *Engine) SetInterval(ctx context.Context, query interval.Interval) (Delta, error) {
	ctx, span := e.tracer.Start(ctx, "timegraph.snapshot.set_interval",
		trace.WithAttributes(
			attribute.Float64("timegraph.query.start", query.Start),
			attribute.Float64("timegraph.query.end", query.End),
		),
	)
	defer span.End()

	started := time.Now()

	err := query.Validate()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return Delta{}, fmt.Errorf("set interval: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	plan, err := e.stage(query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.WarnContext(ctx, "snapshot update rejected", "query", query.String(), "error", err)

		return Delta{}, err
	}

	delta := e.state.apply(plan)
	elapsed := time.Since(started)

	span.SetAttributes(
		attribute.Int("timegraph.delta.nodes_added", len(delta.NodesAdded)),
		attribute.Int("timegraph.delta.nodes_removed", len(delta.NodesRemoved)),
		attribute.Int("timegraph.delta.edges_added", len(delta.EdgesAdded)),
		attribute.Int("timegraph.delta.edges_removed", len(delta.EdgesRemoved)),
	)

	e.metrics.RecordSetInterval(ctx, observability.SnapshotStats{
		NodesAdded:   len(delta.NodesAdded),
		NodesRemoved: len(delta.NodesRemoved),
		EdgesAdded:   len(delta.EdgesAdded),
		EdgesRemoved: len(delta.EdgesRemoved),
		Nodes:        delta.Nodes,
		Edges:        delta.Edges,
		Duration:     elapsed,
	})

	e.logger.DebugContext(ctx, "snapshot updated",
		"query", query.String(),
		"records_on", delta.RecordsOn,
		"records_off", delta.RecordsOff,
		"nodes", delta.Nodes,
		"edges", delta.Edges,
		"elapsed", elapsed,
	)

	return delta, nil
}

// stage searches every tracked tree and diffs the results against the last
// applied ones. It does not modify state. Caller holds the write lock.
func (e *Engine) stage(query interval.Interval) (*plan, error) {
	st := e.state
	p := &plan{query: query}

	if e.sources.Nodes != nil {
		p.nodes = diffResults(st.lastNodes, e.sources.Nodes.Search(query), e.sources.Nodes.EntityOf, presence)
	}

	if e.sources.Edges != nil {
		p.edges = diffResults(st.lastEdges, e.sources.Edges.Search(query), e.sources.Edges.EntityOf, presence)

		p.ends = make(map[string]Endpoints, len(p.edges.on))

		for _, ch := range p.edges.on {
			ep, ok := e.endpoints[ch.entity]
			if !ok || ep.Source == "" || ep.Target == "" {
				return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, ch.entity)
			}

			p.ends[ch.entity] = ep
		}
	}

	if e.sources.Weights != nil {
		p.weights = diffResults(st.lastWeights, e.sources.Weights.Search(query), e.sources.Weights.EntityOf, e.countsAsWeight)
	}

	return p, nil
}

func presence(rec *interval.Record[bool]) bool {
	return rec.OnValue
}

func (e *Engine) countsAsWeight(rec *interval.Record[any]) bool {
	if e.weightAttribute == "" || rec.Attribute == nil {
		return true
	}

	return rec.Attribute.Name == e.weightAttribute
}
