package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrKind   = "kind"
	attrChange = "change"

	kindNode = "node"
	kindEdge = "edge"

	changeAdded   = "added"
	changeRemoved = "removed"
)

var (
	setIntervalTotal = instrument{
		name: "snapshot.set_interval.total", desc: "Total snapshot interval updates", unit: "{call}",
	}
	// Buckets cover 10µs to 1s: a SetInterval call is an O(log n + k) search
	// plus a delta apply.
	setIntervalDuration = instrument{
		name: "snapshot.set_interval.duration.seconds", desc: "Snapshot interval update duration in seconds", unit: "s",
		bounds: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}
	deltaTotal = instrument{
		name: "snapshot.delta.total", desc: "Nodes and edges added to or removed from snapshots", unit: "{entity}",
	}
	materializedEntities = instrument{
		name: "snapshot.materialized", desc: "Entities present in the current snapshot", unit: "{entity}",
	}
)

// SnapshotMetrics holds OTel instruments for snapshot engine updates.
type SnapshotMetrics struct {
	calls        metric.Int64Counter
	duration     metric.Float64Histogram
	deltas       metric.Int64Counter
	materialized metric.Int64Gauge
}

// SnapshotStats describes one applied SetInterval call.
type SnapshotStats struct {
	NodesAdded   int
	NodesRemoved int
	EdgesAdded   int
	EdgesRemoved int
	Nodes        int
	Edges        int
	Duration     time.Duration
}

// NewSnapshotMetrics creates snapshot metric instruments from mt.
func NewSnapshotMetrics(mt metric.Meter) (*SnapshotMetrics, error) {
	set := &meterSet{meter: mt}

	sm := &SnapshotMetrics{
		calls:        set.counter(setIntervalTotal),
		duration:     set.histogram(setIntervalDuration),
		deltas:       set.counter(deltaTotal),
		materialized: set.gauge(materializedEntities),
	}

	if set.err != nil {
		return nil, set.err
	}

	return sm, nil
}

// RecordSetInterval records one applied update.
// Safe to call on a nil receiver (no-op).
func (sm *SnapshotMetrics) RecordSetInterval(ctx context.Context, stats SnapshotStats) {
	if sm == nil {
		return
	}

	sm.calls.Add(ctx, 1)
	sm.duration.Record(ctx, stats.Duration.Seconds())

	sm.addDelta(ctx, kindNode, changeAdded, stats.NodesAdded)
	sm.addDelta(ctx, kindNode, changeRemoved, stats.NodesRemoved)
	sm.addDelta(ctx, kindEdge, changeAdded, stats.EdgesAdded)
	sm.addDelta(ctx, kindEdge, changeRemoved, stats.EdgesRemoved)

	sm.materialized.Record(ctx, int64(stats.Nodes), metric.WithAttributes(attribute.String(attrKind, kindNode)))
	sm.materialized.Record(ctx, int64(stats.Edges), metric.WithAttributes(attribute.String(attrKind, kindEdge)))
}

func (sm *SnapshotMetrics) addDelta(ctx context.Context, kind, change string, n int) {
	if n == 0 {
		return
	}

	sm.deltas.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String(attrKind, kind),
		attribute.String(attrChange, change),
	))
}
