package snapshot

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/timegraph/pkg/alg/interval"
)

// Step is one instant visited by Replay.
type Step struct {
	Index int     `json:"index"`
	Time  float64 `json:"time"`
	Delta Delta   `json:"delta"`
	Nodes int     `json:"nodes"`
	Edges int     `json:"edges"`
}

// StepFunc receives each replay step. Returning an error stops the replay.
type StepFunc func(Step) error

// EventTimes returns the distinct finite event times of the node and edge
// trees, ascending. These are the instants at which the snapshot can change.
func (e *Engine) EventTimes() []float64 {
	var times []float64

	if e.sources.Nodes != nil {
		times = append(times, e.sources.Nodes.EventTimes("")...)
	}

	if e.sources.Edges != nil {
		times = append(times, e.sources.Edges.EventTimes("")...)
	}

	slices.Sort(times)

	return slices.Compact(times)
}

// Replay moves the engine through each instant of times in order and reports
// the delta of every step. A nil times replays EventTimes. The context is
// checked before every step.
func (e *Engine) Replay(ctx context.Context, times []float64, fn StepFunc) error {
	if times == nil {
		times = e.EventTimes()
	}

	ctx, span := e.tracer.Start(ctx, "timegraph.snapshot.replay",
		trace.WithAttributes(attribute.Int("timegraph.replay.steps", len(times))))
	defer span.End()

	for i, t := range times {
		err := e.replayStep(ctx, i, t, fn)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			return err
		}
	}

	return nil
}

func (e *Engine) replayStep(ctx context.Context, i int, t float64, fn StepFunc) error {
	err := ctx.Err()
	if err != nil {
		return fmt.Errorf("replay interrupted at step %d: %w", i, err)
	}

	ctx, span := e.tracer.Start(ctx, "timegraph.snapshot.replay.step",
		trace.WithAttributes(attribute.Float64("timegraph.replay.time", t)))
	defer span.End()

	delta, err := e.SetInterval(ctx, interval.Instant(t))
	if err != nil {
		return fmt.Errorf("replay step %d at %g: %w", i, t, err)
	}

	return fn(Step{
		Index: i,
		Time:  t,
		Delta: delta,
		Nodes: delta.Nodes,
		Edges: delta.Edges,
	})
}
