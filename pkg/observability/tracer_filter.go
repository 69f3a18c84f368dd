package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

// HotPathSpans are the span names dropped unless Config.TraceVerbose is set:
// one replay step per event time can dwarf the rest of a trace.
var HotPathSpans = []string{
	"timegraph.snapshot.replay.step",
}

// filteringTracerProvider hands out tracers that replace suppressed span
// names with no-op spans.
type filteringTracerProvider struct {
	embedded.TracerProvider

	delegate trace.TracerProvider
	noop     trace.TracerProvider
	suppress map[string]bool
}

// NewFilteringTracerProvider wraps delegate so that spans named in suppress
// are never recorded. Everything else is delegated unchanged.
func NewFilteringTracerProvider(delegate trace.TracerProvider, suppress ...string) trace.TracerProvider {
	if len(suppress) == 0 {
		return delegate
	}

	names := make(map[string]bool, len(suppress))
	for _, name := range suppress {
		names[name] = true
	}

	return &filteringTracerProvider{
		delegate: delegate,
		noop:     nooptrace.NewTracerProvider(),
		suppress: names,
	}
}

// Tracer returns a filtering tracer for name.
func (f *filteringTracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return &filteringTracer{
		delegate: f.delegate.Tracer(name, opts...),
		noop:     f.noop.Tracer(name, opts...),
		suppress: f.suppress,
	}
}

type filteringTracer struct {
	embedded.Tracer

	delegate trace.Tracer
	noop     trace.Tracer
	suppress map[string]bool
}

// Start returns a no-op span for suppressed names.
func (f *filteringTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if f.suppress[name] {
		return f.noop.Start(ctx, name, opts...)
	}

	return f.delegate.Start(ctx, name, opts...)
}
