package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrOp     = "op"
	attrStatus = "status"

	// StatusOK marks a request that succeeded.
	StatusOK = "ok"
	// StatusError marks a request that failed.
	StatusError = "error"
)

var (
	requestsTotal = instrument{name: "requests.total", desc: "Total number of requests", unit: "{request}"}
	// Buckets cover 100µs to 10s: snapshot queries against an in-memory
	// index, up to full-range replays.
	requestDuration = instrument{
		name: "request.duration.seconds", desc: "Request duration in seconds", unit: "s",
		bounds: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}
	errorsTotal      = instrument{name: "errors.total", desc: "Total number of failed requests", unit: "{error}"}
	inflightRequests = instrument{name: "inflight.requests", desc: "Number of in-flight requests", unit: "{request}"}
)

// REDMetrics holds the Rate, Error, Duration instruments shared by the
// HTTP service and the MCP server.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates RED instruments from mt.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	set := &meterSet{meter: mt}

	red := &REDMetrics{
		requestsTotal:    set.counter(requestsTotal),
		requestDuration:  set.histogram(requestDuration),
		errorsTotal:      set.counter(errorsTotal),
		inflightRequests: set.upDownCounter(inflightRequests),
	}

	if set.err != nil {
		return nil, set.err
	}

	return red, nil
}

// RecordRequest records one completed request.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	if rm == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// TrackInflight counts op as in flight until the returned function runs.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	if rm == nil {
		return func() {}
	}

	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}

// Observe runs fn as request op and records its outcome.
func (rm *REDMetrics) Observe(ctx context.Context, op string, fn func(context.Context) error) error {
	done := rm.TrackInflight(ctx, op)
	defer done()

	start := time.Now()
	err := fn(ctx)

	status := StatusOK
	if err != nil {
		status = StatusError
	}

	rm.RecordRequest(ctx, op, status, time.Since(start))

	return err
}
