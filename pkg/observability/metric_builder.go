package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

const metricNamespace = "timegraph."

// instrument names one metric. Name is relative to metricNamespace.
type instrument struct {
	name   string
	desc   string
	unit   string
	bounds []float64
}

func (in instrument) fullName() string {
	return metricNamespace + in.name
}

// meterSet creates instruments from a meter and keeps the first error, so a
// constructor checks once after building all of them.
type meterSet struct {
	meter metric.Meter
	err   error
}

func (s *meterSet) counter(in instrument) metric.Int64Counter {
	c, err := s.meter.Int64Counter(in.fullName(), metric.WithDescription(in.desc), metric.WithUnit(in.unit))
	s.fail(in, err)

	return c
}

func (s *meterSet) upDownCounter(in instrument) metric.Int64UpDownCounter {
	c, err := s.meter.Int64UpDownCounter(in.fullName(), metric.WithDescription(in.desc), metric.WithUnit(in.unit))
	s.fail(in, err)

	return c
}

func (s *meterSet) gauge(in instrument) metric.Int64Gauge {
	g, err := s.meter.Int64Gauge(in.fullName(), metric.WithDescription(in.desc), metric.WithUnit(in.unit))
	s.fail(in, err)

	return g
}

func (s *meterSet) histogram(in instrument) metric.Float64Histogram {
	h, err := s.meter.Float64Histogram(in.fullName(),
		metric.WithDescription(in.desc),
		metric.WithUnit(in.unit),
		metric.WithExplicitBucketBoundaries(in.bounds...),
	)
	s.fail(in, err)

	return h
}

func (s *meterSet) fail(in instrument, err error) {
	if err != nil && s.err == nil {
		s.err = fmt.Errorf("create %s: %w", in.fullName(), err)
	}
}
