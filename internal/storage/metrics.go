package storage

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type storageMetrics struct {
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// newStorageMetrics registers the storage instruments on meter; a nil meter records nothing
func newStorageMetrics(meter metric.Meter) *storageMetrics {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("storage")
	}
	duration, err := meter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Duration of storage operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		duration, _ = noop.NewMeterProvider().Meter("storage").Float64Histogram("storage.operation.duration")
	}
	errs, err := meter.Int64Counter(
		"storage.operation.errors",
		metric.WithDescription("Number of failed storage operations"),
	)
	if err != nil {
		errs, _ = noop.NewMeterProvider().Meter("storage").Int64Counter("storage.operation.errors")
	}
	return &storageMetrics{duration: duration, errors: errs}
}

func (m *storageMetrics) record(ctx context.Context, op string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("operation", op))
	m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		m.errors.Add(ctx, 1, attrs)
	}
}
