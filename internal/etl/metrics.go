package etl

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type pipelineMetrics struct {
	fetched       metric.Int64Counter
	inserted      metric.Int64Counter
	duplicates    metric.Int64Counter
	malformed     metric.Int64Counter
	storageErrors metric.Int64Counter
	fetchFailures metric.Int64Counter
	duration      metric.Float64Histogram
}

func newPipelineMetrics(meter metric.Meter) *pipelineMetrics {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("etl")
	}
	return &pipelineMetrics{
		fetched:       counter(meter, "etl.records.fetched", "Raw records returned by the directory"),
		inserted:      counter(meter, "etl.universities.inserted", "Universities inserted"),
		duplicates:    counter(meter, "etl.universities.duplicates", "Records skipped because the university already exists"),
		malformed:     counter(meter, "etl.records.malformed", "Records skipped for missing required fields"),
		storageErrors: counter(meter, "etl.storage.errors", "Records that failed to persist"),
		fetchFailures: counter(meter, "etl.fetch.failures", "Countries whose records could not be fetched"),
		duration:      histogram(meter, "etl.country.duration", "Time spent processing one country"),
	}
}

func counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		c, _ = noop.NewMeterProvider().Meter("etl").Int64Counter(name)
	}
	return c
}

func histogram(meter metric.Meter, name, desc string) metric.Float64Histogram {
	h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	if err != nil {
		h, _ = noop.NewMeterProvider().Meter("etl").Float64Histogram(name)
	}
	return h
}

func (m *pipelineMetrics) recordCountry(ctx context.Context, r CountryResult, start time.Time) {
	attrs := metric.WithAttributes(attribute.String("country", r.Country))
	m.fetched.Add(ctx, int64(r.Fetched), attrs)
	m.inserted.Add(ctx, int64(r.Inserted), attrs)
	m.duplicates.Add(ctx, int64(r.Duplicates), attrs)
	m.malformed.Add(ctx, int64(r.Malformed), attrs)
	m.storageErrors.Add(ctx, int64(r.StorageErrors), attrs)
	if r.Failed() {
		m.fetchFailures.Add(ctx, 1, attrs)
	}
	m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
}
