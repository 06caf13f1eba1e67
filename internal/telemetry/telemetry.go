package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

const meterName = "github.com/shaibs3/uniload"

// Telemetry owns the meter provider and the Prometheus registry it exports to
type Telemetry struct {
	Meter    metric.Meter
	provider *sdkmetric.MeterProvider
	registry *prometheus.Registry
	logger   *zap.Logger
}

// NewTelemetry creates an OpenTelemetry meter backed by a private Prometheus registry
func NewTelemetry(logger *zap.Logger) (*Telemetry, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	logger.Named("telemetry").Debug("telemetry initialized")

	return &Telemetry{
		Meter:    provider.Meter(meterName),
		provider: provider,
		registry: registry,
		logger:   logger.Named("telemetry"),
	}, nil
}

// Handler serves the registry in the Prometheus exposition format
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{Registry: t.registry})
}

// Gather returns the current metric families, mostly useful in tests
func (t *Telemetry) Gather() ([]string, error) {
	families, err := t.registry.Gather()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	return names, nil
}

// Shutdown flushes and stops the meter provider
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if err := t.provider.Shutdown(ctx); err != nil {
		t.logger.Warn("failed to shut down meter provider", zap.Error(err))
		return err
	}
	return nil
}
