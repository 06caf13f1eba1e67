package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shaibs3/uniload/internal/telemetry"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ProviderFactory defines the interface for creating database providers
type ProviderFactory interface {
	CreateProvider(ctx context.Context, configJSON string) (DbProvider, error)
}

// DbProviderFactory implements ProviderFactory for creating database providers
type DbProviderFactory struct {
	logger    *zap.Logger
	telemetry *telemetry.Telemetry
}

func NewDbProviderFactory(logger *zap.Logger, tel *telemetry.Telemetry) *DbProviderFactory {
	return &DbProviderFactory{
		logger:    logger.Named("factory"),
		telemetry: tel,
	}
}

// CreateProvider builds the provider described by configJSON and makes sure its schema exists
func (f *DbProviderFactory) CreateProvider(ctx context.Context, configJSON string) (DbProvider, error) {
	var config DbProviderConfig
	if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
		return nil, fmt.Errorf("failed to parse database configuration JSON: %w", err)
	}

	f.logger.Info("creating database provider", zap.String("db_type", config.DbType.String()))

	if !config.DbType.IsValid() {
		return nil, fmt.Errorf("unsupported database type: %s", config.DbType)
	}

	var telemetryMeter metric.Meter
	if f.telemetry != nil {
		telemetryMeter = f.telemetry.Meter
	}

	var provider DbProvider
	switch config.DbType {
	case DbTypeSQLite, DbTypePostgres:
		p, err := NewSQLProvider(ctx, config, f.logger, telemetryMeter)
		if err != nil {
			return nil, err
		}
		provider = p
	case DbTypeMemory:
		f.logger.Info("Using InMemoryProvider for DB")
		provider = NewInMemoryProvider()
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.DbType)
	}

	if err := provider.EnsureSchema(ctx); err != nil {
		_ = provider.Close()
		return nil, fmt.Errorf("failed to create initial tables: %w", err)
	}
	return provider, nil
}
