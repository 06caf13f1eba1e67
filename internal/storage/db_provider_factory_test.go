package storage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shaibs3/uniload/internal/telemetry"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDbProviderFactory_CreateProvider_Memory(t *testing.T) {
	logger := zap.NewNop()
	tel, err := telemetry.NewTelemetry(logger)
	require.NoError(t, err)
	factory := NewDbProviderFactory(logger, tel)

	config := DbProviderConfig{
		DbType:       DbTypeMemory,
		ExtraDetails: map[string]interface{}{},
	}
	configJSON, _ := json.Marshal(config)

	provider, err := factory.CreateProvider(context.Background(), string(configJSON))
	require.NoError(t, err)
	require.NotNil(t, provider)
	_, ok := provider.(*InMemoryProvider)
	require.True(t, ok, "expected InMemoryProvider, got %T", provider)
}

func TestDbProviderFactory_CreateProvider_SQLite(t *testing.T) {
	factory := NewDbProviderFactory(zap.NewNop(), nil)

	config := DbProviderConfig{
		DbType: DbTypeSQLite,
		ExtraDetails: map[string]interface{}{
			"conn_str": ":memory:",
		},
	}
	configJSON, _ := json.Marshal(config)

	provider, err := factory.CreateProvider(context.Background(), string(configJSON))
	require.NoError(t, err)
	defer provider.Close()

	sqlProvider, ok := provider.(*SQLProvider)
	require.True(t, ok, "expected SQLProvider, got %T", provider)

	// schema must already exist
	counts, err := sqlProvider.Counts(context.Background())
	require.NoError(t, err)
	require.Zero(t, counts.Countries)
	require.Zero(t, counts.Universities)
}

func TestDbProviderFactory_CreateProvider_Errors(t *testing.T) {
	factory := NewDbProviderFactory(zap.NewNop(), nil)

	tests := []struct {
		name       string
		configJSON string
	}{
		{"invalid json", `{"db_type":`},
		{"unknown type", `{"db_type":"oracle"}`},
		{"sqlite without conn_str", `{"db_type":"sqlite","extra_details":{}}`},
		{"postgres without conn_str", `{"db_type":"postgres"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := factory.CreateProvider(context.Background(), tt.configJSON)
			require.Error(t, err)
			require.Nil(t, provider)
		})
	}
}

func TestDbType(t *testing.T) {
	require.True(t, DbTypeSQLite.IsValid())
	require.True(t, DbTypePostgres.IsValid())
	require.True(t, DbTypeMemory.IsValid())
	require.False(t, DbType("csv").IsValid())
	require.Equal(t, "postgres", DbTypePostgres.String())
}
