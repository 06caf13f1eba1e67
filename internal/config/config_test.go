package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENVIRONMENT", "LOG_LEVEL", "PORT", "DB_CONFIG", "SOURCE_URL", "COUNTRIES",
		"HTTP_TIMEOUT", "FETCH_ATTEMPTS", "FETCH_BACKOFF", "FETCH_RPS", "RPS_LIMIT", "RPS_BURST",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(zap.NewNop())
	require.NoError(t, err)

	require.Equal(t, "production", cfg.Environment)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, DefaultDBConfig, cfg.DBConfig)
	require.Equal(t, DefaultSourceURL, cfg.SourceURL)
	require.Equal(t, DefaultCountries, cfg.Countries)
	require.Len(t, cfg.Countries, 32)
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 3, cfg.FetchAttempts)
	require.Equal(t, time.Second, cfg.FetchBackoff)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("COUNTRIES", "Brazil, Chile ,,Peru")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("FETCH_ATTEMPTS", "1")
	t.Setenv("DB_CONFIG", `{"db_type":"memory"}`)

	cfg, err := Load(zap.NewNop())
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, []string{"Brazil", "Chile", "Peru"}, cfg.Countries)
	require.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 1, cfg.FetchAttempts)
	require.Equal(t, `{"db_type":"memory"}`, cfg.DBConfig)
}

func TestLoad_DefaultCountriesNotAliased(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(zap.NewNop())
	require.NoError(t, err)
	cfg.Countries[0] = "Atlantis"
	require.Equal(t, "Brazil", DefaultCountries[0])
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_TIMEOUT", "soon")
	t.Setenv("FETCH_ATTEMPTS", "many")

	_, err := Load(zap.NewNop())
	require.Error(t, err)
	require.Contains(t, err.Error(), "HTTP_TIMEOUT")
	require.Contains(t, err.Error(), "FETCH_ATTEMPTS")
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Port:          "99999",
		DBConfig:      "not json",
		SourceURL:     DefaultSourceURL,
		Countries:     []string{"Brazil"},
		HTTPTimeout:   time.Second,
		FetchAttempts: 0,
		FetchRPS:      1,
		RPSLimit:      1,
		RPSBurst:      1,
	}
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "PORT")
	require.Contains(t, err.Error(), "DB_CONFIG")
	require.Contains(t, err.Error(), "FETCH_ATTEMPTS")
	require.NotContains(t, err.Error(), "COUNTRIES")
}
