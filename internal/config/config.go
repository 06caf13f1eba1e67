package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// DefaultSourceURL is the public university directory search endpoint
const DefaultSourceURL = "http://universities.hipolabs.com/search"

// DefaultDBConfig stores everything in a local SQLite file
const DefaultDBConfig = `{"db_type":"sqlite","extra_details":{"conn_str":"universities.db"}}`

// DefaultCountries is the list loaded when no countries are requested
var DefaultCountries = []string{
	"Brazil", "United States", "Canada", "Argentina", "Chile", "Colombia", "Mexico", "Peru",
	"United Kingdom", "France", "Germany", "Spain", "Italy", "Portugal", "Netherlands", "Belgium",
	"Australia", "New Zealand", "China", "Japan", "South Korea", "India", "South Africa",
	"Nigeria", "Egypt", "Kenya", "Ghana", "Sweden", "Norway", "Finland", "Denmark", "Poland",
}

type Config struct {
	Environment string
	LogLevel    string
	Port        string
	DBConfig    string

	SourceURL     string
	Countries     []string
	HTTPTimeout   time.Duration
	FetchAttempts int
	FetchBackoff  time.Duration
	FetchRPS      float64

	RPSLimit float64
	RPSBurst int
}

// Load reads the optional .env file and the environment, falling back to defaults
func Load(logger *zap.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", zap.Error(err))
	}

	var errs []string
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "production"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Port:        getEnv("PORT", "8080"),
		DBConfig:    getEnv("DB_CONFIG", DefaultDBConfig),
		SourceURL:   getEnv("SOURCE_URL", DefaultSourceURL),
		Countries:   getList("COUNTRIES", DefaultCountries),
	}
	cfg.HTTPTimeout = getDuration("HTTP_TIMEOUT", 30*time.Second, &errs)
	cfg.FetchAttempts = getInt("FETCH_ATTEMPTS", 3, &errs)
	cfg.FetchBackoff = getDuration("FETCH_BACKOFF", time.Second, &errs)
	cfg.FetchRPS = getFloat("FETCH_RPS", 2, &errs)
	cfg.RPSLimit = getFloat("RPS_LIMIT", 10, &errs)
	cfg.RPSBurst = getInt("RPS_BURST", 20, &errs)

	if len(errs) > 0 {
		return nil, fmt.Errorf("config load:\n  - %s", strings.Join(errs, "\n  - "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
		zap.String("source_url", cfg.SourceURL),
		zap.Int("countries", len(cfg.Countries)))
	return cfg, nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT (%q) must be 1-65535", c.Port))
	}
	if !json.Valid([]byte(c.DBConfig)) {
		errs = append(errs, "DB_CONFIG must be a JSON document")
	}
	if c.SourceURL == "" {
		errs = append(errs, "SOURCE_URL is required")
	}
	if len(c.Countries) == 0 {
		errs = append(errs, "COUNTRIES must name at least one country")
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, "HTTP_TIMEOUT must be positive")
	}
	if c.FetchAttempts <= 0 {
		errs = append(errs, "FETCH_ATTEMPTS must be positive")
	}
	if c.FetchBackoff < 0 {
		errs = append(errs, "FETCH_BACKOFF must be non-negative")
	}
	if c.FetchRPS <= 0 {
		errs = append(errs, "FETCH_RPS must be positive")
	}
	if c.RPSLimit <= 0 {
		errs = append(errs, "RPS_LIMIT must be positive")
	}
	if c.RPSBurst <= 0 {
		errs = append(errs, "RPS_BURST must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// getList splits a comma separated variable, dropping empty entries
func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getInt(key string, fallback int, errs *[]string) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid integer for %s=%q", key, v))
		return fallback
	}
	return i
}

func getFloat(key string, fallback float64, errs *[]string) float64 {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid number for %s=%q", key, v))
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration, errs *[]string) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid duration for %s=%q", key, v))
		return fallback
	}
	return d
}
