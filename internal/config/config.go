// Package config loads service configuration from defaults, an optional YAML
// file and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config holds all configuration for the analytics service.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	Server    ServerConfig    `yaml:"server"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Log       LogConfig       `yaml:"log"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Report    ReportConfig    `yaml:"report"`
	Fixtures  string          `yaml:"fixtures"`
}

// StorageConfig selects the journal store and the optional snapshot history.
type StorageConfig struct {
	Backend       string `yaml:"backend"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

// RedisConfig holds snapshot cache parameters. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// ServerConfig holds HTTP listener parameters.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AnalyticsConfig holds refresh and aggregation parameters.
type AnalyticsConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
	Timezone        string        `yaml:"timezone"`
}

// LogConfig holds logger parameters.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// TracingConfig toggles the stdout span exporter.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ReportConfig holds report output parameters.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// Location resolves the analytics timezone. Empty or "Local" is time.Local.
func (c *Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Analytics.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return loc, nil
}

// UseMemory reports whether the in-memory backend is selected.
func (c *Config) UseMemory() bool {
	return c.Storage.Backend == BackendMemory
}

// LoadEnvFile loads a .env file into the environment without overriding
// variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load reads config from a YAML file, then overrides with environment variables.
// A missing file falls back to defaults.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Read is Load without validation, for callers that layer flags on top
// and validate afterwards.
func Read(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := overrideFromEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendMemory,
		},
		Redis: RedisConfig{
			TTL: 30 * time.Second,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Analytics: AnalyticsConfig{
			RefreshInterval: time.Minute,
			FetchTimeout:    10 * time.Second,
			Timezone:        "Local",
		},
		Log: LogConfig{
			Level: "info",
		},
		Report: ReportConfig{
			OutputDir: "output",
		},
	}
}

func overrideFromEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	str("STORAGE_BACKEND", &cfg.Storage.Backend)
	str("POSTGRES_DSN", &cfg.Storage.PostgresDSN)
	str("CLICKHOUSE_DSN", &cfg.Storage.ClickhouseDSN)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	str("SERVER_ADDR", &cfg.Server.Addr)
	str("ANALYTICS_TIMEZONE", &cfg.Analytics.Timezone)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("FIXTURES_PATH", &cfg.Fixtures)
	str("REPORT_OUTPUT_DIR", &cfg.Report.OutputDir)

	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.Redis.DB = n
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"REDIS_TTL", &cfg.Redis.TTL},
		{"REFRESH_INTERVAL", &cfg.Analytics.RefreshInterval},
		{"FETCH_TIMEOUT", &cfg.Analytics.FetchTimeout},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"LOG_DEVELOPMENT", &cfg.Log.Development},
		{"TRACING_ENABLED", &cfg.Tracing.Enabled},
	}
	for _, b := range bools {
		if v := os.Getenv(b.key); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", b.key, err)
			}
			*b.dst = parsed
		}
	}

	return nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("invalid storage backend %q: must be memory or postgres", c.Storage.Backend)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level %q: must be debug, info, warn, or error", c.Log.Level)
	}

	if c.Analytics.RefreshInterval < time.Second {
		return fmt.Errorf("analytics.refresh_interval must be >= 1s, got %s", c.Analytics.RefreshInterval)
	}
	if c.Analytics.FetchTimeout <= 0 {
		return fmt.Errorf("analytics.fetch_timeout must be positive, got %s", c.Analytics.FetchTimeout)
	}
	if c.Redis.Addr != "" && c.Redis.TTL <= 0 {
		return fmt.Errorf("redis.ttl must be positive, got %s", c.Redis.TTL)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}
