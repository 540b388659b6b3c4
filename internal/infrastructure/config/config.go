package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	Tracing   TracingConfig
	Ingest    IngestConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// TracingConfig holds span export configuration.
type TracingConfig struct {
	Enabled      bool    `envconfig:"TRACING_ENABLED" default:"true"`
	OTLPEndpoint string  `envconfig:"OTLP_ENDPOINT" default:"localhost:4317"`
	ServiceName  string  `envconfig:"SERVICE_NAME" default:"browser-telemetry"`
	Environment  string  `envconfig:"ENVIRONMENT" default:"development"`
	Sampling     float64 `envconfig:"TRACE_SAMPLING" default:"1.0"`
}

// IngestConfig holds telemetry ingestion configuration.
type IngestConfig struct {
	DedupTTL time.Duration `envconfig:"INGEST_DEDUP_TTL" default:"5m"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"50"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"100"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Tracing: TracingConfig{
			Enabled:      true,
			OTLPEndpoint: "localhost:4317",
			ServiceName:  "browser-telemetry",
			Environment:  "development",
			Sampling:     1.0,
		},
		Ingest: IngestConfig{
			DedupTTL: 5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           true,
		},
	}
}
