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
	RateLimit RateLimitConfig
	Packages  PackageConfig
	Preview   PreviewConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string `envconfig:"PORT" default:"8000"`
	Host         string `envconfig:"HOST" default:"0.0.0.0"`
	MaxBodyBytes int64  `envconfig:"MAX_BODY_BYTES" default:"2097152"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// PackageConfig controls how remote packages and runtime libraries are obtained.
type PackageConfig struct {
	Host         string        `envconfig:"PACKAGE_HOST" default:"https://unpkg.com"`
	RuntimeLink  string        `envconfig:"RUNTIME_LINK" default:"global"`
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s"`
	FetchRetries int           `envconfig:"FETCH_RETRIES" default:"2"`
	FetchRPS     float64       `envconfig:"FETCH_RPS" default:"0"`
	CacheTTL     time.Duration `envconfig:"FETCH_CACHE_TTL" default:"10m"`
}

// PreviewConfig controls the server-side preview executor.
type PreviewConfig struct {
	Executor string        `envconfig:"PREVIEW_EXECUTOR" default:"headless"`
	Timeout  time.Duration `envconfig:"PREVIEW_TIMEOUT" default:"3s"`
	PoolSize int           `envconfig:"PREVIEW_POOL_SIZE" default:"2"`
}

// Runtime link modes.
const (
	RuntimeLinkGlobal = "global"
	RuntimeLinkBundle = "bundle"
)

// Preview executors.
const (
	ExecutorHeadless = "headless"
	ExecutorBrowser  = "browser"
	ExecutorNone     = "none"
)

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
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

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Packages.RuntimeLink {
	case RuntimeLinkGlobal, RuntimeLinkBundle:
	default:
		return fmt.Errorf("invalid RUNTIME_LINK %q: want %q or %q", c.Packages.RuntimeLink, RuntimeLinkGlobal, RuntimeLinkBundle)
	}
	switch c.Preview.Executor {
	case ExecutorHeadless, ExecutorBrowser, ExecutorNone:
	default:
		return fmt.Errorf("invalid PREVIEW_EXECUTOR %q", c.Preview.Executor)
	}
	if c.Packages.Host == "" {
		return fmt.Errorf("PACKAGE_HOST must not be empty")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8000",
			Host:         "0.0.0.0",
			MaxBodyBytes: 2 << 20,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
		Packages: PackageConfig{
			Host:         "https://unpkg.com",
			RuntimeLink:  RuntimeLinkGlobal,
			FetchTimeout: 15 * time.Second,
			FetchRetries: 2,
			CacheTTL:     10 * time.Minute,
		},
		Preview: PreviewConfig{
			Executor: ExecutorHeadless,
			Timeout:  3 * time.Second,
			PoolSize: 2,
		},
	}
}
