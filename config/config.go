package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Allocation AllocationConfig `yaml:"allocation"`
	Notifier   NotifierConfig   `yaml:"notifier"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// AllocationConfig tunes the allocation engine's windows and match list size.
type AllocationConfig struct {
	SelectionWindowSeconds int `yaml:"selection_window_seconds"`
	OfferWindowSeconds     int `yaml:"offer_window_seconds"`
	MaxMatches             int `yaml:"max_matches"`
}

// SelectionWindow returns the selection window as a duration.
func (a AllocationConfig) SelectionWindow() time.Duration {
	return time.Duration(a.SelectionWindowSeconds) * time.Second
}

// OfferWindow returns the direct-offer window as a duration.
func (a AllocationConfig) OfferWindow() time.Duration {
	return time.Duration(a.OfferWindowSeconds) * time.Second
}

// NotifierConfig holds the configuration for the notification worker pool.
type NotifierConfig struct {
	PoolSize int `yaml:"pool_size"`
}

// Load reads the configuration from the given path and applies defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}
	if cfg.Allocation.SelectionWindowSeconds <= 0 {
		cfg.Allocation.SelectionWindowSeconds = 180
	}
	if cfg.Allocation.OfferWindowSeconds <= 0 {
		cfg.Allocation.OfferWindowSeconds = 180
	}
	if cfg.Allocation.MaxMatches <= 0 {
		cfg.Allocation.MaxMatches = 5
	}
	if cfg.Notifier.PoolSize <= 0 {
		cfg.Notifier.PoolSize = 1
	}

	return &cfg, nil
}
