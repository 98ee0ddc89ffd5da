// Rekomendasi - Product Recommendation Service
// Copyright 2026 Dava Moreno (davamoreno)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/davamoreno/rekomendasi

// Package config loads service configuration using Koanf v2 with
// layered sources (highest priority wins):
//
//  1. Environment variables (SERVER_PORT, DUCKDB_PATH, NATS_URL, ...)
//  2. Optional YAML config file (config.yaml, or CONFIG_PATH)
//  3. Built-in defaults
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for both binaries.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	NATS     NATSConfig     `koanf:"nats"`
	Engine   EngineConfig   `koanf:"engine"`
	Profiler ProfilerConfig `koanf:"profiler"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit is the per-client request budget per minute on the
	// recommendation endpoint. 0 disables rate limiting.
	RateLimit int `koanf:"rate_limit"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// NATSConfig holds refresh listener settings.
type NATSConfig struct {
	URL           string        `koanf:"url"`
	Subject       string        `koanf:"subject"`
	MaxReconnects int           `koanf:"max_reconnects"` // -1 = retry forever
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
}

// EngineConfig holds similarity engine settings.
type EngineConfig struct {
	// DefaultN is the number of recommendations returned when the
	// request does not ask for a specific count.
	DefaultN int `koanf:"default_n"`

	// BuildOnStart builds the first snapshot during startup instead of
	// waiting for an external refresh signal.
	BuildOnStart bool `koanf:"build_on_start"`

	RebuildTimeout time.Duration `koanf:"rebuild_timeout"`
}

// ProfilerConfig holds batch job settings.
type ProfilerConfig struct {
	// TopK caps recommendations kept per user.
	TopK int `koanf:"top_k"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns all built-in defaults; file and env layers
// override them.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       300,
		},
		Database: DatabaseConfig{
			Path:      "/data/rekomendasi.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			Subject:       "recommendation-updates",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
		Engine: EngineConfig{
			DefaultN:       5,
			BuildOnStart:   true,
			RebuildTimeout: 5 * time.Minute,
		},
		Profiler: ProfilerConfig{
			TopK: 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.NATS.URL == "" {
		return fmt.Errorf("nats.url must not be empty")
	}
	if c.NATS.Subject == "" {
		return fmt.Errorf("nats.subject must not be empty")
	}
	if c.Engine.DefaultN < 1 {
		return fmt.Errorf("engine.default_n must be at least 1, got %d", c.Engine.DefaultN)
	}
	if c.Profiler.TopK < 1 {
		return fmt.Errorf("profiler.top_k must be at least 1, got %d", c.Profiler.TopK)
	}
	return nil
}
