// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

// Package config provides layered configuration loading for ScreenFleet
// using Koanf v2: built-in defaults, an optional YAML file, and environment
// variables, with environment variables taking the highest priority.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the hub process.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Hub      HubConfig      `koanf:"hub"`
	Ingest   IngestConfig   `koanf:"ingest"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file. Empty means in-memory (tests).
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads is the DuckDB thread count. 0 selects runtime.NumCPU().
	Threads int `koanf:"threads"`
	// SeedDemoData seeds an admin user and demo devices on an empty database.
	SeedDemoData bool `koanf:"seed_demo_data"`
}

// SecurityConfig holds authentication and HTTP hardening settings.
type SecurityConfig struct {
	// JWTSecret signs access tokens (HS256). Minimum 32 characters.
	JWTSecret string `koanf:"jwt_secret"`
	// SessionTimeout is the access token lifetime.
	SessionTimeout time.Duration `koanf:"session_timeout"`
	// RefreshTimeout is the refresh token lifetime.
	RefreshTimeout time.Duration `koanf:"refresh_timeout"`
	// RefreshStorePath is the BadgerDB directory for refresh tokens.
	// Empty selects an in-memory store (tests, development).
	RefreshStorePath string `koanf:"refresh_store_path"`

	AdminEmail    string `koanf:"admin_email"`
	AdminPassword string `koanf:"admin_password"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// HubConfig tunes the connection hub.
type HubConfig struct {
	// BroadcastBuffer is the admin fan-out channel depth per client.
	BroadcastBuffer int `koanf:"broadcast_buffer"`
	// DispatchBuffer is the per-connection ordered event queue depth.
	DispatchBuffer int `koanf:"dispatch_buffer"`
}

// IngestConfig tunes the event ingestor.
type IngestConfig struct {
	// HeartbeatMinInterval throttles lastSeen writes per device.
	HeartbeatMinInterval time.Duration `koanf:"heartbeat_min_interval"`
	// BreakerMaxFailures is the consecutive-failure count that opens the
	// persistence circuit breaker.
	BreakerMaxFailures uint32 `koanf:"breaker_max_failures"`
	// BreakerTimeout is how long the breaker stays open before probing.
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`
	// BusBuffer is the watermill gochannel output buffer.
	BusBuffer int64 `koanf:"bus_buffer"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// Validate checks the configuration for fatal misconfiguration.
// It is called by Load after all layers are merged.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}

	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(c.Security.JWTSecret))
	}
	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("security.session_timeout must be positive")
	}
	if c.Security.RefreshTimeout <= c.Security.SessionTimeout {
		return fmt.Errorf("security.refresh_timeout must exceed security.session_timeout")
	}
	if !c.IsDevelopment() && c.Security.AdminPassword != "" && len(c.Security.AdminPassword) < 8 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters in production")
	}

	if c.Hub.BroadcastBuffer < 1 {
		return fmt.Errorf("hub.broadcast_buffer must be positive, got %d", c.Hub.BroadcastBuffer)
	}
	if c.Hub.DispatchBuffer < 1 {
		return fmt.Errorf("hub.dispatch_buffer must be positive, got %d", c.Hub.DispatchBuffer)
	}

	if c.Ingest.HeartbeatMinInterval < 0 {
		return fmt.Errorf("ingest.heartbeat_min_interval must not be negative")
	}
	if c.Ingest.BreakerMaxFailures == 0 {
		return fmt.Errorf("ingest.breaker_max_failures must be positive")
	}

	return nil
}
