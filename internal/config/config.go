// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Cache       CacheConfig       `koanf:"cache"`
	Performance PerformanceConfig `koanf:"performance"`
	Routes      RoutesConfig      `koanf:"routes"`
	Listings    ListingsConfig    `koanf:"listings"`
	Security    SecurityConfig    `koanf:"security"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	Environment     string        `koanf:"environment" validate:"oneof=development staging production"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// CacheConfig holds response cache and janitor settings
type CacheConfig struct {
	// MaxEntries bounds each cache. 0 means unbounded.
	MaxEntries int `koanf:"max_entries" validate:"gte=0"`

	// JanitorInterval is how often expired entries are swept.
	// Default: 10m
	JanitorInterval time.Duration `koanf:"janitor_interval" validate:"gte=1s"`

	// DefaultTTL applies where a call site has no TTL of its own.
	DefaultTTL time.Duration `koanf:"default_ttl" validate:"gt=0"`
}

// PerformanceConfig holds request telemetry settings
type PerformanceConfig struct {
	// Capacity is the size of the rolling metric window. Default: 1000
	Capacity int `koanf:"capacity" validate:"min=1,max=1000000"`

	SlowThreshold     time.Duration `koanf:"slow_threshold" validate:"gt=0"`
	CriticalThreshold time.Duration `koanf:"critical_threshold" validate:"gt=0"`

	// DefaultWindow is used by the performance endpoint when ?window is absent.
	DefaultWindow time.Duration `koanf:"default_window" validate:"gt=0"`

	TopEndpoints    int     `koanf:"top_endpoints" validate:"min=1,max=100"`
	AlertsPerSecond float64 `koanf:"alerts_per_second" validate:"gt=0"`
}

// RouteCacheConfig is the response cache policy of one route
type RouteCacheConfig struct {
	// TTL of zero falls back to cache.default_ttl.
	TTL time.Duration `koanf:"ttl" validate:"gte=0"`
	// VaryBy may add parameters; the router always varies by every
	// listings filter.
	VaryBy []string `koanf:"vary_by"`
}

// EffectiveTTL returns the route TTL, or def when none is configured.
func (r RouteCacheConfig) EffectiveTTL(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// RoutesConfig holds per-route cache policies
type RoutesConfig struct {
	Listings RouteCacheConfig `koanf:"listings"`
	Summary  RouteCacheConfig `koanf:"summary"`
}

// ListingsConfig holds the upstream listing provider settings.
// An empty BaseURL runs the service against the built-in static dataset.
type ListingsConfig struct {
	BaseURL    string        `koanf:"base_url" validate:"omitempty,http_url"`
	APIKey     string        `koanf:"api_key"`
	Timeout    time.Duration `koanf:"timeout" validate:"gt=0"`
	SummaryTTL time.Duration `koanf:"summary_ttl" validate:"gt=0"`

	// Circuit breaker settings (sony/gobreaker)
	BreakerMaxRequests uint32        `koanf:"breaker_max_requests" validate:"min=1"`
	BreakerInterval    time.Duration `koanf:"breaker_interval" validate:"gte=0"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

// SecurityConfig holds CORS and rate limiting settings
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level" validate:"loglevel"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// Load loads configuration from defaults, an optional YAML file and the
// environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
