// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// writeConfig writes a YAML file and points CONFIG_PATH at it.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Server.Addr() = %q, want 0.0.0.0:8080", cfg.Server.Addr())
	}
	if cfg.Cache.JanitorInterval != 10*time.Minute {
		t.Errorf("Cache.JanitorInterval = %v, want 10m", cfg.Cache.JanitorInterval)
	}
	if cfg.Performance.Capacity != 1000 {
		t.Errorf("Performance.Capacity = %d, want 1000", cfg.Performance.Capacity)
	}
	if cfg.Performance.SlowThreshold != time.Second || cfg.Performance.CriticalThreshold != 5*time.Second {
		t.Errorf("thresholds = %v/%v, want 1s/5s", cfg.Performance.SlowThreshold, cfg.Performance.CriticalThreshold)
	}
	if cfg.Routes.Listings.TTL != 300*time.Second {
		t.Errorf("Routes.Listings.TTL = %v, want 5m", cfg.Routes.Listings.TTL)
	}
	wantVary := []string{"status", "city", "min_price", "max_price"}
	if !reflect.DeepEqual(cfg.Routes.Listings.VaryBy, wantVary) {
		t.Errorf("Routes.Listings.VaryBy = %v, want %v", cfg.Routes.Listings.VaryBy, wantVary)
	}
	if !reflect.DeepEqual(cfg.Routes.Summary.VaryBy, wantVary) {
		t.Errorf("Routes.Summary.VaryBy = %v, want %v", cfg.Routes.Summary.VaryBy, wantVary)
	}
	if !cfg.UsesStaticListings() {
		t.Error("Expected static listings by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate, got %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"http_port", "server.port"},
		{"PERF_SLOW_THRESHOLD", "performance.slow_threshold"},
		{"PERF_BUFFER_CAPACITY", "performance.capacity"},
		{"LISTINGS_CACHE_VARY_BY", "routes.listings.vary_by"},
		{"LISTINGS_API_URL", "listings.base_url"},
		{"DISABLE_RATE_LIMIT", "security.rate_limit_disabled"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Run("CONFIG_PATH takes precedence", func(t *testing.T) {
		path := writeConfig(t, "logging:\n  level: info\n")
		if got := FindConfigFile(); got != path {
			t.Errorf("FindConfigFile() = %q, want %q", got, path)
		}
	})

	t.Run("missing CONFIG_PATH falls back", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")
		if got := FindConfigFile(); got != "" {
			t.Errorf("FindConfigFile() = %q, want empty string", got)
		}
	})
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PERF_SLOW_THRESHOLD", "750ms")
	t.Setenv("PERF_BUFFER_CAPACITY", "250")
	t.Setenv("LISTINGS_CACHE_VARY_BY", "city, status ,")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("LISTINGS_API_URL", "https://listings.example/api")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Performance.SlowThreshold != 750*time.Millisecond {
		t.Errorf("Performance.SlowThreshold = %v, want 750ms", cfg.Performance.SlowThreshold)
	}
	if cfg.Performance.Capacity != 250 {
		t.Errorf("Performance.Capacity = %d, want 250", cfg.Performance.Capacity)
	}
	if !reflect.DeepEqual(cfg.Routes.Listings.VaryBy, []string{"city", "status"}) {
		t.Errorf("Routes.Listings.VaryBy = %v, want [city status]", cfg.Routes.Listings.VaryBy)
	}
	if len(cfg.Security.CORSOrigins) != 2 {
		t.Errorf("Security.CORSOrigins = %v, want 2 origins", cfg.Security.CORSOrigins)
	}
	if cfg.UsesStaticListings() {
		t.Error("Expected upstream listings when LISTINGS_API_URL is set")
	}

	// Unset values keep their defaults
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
	if cfg.Performance.CriticalThreshold != 5*time.Second {
		t.Errorf("Performance.CriticalThreshold = %v, want 5s (default)", cfg.Performance.CriticalThreshold)
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	writeConfig(t, `
server:
  port: 7070
  environment: staging
cache:
  max_entries: 500
  janitor_interval: 2m
performance:
  capacity: 2000
  critical_threshold: 8s
routes:
  summary:
    ttl: 1m
    vary_by: [city]
listings:
  base_url: http://upstream.local:9000
  api_key: k
`)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 7070 || cfg.Server.Environment != "staging" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Cache.MaxEntries != 500 || cfg.Cache.JanitorInterval != 2*time.Minute {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Performance.Capacity != 2000 || cfg.Performance.CriticalThreshold != 8*time.Second {
		t.Errorf("performance = %+v", cfg.Performance)
	}
	if cfg.Routes.Summary.TTL != time.Minute || !reflect.DeepEqual(cfg.Routes.Summary.VaryBy, []string{"city"}) {
		t.Errorf("routes.summary = %+v", cfg.Routes.Summary)
	}
	if cfg.Listings.BaseURL != "http://upstream.local:9000" || cfg.Listings.APIKey != "k" {
		t.Errorf("listings = %+v", cfg.Listings)
	}
}

func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	writeConfig(t, "server:\n  port: 7070\nlogging:\n  level: warn\n")
	t.Setenv("HTTP_PORT", "6060")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 6060 {
		t.Errorf("Server.Port = %d, want 6060 (env wins)", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn (from file)", cfg.Logging.Level)
	}
}

func TestLoadWithKoanfValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"port out of range", map[string]string{"HTTP_PORT": "70000"}, "server.port"},
		{"bad log level", map[string]string{"LOG_LEVEL": "chatty"}, "logging.level"},
		{"bad environment", map[string]string{"ENVIRONMENT": "qa"}, "server.environment"},
		{"critical not above slow", map[string]string{"PERF_SLOW_THRESHOLD": "5s", "PERF_CRITICAL_THRESHOLD": "5s"}, "PERF_CRITICAL_THRESHOLD"},
		{"bad upstream url", map[string]string{"LISTINGS_API_URL": "not a url"}, "listings.base_url"},
		{"zero capacity", map[string]string{"PERF_BUFFER_CAPACITY": "0"}, "performance.capacity"},
		{"janitor too fast", map[string]string{"CACHE_JANITOR_INTERVAL": "10ms"}, "cache.janitor_interval"},
		{"rate limit too high", map[string]string{"RATE_LIMIT_REQUESTS": "1000000"}, "RATE_LIMIT_REQUESTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(ConfigPathEnvVar, "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadWithKoanf()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadWithKoanfRateLimitDisabledSkipsBounds(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("DISABLE_RATE_LIMIT", "true")
	t.Setenv("RATE_LIMIT_REQUESTS", "0")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if !cfg.Security.RateLimitDisabled {
		t.Error("Expected rate limiting disabled")
	}
}

func TestShouldWarnAboutCORS(t *testing.T) {
	cfg := defaultConfig()
	if cfg.ShouldWarnAboutCORS() {
		t.Error("development wildcard should not warn")
	}

	cfg.Server.Environment = "production"
	if !cfg.ShouldWarnAboutCORS() {
		t.Error("production wildcard should warn")
	}

	cfg.Security.CORSOrigins = []string{"https://listings.example"}
	if cfg.ShouldWarnAboutCORS() {
		t.Error("explicit origins should not warn")
	}
}

func TestRouteCacheConfigEffectiveTTL(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
		want time.Duration
	}{
		{"configured", time.Minute, time.Minute},
		{"zero falls back", 0, 5 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := RouteCacheConfig{TTL: tt.ttl}
			if got := r.EffectiveTTL(5 * time.Minute); got != tt.want {
				t.Errorf("EffectiveTTL() = %v, want %v", got, tt.want)
			}
		})
	}
}
