// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

/*
Package config loads and validates siteperf configuration.

# Configuration Sources

Koanf v2 layers three sources, later ones winning:
  - Built-in defaults (defaultConfig)
  - An optional YAML file: $CONFIG_PATH, ./config.yaml, ./config.yml,
    /etc/siteperf/config.yaml or /etc/siteperf/config.yml
  - Environment variables from an explicit mapping table

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT (default 0.0.0.0:8080)
  - HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT, HTTP_IDLE_TIMEOUT, SHUTDOWN_TIMEOUT
  - ENVIRONMENT: development, staging or production

Cache:
  - CACHE_MAX_ENTRIES: per-cache bound, 0 for unbounded (default 10000)
  - CACHE_JANITOR_INTERVAL: sweep period (default 10m)
  - CACHE_DEFAULT_TTL (default 5m)

Performance telemetry:
  - PERF_BUFFER_CAPACITY (default 1000)
  - PERF_SLOW_THRESHOLD (default 1s), PERF_CRITICAL_THRESHOLD (default 5s)
  - PERF_DEFAULT_WINDOW (default 15m), PERF_TOP_ENDPOINTS (default 10)
  - PERF_ALERTS_PER_SECOND (default 5)

Route cache policies:
  - LISTINGS_CACHE_TTL, LISTINGS_CACHE_VARY_BY (comma-separated)
  - SUMMARY_CACHE_TTL, SUMMARY_CACHE_VARY_BY

Listing provider:
  - LISTINGS_API_URL: upstream base URL; empty uses the static dataset
  - LISTINGS_API_KEY, LISTINGS_API_TIMEOUT, LISTINGS_SUMMARY_TTL
  - LISTINGS_BREAKER_MAX_REQUESTS, LISTINGS_BREAKER_INTERVAL, LISTINGS_BREAKER_TIMEOUT

Security:
  - CORS_ORIGINS (comma-separated, default *)
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

Logging:
  - LOG_LEVEL, LOG_FORMAT (json or console), LOG_CALLER

# Validation

Struct tags are checked with go-playground/validator through the validation
package, followed by cross-field rules such as the critical latency
threshold being above the slow one.
*/
package config
