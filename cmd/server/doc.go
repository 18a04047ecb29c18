// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

/*
Package main is the entry point for the Siteperf server application.

Siteperf serves a property listings API and measures itself while doing so.
Every request is timed into a bounded ring buffer, the listing routes are
fronted by a TTL response cache, and the collected telemetry is exposed
through the performance endpoints and Prometheus.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("siteperf")
	├── CacheSupervisor ("cache-layer")
	│   ├── Cache janitor (sweeps expired responses and summaries)
	│   └── Config watcher (only when a config file is present)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with defaults, an optional YAML file and env vars
 2. Logging: zerolog with JSON/console output modes
 3. Caches: response cache and summary cache
 4. Performance monitor: ring buffer of request metrics
 5. Listing provider: demo dataset, or the listings API behind a circuit breaker
 6. HTTP Server: Chi router with CORS, rate limiting and compression
 7. Supervisor Tree: Suture v4 process supervision

# Configuration

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	HTTP_PORT=8080                # HTTP server port
	ENVIRONMENT=development       # development, staging or production
	LOG_LEVEL=info                # trace, debug, info, warn, error
	LOG_FORMAT=json               # json or console

	CACHE_MAX_ENTRIES=10000       # per cache, 0 for unbounded
	CACHE_JANITOR_INTERVAL=10m
	LISTINGS_CACHE_TTL=5m
	LISTINGS_CACHE_VARY_BY=status,city,min_price,max_price

	PERF_BUFFER_CAPACITY=1000
	PERF_SLOW_THRESHOLD=1s

	LISTINGS_API_URL=             # empty serves the demo dataset
	LISTINGS_API_KEY=

	CORS_ORIGINS=*
	RATE_LIMIT_REQUESTS=100
	RATE_LIMIT_WINDOW=1m

A config file is read from CONFIG_PATH, ./config.yaml or
/etc/siteperf/config.yaml. When one is found it is watched, and a change
updates the log level without a restart.

# Signal Handling

The server shuts down on SIGINT and SIGTERM. The HTTP server drains
in-flight requests for up to SHUTDOWN_TIMEOUT, then any service that
failed to stop is reported.

# Usage Examples

Development with the demo dataset:

	LOG_FORMAT=console go run ./cmd/server
	curl 'localhost:8080/api/v1/listings?city=Austin&status=active'
	curl localhost:8080/api/v1/performance?window=1h

Against a live listings API:

	export LISTINGS_API_URL=https://listings.internal LISTINGS_API_KEY=xxx
	./siteperf

# See Also

  - internal/config: Configuration management
  - internal/supervisor: Process supervision
  - internal/api: HTTP handlers and routing
  - internal/middleware: Request telemetry and the response cache
*/
package main
