// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

/*
Package api provides the HTTP REST API of siteperf.

Key Components:

  - Router: chi route table and the global middleware stack
  - Handler: request handlers for listings, telemetry and cache management
  - ResponseWriter: the standard JSON envelope ({success, data, error, meta})
  - ChiMiddleware: go-chi/cors and go-chi/httprate factories

Routes:

	GET    /api/v1/health/live             liveness
	GET    /api/v1/health/ready            readiness (503 while the upstream circuit is open)
	GET    /api/v1/performance?window=15m  windowed latency and error snapshot
	GET    /api/v1/performance/slow        endpoints slower than ?threshold=
	GET    /api/v1/performance/endpoints   per-endpoint percentiles
	GET    /api/v1/performance/recent      newest ?limit= request metrics
	GET    /api/v1/cache/stats             cache counters
	DELETE /api/v1/cache                   clear every cache
	DELETE /api/v1/cache/entry?key=        invalidate one key
	GET    /api/v1/listings                search (response cached)
	GET    /api/v1/listings/summary        aggregates (response cached and memoized)
	POST   /api/v1/listings/refresh        drop cached listings data
	GET    /metrics                        Prometheus exposition

Telemetry:

Every /api/v1 request outside the health group produces exactly one
middleware.RequestMetric. Cached GET and HEAD routes record through
middleware.ResponseCache, which knows whether the response was a hit; all
other routes use PerformanceMonitor.Middleware.

Usage Example:

	handler := api.NewHandler(api.HandlerConfig{
	    Listings:  svc,
	    Responses: responses,
	    Summaries: summaries,
	    Monitor:   monitor,
	})
	chiMw := api.NewChiMiddlewareFromSecurity(cfg.Security.CORSOrigins,
	    cfg.Security.RateLimitReqs, cfg.Security.RateLimitWindow, cfg.Security.RateLimitDisabled)
	// cached routes always vary by every listings filter
	router := api.NewRouter(handler, chiMw, api.RoutePolicies{
	    Listings: middleware.CachePolicy{TTL: 5 * time.Minute},
	    Summary:  middleware.CachePolicy{TTL: 5 * time.Minute},
	})
	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: router.SetupChi()}
*/
package api
