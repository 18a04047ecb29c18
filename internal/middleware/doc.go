// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

/*
Package middleware provides the request telemetry and response caching
layers of the HTTP stack.

Key Components:

  - PerformanceMonitor: records one RequestMetric per completed request into
    a fixed-capacity ring buffer and logs slow and critical requests
  - Analytics: ComputeWindow, GetSlowEndpoints and GetStats aggregate the
    buffer without modifying it
  - ResponseCache: serves GET/HEAD responses from a cache.Cache, storing
    only 2xx responses and tagging them with X-Cache
  - RequestID: UUID request tracking wired into the logging context
  - PrometheusMetrics: request counters and latency histograms

Middleware Stack:

Middleware uses the standard func(http.Handler) http.Handler shape so it
composes with chi:

	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.With(middleware.ResponseCache(responses, monitor, middleware.CachePolicy{
	    TTL:    5 * time.Minute,
	    VaryBy: []string{"city", "status"},
	})).Get("/api/v1/listings", h.Listings)

Routes without a response cache are timed with monitor.Middleware instead,
so each request is recorded exactly once.

Thresholds:

A request is slow when its latency exceeds SlowThreshold (default 1s) and
critical above CriticalThreshold (default 5s). Alert logs are rate limited.

Thread Safety:

All components are safe for concurrent use. The monitor guards its buffer
with a sync.RWMutex; aggregates work on a copy taken under the read lock.
*/
package middleware
