// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

// Package metrics defines the Prometheus instruments exported at /metrics.
//
// The in-process PerformanceMonitor keeps a bounded window for the dashboard
// snapshot; these counters and histograms are the unbounded, scrape-friendly
// counterpart for long-term monitoring.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // Optimized for API latency
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Slow request alerts raised by the performance monitor
	SlowRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_slow_requests_total",
			Help: "Requests whose latency exceeded the slow or critical threshold",
		},
		[]string{"severity"}, // "slow", "critical"
	)

	PerformanceBufferSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "performance_buffer_entries",
			Help: "Current number of request metrics held in the rolling window",
		},
	)

	// Response Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_evictions_total",
			Help: "Total number of cache entries removed",
		},
		[]string{"cache", "reason"}, // "expired", "swept", "invalidated", "cleared"
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "response_cache_entries",
			Help: "Current number of cache entries",
		},
		[]string{"cache"},
	)

	CacheStoreFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_store_failures_total",
			Help: "Total number of cache writes that were rejected",
		},
		[]string{"cache"},
	)

	JanitorSweeps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_janitor_sweeps_total",
			Help: "Total number of janitor sweeps",
		},
	)

	JanitorSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cache_janitor_sweep_duration_seconds",
			Help:    "Duration of janitor sweeps in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	RateLimitedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limited_requests_total",
			Help: "Requests rejected with 429 by limiter tier",
		},
		[]string{"tier"}, // "default", "write", "health"
	)

	ConfigReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "config_reloads_total",
			Help: "Config file reloads by result",
		},
		[]string{"result"}, // "success", "failure"
	)

	// Circuit Breaker Metrics (listing provider)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total requests through the circuit breaker by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements active request gauge
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordSlowRequest counts a latency alert.
func RecordSlowRequest(critical bool) {
	if critical {
		SlowRequestsTotal.WithLabelValues("critical").Inc()
		return
	}
	SlowRequestsTotal.WithLabelValues("slow").Inc()
}

// RecordCacheLookup records a hit or a miss for the named cache.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
	} else {
		CacheMisses.WithLabelValues(cache).Inc()
	}
}

// RecordCacheEviction records n removed entries for the named cache.
func RecordCacheEviction(cache, reason string, n int) {
	if n <= 0 {
		return
	}
	CacheEvictions.WithLabelValues(cache, reason).Add(float64(n))
}

// RecordJanitorSweep records one janitor pass.
func RecordJanitorSweep(duration time.Duration) {
	JanitorSweeps.Inc()
	JanitorSweepDuration.Observe(duration.Seconds())
}

// RecordConfigReload counts a config reload attempt.
func RecordConfigReload(err error) {
	if err != nil {
		ConfigReloads.WithLabelValues("failure").Inc()
		return
	}
	ConfigReloads.WithLabelValues("success").Inc()
}
