// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/tomtom215/siteperf/internal/clock"
	"github.com/tomtom215/siteperf/internal/logging"
	"github.com/tomtom215/siteperf/internal/metrics"
)

// RequestMetric is one completed request. Values are copied into the
// buffer and never modified afterwards.
type RequestMetric struct {
	Endpoint   string        `json:"endpoint"` // "METHOD path"
	Method     string        `json:"method"`
	Path       string        `json:"path"`
	LatencyMS  int64         `json:"latency_ms"`
	Latency    time.Duration `json:"-"` // full precision, used for threshold checks
	StatusCode int           `json:"status_code"`
	Timestamp  time.Time     `json:"timestamp"`
	CacheHit   bool          `json:"cache_hit"`
	UserAgent  string        `json:"user_agent,omitempty"`
	ClientAddr string        `json:"client_addr,omitempty"`
}

// PerformanceConfig configures a PerformanceMonitor.
type PerformanceConfig struct {
	// Capacity is the maximum number of metrics kept. Default: 1000
	Capacity int

	// SlowThreshold triggers a warning and counts a request as slow.
	// Default: 1s
	SlowThreshold time.Duration

	// CriticalThreshold triggers an error-level alert. Default: 5s
	CriticalThreshold time.Duration

	// TopEndpoints is how many endpoints ComputeWindow reports. Default: 10
	TopEndpoints int

	// AlertsPerSecond limits latency alert log lines. Default: 5 (burst 10)
	AlertsPerSecond float64

	// Clock is the time source. Default: wall clock
	Clock clock.Clock
}

// DefaultPerformanceConfig returns production defaults.
func DefaultPerformanceConfig() PerformanceConfig {
	return PerformanceConfig{
		Capacity:          1000,
		SlowThreshold:     time.Second,
		CriticalThreshold: 5 * time.Second,
		TopEndpoints:      10,
		AlertsPerSecond:   5,
	}
}

// PerformanceMonitor records request latency into a fixed-capacity rolling
// window and computes aggregates over it.
//
// The window is a ring buffer: once full, each new metric overwrites the
// oldest one. Recording never fails and never panics into the caller.
type PerformanceMonitor struct {
	mu     sync.RWMutex
	buf    []RequestMetric
	head   int // index of the oldest metric
	size   int
	cfg    PerformanceConfig
	clock  clock.Clock
	alerts *rate.Limiter
}

// Timer is returned by Begin and consumed by End.
type Timer struct {
	valid      bool
	start      time.Time
	method     string
	path       string
	userAgent  string
	clientAddr string
}

// NewPerformanceMonitor creates a monitor, filling zero config fields with
// defaults.
func NewPerformanceMonitor(cfg PerformanceConfig) *PerformanceMonitor {
	def := DefaultPerformanceConfig()
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = def.SlowThreshold
	}
	if cfg.CriticalThreshold <= 0 {
		cfg.CriticalThreshold = def.CriticalThreshold
	}
	if cfg.TopEndpoints <= 0 {
		cfg.TopEndpoints = def.TopEndpoints
	}
	if cfg.AlertsPerSecond <= 0 {
		cfg.AlertsPerSecond = def.AlertsPerSecond
	}

	return &PerformanceMonitor{
		buf:    make([]RequestMetric, cfg.Capacity),
		cfg:    cfg,
		clock:  clock.OrReal(cfg.Clock),
		alerts: rate.NewLimiter(rate.Limit(cfg.AlertsPerSecond), int(cfg.AlertsPerSecond*2)+1),
	}
}

// Config returns the effective configuration.
func (pm *PerformanceMonitor) Config() PerformanceConfig {
	return pm.cfg
}

// Begin starts timing a request. It has no other side effects.
func (pm *PerformanceMonitor) Begin(r *http.Request) Timer {
	if pm == nil {
		return Timer{}
	}
	return Timer{
		valid:      true,
		start:      pm.clock.Now(),
		method:     r.Method,
		path:       r.URL.Path,
		userAgent:  r.UserAgent(),
		clientAddr: clientAddr(r),
	}
}

// End finalizes a timed request with its response status.
func (pm *PerformanceMonitor) End(t Timer, statusCode int) {
	pm.EndWithCache(t, statusCode, false)
}

// EndWithCache is End with the cache-hit flag set.
func (pm *PerformanceMonitor) EndWithCache(t Timer, statusCode int, cacheHit bool) {
	if pm == nil || !t.valid {
		return
	}

	now := pm.clock.Now()
	latency := now.Sub(t.start)

	pm.RecordRequest(RequestMetric{
		Endpoint:   t.method + " " + t.path,
		Method:     t.method,
		Path:       t.path,
		LatencyMS:  latency.Milliseconds(),
		Latency:    latency,
		StatusCode: statusCode,
		Timestamp:  now,
		CacheHit:   cacheHit,
		UserAgent:  t.userAgent,
		ClientAddr: t.clientAddr,
	})
	pm.alert(t, latency, statusCode)
}

// RecordRequest appends a metric, evicting the oldest one when full.
// Whichever of Latency and LatencyMS is unset is derived from the other.
func (pm *PerformanceMonitor) RecordRequest(m RequestMetric) {
	if m.Endpoint == "" {
		m.Endpoint = m.Method + " " + m.Path
	}
	switch {
	case m.Latency == 0:
		m.Latency = time.Duration(m.LatencyMS) * time.Millisecond
	case m.LatencyMS == 0:
		m.LatencyMS = m.Latency.Milliseconds()
	}

	pm.mu.Lock()
	capacity := len(pm.buf)
	if pm.size < capacity {
		pm.buf[(pm.head+pm.size)%capacity] = m
		pm.size++
	} else {
		pm.buf[pm.head] = m
		pm.head = (pm.head + 1) % capacity
	}
	size := pm.size
	pm.mu.Unlock()

	metrics.PerformanceBufferSize.Set(float64(size))
}

// alert logs requests over the slow or critical threshold. A failure while
// logging is swallowed.
func (pm *PerformanceMonitor) alert(t Timer, latency time.Duration, statusCode int) {
	defer func() {
		_ = recover()
	}()

	critical := latency > pm.cfg.CriticalThreshold
	if !critical && latency <= pm.cfg.SlowThreshold {
		return
	}
	metrics.RecordSlowRequest(critical)

	if !pm.alerts.Allow() {
		return
	}

	if critical {
		logging.Error().
			Str("method", t.method).
			Str("path", t.path).
			Int("status", statusCode).
			Int64("duration_ms", latency.Milliseconds()).
			Int64("threshold_ms", pm.cfg.CriticalThreshold.Milliseconds()).
			Msg("Critical request latency")
		return
	}

	logging.Warn().
		Str("method", t.method).
		Str("path", t.path).
		Int("status", statusCode).
		Int64("duration_ms", latency.Milliseconds()).
		Int64("threshold_ms", pm.cfg.SlowThreshold.Milliseconds()).
		Msg("Slow request detected")
}

// Len returns the number of buffered metrics.
func (pm *PerformanceMonitor) Len() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.size
}

// Capacity returns the buffer capacity.
func (pm *PerformanceMonitor) Capacity() int {
	return len(pm.buf)
}

// snapshotLocked copies the buffer oldest first. pm.mu must be held.
func (pm *PerformanceMonitor) snapshotLocked() []RequestMetric {
	out := make([]RequestMetric, pm.size)
	for i := 0; i < pm.size; i++ {
		out[i] = pm.buf[(pm.head+i)%len(pm.buf)]
	}
	return out
}

// Snapshot returns every buffered metric, oldest first.
func (pm *PerformanceMonitor) Snapshot() []RequestMetric {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.snapshotLocked()
}

// GetRecentMetrics returns the most recent N metrics, oldest first
func (pm *PerformanceMonitor) GetRecentMetrics(n int) []RequestMetric {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if n > pm.size {
		n = pm.size
	}
	if n <= 0 {
		return []RequestMetric{}
	}

	recent := make([]RequestMetric, n)
	start := pm.size - n
	for i := 0; i < n; i++ {
		recent[i] = pm.buf[(pm.head+start+i)%len(pm.buf)]
	}
	return recent
}

// Middleware creates an HTTP middleware for performance monitoring
func (pm *PerformanceMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := pm.Begin(r)

		wrapper := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapper, r)

		timer.path = routePath(r, timer.path)
		pm.EndWithCache(timer, wrapper.statusCode, wrapper.Header().Get(HeaderCache) == CacheHit)
	})
}

// routePath prefers the matched chi route pattern so that
// /listings/{id} groups as one endpoint.
func routePath(r *http.Request, fallback string) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return fallback
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}
