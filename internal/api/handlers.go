// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package api

import (
	"time"

	"github.com/tomtom215/siteperf/internal/cache"
	"github.com/tomtom215/siteperf/internal/listings"
	"github.com/tomtom215/siteperf/internal/middleware"
)

// ListingsPath is the mount point of the listings routes. Response cache
// keys for every listings endpoint start with "<METHOD> " + ListingsPath.
const ListingsPath = "/api/v1/listings"

// UpstreamStatus reports the state of the listings upstream circuit:
// "closed", "half-open" or "open".
type UpstreamStatus interface {
	State() string
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_helpers.go: query parameter parsing
//   - handlers_health.go: liveness and readiness probes
//   - handlers_performance.go: request telemetry endpoints
//   - handlers_cache.go: cache inspection and invalidation
//   - handlers_listings.go: listings search, summary and refresh
type Handler struct {
	listings      *listings.Service
	responses     *cache.Cache[middleware.CachedResponse]
	summaries     *cache.Cache[listings.Summary]
	perfMon       *middleware.PerformanceMonitor
	upstream      UpstreamStatus
	defaultWindow time.Duration
	version       string
	startTime     time.Time
}

// HandlerConfig carries the Handler dependencies. Listings is required.
// A nil Monitor or Responses is replaced with a default instance. Summaries
// and Upstream are optional.
type HandlerConfig struct {
	Listings      *listings.Service
	Responses     *cache.Cache[middleware.CachedResponse]
	Summaries     *cache.Cache[listings.Summary]
	Monitor       *middleware.PerformanceMonitor
	Upstream      UpstreamStatus
	DefaultWindow time.Duration
	Version       string
}

// NewHandler creates a new API handler.
//
// Example:
//
//	handler := api.NewHandler(api.HandlerConfig{
//	    Listings:  svc,
//	    Responses: responses,
//	    Summaries: summaries,
//	    Monitor:   monitor,
//	})
//	router := api.NewRouter(handler, chiMw, api.RoutePolicies{})
//	http.ListenAndServe(":8080", router.SetupChi())
func NewHandler(cfg HandlerConfig) *Handler {
	window := cfg.DefaultWindow
	if window <= 0 {
		window = 15 * time.Minute
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	if cfg.Monitor == nil {
		cfg.Monitor = middleware.NewPerformanceMonitor(middleware.DefaultPerformanceConfig())
	}
	if cfg.Responses == nil {
		cfg.Responses = cache.New[middleware.CachedResponse](cache.WithName("responses"))
	}

	return &Handler{
		listings:      cfg.Listings,
		responses:     cfg.Responses,
		summaries:     cfg.Summaries,
		perfMon:       cfg.Monitor,
		upstream:      cfg.Upstream,
		defaultWindow: window,
		version:       version,
		startTime:     time.Now(),
	}
}

// Monitor returns the performance monitor fed by the router.
func (h *Handler) Monitor() *middleware.PerformanceMonitor {
	return h.perfMon
}

// Responses returns the response cache shared with the router.
func (h *Handler) Responses() *cache.Cache[middleware.CachedResponse] {
	return h.responses
}
