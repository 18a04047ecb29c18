// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package api

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/siteperf/internal/listings"
	"github.com/tomtom215/siteperf/internal/middleware"
)

// RoutePolicies holds the response cache policy of each cached route.
// A zero TTL disables caching for that route. NewRouter adds every
// listings query parameter to each VaryBy, so VaryBy only needs to name
// extra parameters.
type RoutePolicies struct {
	Listings middleware.CachePolicy
	Summary  middleware.CachePolicy
}

// Router sets up HTTP routes using Chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	policies      RoutePolicies
}

// NewRouter creates a router. A nil chiMw uses DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, chiMw *ChiMiddleware, policies RoutePolicies) *Router {
	if chiMw == nil {
		chiMw = NewChiMiddleware(nil)
	}
	policies.Listings = varyByQuery(policies.Listings)
	policies.Summary = varyByQuery(policies.Summary)
	return &Router{
		handler:       handler,
		chiMiddleware: chiMw,
		policies:      policies,
	}
}

// varyByQuery returns p with listings.QueryParams first in its vary list,
// followed by any other names p already had.
func varyByQuery(p middleware.CachePolicy) middleware.CachePolicy {
	vary := make([]string, 0, len(listings.QueryParams)+len(p.VaryBy))
	vary = append(vary, listings.QueryParams...)
	for _, name := range p.VaryBy {
		if !slices.Contains(vary, name) {
			vary = append(vary, name)
		}
	}
	p.VaryBy = vary
	return p
}

// cached wraps a route with the response cache, or with plain request
// telemetry when the policy disables caching. Either way the route records
// exactly one metric per request.
func (router *Router) cached(policy middleware.CachePolicy) func(http.Handler) http.Handler {
	mon := router.handler.perfMon
	if policy.TTL <= 0 {
		return mon.Middleware
	}
	return middleware.ResponseCache(router.handler.responses, mon, policy)
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	h := router.handler
	mon := h.perfMon

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimiddleware.Compress(5, "application/json"))
	r.Use(chimiddleware.GetHead) // HEAD is served by the GET handler

	// ========================
	// Health Endpoints
	// ========================
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	// ========================
	// Performance Endpoints
	// ========================
	r.Route("/api/v1/performance", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(mon.Middleware)

		r.Get("/", h.PerformanceSnapshot)
		r.Get("/slow", h.PerformanceSlow)
		r.Get("/endpoints", h.PerformanceEndpoints)
		r.Get("/recent", h.PerformanceRecent)
	})

	// ========================
	// Cache Management
	// ========================
	r.Route("/api/v1/cache", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(mon.Middleware)

		r.With(router.chiMiddleware.RateLimit()).Get("/stats", h.CacheStats)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitWrite())
			r.Delete("/", h.CacheClear)
			r.Delete("/entry", h.CacheInvalidate)
		})
	})

	// ========================
	// Listings
	// ========================
	// GET/HEAD go through the response cache, which records their metrics.
	r.Route(ListingsPath, func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())

		r.With(router.cached(router.policies.Listings)).Get("/", h.Listings)
		r.With(router.cached(router.policies.Summary)).Get("/summary", h.ListingsSummary)
		r.With(router.chiMiddleware.RateLimitWrite(), mon.Middleware).Post("/refresh", h.ListingsRefresh)
	})

	// ========================
	// Prometheus
	// ========================
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found: " + r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).MethodNotAllowed()
	})

	return r
}
