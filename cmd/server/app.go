// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package main

import (
	"net/http"

	"github.com/tomtom215/siteperf/internal/api"
	"github.com/tomtom215/siteperf/internal/cache"
	"github.com/tomtom215/siteperf/internal/config"
	"github.com/tomtom215/siteperf/internal/listings"
	"github.com/tomtom215/siteperf/internal/logging"
	"github.com/tomtom215/siteperf/internal/metrics"
	"github.com/tomtom215/siteperf/internal/middleware"
	"github.com/tomtom215/siteperf/internal/supervisor"
	"github.com/tomtom215/siteperf/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app holds the wired components of one server instance.
type app struct {
	cfg       *config.Config
	responses *cache.Cache[middleware.CachedResponse]
	summaries *cache.Cache[listings.Summary]
	monitor   *middleware.PerformanceMonitor
	handler   *api.Handler
	server    *http.Server
}

// newApp builds every component from cfg. Nothing is started.
func newApp(cfg *config.Config) *app {
	responses := cache.New[middleware.CachedResponse](
		cache.WithName("responses"),
		cache.WithMaxEntries(cfg.Cache.MaxEntries),
	)
	summaries := cache.New[listings.Summary](
		cache.WithName("summaries"),
		cache.WithMaxEntries(cfg.Cache.MaxEntries),
	)

	monitor := middleware.NewPerformanceMonitor(middleware.PerformanceConfig{
		Capacity:          cfg.Performance.Capacity,
		SlowThreshold:     cfg.Performance.SlowThreshold,
		CriticalThreshold: cfg.Performance.CriticalThreshold,
		TopEndpoints:      cfg.Performance.TopEndpoints,
		AlertsPerSecond:   cfg.Performance.AlertsPerSecond,
	})

	provider, upstream := newProvider(cfg)
	svc := listings.NewService(provider, summaries, cfg.Listings.SummaryTTL, nil)

	handler := api.NewHandler(api.HandlerConfig{
		Listings:      svc,
		Responses:     responses,
		Summaries:     summaries,
		Monitor:       monitor,
		Upstream:      upstream,
		DefaultWindow: cfg.Performance.DefaultWindow,
		Version:       version,
	})

	chiMw := api.NewChiMiddlewareFromSecurity(
		cfg.Security.CORSOrigins,
		cfg.Security.RateLimitReqs,
		cfg.Security.RateLimitWindow,
		cfg.Security.RateLimitDisabled,
	)
	router := api.NewRouter(handler, chiMw, routePolicies(cfg))

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &app{
		cfg:       cfg,
		responses: responses,
		summaries: summaries,
		monitor:   monitor,
		handler:   handler,
		server:    server,
	}
}

// newProvider returns the listing source. The upstream status is nil for
// the static dataset so readiness reports "static".
func newProvider(cfg *config.Config) (listings.Provider, api.UpstreamStatus) {
	if cfg.UsesStaticListings() {
		logging.Info().Msg("No listings API configured, serving the demo dataset")
		return listings.NewStaticProvider(listings.DemoListings()), nil
	}

	client := listings.NewHTTPClient(cfg.Listings.BaseURL, cfg.Listings.APIKey, cfg.Listings.Timeout)
	breaker := listings.NewCircuitBreakerProvider(client, listings.BreakerSettings{
		Name:        "listings-api",
		MaxRequests: cfg.Listings.BreakerMaxRequests,
		Interval:    cfg.Listings.BreakerInterval,
		Timeout:     cfg.Listings.BreakerTimeout,
	})
	logging.Info().Str("base_url", cfg.Listings.BaseURL).Msg("Listings API client configured with circuit breaker")
	return breaker, breaker
}

func routePolicies(cfg *config.Config) api.RoutePolicies {
	def := cfg.Cache.DefaultTTL
	return api.RoutePolicies{
		Listings: middleware.CachePolicy{
			TTL:    cfg.Routes.Listings.EffectiveTTL(def),
			VaryBy: cfg.Routes.Listings.VaryBy,
		},
		Summary: middleware.CachePolicy{
			TTL:    cfg.Routes.Summary.EffectiveTTL(def),
			VaryBy: cfg.Routes.Summary.VaryBy,
		},
	}
}

// register adds the app services to tree. configPath enables the config
// watcher when non-empty.
func (a *app) register(tree *supervisor.SupervisorTree, configPath string) {
	tree.AddCacheService(cache.NewJanitor(a.cfg.Cache.JanitorInterval, a.responses, a.summaries))
	logging.Info().Dur("interval", a.cfg.Cache.JanitorInterval).Msg("Cache janitor service added")

	if configPath != "" {
		tree.AddCacheService(services.NewConfigWatchService(configPath, config.WatchConfigFile, reloadLogLevel))
		logging.Info().Str("path", configPath).Msg("Config watcher service added")
	}

	tree.AddAPIService(services.NewHTTPServerService(a.server, a.cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", a.server.Addr).Msg("HTTP server service added")
}

// reloadLogLevel re-reads the configuration and applies the log level.
// Other settings take effect on restart.
func reloadLogLevel() {
	cfg, err := config.Load()
	metrics.RecordConfigReload(err)
	if err != nil {
		logging.Warn().Err(err).Msg("Config reload failed, keeping current settings")
		return
	}
	logging.SetLevelString(cfg.Logging.Level)
	logging.Info().Str("level", cfg.Logging.Level).Msg("Config reloaded")
}
