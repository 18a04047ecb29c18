// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/siteperf/internal/validation"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validatePerformance(); err != nil {
		return err
	}

	if err := c.validateRoutes(); err != nil {
		return err
	}

	return c.validateRateLimits()
}

// validatePerformance checks the cross-field threshold ordering
func (c *Config) validatePerformance() error {
	if c.Performance.CriticalThreshold <= c.Performance.SlowThreshold {
		return fmt.Errorf("PERF_CRITICAL_THRESHOLD (%v) must be greater than PERF_SLOW_THRESHOLD (%v)",
			c.Performance.CriticalThreshold, c.Performance.SlowThreshold)
	}
	return nil
}

// validateRoutes rejects empty vary-by parameter names
func (c *Config) validateRoutes() error {
	routes := map[string]RouteCacheConfig{
		"LISTINGS_CACHE_VARY_BY": c.Routes.Listings,
		"SUMMARY_CACHE_VARY_BY":  c.Routes.Summary,
	}
	for name, route := range routes {
		for _, param := range route.VaryBy {
			if param == "" {
				return fmt.Errorf("%s must not contain empty parameter names", name)
			}
		}
	}
	return nil
}

// Rate limit constants
const (
	minRateLimitRequests = 1           // Minimum 1 request allowed
	maxRateLimitRequests = 100000      // Maximum 100K requests per window
	minRateLimitWindow   = time.Second // Minimum 1 second window
	maxRateLimitWindow   = time.Hour   // Maximum 1 hour window
)

// validateRateLimits validates rate limiting configuration bounds.
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}

	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// hasWildcardCORS checks if CORS is configured with wildcard origins
func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS reports a wildcard CORS origin in production, which
// is logged at startup.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.IsProduction() && c.hasWildcardCORS()
}

// IsProduction returns true when running in production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// UsesStaticListings reports whether no upstream listing provider is configured.
func (c *Config) UsesStaticListings() bool {
	return c.Listings.BaseURL == ""
}
