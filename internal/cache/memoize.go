// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package cache

import (
	"context"
	"time"

	"github.com/tomtom215/siteperf/internal/logging"
)

// ComputeFunc produces a value to be memoized.
type ComputeFunc[V any] func(ctx context.Context) (V, error)

// WithCache returns the cached value for key, or runs fn and caches its
// result for ttl.
//
// Only successful results are stored; an error from fn is returned as is
// and leaves the cache untouched. No lock is held while fn runs, so
// concurrent misses on one key each call fn.
//
// fn receives a context detached from ctx's cancellation: when the caller
// goes away mid-computation, a successful result still lands in the cache
// for the next caller. Values (request ID, correlation ID) are preserved.
//
// Example:
//
//	summary, err := cache.WithCache(ctx, summaries, "listings:summary", 10*time.Minute,
//	    func(ctx context.Context) (listings.Summary, error) {
//	        return svc.computeSummary(ctx)
//	    })
func WithCache[V any](ctx context.Context, c *Cache[V], key string, ttl time.Duration, fn ComputeFunc[V]) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err := fn(context.WithoutCancel(ctx))
	if err != nil {
		var zero V
		return zero, err
	}

	if err := c.Put(key, v, ttl); err != nil {
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("cache", c.Name()).
			Str("key", key).
			Msg("Failed to cache computed value")
	}
	return v, nil
}
