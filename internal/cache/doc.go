// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

/*
Package cache provides the TTL response cache, the computation memoizer and
the background janitor that purges expired entries.

# Overview

  - Cache[V]: typed key/value store; each entry carries its own TTL
  - RequestKey / GenerateKey: deterministic key derivation
  - WithCache: check-then-compute-then-store helper for handlers
  - Janitor: suture.Service that sweeps expired entries on an interval

An entry is expired when now - insertedAt > ttl. Get treats an expired
entry as a miss and deletes it; Sweep deletes all of them at once.

# Usage Example

	summaries := cache.New[listings.Summary](cache.WithName("summaries"))

	summary, err := cache.WithCache(ctx, summaries, "listings:summary", 10*time.Minute,
	    func(ctx context.Context) (listings.Summary, error) {
	        return provider.Summarize(ctx)
	    })

	// Underlying data changed
	summaries.InvalidatePrefix("listings:")

# Thread Safety

Every operation takes the cache's sync.RWMutex only for the map access.
WithCache runs the computation with no lock held; concurrent misses on the
same key are not coalesced and each runs the computation.
*/
package cache
