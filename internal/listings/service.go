// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package listings

import (
	"context"
	"time"

	"github.com/tomtom215/siteperf/internal/cache"
	"github.com/tomtom215/siteperf/internal/clock"
	"github.com/tomtom215/siteperf/internal/logging"
)

// KeyPrefix namespaces every memoized listings value.
const KeyPrefix = "listings:"

// DefaultSummaryTTL applies when NewService is given a non-positive TTL.
const DefaultSummaryTTL = 5 * time.Minute

// Service answers listing queries and memoizes their summaries.
type Service struct {
	provider   Provider
	summaries  *cache.Cache[Summary]
	summaryTTL time.Duration
	clock      clock.Clock
}

// NewService creates a Service. summaries holds memoized summaries and may
// be shared with the cache janitor.
func NewService(provider Provider, summaries *cache.Cache[Summary], summaryTTL time.Duration, clk clock.Clock) *Service {
	if summaryTTL <= 0 {
		summaryTTL = DefaultSummaryTTL
	}
	return &Service{
		provider:   provider,
		summaries:  summaries,
		summaryTTL: summaryTTL,
		clock:      clock.OrReal(clk),
	}
}

// Search returns the listings matching q straight from the provider.
func (s *Service) Search(ctx context.Context, q Query) ([]Listing, error) {
	return s.provider.ActiveListings(ctx, q)
}

// SummaryKey is the cache key of the summary for q.
func SummaryKey(q Query) string {
	return cache.GenerateKey(KeyPrefix+"summary", q)
}

// Summary returns the aggregate for q, computing it on a cache miss.
// A provider error is returned and nothing is cached.
func (s *Service) Summary(ctx context.Context, q Query) (Summary, error) {
	return cache.WithCache(ctx, s.summaries, SummaryKey(q), s.summaryTTL, func(ctx context.Context) (Summary, error) {
		start := time.Now()
		ls, err := s.provider.ActiveListings(ctx, q)
		if err != nil {
			return Summary{}, err
		}

		summary := ComputeSummary(ls, s.clock.Now())
		logging.Ctx(ctx).Debug().
			Int("listings", summary.Total).
			Dur("duration", time.Since(start)).
			Msg("Computed listings summary")
		return summary, nil
	})
}

// Refresh drops every memoized listings value and returns how many were removed.
func (s *Service) Refresh(ctx context.Context) int {
	n := s.summaries.InvalidatePrefix(KeyPrefix)
	logging.Ctx(ctx).Info().Int("invalidated", n).Msg("Listings cache refreshed")
	return n
}
