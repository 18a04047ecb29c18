// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/siteperf/internal/logging"
	"github.com/tomtom215/siteperf/internal/metrics"
)

// DefaultJanitorInterval is how often expired entries are purged when no
// interval is configured.
const DefaultJanitorInterval = 10 * time.Minute

// Sweeper is anything with expired entries to purge. *Cache[V] satisfies it
// for every V.
type Sweeper interface {
	Sweep() int
	Name() string
}

// Janitor periodically sweeps expired entries out of one or more caches.
//
// Lazy expiry in Get only fires for keys that are asked for again; the
// janitor bounds memory for the rest. It implements suture.Service:
//
//	tree.AddCacheService(cache.NewJanitor(10*time.Minute, responses, summaries))
type Janitor struct {
	targets  []Sweeper
	interval time.Duration
	name     string
	logger   zerolog.Logger
}

// NewJanitor creates a janitor for targets. A non-positive interval uses
// DefaultJanitorInterval.
func NewJanitor(interval time.Duration, targets ...Sweeper) *Janitor {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	return &Janitor{
		targets:  targets,
		interval: interval,
		name:     "cache-janitor",
		logger:   logging.WithComponent("cache-janitor"),
	}
}

// Interval returns the sweep interval.
func (j *Janitor) Interval() time.Duration {
	return j.interval
}

// SweepOnce sweeps every target once and returns the total removed.
func (j *Janitor) SweepOnce() int {
	start := time.Now()
	total := 0
	for _, t := range j.targets {
		removed := t.Sweep()
		total += removed
		if removed > 0 {
			j.logger.Debug().
				Str("cache", t.Name()).
				Int("removed", removed).
				Msg("Swept expired cache entries")
		}
	}
	metrics.RecordJanitorSweep(time.Since(start))
	return total
}

// Serve implements suture.Service. It sweeps on every tick until ctx is
// canceled.
func (j *Janitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info().
		Dur("interval", j.interval).
		Int("caches", len(j.targets)).
		Msg("Cache janitor started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.SweepOnce()
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (j *Janitor) String() string {
	return j.name
}
