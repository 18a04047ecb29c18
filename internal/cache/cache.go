// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package cache

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/siteperf/internal/clock"
	"github.com/tomtom215/siteperf/internal/metrics"
)

var (
	// ErrEmptyKey is returned by Put when the key is empty.
	ErrEmptyKey = errors.New("cache: empty key")

	// ErrInvalidTTL is returned by Put when the TTL is not positive.
	ErrInvalidTTL = errors.New("cache: ttl must be positive")

	// ErrCacheFull is returned by Put when MaxEntries is reached and no
	// expired entry could be purged to make room.
	ErrCacheFull = errors.New("cache: capacity reached")
)

// entry is one stored value. seq identifies the Put that created it, so a
// lazy expiry never deletes a newer entry stored under the same key.
type entry[V any] struct {
	value      V
	insertedAt time.Time
	ttl        time.Duration
	seq        uint64
}

// expired reports whether now - insertedAt > ttl.
func (e *entry[V]) expired(now time.Time) bool {
	return now.Sub(e.insertedAt) > e.ttl
}

func (e *entry[V]) remaining(now time.Time) time.Duration {
	r := e.ttl - now.Sub(e.insertedAt)
	if r < 0 {
		return 0
	}
	return r
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	Evictions   int64     `json:"evictions"`
	Expirations int64     `json:"expirations"`
	TotalKeys   int64     `json:"total_keys"`
	LastSweep   time.Time `json:"last_sweep"`
}

type counters struct {
	hits        atomic.Int64
	misses      atomic.Int64
	evictions   atomic.Int64
	expirations atomic.Int64
	lastSweep   atomic.Int64 // unix nanos
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	name       string
	clock      clock.Clock
	maxEntries int
}

// WithName sets the label used in logs and Prometheus metrics.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithClock sets the time source. Tests pass a *clock.Manual.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithMaxEntries bounds the number of live entries. Zero means unbounded.
func WithMaxEntries(n int) Option {
	return func(o *options) { o.maxEntries = n }
}

// Cache is a thread-safe in-memory key/value store with per-entry TTL.
//
// The payload type is fixed per instance. Expired entries are never returned:
// Get removes them on discovery, and Sweep (driven by a Janitor) removes the
// ones nobody asks for again.
type Cache[V any] struct {
	mu         sync.RWMutex
	entries    map[string]*entry[V]
	seq        uint64
	name       string
	clock      clock.Clock
	maxEntries int
	stats      counters
}

// New creates an empty cache.
//
// Example:
//
//	responses := cache.New[middleware.CachedResponse](cache.WithName("responses"))
//	_ = responses.Put("GET /api/v1/listings", resp, 5*time.Minute)
func New[V any](opts ...Option) *Cache[V] {
	o := options{name: "default"}
	for _, opt := range opts {
		opt(&o)
	}

	return &Cache[V]{
		entries:    make(map[string]*entry[V]),
		name:       o.name,
		clock:      clock.OrReal(o.clock),
		maxEntries: o.maxEntries,
	}
}

// Name returns the cache label.
func (c *Cache[V]) Name() string {
	return c.name
}

// Put inserts or replaces the entry for key. The TTL window starts now.
// A replaced entry is discarded, never merged.
func (c *Cache[V]) Put(key string, value V, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	now := c.clock.Now()
	purged := 0

	c.mu.Lock()
	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		purged = c.purgeExpiredLocked(now)
		if len(c.entries) >= c.maxEntries {
			c.mu.Unlock()
			c.recordExpired(purged)
			metrics.CacheStoreFailures.WithLabelValues(c.name).Inc()
			return ErrCacheFull
		}
	}
	c.seq++
	c.entries[key] = &entry[V]{
		value:      value,
		insertedAt: now,
		ttl:        ttl,
		seq:        c.seq,
	}
	size := len(c.entries)
	c.mu.Unlock()

	c.recordExpired(purged)
	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(size))
	return nil
}

// Get returns the value for key if present and unexpired.
func (c *Cache[V]) Get(key string) (V, bool) {
	v, _, ok := c.GetWithTTL(key)
	return v, ok
}

// GetWithTTL is Get plus the time left before the entry expires.
func (c *Cache[V]) GetWithTTL(key string) (V, time.Duration, bool) {
	var zero V
	now := c.clock.Now()

	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return zero, 0, false
	}

	if e.expired(now) {
		c.removeExpired(key, e.seq)
		c.recordMiss()
		return zero, 0, false
	}

	c.recordHit()
	return e.value, e.remaining(now), true
}

// removeExpired deletes key if it still holds the entry created by Put
// number seq. A newer entry under the same key is left alone and nothing
// is counted.
func (c *Cache[V]) removeExpired(key string, seq uint64) bool {
	c.mu.Lock()
	cur, ok := c.entries[key]
	if !ok || cur.seq != seq {
		c.mu.Unlock()
		return false
	}
	delete(c.entries, key)
	size := len(c.entries)
	c.mu.Unlock()

	c.recordExpired(1)
	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(size))
	return true
}

// Invalidate removes key. Removing a missing key is a no-op.
// Reports whether an entry was removed.
func (c *Cache[V]) Invalidate(key string) bool {
	c.mu.Lock()
	_, exists := c.entries[key]
	delete(c.entries, key)
	size := len(c.entries)
	c.mu.Unlock()

	if exists {
		c.stats.evictions.Add(1)
		metrics.RecordCacheEviction(c.name, "invalidated", 1)
		metrics.CacheEntries.WithLabelValues(c.name).Set(float64(size))
	}
	return exists
}

// InvalidatePrefix removes every entry whose key starts with prefix.
func (c *Cache[V]) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	c.stats.evictions.Add(int64(removed))
	metrics.RecordCacheEviction(c.name, "invalidated", removed)
	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(size))
	return removed
}

// Clear removes all entries and returns how many were dropped.
func (c *Cache[V]) Clear() int {
	c.mu.Lock()
	removed := len(c.entries)
	c.entries = make(map[string]*entry[V])
	c.mu.Unlock()

	c.stats.evictions.Add(int64(removed))
	metrics.RecordCacheEviction(c.name, "cleared", removed)
	metrics.CacheEntries.WithLabelValues(c.name).Set(0)
	return removed
}

// Sweep removes every expired entry and returns how many were removed.
func (c *Cache[V]) Sweep() int {
	now := c.clock.Now()

	c.mu.Lock()
	removed := c.purgeExpiredLocked(now)
	size := len(c.entries)
	c.mu.Unlock()

	c.stats.lastSweep.Store(now.UnixNano())
	c.stats.expirations.Add(int64(removed))
	metrics.RecordCacheEviction(c.name, "swept", removed)
	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(size))
	return removed
}

// purgeExpiredLocked deletes expired entries. c.mu must be held for writing.
func (c *Cache[V]) purgeExpiredLocked(now time.Time) int {
	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys returns the stored keys in no particular order.
func (c *Cache[V]) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[V]) Stats() Stats {
	s := Stats{
		Hits:        c.stats.hits.Load(),
		Misses:      c.stats.misses.Load(),
		Evictions:   c.stats.evictions.Load(),
		Expirations: c.stats.expirations.Load(),
		TotalKeys:   int64(c.Len()),
	}
	if ns := c.stats.lastSweep.Load(); ns != 0 {
		s.LastSweep = time.Unix(0, ns)
	}
	return s
}

// HitRate returns the cache hit rate as a percentage
func (c *Cache[V]) HitRate() float64 {
	hits := c.stats.hits.Load()
	total := hits + c.stats.misses.Load()
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total) * 100.0
}

func (c *Cache[V]) recordHit() {
	c.stats.hits.Add(1)
	metrics.RecordCacheLookup(c.name, true)
}

func (c *Cache[V]) recordMiss() {
	c.stats.misses.Add(1)
	metrics.RecordCacheLookup(c.name, false)
}

func (c *Cache[V]) recordExpired(n int) {
	if n == 0 {
		return
	}
	c.stats.expirations.Add(int64(n))
	metrics.RecordCacheEviction(c.name, "expired", n)
}
