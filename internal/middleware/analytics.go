// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package middleware

import (
	"sort"
	"time"
)

// EndpointSummary aggregates the metrics of one "METHOD path" endpoint.
type EndpointSummary struct {
	Endpoint     string  `json:"endpoint"`
	AverageTime  float64 `json:"averageTime"`
	MaxTime      int64   `json:"maxTime"`
	RequestCount int     `json:"requestCount"`
}

// WindowStats is the aggregate over a trailing time window.
// TopEndpoints is never nil so it encodes as [] rather than null.
type WindowStats struct {
	AverageLatencyMS float64           `json:"averageResponseTime"`
	TotalRequests    int               `json:"totalRequests"`
	SlowRequests     int               `json:"slowRequests"`
	ErrorRate        float64           `json:"errorRate"`
	TopEndpoints     []EndpointSummary `json:"topEndpoints"`
}

// PerformanceStats holds per-endpoint latency percentiles over the whole buffer.
type PerformanceStats struct {
	Path         string  `json:"path"`
	Method       string  `json:"method"`
	RequestCount int     `json:"request_count"`
	AvgDuration  float64 `json:"avg_duration_ms"`
	MinDuration  int64   `json:"min_duration_ms"`
	MaxDuration  int64   `json:"max_duration_ms"`
	P50Duration  int64   `json:"p50_duration_ms"`
	P95Duration  int64   `json:"p95_duration_ms"`
	P99Duration  int64   `json:"p99_duration_ms"`
	ErrorCount   int     `json:"error_count"`
	CacheHits    int     `json:"cache_hits"`
}

// ComputeWindow aggregates metrics whose timestamp is within window of now.
// A non-positive window covers the whole buffer.
func (pm *PerformanceMonitor) ComputeWindow(window time.Duration) WindowStats {
	now := pm.clock.Now()

	pm.mu.RLock()
	all := pm.snapshotLocked()
	pm.mu.RUnlock()

	selected := all
	if window > 0 {
		cutoff := now.Add(-window)
		selected = make([]RequestMetric, 0, len(all))
		for i := range all {
			if !all[i].Timestamp.Before(cutoff) {
				selected = append(selected, all[i])
			}
		}
	}

	stats := WindowStats{TopEndpoints: []EndpointSummary{}}
	if len(selected) == 0 {
		return stats
	}

	var total int64
	var errs int
	for i := range selected {
		m := &selected[i]
		total += m.LatencyMS
		if m.Latency > pm.cfg.SlowThreshold {
			stats.SlowRequests++
		}
		if m.StatusCode >= 400 {
			errs++
		}
	}

	stats.TotalRequests = len(selected)
	stats.AverageLatencyMS = float64(total) / float64(len(selected))
	stats.ErrorRate = float64(errs) / float64(len(selected))

	endpoints := summarizeEndpoints(selected)
	if len(endpoints) > pm.cfg.TopEndpoints {
		endpoints = endpoints[:pm.cfg.TopEndpoints]
	}
	stats.TopEndpoints = endpoints

	return stats
}

// GetSlowEndpoints returns endpoints with at least one request slower than
// threshold, aggregated over those slow requests only and ordered by
// average latency descending.
func (pm *PerformanceMonitor) GetSlowEndpoints(threshold time.Duration) []EndpointSummary {
	pm.mu.RLock()
	slow := make([]RequestMetric, 0)
	for i := 0; i < pm.size; i++ {
		m := pm.buf[(pm.head+i)%len(pm.buf)]
		if m.Latency > threshold {
			slow = append(slow, m)
		}
	}
	pm.mu.RUnlock()

	return summarizeEndpoints(slow)
}

// summarizeEndpoints groups by endpoint and sorts by average latency
// descending, then by name for a stable order.
func summarizeEndpoints(ms []RequestMetric) []EndpointSummary {
	type acc struct {
		total int64
		max   int64
		count int
	}
	groups := make(map[string]*acc)
	for i := range ms {
		a, ok := groups[ms[i].Endpoint]
		if !ok {
			a = &acc{}
			groups[ms[i].Endpoint] = a
		}
		a.total += ms[i].LatencyMS
		a.count++
		if ms[i].LatencyMS > a.max {
			a.max = ms[i].LatencyMS
		}
	}

	out := make([]EndpointSummary, 0, len(groups))
	for endpoint, a := range groups {
		out = append(out, EndpointSummary{
			Endpoint:     endpoint,
			AverageTime:  float64(a.total) / float64(a.count),
			MaxTime:      a.max,
			RequestCount: a.count,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AverageTime != out[j].AverageTime {
			return out[i].AverageTime > out[j].AverageTime
		}
		return out[i].Endpoint < out[j].Endpoint
	})
	return out
}

// GetStats calculates per-endpoint percentiles over the whole buffer,
// busiest endpoints first.
func (pm *PerformanceMonitor) GetStats() []PerformanceStats {
	pm.mu.RLock()
	all := pm.snapshotLocked()
	pm.mu.RUnlock()

	type bucket struct {
		method    string
		path      string
		durations []int64
		errors    int
		hits      int
	}
	buckets := make(map[string]*bucket)
	for i := range all {
		m := &all[i]
		b, ok := buckets[m.Endpoint]
		if !ok {
			b = &bucket{method: m.Method, path: m.Path}
			buckets[m.Endpoint] = b
		}
		b.durations = append(b.durations, m.LatencyMS)
		if m.StatusCode >= 400 {
			b.errors++
		}
		if m.CacheHit {
			b.hits++
		}
	}

	stats := make([]PerformanceStats, 0, len(buckets))
	for _, b := range buckets {
		sort.Slice(b.durations, func(i, j int) bool { return b.durations[i] < b.durations[j] })

		var sum int64
		for _, d := range b.durations {
			sum += d
		}
		n := len(b.durations)

		stats = append(stats, PerformanceStats{
			Path:         b.path,
			Method:       b.method,
			RequestCount: n,
			AvgDuration:  float64(sum) / float64(n),
			MinDuration:  b.durations[0],
			MaxDuration:  b.durations[n-1],
			P50Duration:  percentile(b.durations, 0.50),
			P95Duration:  percentile(b.durations, 0.95),
			P99Duration:  percentile(b.durations, 0.99),
			ErrorCount:   b.errors,
			CacheHits:    b.hits,
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].RequestCount != stats[j].RequestCount {
			return stats[i].RequestCount > stats[j].RequestCount
		}
		if stats[i].Path != stats[j].Path {
			return stats[i].Path < stats[j].Path
		}
		return stats[i].Method < stats[j].Method
	})

	return stats
}

// percentile calculates the percentile value from sorted data
func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(float64(len(sorted)-1) * p)
	return sorted[index]
}
