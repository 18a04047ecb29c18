// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package api

import (
	"net/http"

	"github.com/tomtom215/siteperf/internal/cache"
	"github.com/tomtom215/siteperf/internal/logging"
	"github.com/tomtom215/siteperf/internal/validation"
)

// CacheStatus describes one cache instance.
type CacheStatus struct {
	Name    string      `json:"name"`
	Stats   cache.Stats `json:"stats"`
	HitRate float64     `json:"hit_rate"`
}

// CacheClearResult reports how many entries a clear removed per cache.
type CacheClearResult struct {
	Removed map[string]int `json:"removed"`
}

// CacheInvalidateResult reports whether a key was present.
type CacheInvalidateResult struct {
	Key     string `json:"key"`
	Removed bool   `json:"removed"`
}

type invalidateRequest struct {
	Key string `query:"key" validate:"required,max=2048"`
}

// CacheStats returns counters for every cache the service owns.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	statuses := []CacheStatus{{
		Name:    h.responses.Name(),
		Stats:   h.responses.Stats(),
		HitRate: h.responses.HitRate(),
	}}
	if h.summaries != nil {
		statuses = append(statuses, CacheStatus{
			Name:    h.summaries.Name(),
			Stats:   h.summaries.Stats(),
			HitRate: h.summaries.HitRate(),
		})
	}
	WriteSuccess(w, r, statuses)
}

// CacheClear drops every entry of every cache.
func (h *Handler) CacheClear(w http.ResponseWriter, r *http.Request) {
	result := CacheClearResult{Removed: map[string]int{
		h.responses.Name(): h.responses.Clear(),
	}}
	if h.summaries != nil {
		result.Removed[h.summaries.Name()] = h.summaries.Clear()
	}

	logging.Ctx(r.Context()).Info().
		Interface("removed", result.Removed).
		Msg("All caches cleared")
	WriteSuccess(w, r, result)
}

// CacheInvalidate removes ?key= from every cache. A missing key is not an
// error; the result reports whether anything was removed.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := invalidateRequest{Key: r.URL.Query().Get("key")}
	if verr := validation.ValidateStruct(req); verr != nil {
		rw.ValidationError(verr)
		return
	}

	removed := h.responses.Invalidate(req.Key)
	if h.summaries != nil && h.summaries.Invalidate(req.Key) {
		removed = true
	}

	logging.Ctx(r.Context()).Debug().
		Str("key", req.Key).
		Bool("removed", removed).
		Msg("Cache entry invalidated")
	rw.Success(CacheInvalidateResult{Key: req.Key, Removed: removed})
}
