// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/siteperf/internal/validation"
)

// DefaultRecentLimit is the number of metrics /performance/recent returns
// when no limit is given.
const DefaultRecentLimit = 50

type windowRequest struct {
	Window time.Duration `query:"window" validate:"gte=0,lte=168h"`
}

type thresholdRequest struct {
	Threshold time.Duration `query:"threshold" validate:"gt=0"`
}

type recentRequest struct {
	Limit int `query:"limit" validate:"gte=1,lte=10000"`
}

// PerformanceSnapshot returns aggregate latency, error rate and the slowest
// endpoints over ?window= (default 15m). window=0 covers every buffered
// metric.
func (h *Handler) PerformanceSnapshot(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	window, err := parseDurationParam(r, "window", h.defaultWindow)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(windowRequest{Window: window}); verr != nil {
		rw.ValidationError(verr)
		return
	}

	rw.Success(h.perfMon.ComputeWindow(window))
}

// PerformanceSlow lists endpoints whose requests exceeded ?threshold=
// (default: the monitor's slow threshold), slowest average first.
func (h *Handler) PerformanceSlow(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	threshold, err := parseDurationParam(r, "threshold", h.perfMon.Config().SlowThreshold)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(thresholdRequest{Threshold: threshold}); verr != nil {
		rw.ValidationError(verr)
		return
	}

	rw.Success(h.perfMon.GetSlowEndpoints(threshold))
}

// PerformanceEndpoints returns per-endpoint latency percentiles.
func (h *Handler) PerformanceEndpoints(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, h.perfMon.GetStats())
}

// PerformanceRecent returns the newest ?limit= metrics, oldest first.
func (h *Handler) PerformanceRecent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, err := parseIntParam(r, "limit", DefaultRecentLimit)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(recentRequest{Limit: limit}); verr != nil {
		rw.ValidationError(verr)
		return
	}

	metrics := h.perfMon.GetRecentMetrics(limit)
	rw.SuccessWithCount(metrics, len(metrics))
}
