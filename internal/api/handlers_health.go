// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the readiness payload.
type HealthStatus struct {
	Status          string  `json:"status"`
	Version         string  `json:"version"`
	Upstream        string  `json:"upstream"`
	CachedResponses int     `json:"cached_responses"`
	BufferedMetrics int     `json:"buffered_metrics"`
	Uptime          float64 `json:"uptime_seconds"`
}

// HealthLive reports that the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]string{"status": "alive"})
}

// HealthReady reports whether the service can answer listings requests.
// An open upstream circuit makes the service not ready.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	upstream := "static"
	if h.upstream != nil {
		upstream = h.upstream.State()
	}

	if upstream == "open" {
		NewResponseWriter(w, r).ServiceUnavailable("Listings upstream circuit is open")
		return
	}

	status := HealthStatus{
		Status:          "ready",
		Version:         h.version,
		Upstream:        upstream,
		CachedResponses: h.responses.Len(),
		BufferedMetrics: h.perfMon.Len(),
		Uptime:          time.Since(h.startTime).Seconds(),
	}

	WriteSuccess(w, r, status)
}
