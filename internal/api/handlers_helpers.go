// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/siteperf/internal/listings"
)

// parseDurationParam reads a Go duration ("15m", "1s") from the query,
// returning def when the parameter is absent.
func parseDurationParam(r *http.Request, name string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: expected a duration such as 15m or 500ms", name, raw)
	}
	return d, nil
}

// parseIntParam reads an integer from the query, returning def when absent.
func parseIntParam(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: expected an integer", name, raw)
	}
	return n, nil
}

// parseFloatParam reads a number from the query, returning 0 when absent.
func parseFloatParam(r *http.Request, name string) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: expected a number", name, raw)
	}
	return f, nil
}

// parseListingsQuery builds a listings.Query from the parameters named in
// listings.QueryParams. The result still needs validation.
func parseListingsQuery(r *http.Request) (listings.Query, error) {
	q := listings.Query{
		Status: strings.ToLower(strings.TrimSpace(r.URL.Query().Get(listings.ParamStatus))),
		City:   strings.TrimSpace(r.URL.Query().Get(listings.ParamCity)),
	}

	var err error
	if q.MinPrice, err = parseFloatParam(r, listings.ParamMinPrice); err != nil {
		return q, err
	}
	if q.MaxPrice, err = parseFloatParam(r, listings.ParamMaxPrice); err != nil {
		return q, err
	}
	if q.MaxPrice > 0 && q.MinPrice > q.MaxPrice {
		return q, fmt.Errorf("min_price (%g) must not exceed max_price (%g)", q.MinPrice, q.MaxPrice)
	}
	return q, nil
}
