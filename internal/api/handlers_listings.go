// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/siteperf/internal/listings"
	"github.com/tomtom215/siteperf/internal/logging"
	"github.com/tomtom215/siteperf/internal/validation"
)

// RefreshResult reports what a listings refresh invalidated.
type RefreshResult struct {
	Summaries int `json:"summaries"`
	Responses int `json:"responses"`
}

// Listings returns the listings matching status, city, min_price and
// max_price. Successful responses are served through the response cache.
func (h *Handler) Listings(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	q, ok := h.listingsQuery(rw, r)
	if !ok {
		return
	}

	ls, err := h.listings.Search(r.Context(), q)
	if err != nil {
		h.listingsError(rw, r, err)
		return
	}

	count := len(ls)
	rw.Cacheable(ls, &count)
}

// ListingsSummary returns aggregate counts and prices for the query.
func (h *Handler) ListingsSummary(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	q, ok := h.listingsQuery(rw, r)
	if !ok {
		return
	}

	summary, err := h.listings.Summary(r.Context(), q)
	if err != nil {
		h.listingsError(rw, r, err)
		return
	}

	rw.Cacheable(summary, nil)
}

// ListingsRefresh drops memoized summaries and every cached listings
// response so the next request reads the provider.
func (h *Handler) ListingsRefresh(w http.ResponseWriter, r *http.Request) {
	result := RefreshResult{Summaries: h.listings.Refresh(r.Context())}
	for _, method := range []string{http.MethodGet, http.MethodHead} {
		result.Responses += h.responses.InvalidatePrefix(method + " " + ListingsPath)
	}

	logging.Ctx(r.Context()).Info().
		Int("summaries", result.Summaries).
		Int("responses", result.Responses).
		Msg("Listings refreshed")
	WriteSuccess(w, r, result)
}

func (h *Handler) listingsQuery(rw *ResponseWriter, r *http.Request) (listings.Query, bool) {
	q, err := parseListingsQuery(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return q, false
	}
	if verr := validation.ValidateStruct(q); verr != nil {
		rw.ValidationError(verr)
		return q, false
	}
	return q, true
}

func (h *Handler) listingsError(rw *ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, listings.ErrUpstream):
		rw.ExternalServiceError("listings", err)
	case r.Context().Err() != nil:
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Listings request canceled")
		rw.ServiceUnavailable("Request canceled")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Listings request failed")
		rw.InternalError("Failed to load listings")
	}
}
