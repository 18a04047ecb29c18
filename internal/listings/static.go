// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package listings

import (
	"context"
	"sync"
	"time"
)

// StaticProvider serves a fixed in-memory set of listings. It backs demo
// mode when no upstream is configured.
type StaticProvider struct {
	mu       sync.RWMutex
	listings []Listing
}

// NewStaticProvider copies ls into a new provider.
func NewStaticProvider(ls []Listing) *StaticProvider {
	p := &StaticProvider{}
	p.Replace(ls)
	return p
}

// ActiveListings returns the listings matching q.
func (p *StaticProvider) ActiveListings(ctx context.Context, q Query) ([]Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	return q.Filter(p.listings), nil
}

// Replace swaps the served dataset.
func (p *StaticProvider) Replace(ls []Listing) {
	cp := make([]Listing, len(ls))
	copy(cp, ls)

	p.mu.Lock()
	p.listings = cp
	p.mu.Unlock()
}

// DemoListings returns a small fixed dataset.
func DemoListings() []Listing {
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	return []Listing{
		{ID: "L-1001", Title: "Craftsman bungalow near the park", City: "Austin", Status: StatusActive, Price: 485000, Bedrooms: 3, ListedAt: base},
		{ID: "L-1002", Title: "Downtown loft with skyline views", City: "Austin", Status: StatusPending, Price: 612000, Bedrooms: 2, ListedAt: base.Add(2 * day)},
		{ID: "L-1003", Title: "Mid-century ranch", City: "Denver", Status: StatusActive, Price: 540000, Bedrooms: 4, ListedAt: base.Add(3 * day)},
		{ID: "L-1004", Title: "Townhouse by light rail", City: "Denver", Status: StatusSold, Price: 398000, Bedrooms: 2, ListedAt: base.Add(5 * day)},
		{ID: "L-1005", Title: "Lake cottage", City: "Madison", Status: StatusActive, Price: 329000, Bedrooms: 2, ListedAt: base.Add(8 * day)},
		{ID: "L-1006", Title: "Victorian with carriage house", City: "Portland", Status: StatusActive, Price: 799000, Bedrooms: 5, ListedAt: base.Add(9 * day)},
		{ID: "L-1007", Title: "Studio condo", City: "Portland", Status: StatusPending, Price: 245000, Bedrooms: 0, ListedAt: base.Add(12 * day)},
		{ID: "L-1008", Title: "Family home on a cul-de-sac", City: "Austin", Status: StatusSold, Price: 455000, Bedrooms: 4, ListedAt: base.Add(14 * day)},
	}
}
