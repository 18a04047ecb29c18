// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package listings

import (
	"context"
	"errors"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrUpstream is returned when the listing provider cannot serve a request.
var ErrUpstream = errors.New("listings: upstream unavailable")

// Listing statuses
const (
	StatusActive  = "active"
	StatusPending = "pending"
	StatusSold    = "sold"
)

// Query parameter names a Query is read from and encoded to.
const (
	ParamStatus   = "status"
	ParamCity     = "city"
	ParamMinPrice = "min_price"
	ParamMaxPrice = "max_price"
)

// QueryParams lists every parameter a Query is built from. A cached route
// that serves a Query must vary its key by all of them.
var QueryParams = []string{ParamStatus, ParamCity, ParamMinPrice, ParamMaxPrice}

// Listing is one property on the site.
type Listing struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	City     string    `json:"city"`
	Status   string    `json:"status"`
	Price    float64   `json:"price"`
	Bedrooms int       `json:"bedrooms"`
	ListedAt time.Time `json:"listed_at"`
}

// Query filters listings. Zero fields match everything.
type Query struct {
	Status   string  `json:"status,omitempty" validate:"omitempty,oneof=active pending sold"`
	City     string  `json:"city,omitempty" validate:"omitempty,max=64"`
	MinPrice float64 `json:"min_price,omitempty" validate:"gte=0"`
	MaxPrice float64 `json:"max_price,omitempty" validate:"gte=0"`
}

// Matches reports whether l satisfies q. City comparison ignores case.
func (q Query) Matches(l Listing) bool {
	if q.Status != "" && l.Status != q.Status {
		return false
	}
	if q.City != "" && !strings.EqualFold(l.City, q.City) {
		return false
	}
	if q.MinPrice > 0 && l.Price < q.MinPrice {
		return false
	}
	if q.MaxPrice > 0 && l.Price > q.MaxPrice {
		return false
	}
	return true
}

// Values encodes q as URL query parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set(ParamStatus, q.Status)
	}
	if q.City != "" {
		v.Set(ParamCity, q.City)
	}
	if q.MinPrice > 0 {
		v.Set(ParamMinPrice, strconv.FormatFloat(q.MinPrice, 'f', -1, 64))
	}
	if q.MaxPrice > 0 {
		v.Set(ParamMaxPrice, strconv.FormatFloat(q.MaxPrice, 'f', -1, 64))
	}
	return v
}

// Filter returns the listings matching q, keeping their order.
func (q Query) Filter(all []Listing) []Listing {
	out := make([]Listing, 0, len(all))
	for i := range all {
		if q.Matches(all[i]) {
			out = append(out, all[i])
		}
	}
	return out
}

// Provider supplies the current listings.
type Provider interface {
	ActiveListings(ctx context.Context, q Query) ([]Listing, error)
}

// Summary aggregates a set of listings. Prices are zero when Total is zero.
type Summary struct {
	Total        int            `json:"total"`
	ByStatus     map[string]int `json:"by_status"`
	ByCity       map[string]int `json:"by_city"`
	AveragePrice float64        `json:"average_price"`
	MinPrice     float64        `json:"min_price"`
	MaxPrice     float64        `json:"max_price"`
	TopCities    []CityCount    `json:"top_cities"`
	GeneratedAt  time.Time      `json:"generated_at"`
}

// CityCount is one entry of Summary.TopCities.
type CityCount struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

// maxTopCities bounds Summary.TopCities.
const maxTopCities = 5

// ComputeSummary aggregates ls as of now.
func ComputeSummary(ls []Listing, now time.Time) Summary {
	s := Summary{
		Total:       len(ls),
		ByStatus:    make(map[string]int),
		ByCity:      make(map[string]int),
		TopCities:   []CityCount{},
		GeneratedAt: now,
	}
	if len(ls) == 0 {
		return s
	}

	var sum float64
	s.MinPrice = math.Inf(1)
	s.MaxPrice = math.Inf(-1)
	for i := range ls {
		s.ByStatus[ls[i].Status]++
		s.ByCity[ls[i].City]++
		sum += ls[i].Price
		s.MinPrice = math.Min(s.MinPrice, ls[i].Price)
		s.MaxPrice = math.Max(s.MaxPrice, ls[i].Price)
	}
	s.AveragePrice = sum / float64(len(ls))

	for city, n := range s.ByCity {
		s.TopCities = append(s.TopCities, CityCount{City: city, Count: n})
	}
	sort.Slice(s.TopCities, func(i, j int) bool {
		if s.TopCities[i].Count != s.TopCities[j].Count {
			return s.TopCities[i].Count > s.TopCities[j].Count
		}
		return s.TopCities[i].City < s.TopCities[j].City
	})
	if len(s.TopCities) > maxTopCities {
		s.TopCities = s.TopCities[:maxTopCities]
	}

	return s
}
