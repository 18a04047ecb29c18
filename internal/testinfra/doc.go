// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

// Package testinfra provides test infrastructure for end-to-end tests.
//
// MockListingsAPI stands in for the upstream listing provider so the full
// server can be exercised against a live HTTP dependency:
//
//	func TestUpstream(t *testing.T) {
//	    upstream := testinfra.NewMockListingsAPI(t)
//	    client := listings.NewHTTPClient(upstream.URL(), "key", time.Second)
//
//	    got, err := client.ActiveListings(ctx, listings.Query{City: "Denver"})
//	    // ...
//	    if upstream.Calls() != 1 { ... }
//	}
//
// Respond switches the server to an error mode to drive the circuit breaker.
package testinfra
