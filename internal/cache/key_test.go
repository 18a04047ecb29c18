// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package cache

import (
	"net/url"
	"testing"
)

func TestRequestKey(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		query  string
		varyBy []string
		want   string
	}{
		{
			name:   "no vary params",
			method: "GET",
			path:   "/api/v1/listings",
			query:  "status=active",
			varyBy: nil,
			want:   "GET /api/v1/listings",
		},
		{
			name:   "lowercase method normalized",
			method: "get",
			path:   "/api/v1/listings",
			want:   "GET /api/v1/listings",
		},
		{
			name:   "only vary params included",
			method: "GET",
			path:   "/api/v1/listings",
			query:  "status=active&utm_source=newsletter",
			varyBy: []string{"status"},
			want:   "GET /api/v1/listings?status=active",
		},
		{
			name:   "params sorted by name",
			method: "GET",
			path:   "/api/v1/listings",
			query:  "status=active&city=austin",
			varyBy: []string{"status", "city"},
			want:   "GET /api/v1/listings?city=austin&status=active",
		},
		{
			name:   "multi values sorted",
			method: "GET",
			path:   "/api/v1/listings",
			query:  "city=dallas&city=austin",
			varyBy: []string{"city"},
			want:   "GET /api/v1/listings?city=austin&city=dallas",
		},
		{
			name:   "empty values ignored",
			method: "GET",
			path:   "/api/v1/listings",
			query:  "city=&status=active",
			varyBy: []string{"city", "status"},
			want:   "GET /api/v1/listings?status=active",
		},
		{
			name:   "absent vary param",
			method: "GET",
			path:   "/api/v1/listings",
			query:  "page=2",
			varyBy: []string{"city"},
			want:   "GET /api/v1/listings",
		},
		{
			name:   "values escaped",
			method: "GET",
			path:   "/api/v1/listings",
			query:  "city=san+antonio",
			varyBy: []string{"city"},
			want:   "GET /api/v1/listings?city=san+antonio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("bad query %q: %v", tt.query, err)
			}
			if got := RequestKey(tt.method, tt.path, q, tt.varyBy); got != tt.want {
				t.Errorf("RequestKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestKeyStability(t *testing.T) {
	varyBy := []string{"status", "city", "min_price"}
	a, _ := url.ParseQuery("min_price=100000&city=austin&status=active&ref=home")
	b, _ := url.ParseQuery("status=active&ref=ad&city=austin&min_price=100000")

	if RequestKey("GET", "/api/v1/listings", a, varyBy) != RequestKey("GET", "/api/v1/listings", b, varyBy) {
		t.Error("Expected logically identical requests to produce the same key")
	}

	// Order of varyBy itself must not matter
	reordered := []string{"city", "min_price", "status"}
	if RequestKey("GET", "/x", a, varyBy) != RequestKey("GET", "/x", a, reordered) {
		t.Error("Expected varyBy order not to affect the key")
	}
}

func TestGenerateKey(t *testing.T) {
	type TestParams struct {
		City   string
		Status string
	}

	params1 := TestParams{City: "austin", Status: "active"}
	params2 := TestParams{City: "austin", Status: "active"}
	params3 := TestParams{City: "dallas", Status: "active"}

	key1 := GenerateKey("listings:summary", params1)
	key2 := GenerateKey("listings:summary", params2)
	key3 := GenerateKey("listings:summary", params3)

	if key1 != key2 {
		t.Error("Expected same params to generate same key")
	}
	if key1 == key3 {
		t.Error("Expected different params to generate different key")
	}
}

func TestGenerateKeyUnmarshalable(t *testing.T) {
	// Channels cannot be JSON encoded; the fallback key is still prefixed.
	key := GenerateKey("prefix", make(chan int))
	if len(key) < len("prefix:") || key[:7] != "prefix:" {
		t.Errorf("Expected fallback key with prefix, got %q", key)
	}
}
