// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package testinfra

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// APICapture is one request received by MockListingsAPI.
type APICapture struct {
	Method string
	Path   string
	Query  url.Values
	APIKey string
}

// MockListingsAPI is a fake upstream listing provider. It answers
// GET /listings with a fixed JSON body and captures every request.
type MockListingsAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	captures []APICapture
	status   int
	body     []byte
}

// DefaultListingsBody is a two-listing response in the provider's envelope.
var DefaultListingsBody = []byte(`{"listings":[` +
	`{"id":"up-1","title":"Upstream Loft","city":"Denver","status":"active","price":410000,"bedrooms":2,"listed_at":"2026-02-01T00:00:00Z"},` +
	`{"id":"up-2","title":"Upstream Ranch","city":"Denver","status":"pending","price":620000,"bedrooms":4,"listed_at":"2026-02-03T00:00:00Z"}` +
	`]}`)

// NewMockListingsAPI starts the server. It is closed by t.Cleanup.
func NewMockListingsAPI(t *testing.T) *MockListingsAPI {
	t.Helper()

	m := &MockListingsAPI{
		status: http.StatusOK,
		body:   DefaultListingsBody,
	}

	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.captures = append(m.captures, APICapture{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			APIKey: r.Header.Get("X-API-Key"),
		})
		status, body := m.status, m.body
		m.mu.Unlock()

		if r.URL.Path != "/listings" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(body) //nolint:errcheck
	}))
	t.Cleanup(m.Server.Close)

	return m
}

// URL returns the server base URL.
func (m *MockListingsAPI) URL() string {
	return m.Server.URL
}

// Respond changes the status and body of later responses.
func (m *MockListingsAPI) Respond(status int, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	m.body = body
}

// Captures returns a copy of the captured requests.
func (m *MockListingsAPI) Captures() []APICapture {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]APICapture, len(m.captures))
	copy(result, m.captures)
	return result
}

// Calls returns how many requests were received.
func (m *MockListingsAPI) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.captures)
}
