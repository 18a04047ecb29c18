// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package cache

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// RequestKey derives the response cache key for a request.
//
// Only the query parameters named in varyBy take part; their values are
// sorted and empty values are ignored, so `?city=austin&status=active` and
// `?status=active&city=austin&utm_source=x` produce the same key when
// varyBy is {"status", "city"}.
//
//	RequestKey("GET", "/api/v1/listings", r.URL.Query(), []string{"status"})
//	// "GET /api/v1/listings?status=active"
func RequestKey(method, path string, query url.Values, varyBy []string) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(method))
	b.WriteByte(' ')
	b.WriteString(path)

	if len(varyBy) == 0 || len(query) == 0 {
		return b.String()
	}

	params := make(url.Values, len(varyBy))
	for _, name := range varyBy {
		if _, seen := params[name]; seen {
			continue
		}
		values := make([]string, 0, len(query[name]))
		for _, v := range query[name] {
			if v != "" {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		sort.Strings(values)
		params[name] = values
	}

	if len(params) > 0 {
		b.WriteByte('?')
		b.WriteString(params.Encode()) // Encode sorts by name
	}
	return b.String()
}

// GenerateKey creates a memoization key from a prefix and parameters
func GenerateKey(prefix string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", prefix, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", prefix, hash[:16])
}
