// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package middleware

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/siteperf/internal/cache"
	"github.com/tomtom215/siteperf/internal/logging"
)

const (
	// HeaderCache reports whether a response was served from cache.
	HeaderCache = "X-Cache"

	CacheHit  = "HIT"
	CacheMiss = "MISS"

	// DefaultMaxCachedBody caps how much of a response body is buffered.
	DefaultMaxCachedBody = 1 << 20
)

// CachePolicy configures ResponseCache for one route.
type CachePolicy struct {
	// TTL is how long a stored response is served.
	TTL time.Duration

	// VaryBy lists the query parameters that distinguish cache entries.
	// Parameters not listed are ignored when deriving the key.
	VaryBy []string

	// MaxBodyBytes caps a storable body. Larger responses pass through
	// uncached. Default: 1 MiB
	MaxBodyBytes int
}

// CachedResponse is the stored form of a successful response.
type CachedResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// headers never replayed from a stored response
var uncachedHeaders = []string{HeaderCache, "Cache-Control", HeaderRequestID, "Set-Cookie", "Date"}

// ResponseCache serves GET and HEAD requests from store when an unexpired
// response exists for the request key, tagging it X-Cache: HIT. Otherwise the
// handler runs and a 2xx response is stored and tagged X-Cache: MISS. Error
// responses pass through untouched and are never stored. When mon is
// non-nil a metric is recorded for every request on both paths.
func ResponseCache(store *cache.Cache[CachedResponse], mon *PerformanceMonitor, policy CachePolicy) func(http.Handler) http.Handler {
	if policy.MaxBodyBytes <= 0 {
		policy.MaxBodyBytes = DefaultMaxCachedBody
	}

	return func(next http.Handler) http.Handler {
		monitored := next
		if mon != nil {
			monitored = mon.Middleware(next)
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				monitored.ServeHTTP(w, r)
				return
			}

			timer := mon.Begin(r)
			key := cache.RequestKey(r.Method, r.URL.Path, r.URL.Query(), policy.VaryBy)

			if resp, remaining, ok := store.GetWithTTL(key); ok {
				writeCachedResponse(w, r, resp, remaining)
				timer.path = routePath(r, timer.path)
				mon.EndWithCache(timer, resp.StatusCode, true)
				return
			}

			rec := &captureWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				ttl:            policy.TTL,
				limit:          policy.MaxBodyBytes,
			}
			next.ServeHTTP(rec, r)
			if !rec.wroteHeader {
				rec.WriteHeader(http.StatusOK)
			}

			timer.path = routePath(r, timer.path)
			mon.EndWithCache(timer, rec.statusCode, false)

			if !rec.storable() {
				return
			}

			err := store.Put(key, CachedResponse{
				StatusCode: rec.statusCode,
				Header:     rec.header,
				Body:       rec.body.Bytes(),
			}, policy.TTL)
			if err != nil {
				logging.Ctx(r.Context()).Warn().
					Err(err).
					Str("key", key).
					Str("cache", store.Name()).
					Msg("Failed to store response in cache")
			}
		})
	}
}

func writeCachedResponse(w http.ResponseWriter, r *http.Request, resp CachedResponse, remaining time.Duration) {
	h := w.Header()
	for k, vs := range resp.Header {
		h[k] = append([]string(nil), vs...)
	}
	h.Set(HeaderCache, CacheHit)
	h.Set("Cache-Control", cacheControl(remaining))
	w.WriteHeader(resp.StatusCode)
	if r.Method != http.MethodHead {
		_, _ = w.Write(resp.Body)
	}
}

func cacheControl(ttl time.Duration) string {
	secs := int64(ttl / time.Second)
	if secs < 0 {
		secs = 0
	}
	return "public, max-age=" + strconv.FormatInt(secs, 10)
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

// captureWriter streams the response to the client while keeping a copy
// of a successful one for the cache.
type captureWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	header      http.Header
	body        bytes.Buffer
	ttl         time.Duration
	limit       int
	overflow    bool
}

func (cw *captureWriter) WriteHeader(code int) {
	if cw.wroteHeader {
		return
	}
	cw.statusCode = code
	cw.wroteHeader = true

	if isSuccess(code) {
		h := cw.ResponseWriter.Header()
		h.Set(HeaderCache, CacheMiss)
		h.Set("Cache-Control", cacheControl(cw.ttl))

		cw.header = h.Clone()
		for _, name := range uncachedHeaders {
			cw.header.Del(name)
		}
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.wroteHeader {
		cw.WriteHeader(http.StatusOK)
	}
	if isSuccess(cw.statusCode) && !cw.overflow {
		if cw.body.Len()+len(b) > cw.limit {
			cw.overflow = true
			cw.body.Reset()
		} else {
			cw.body.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

func (cw *captureWriter) storable() bool {
	return isSuccess(cw.statusCode) && !cw.overflow
}
