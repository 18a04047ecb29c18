// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

/*
Package listings provides the listing data behind the site's cached routes.

A Provider returns listings matching a Query. HTTPClient calls the upstream
listing API with an X-API-Key header; CircuitBreakerProvider guards it with
sony/gobreaker and reports failures as ErrUpstream. StaticProvider serves a
fixed dataset when no upstream is configured.

Service memoizes per-query summaries through cache.WithCache under the
"listings:" key namespace. Refresh invalidates that namespace.
*/
package listings
