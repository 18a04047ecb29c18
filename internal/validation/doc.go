// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

// Package validation wraps go-playground/validator v10 with a thread-safe
// singleton and translates failures into the API's VALIDATION_ERROR shape.
//
// It validates both the loaded configuration and API query parameters:
//
//	type slowQuery struct {
//	    Threshold time.Duration `validate:"gte=0,lte=1h"`
//	}
//
// Custom tags:
//   - loglevel: a level name accepted by the logging package
package validation
