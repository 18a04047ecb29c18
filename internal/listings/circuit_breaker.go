// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package listings

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/siteperf/internal/logging"
	"github.com/tomtom215/siteperf/internal/metrics"
)

// BreakerSettings configures CircuitBreakerProvider.
type BreakerSettings struct {
	Name        string
	MaxRequests uint32        // requests allowed while half-open
	Interval    time.Duration // closed-state count reset period
	Timeout     time.Duration // open period before trying half-open
}

// CircuitBreakerProvider wraps a Provider with a circuit breaker. Failures
// and rejections are reported as ErrUpstream.
//
// The breaker uses real time for its interval and timeout.
type CircuitBreakerProvider struct {
	next Provider
	cb   *gobreaker.CircuitBreaker[[]Listing]
	name string
}

// NewCircuitBreakerProvider wraps next.
// The circuit opens after a 60% failure rate over at least 10 requests.
func NewCircuitBreakerProvider(next Provider, s BreakerSettings) *CircuitBreakerProvider {
	if s.Name == "" {
		s.Name = "listings-api"
	}

	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[[]Listing](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		// Canceled callers are not upstream failures.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &CircuitBreakerProvider{next: next, cb: cb, name: s.Name}
}

// ActiveListings calls the wrapped provider through the breaker.
func (p *CircuitBreakerProvider) ActiveListings(ctx context.Context, q Query) ([]Listing, error) {
	result, err := p.cb.Execute(func() ([]Listing, error) {
		return p.next.ActiveListings(ctx, q)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(p.name, "rejected").Inc()
			logging.Ctx(ctx).Warn().Err(err).Str("breaker", p.name).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(p.name, "failure").Inc()
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	metrics.CircuitBreakerRequests.WithLabelValues(p.name, "success").Inc()
	return result, nil
}

// State returns the breaker state name: closed, half-open or open.
func (p *CircuitBreakerProvider) State() string {
	return stateToString(p.cb.State())
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
