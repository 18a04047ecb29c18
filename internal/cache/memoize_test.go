// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWithCache_MissThenHit(t *testing.T) {
	c, _ := newTestCache[int]()
	var calls atomic.Int32

	compute := func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 7, nil
	}

	for i := 0; i < 3; i++ {
		got, err := WithCache(context.Background(), c, "summary", time.Minute, compute)
		if err != nil {
			t.Fatalf("WithCache returned error: %v", err)
		}
		if got != 7 {
			t.Errorf("Expected 7, got %d", got)
		}
	}

	if calls.Load() != 1 {
		t.Errorf("Expected compute to run once, ran %d times", calls.Load())
	}
}

func TestWithCache_ErrorNotCached(t *testing.T) {
	c, _ := newTestCache[int]()
	errUpstream := errors.New("listing provider unavailable")

	_, err := WithCache(context.Background(), c, "summary", time.Minute, func(ctx context.Context) (int, error) {
		return 0, errUpstream
	})
	if !errors.Is(err, errUpstream) {
		t.Fatalf("Expected upstream error to propagate unchanged, got %v", err)
	}
	if c.Len() != 0 {
		t.Error("Expected failed computation to leave the cache untouched")
	}

	// Next call computes again and succeeds
	got, err := WithCache(context.Background(), c, "summary", time.Minute, func(ctx context.Context) (int, error) {
		return 3, nil
	})
	if err != nil || got != 3 {
		t.Errorf("Expected (3, nil), got (%d, %v)", got, err)
	}
}

func TestWithCache_RecomputesAfterExpiry(t *testing.T) {
	c, clk := newTestCache[int]()
	var calls atomic.Int32
	compute := func(ctx context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	first, _ := WithCache(context.Background(), c, "k", time.Minute, compute)
	clk.Advance(61 * time.Second)
	second, _ := WithCache(context.Background(), c, "k", time.Minute, compute)

	if first != 1 || second != 2 {
		t.Errorf("Expected recomputation after expiry, got %d then %d", first, second)
	}
}

func TestWithCache_PutFailureStillReturnsValue(t *testing.T) {
	c, _ := newTestCache[int]()

	got, err := WithCache(context.Background(), c, "k", 0, func(ctx context.Context) (int, error) {
		return 5, nil
	})
	if err != nil {
		t.Fatalf("Expected store failure to be swallowed, got %v", err)
	}
	if got != 5 {
		t.Errorf("Expected 5, got %d", got)
	}
	if c.Len() != 0 {
		t.Error("Expected nothing stored with an invalid TTL")
	}
}

// Concurrent misses on one key are not coalesced: both callers compute.
func TestWithCache_ConcurrentMissesBothCompute(t *testing.T) {
	c, _ := newTestCache[string]()

	var calls atomic.Int32
	started := make(chan struct{}, 2)
	release := make(chan struct{})

	compute := func(ctx context.Context) (string, error) {
		calls.Add(1)
		started <- struct{}{}
		<-release
		return "summary", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := WithCache(context.Background(), c, "listings:summary", time.Minute, compute); err != nil {
				t.Errorf("WithCache returned error: %v", err)
			}
		}()
	}

	// Both computations must be in flight before either finishes.
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("Timed out waiting for both computations to start")
		}
	}
	close(release)
	wg.Wait()

	if calls.Load() != 2 {
		t.Errorf("Expected 2 computations without single-flight, got %d", calls.Load())
	}
	if got, ok := c.Get("listings:summary"); !ok || got != "summary" {
		t.Errorf("Expected result cached after both complete, got (%q, %v)", got, ok)
	}
}

func TestWithCache_CallerCanceledStillPopulates(t *testing.T) {
	c, _ := newTestCache[int]()
	ctx, cancel := context.WithCancel(context.Background())

	got, err := WithCache(ctx, c, "k", time.Minute, func(fnCtx context.Context) (int, error) {
		cancel() // caller abandons mid-computation
		if fnCtx.Err() != nil {
			return 0, fnCtx.Err()
		}
		return 9, nil
	})
	if err != nil {
		t.Fatalf("Expected computation to complete, got %v", err)
	}
	if got != 9 {
		t.Errorf("Expected 9, got %d", got)
	}
	if v, ok := c.Get("k"); !ok || v != 9 {
		t.Errorf("Expected result cached for the next caller, got (%d, %v)", v, ok)
	}
}
