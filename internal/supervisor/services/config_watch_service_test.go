// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// fakeWatcher records the callback so tests can trigger changes.
type fakeWatcher struct {
	onChange atomic.Value // func()
	stopped  atomic.Int32
	err      error
}

func (f *fakeWatcher) watch(path string, onChange func()) (func() error, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.onChange.Store(onChange)
	return func() error {
		f.stopped.Add(1)
		return nil
	}, nil
}

func (f *fakeWatcher) fire() bool {
	fn, ok := f.onChange.Load().(func())
	if ok {
		fn()
	}
	return ok
}

func TestConfigWatchService_ReloadsOnChange(t *testing.T) {
	w := &fakeWatcher{}
	var reloads atomic.Int32
	svc := NewConfigWatchService("/etc/siteperf/config.yaml", w.watch, func() { reloads.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.After(time.Second)
	for !w.fire() {
		select {
		case <-deadline:
			t.Fatal("watch was never started")
		case <-time.After(5 * time.Millisecond):
		}
	}
	w.fire()

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
	if reloads.Load() != 2 {
		t.Errorf("reloads = %d, want 2", reloads.Load())
	}
	if w.stopped.Load() != 1 {
		t.Errorf("stop calls = %d, want 1", w.stopped.Load())
	}
}

func TestConfigWatchService_WatchError(t *testing.T) {
	w := &fakeWatcher{err: errors.New("no such file")}
	svc := NewConfigWatchService("/missing.yaml", w.watch, func() {})

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, w.err) {
		t.Errorf("Serve() = %v, want wrapped watch error", err)
	}
}

func TestConfigWatchService_NoPathIsPermanent(t *testing.T) {
	svc := NewConfigWatchService("", (&fakeWatcher{}).watch, func() {})

	err := svc.Serve(context.Background())
	if !errors.Is(err, suture.ErrDoNotRestart) {
		t.Errorf("Serve() = %v, want ErrDoNotRestart", err)
	}
	if svc.String() != "config-watcher" {
		t.Errorf("String() = %q", svc.String())
	}
}
