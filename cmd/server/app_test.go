// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/siteperf/internal/config"
	"github.com/tomtom215/siteperf/internal/middleware"
	"github.com/tomtom215/siteperf/internal/supervisor"
	"github.com/tomtom215/siteperf/internal/testinfra"
)

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv(config.ConfigPathEnvVar, "")
	t.Setenv("LISTINGS_API_URL", "")
	t.Setenv("DISABLE_RATE_LIMIT", "true")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	return cfg
}

func TestNewApp_ServesCachedListings(t *testing.T) {
	cfg := loadTestConfig(t)
	a := newApp(cfg)

	srv := httptest.NewServer(a.server.Handler)
	defer srv.Close()

	want := []string{middleware.CacheMiss, middleware.CacheHit}
	for i, w := range want {
		resp, err := http.Get(srv.URL + "/api/v1/listings?city=Austin")
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, resp.StatusCode)
		}
		if got := resp.Header.Get(middleware.HeaderCache); got != w {
			t.Errorf("request %d: X-Cache = %q, want %q", i, got, w)
		}
	}

	if a.responses.Len() != 1 {
		t.Errorf("responses.Len() = %d, want 1", a.responses.Len())
	}
	if a.monitor.Len() != 2 {
		t.Errorf("monitor.Len() = %d, want 2", a.monitor.Len())
	}
}

func TestNewApp_UpstreamListings(t *testing.T) {
	upstream := testinfra.NewMockListingsAPI(t)

	cfg := loadTestConfig(t)
	cfg.Listings.BaseURL = upstream.URL()
	cfg.Listings.APIKey = "test-key"
	a := newApp(cfg)

	srv := httptest.NewServer(a.server.Handler)
	defer srv.Close()

	get := func(path string) *http.Response {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		return resp
	}

	for i := 0; i < 2; i++ {
		if resp := get("/api/v1/listings?city=Denver"); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, resp.StatusCode)
		}
	}
	if upstream.Calls() != 1 {
		t.Errorf("upstream calls = %d, want 1 (second request served from cache)", upstream.Calls())
	}
	if c := upstream.Captures()[0]; c.Query.Get("city") != "Denver" || c.APIKey != "test-key" {
		t.Errorf("upstream capture = %+v", c)
	}

	upstream.Respond(http.StatusInternalServerError, []byte("boom"))
	if resp := get("/api/v1/listings?city=Boulder"); resp.StatusCode != http.StatusBadGateway {
		t.Errorf("failing upstream status = %d, want 502", resp.StatusCode)
	}
	if resp := get("/api/v1/health/ready"); resp.StatusCode != http.StatusOK {
		t.Errorf("ready status = %d, want 200 while the circuit is closed", resp.StatusCode)
	}
}

func TestNewApp_ServerSettings(t *testing.T) {
	cfg := loadTestConfig(t)
	a := newApp(cfg)

	if a.server.Addr != cfg.Server.Addr() {
		t.Errorf("Addr = %q, want %q", a.server.Addr, cfg.Server.Addr())
	}
	if a.server.ReadTimeout != cfg.Server.ReadTimeout {
		t.Errorf("ReadTimeout = %v, want %v", a.server.ReadTimeout, cfg.Server.ReadTimeout)
	}
	if a.server.WriteTimeout != cfg.Server.WriteTimeout {
		t.Errorf("WriteTimeout = %v, want %v", a.server.WriteTimeout, cfg.Server.WriteTimeout)
	}
}

func TestNewProvider(t *testing.T) {
	cfg := loadTestConfig(t)

	_, upstream := newProvider(cfg)
	if upstream != nil {
		t.Errorf("static provider upstream = %v, want nil", upstream)
	}

	cfg.Listings.BaseURL = "http://listings.invalid"
	provider, upstream := newProvider(cfg)
	if provider == nil || upstream == nil {
		t.Fatal("expected breaker-wrapped provider")
	}
	if got := upstream.State(); got != "closed" {
		t.Errorf("State() = %q, want closed", got)
	}
}

func TestRoutePolicies(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Cache.DefaultTTL = 7 * time.Minute
	cfg.Routes.Listings.TTL = 0
	cfg.Routes.Summary.TTL = time.Minute

	p := routePolicies(cfg)
	if p.Listings.TTL != 7*time.Minute {
		t.Errorf("Listings.TTL = %v, want default 7m", p.Listings.TTL)
	}
	if p.Summary.TTL != time.Minute {
		t.Errorf("Summary.TTL = %v, want 1m", p.Summary.TTL)
	}
	if len(p.Listings.VaryBy) != len(cfg.Routes.Listings.VaryBy) {
		t.Errorf("Listings.VaryBy = %v, want %v", p.Listings.VaryBy, cfg.Routes.Listings.VaryBy)
	}
}

func TestReloadLogLevel(t *testing.T) {
	prev := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(prev)

	loadTestConfig(t)
	t.Setenv("LOG_LEVEL", "warn")

	reloadLogLevel()
	if got := zerolog.GlobalLevel(); got != zerolog.WarnLevel {
		t.Errorf("GlobalLevel() = %v, want warn", got)
	}
}

func TestRegister_ServesUntilCanceled(t *testing.T) {
	cfg := loadTestConfig(t)
	a := newApp(cfg)
	a.server.Addr = "127.0.0.1:0"

	tree, err := supervisor.NewSupervisorTree(nil, supervisor.TreeConfig{ShutdownTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}
	a.register(tree, "")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v", err)
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) != 0 {
		t.Errorf("unstopped services = %v", unstopped)
	}
}
