// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// captureLogs swaps the global logger for one writing into a buffer.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Logger()
	SetLogger(NewTestLogger(&buf))
	t.Cleanup(func() { SetLogger(prev) })
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input  string
		want   zerolog.Level
		wantOK bool
	}{
		{"trace", zerolog.TraceLevel, true},
		{"debug", zerolog.DebugLevel, true},
		{"INFO", zerolog.InfoLevel, true},
		{" warn ", zerolog.WarnLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"error", zerolog.ErrorLevel, true},
		{"disabled", zerolog.Disabled, true},
		{"", zerolog.InfoLevel, false},
		{"bogus", zerolog.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseLevel(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("parseLevel(%q) = %v, %v, want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestValidLevel(t *testing.T) {
	if !ValidLevel("Warn") {
		t.Error("Expected Warn to be valid")
	}
	if ValidLevel("loud") || ValidLevel("") {
		t.Error("Expected loud and empty to be invalid")
	}
}

func TestSetLevelString(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	if !SetLevelString("error") || zerolog.GlobalLevel() != zerolog.ErrorLevel {
		t.Errorf("GlobalLevel() = %v, want error", zerolog.GlobalLevel())
	}
	if SetLevelString("loud") {
		t.Error("unknown level should be rejected")
	}
	if zerolog.GlobalLevel() != zerolog.ErrorLevel {
		t.Errorf("unknown level changed GlobalLevel() to %v", zerolog.GlobalLevel())
	}
}

func TestInitJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	t.Cleanup(func() {
		SetLogger(prev)
		SetLevelString("info")
	})

	Init(Config{Level: "debug", Format: "json", Output: &buf, Service: "siteperf", Version: "1.2.3"})
	Debug().Str("key", "value").Msg("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
	}
	want := map[string]string{
		"message": "hello",
		"level":   "debug",
		"key":     "value",
		"service": "siteperf",
		"version": "1.2.3",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %s", k, entry[k], v)
		}
	}
	if _, ok := entry["time"]; !ok {
		t.Error("Expected a time field by default")
	}
}

func TestInitNoTimestamp(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	t.Cleanup(func() {
		SetLogger(prev)
		SetLevelString("info")
	})

	Init(Config{Output: &buf, NoTimestamp: true})
	Info().Msg("plain")

	if got := buf.String(); got != `{"level":"info","message":"plain"}`+"\n" {
		t.Errorf("output = %q", got)
	}
}

func TestCtxAddsRequestFields(t *testing.T) {
	buf := captureLogs(t)

	ctx := ContextWithRequestID(context.Background(), "req-123")
	ctx = ContextWithCorrelationID(ctx, "corr-456")

	Ctx(ctx).Info().Msg("with context")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-123"`) {
		t.Errorf("Expected request_id in output, got %s", out)
	}
	if !strings.Contains(out, `"correlation_id":"corr-456"`) {
		t.Errorf("Expected correlation_id in output, got %s", out)
	}
}

func TestCtxWithoutValues(t *testing.T) {
	buf := captureLogs(t)

	Ctx(context.Background()).Info().Msg("plain")

	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("Did not expect request_id, got %s", buf.String())
	}
}

func TestGeneratedIDs(t *testing.T) {
	if got := len(GenerateCorrelationID()); got != 8 {
		t.Errorf("correlation ID length = %d, want 8", got)
	}
	if GenerateRequestID() == GenerateRequestID() {
		t.Error("Expected unique request IDs")
	}
	if RequestIDFromContext(context.Background()) != "" {
		t.Error("Expected empty request ID from bare context")
	}
}

func TestWithComponent(t *testing.T) {
	buf := captureLogs(t)

	l := WithComponent("cache-janitor")
	l.Info().Msg("sweep")

	if !strings.Contains(buf.String(), `"component":"cache-janitor"`) {
		t.Errorf("Expected component field, got %s", buf.String())
	}
}
