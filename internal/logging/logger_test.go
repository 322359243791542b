// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// captureGlobal points the global logger at a buffer for one test.
func captureGlobal(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Logger()
	prevLevel := zerolog.GlobalLevel()
	SetLogger(zerolog.New(&buf))
	t.Cleanup(func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  zerolog.Level
		valid bool
	}{
		{"trace", zerolog.TraceLevel, true},
		{"debug", zerolog.DebugLevel, true},
		{"info", zerolog.InfoLevel, true},
		{"warn", zerolog.WarnLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"error", zerolog.ErrorLevel, true},
		{"disabled", zerolog.Disabled, true},
		{" DEBUG ", zerolog.DebugLevel, true},
		{"verbose", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got := ValidLevel(tt.input); got != tt.valid {
				t.Errorf("ValidLevel(%q) = %v, want %v", tt.input, got, tt.valid)
			}
		})
	}
}

func TestInit(t *testing.T) {
	prev := Logger()
	t.Cleanup(func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})

	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Timestamp: true, Output: &buf})

	Info().Msg("dropped")
	Warn().Str("stage", "rfm").Msg("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info event written at warn level: %s", out)
	}
	for _, want := range []string{`"level":"warn"`, `"stage":"rfm"`, `"message":"kept"`, `"time":`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}

	buf.Reset()
	Init(Config{Level: "info", Format: "console", Output: &buf})
	Info().Msg("console line")
	if strings.Contains(buf.String(), `"level"`) {
		t.Errorf("console format produced JSON: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "console line") {
		t.Errorf("console output missing message: %s", buf.String())
	}
}

func TestComponent(t *testing.T) {
	buf := captureGlobal(t)

	logger := Component("trainer")
	logger.Info().Msg("started")
	if !strings.Contains(buf.String(), `"component":"trainer"`) {
		t.Errorf("missing component field: %s", buf.String())
	}

}

func TestCtx(t *testing.T) {
	buf := captureGlobal(t)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithRunID(ctx, "run-7")
	Ctx(ctx).Info().Msg("handled")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-1"`) || !strings.Contains(out, `"run_id":"run-7"`) {
		t.Errorf("context fields missing: %s", out)
	}

	buf.Reset()
	Ctx(context.Background()).Info().Msg("plain")
	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("unexpected request_id: %s", buf.String())
	}
}

func TestCtx_StoredLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), zerolog.New(&buf).With().Str("component", "api").Logger())
	ctx = ContextWithRequestID(ctx, "abc")
	Ctx(ctx).Warn().Msg("slow")

	out := buf.String()
	if !strings.Contains(out, `"component":"api"`) || !strings.Contains(out, `"request_id":"abc"`) {
		t.Errorf("stored logger not used: %s", out)
	}
}

func TestNewRequestID(t *testing.T) {
	t.Parallel()

	a, b := NewRequestID(), NewRequestID()
	if len(a) != 36 || a == b {
		t.Errorf("NewRequestID() = %q, %q; want distinct UUIDs", a, b)
	}
	if RequestIDFromContext(context.Background()) != "" || RunIDFromContext(context.Background()) != "" {
		t.Error("empty context returned IDs")
	}
}
