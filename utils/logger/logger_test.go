// ABOUTME: Tests the JSON logger format and context attribute injection
// ABOUTME: Output is captured in a buffer and decoded line by line
package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew_JSONFormat(t *testing.T) {
	tests := map[string]struct {
		level         string
		log           func(*slog.Logger)
		expectedLevel string
		expectEmpty   bool
	}{
		"info record": {
			level:         "info",
			log:           func(l *slog.Logger) { l.Info("item published", "source_id", "local") },
			expectedLevel: "info",
		},
		"error record": {
			level:         "info",
			log:           func(l *slog.Logger) { l.Error("publish failed") },
			expectedLevel: "error",
		},
		"debug suppressed at info": {
			level:       "info",
			log:         func(l *slog.Logger) { l.Debug("noise") },
			expectEmpty: true,
		},
		"debug emitted at debug": {
			level:         "DEBUG",
			log:           func(l *slog.Logger) { l.Debug("detail") },
			expectedLevel: "debug",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(&buf, Config{Level: tc.level, ServiceName: "feed-enricher"})

			tc.log(l)

			if tc.expectEmpty {
				assert.Zero(t, buf.Len())
				return
			}
			entry := decodeLine(t, &buf)
			assert.Equal(t, tc.expectedLevel, entry["level"])
			assert.Equal(t, "feed-enricher", entry["service"])
			assert.Equal(t, "dev", entry["version"])
			assert.Contains(t, entry, "time")
		})
	}
}

func TestContextHandler_AddsContextValues(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Config{Level: "info", ServiceName: "feed-enricher"})

	ctx := WithRunID(context.Background(), "run-1")
	ctx = WithSourceID(ctx, "local")
	ctx = WithItemURL(ctx, "https://example.com/a")

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx = trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	l.InfoContext(ctx, "stage completed")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "local", entry["source_id"])
	assert.Equal(t, "https://example.com/a", entry["item_url"])
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", entry["trace_id"])
	assert.Equal(t, "0102030405060708", entry["span_id"])
	assert.Equal(t, "run-1", RunIDFromContext(ctx))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("unknown"))
}

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := &MultiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	l := slog.New(h)

	l.Info("only first")
	assert.NotZero(t, a.Len())
	assert.Zero(t, b.Len())

	l.Error("both")
	assert.NotZero(t, b.Len())
}
