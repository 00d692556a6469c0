package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/jgodboutprospector/canmp-sub003/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"WARNING": slog.LevelWarn,
		" error ": slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestNewLogger_AddsTraceFields(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{
		LogLevel:           "INFO",
		GoogleCloudProject: "proj-1",
		OtelEnabled:        true,
		OtelServiceName:    "aplos-sidecar",
	}
	logger := NewLogger(&buf, cfg)

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.InfoContext(ctx, "hello")

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "aplos-sidecar", got["service"])
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", got["trace"])
	assert.Equal(t, "projects/proj-1/traces/0102030405060708090a0b0c0d0e0f10", got["logging.googleapis.com/trace"])
	assert.Equal(t, true, got["traceSampled"])
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, &config.Config{LogLevel: "WARN", OtelServiceName: "aplos-sidecar"})

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
}
