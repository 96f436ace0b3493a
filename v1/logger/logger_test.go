package logger

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(tracing bool) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{Zap: zap.New(core), tracingEnabled: tracing}, logs
}

func TestLevelsAndFields(t *testing.T) {
	l, logs := observed(false)

	l.Info("attached", nil, map[string]interface{}{"alias": "people"})
	l.Error("drop failed", errors.New("boom"))

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "people", entries[0].ContextMap()["alias"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestWithContext_AddsTraceIDs(t *testing.T) {
	l, logs := observed(true)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{2},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	l.InfoWithContext(ctx, "query", nil)
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, sc.TraceID().String(), fields["trace_id"])
	assert.Equal(t, sc.SpanID().String(), fields["span_id"])
}

func TestWithContext_TracingDisabled(t *testing.T) {
	l, logs := observed(false)
	l.WarnWithContext(context.Background(), "query", nil)
	_, ok := logs.All()[0].ContextMap()["trace_id"]
	assert.False(t, ok)
}

func TestNewLoggerClient_Levels(t *testing.T) {
	l := NewLoggerClient(Config{Level: Warning, ServiceName: "test"})
	assert.False(t, l.Zap.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Zap.Core().Enabled(zapcore.WarnLevel))
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("nothing", nil)
	assert.False(t, l.Zap.Core().Enabled(zapcore.ErrorLevel))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel(Debug))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(Info))
	assert.Equal(t, zapcore.WarnLevel, parseLevel(Warning))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel(Error))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNewLoggerClient_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polystore.log")
	l := NewLoggerClient(Config{Level: Info, ServiceName: "polystore", OutputPaths: []string{path}})
	l.Info("attached", nil, map[string]interface{}{"alias": "people"})
	_ = l.Zap.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	entry := map[string]any{}
	require.NoError(t, json.Unmarshal(b, &entry))
	assert.Equal(t, "attached", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "polystore", entry["service"])
	assert.Equal(t, "people", entry["alias"])
	assert.Contains(t, entry, "timestamp")
}

func TestZapConfig_Encoding(t *testing.T) {
	assert.Equal(t, "console", zapConfig(Config{Encoding: ConsoleEncoding}).Encoding)
	assert.Equal(t, "json", zapConfig(Config{Encoding: "xml"}).Encoding)
	assert.Equal(t, []string{"stderr"}, zapConfig(Config{}).OutputPaths)
}
