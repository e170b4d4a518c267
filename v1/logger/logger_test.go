package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(tracing bool) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewWithZap(zap.New(core), tracing), logs
}

func TestLevelsAndFields(t *testing.T) {
	log, logs := newObserved(false)

	log.Debug("debug", nil)
	log.Info("info", nil, map[string]interface{}{"a": 1}, map[string]interface{}{"b": "x"})
	log.Warn("warn", nil)
	log.Error("error", errors.New("boom"), map[string]interface{}{"collection": "docs"})

	entries := logs.All()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, map[string]interface{}{"a": int64(1), "b": "x"}, entries[1].ContextMap())
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)

	errEntry := entries[3]
	assert.Equal(t, zapcore.ErrorLevel, errEntry.Level)
	assert.Equal(t, "boom", errEntry.ContextMap()["error"])
	assert.Equal(t, "docs", errEntry.ContextMap()["collection"])
}

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestWithContextAddsTraceIDs(t *testing.T) {
	ctx := spanContext(t)

	log, logs := newObserved(true)
	log.InfoWithContext(ctx, "traced", nil, map[string]interface{}{"k": "v"})
	log.ErrorWithContext(context.Background(), "untraced", errors.New("x"))

	entries := logs.All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
	assert.Equal(t, "v", fields["k"])
	assert.NotContains(t, entries[1].ContextMap(), "trace_id")
}

func TestWithContextTracingDisabled(t *testing.T) {
	log, logs := newObserved(false)
	log.WarnWithContext(spanContext(t), "plain", nil)
	log.DebugWithContext(spanContext(t), "plain", nil)

	for _, e := range logs.All() {
		assert.NotContains(t, e.ContextMap(), "trace_id")
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel(Debug))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(Info))
	assert.Equal(t, zapcore.WarnLevel, parseLevel(Warning))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel(Error))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNewLoggerClient(t *testing.T) {
	log := NewLoggerClient(Config{Level: Warning, ServiceName: "test"})
	require.NotNil(t, log.Zap)
	assert.False(t, log.Zap.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Zap.Core().Enabled(zapcore.WarnLevel))
}

func TestFXModule(t *testing.T) {
	var log *Logger
	app := fxtest.New(t,
		fx.Provide(func() Config { return Config{Level: Debug, ServiceName: "fx"} }),
		FXModule,
		fx.Populate(&log),
	)
	app.RequireStart()
	require.NotNil(t, log)
	log.Info("started", nil)
	app.RequireStop()
}
