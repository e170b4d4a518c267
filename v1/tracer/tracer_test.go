package tracer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func newRecordedTracer(t *testing.T) (*Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tr, err := NewClient(Config{ServiceName: "test", AppEnv: "test"}, nil, sdktrace.WithSpanProcessor(rec))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })
	return tr, rec
}

func TestStartSpanNestsUnderParent(t *testing.T) {
	tr, rec := newRecordedTracer(t)

	ctx, parent := tr.StartSpan(context.Background(), "parent")
	_, child := tr.StartSpan(ctx, "child")
	child.End()
	parent.End()

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "child", ended[0].Name())
	assert.Equal(t, "parent", ended[1].Name())
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())
	assert.Equal(t, ended[1].SpanContext().TraceID(), ended[0].SpanContext().TraceID())
}

func TestRecordErrorOnSpan(t *testing.T) {
	tr, rec := newRecordedTracer(t)

	_, span := tr.StartSpan(context.Background(), "failing")
	tr.RecordErrorOnSpan(span, nil)
	tr.RecordErrorOnSpan(span, errors.New("boom"))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "boom", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)
}

func TestSetAttributes(t *testing.T) {
	tr, rec := newRecordedTracer(t)

	_, span := tr.StartSpan(context.Background(), "attrs")
	tr.SetAttributes(span, map[string]interface{}{
		"collection": "docs",
		"count":      3,
		"size":       int64(7),
		"ratio":      0.5,
		"exact":      true,
		"tags":       []string{"a", "b"},
		"other":      struct{ A int }{1},
	})
	span.End()

	got := map[attribute.Key]attribute.Value{}
	for _, kv := range rec.Ended()[0].Attributes() {
		got[kv.Key] = kv.Value
	}
	assert.Equal(t, "docs", got["collection"].AsString())
	assert.Equal(t, int64(3), got["count"].AsInt64())
	assert.Equal(t, int64(7), got["size"].AsInt64())
	assert.Equal(t, 0.5, got["ratio"].AsFloat64())
	assert.True(t, got["exact"].AsBool())
	assert.Equal(t, []string{"a", "b"}, got["tags"].AsStringSlice())
	assert.Equal(t, "{1}", got["other"].AsString())
}

func TestCarrierRoundTrip(t *testing.T) {
	tr, _ := newRecordedTracer(t)

	ctx, span := tr.StartSpan(context.Background(), "outgoing")
	defer span.End()

	carrier := tr.GetCarrier(ctx)
	require.Contains(t, carrier, "traceparent")

	remote := tr.SetCarrierOnContext(context.Background(), carrier)
	sc := trace.SpanContextFromContext(remote)
	assert.True(t, sc.IsRemote())
	assert.Equal(t, span.SpanContext().TraceID(), sc.TraceID())
	assert.Equal(t, span.SpanContext().SpanID(), sc.SpanID())
}

func TestTracerWithFXModule(t *testing.T) {
	var tr *Tracer
	app := fxtest.New(t,
		fx.Provide(func() Config { return Config{ServiceName: "fx"} }),
		FXModule,
		fx.Populate(&tr),
	)
	app.RequireStart()
	require.NotNil(t, tr)

	_, span := tr.StartSpan(context.Background(), "fx-span")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	app.RequireStop()
}
