package embeddingdb

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/microcore/v1/observability"
)

// Logger is the subset of the logger package used by Instrumented.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Tracer starts spans. *tracer.Tracer satisfies it.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, trace.Span)
}

// InstrumentOptions configures NewInstrumented. Every field is optional.
type InstrumentOptions struct {
	// Name identifies the wrapped backend in logs, spans and metrics.
	Name     string
	Logger   Logger
	Observer observability.Observer
	Tracer   Tracer
}

// Instrumented decorates a DB with tracing, operation metrics and logging.
type Instrumented struct {
	inner DB
	opts  InstrumentOptions
}

var _ DB = (*Instrumented)(nil)

// NewInstrumented wraps inner.
func NewInstrumented(inner DB, opts InstrumentOptions) *Instrumented {
	return &Instrumented{inner: inner, opts: opts}
}

// Unwrap returns the decorated DB.
func (i *Instrumented) Unwrap() DB {
	return i.inner
}

// Close closes the wrapped DB when it implements io.Closer.
func (i *Instrumented) Close() error {
	if c, ok := i.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (i *Instrumented) Search(ctx context.Context, collection string, query Query, params SearchParams) (res []SearchResult, err error) {
	n, bounded := params.Limit()
	ctx, done := i.begin(ctx, "search", collection, map[string]interface{}{
		"queries":   len(query),
		"n_results": n,
		"unlimited": !bounded,
		"filtered":  len(params.Where) > 0,
	})
	defer func() { done(err, len(res)) }()
	return i.inner.Search(ctx, collection, query, params)
}

func (i *Instrumented) GetAll(ctx context.Context, collection string) (res []SearchResult, err error) {
	ctx, done := i.begin(ctx, "get_all", collection, nil)
	defer func() { done(err, len(res)) }()
	return i.inner.GetAll(ctx, collection)
}

func (i *Instrumented) SaveMany(ctx context.Context, collection string, items []Document) (err error) {
	ctx, done := i.begin(ctx, "save_many", collection, map[string]interface{}{"items": len(items)})
	defer func() { done(err, len(items)) }()
	return i.inner.SaveMany(ctx, collection, items)
}

func (i *Instrumented) Clear(ctx context.Context, collection string) (err error) {
	ctx, done := i.begin(ctx, "clear", collection, nil)
	defer func() { done(err, 0) }()
	return i.inner.Clear(ctx, collection)
}

func (i *Instrumented) Count(ctx context.Context, collection string) (n int, err error) {
	ctx, done := i.begin(ctx, "count", collection, nil)
	defer func() { done(err, n) }()
	return i.inner.Count(ctx, collection)
}

func (i *Instrumented) Delete(ctx context.Context, collection string, what Selector) (err error) {
	ctx, done := i.begin(ctx, "delete", collection, map[string]interface{}{
		"ids":      len(what.IDs),
		"filtered": len(what.Where) > 0,
	})
	defer func() { done(err, len(what.IDs)) }()
	return i.inner.Delete(ctx, collection, what)
}

// begin opens a span for operation and returns the function that closes it,
// reports to the observer and logs the outcome.
func (i *Instrumented) begin(ctx context.Context, operation, collection string, fields map[string]interface{}) (context.Context, func(err error, size int)) {
	start := time.Now()

	var span trace.Span
	if i.opts.Tracer != nil {
		ctx, span = i.opts.Tracer.StartSpan(ctx, "embeddingdb."+operation)
		span.SetAttributes(
			attribute.String("embeddingdb.backend", i.opts.Name),
			attribute.String("embeddingdb.collection", collection),
		)
	}

	return ctx, func(err error, size int) {
		duration := time.Since(start)

		if span != nil {
			span.SetAttributes(attribute.Int("embeddingdb.size", size))
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		}

		if i.opts.Observer != nil {
			i.opts.Observer.ObserveOperation(observability.OperationContext{
				Component:   "embeddingdb",
				Operation:   operation,
				Resource:    collection,
				SubResource: i.opts.Name,
				Duration:    duration,
				Error:       err,
				Size:        int64(size),
				Metadata:    fields,
			})
		}

		if i.opts.Logger != nil {
			logFields := map[string]interface{}{
				"backend":     i.opts.Name,
				"operation":   operation,
				"collection":  collection,
				"duration_ms": duration.Milliseconds(),
				"size":        size,
			}
			if err != nil {
				i.opts.Logger.Error("embeddingdb operation failed", err, logFields, fields)
				return
			}
			i.opts.Logger.Debug("embeddingdb operation completed", nil, logFields, fields)
		}
	}
}
