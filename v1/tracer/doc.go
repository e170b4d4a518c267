// Package tracer wraps the OpenTelemetry SDK tracer provider.
//
// NewClient builds a provider tagged with the service name and deployment
// environment, installs it as the global provider and sets the TraceContext
// and Baggage propagators. With EnableExport spans go to an OTLP/HTTP
// collector; otherwise they are only created and propagated, which is enough
// for trace ids in logs.
//
//	t, err := tracer.NewClient(tracer.Config{ServiceName: "indexer"}, log)
//	ctx, span := t.StartSpan(ctx, "import")
//	defer span.End()
//	if err := run(ctx); err != nil {
//	    t.RecordErrorOnSpan(span, err)
//	}
//
// *Tracer is accepted as the span source of embeddingdb.NewInstrumented.
//
// GetCarrier and SetCarrierOnContext move the trace context across process
// boundaries, for example through HTTP headers:
//
//	for k, v := range t.GetCarrier(ctx) {
//	    req.Header.Set(k, v)
//	}
//
// FXModule provides *Tracer and shuts the provider down on stop.
package tracer
