// Package tracer configures OpenTelemetry tracing for polystore.
//
// NewClient builds a TracerProvider, exporting spans over OTLP/HTTP when
// EnableExport is set, and installs it together with the W3C trace-context
// and baggage propagators as the process-wide defaults. The returned *Tracer
// satisfies store.Tracer.
//
// # Direct Usage (Without FX)
//
//	t, err := tracer.NewClient(tracer.Config{
//	    ServiceName:  "polystore",
//	    AppEnv:       "production",
//	    EnableExport: true,
//	    Endpoint:     "otel-collector:4318",
//	    Insecure:     true,
//	}, log)
//	if err != nil {
//	    return err
//	}
//	defer t.Shutdown(ctx)
//
//	c := client.New(client.WithTracer(t))
//
// Every collection of every database attached to c then runs its operations
// inside a client span named after the operation (polystore.insert,
// polystore.query, polystore.search, ...) with these attributes:
//
//	db.system            the store scheme, e.g. "sqlite"
//	db.name              the database alias
//	db.collection.name   the collection
//	db.operation.name    the operation
//	db.response.rows     rows inserted, returned or deleted
//
// Failed operations record the error on the span and set its status.
//
// # Spans of Your Own
//
// The span helpers can be used directly:
//
//	ctx, span := t.StartSpan(ctx, "import-people")
//	defer span.End()
//	t.SetAttributes(span, map[string]interface{}{"file": path, "rows": n})
//	if err := load(ctx); err != nil {
//	    t.RecordErrorOnSpan(span, err)
//	}
//
// SetAttributes maps strings, booleans, ints, floats and string slices to
// typed attributes; other values are formatted with fmt.
//
// # Log Correlation
//
// A logger created with EnableTracing adds trace_id and span_id to lines
// written through its *WithContext methods, so adapter logs can be joined
// with the spans above.
//
// # Configuration
//
//	TRACER_SERVICE_NAME=polystore        # service.name resource attribute
//	APP_ENV=production                   # deployment.environment
//	TRACER_ENABLE_EXPORT=true            # export over OTLP/HTTP
//	TRACER_ENDPOINT=otel-collector:4318  # collector host:port
//	TRACER_INSECURE=true                 # plain HTTP towards the collector
//
// Without EnableExport spans are still created and propagated, which keeps
// trace IDs in logs consistent with upstream callers.
//
// # FX Module Integration
//
// FXModule provides *Tracer from a tracer.Config and a *logger.Logger and
// flushes pending spans on shutdown. client.FXModule picks the tracer up when
// it is present.
package tracer
