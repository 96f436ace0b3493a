package tracer

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/Aleph-Alpha/polystore"

// StartSpan opens a client span named name under the span in ctx. Store
// operations are calls out to a backend, hence the client kind.
//
// Example:
//
//	ctx, span := t.StartSpan(ctx, "polystore.query")
//	defer span.End()
func (t *Tracer) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return t.tracer.Tracer(instrumentationName).Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
}

// RecordErrorOnSpan attaches err to span and marks it failed. A nil err is
// ignored.
func (t *Tracer) RecordErrorOnSpan(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetAttributes sets attrs on span in key order.
func (t *Tracer) SetAttributes(span trace.Span, attrs map[string]interface{}) {
	if len(attrs) == 0 {
		return
	}
	span.SetAttributes(toAttributes(attrs)...)
}

// toAttributes converts a field map to span attributes. Values of other
// types are formatted with fmt.
func toAttributes(attrs map[string]interface{}) []attribute.KeyValue {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kvs := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		key := attribute.Key(k)
		switch v := attrs[k].(type) {
		case string:
			kvs = append(kvs, key.String(v))
		case bool:
			kvs = append(kvs, key.Bool(v))
		case int:
			kvs = append(kvs, key.Int(v))
		case int64:
			kvs = append(kvs, key.Int64(v))
		case float64:
			kvs = append(kvs, key.Float64(v))
		case []string:
			kvs = append(kvs, key.StringSlice(v))
		case error:
			kvs = append(kvs, key.String(v.Error()))
		default:
			kvs = append(kvs, key.String(fmt.Sprint(v)))
		}
	}
	return kvs
}
