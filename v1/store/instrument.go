package store

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/polystore/v1/observability"
	"github.com/Aleph-Alpha/polystore/v1/query"
)

// Instrumented decorates a Collection with a tracing span and an observer
// notification per operation. Every collection handed out by Base is
// instrumented.
type Instrumented struct {
	inner    Collection
	scheme   string
	alias    string
	observer observability.Observer
	tracer   Tracer
}

// Instrument wraps c. A nil observer disables notifications and a nil tracer
// disables spans.
func Instrument(c Collection, scheme, alias string, observer observability.Observer, tracer Tracer) *Instrumented {
	return &Instrumented{
		inner:    c,
		scheme:   scheme,
		alias:    alias,
		observer: observer,
		tracer:   tracer,
	}
}

// Unwrap returns the adapter's collection.
func (i *Instrumented) Unwrap() Collection { return i.inner }

// Name returns the collection name.
func (i *Instrumented) Name() string { return i.inner.Name() }

// Database returns the database the collection belongs to.
func (i *Instrumented) Database() Database { return i.inner.Database() }

// Insert adds objs and reports their number as the operation size.
func (i *Instrumented) Insert(ctx context.Context, objs ...query.Object) error {
	_, err := i.observe(ctx, "insert", func(ctx context.Context) (int64, error) {
		return int64(len(objs)), i.inner.Insert(ctx, objs...)
	})
	return err
}

// Query answers q and reports the number of returned rows.
func (i *Instrumented) Query(ctx context.Context, q query.Query) (*query.Result, error) {
	var res *query.Result
	_, err := i.observe(ctx, "query", func(ctx context.Context) (int64, error) {
		var err error
		res, err = i.inner.Query(ctx, q)
		if err != nil {
			return 0, err
		}
		return int64(len(res.Rows)), nil
	})
	return res, err
}

// Find is Query with only a filter and a limit. It is traced as a query.
func (i *Instrumented) Find(ctx context.Context, where query.Where, limit int) (*query.Result, error) {
	return i.Query(ctx, query.Query{From: i.inner.Name(), Where: where, Limit: limit})
}

// Delete removes every record matching one of objs and reports how many
// went.
func (i *Instrumented) Delete(ctx context.Context, objs ...query.Object) (int, error) {
	n, err := i.observe(ctx, "delete", func(ctx context.Context) (int64, error) {
		n, err := i.inner.Delete(ctx, objs...)
		return int64(n), err
	})
	return int(n), err
}

// DeleteWhere removes the records matching where.
func (i *Instrumented) DeleteWhere(ctx context.Context, where query.Where, missingOK bool) (int, error) {
	n, err := i.observe(ctx, "delete_where", func(ctx context.Context) (int64, error) {
		n, err := i.inner.DeleteWhere(ctx, where, missingOK)
		return int64(n), err
	})
	return int(n), err
}

// Drop deletes the collection from its store.
func (i *Instrumented) Drop(ctx context.Context) error {
	_, err := i.observe(ctx, "drop", func(ctx context.Context) (int64, error) {
		return 0, i.inner.Drop(ctx)
	})
	return err
}

// Search uses the adapter's native search when it has one and ranks the
// matching rows with the database index otherwise.
func (i *Instrumented) Search(ctx context.Context, text string, where query.Where, limit int) ([]Hit, error) {
	var hits []Hit
	_, err := i.observe(ctx, "search", func(ctx context.Context) (int64, error) {
		var err error
		if s, ok := i.inner.(Searcher); ok {
			hits, err = s.Search(ctx, text, where, limit)
		} else {
			hits, err = Search(ctx, i.inner, i.inner.Database().Index(), text, where, limit)
		}
		return int64(len(hits)), err
	})
	return hits, err
}

func (i *Instrumented) observe(ctx context.Context, op string, fn func(context.Context) (int64, error)) (int64, error) {
	var span trace.Span
	if i.tracer != nil {
		ctx, span = i.tracer.StartSpan(ctx, "polystore."+op)
		defer span.End()
		i.tracer.SetAttributes(span, map[string]interface{}{
			"db.system":          i.scheme,
			"db.name":            i.alias,
			"db.collection.name": i.inner.Name(),
			"db.operation.name":  op,
		})
	}

	start := time.Now()
	size, err := fn(ctx)
	duration := time.Since(start)

	if span != nil {
		i.tracer.RecordErrorOnSpan(span, err)
		i.tracer.SetAttributes(span, map[string]interface{}{"db.response.rows": size})
	}

	if i.observer != nil {
		i.observer.ObserveOperation(observability.OperationContext{
			Component:   i.scheme,
			Operation:   op,
			Resource:    i.alias,
			SubResource: i.inner.Name(),
			Duration:    duration,
			Error:       err,
			Size:        size,
		})
	}
	return size, err
}
