package tracer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/mock/gomock"
)

func TestNewClient_WithoutExport(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := NewMockLogger(ctrl)

	tr, err := NewClient(Config{ServiceName: "test"}, log)
	require.NoError(t, err)
	defer func() { _ = tr.Shutdown(context.Background()) }()

	ctx, span := tr.StartSpan(context.Background(), "op")
	assert.True(t, span.SpanContext().IsValid())

	tr.SetAttributes(span, map[string]interface{}{"rows": 3, "scheme": "sqlite"})
	tr.RecordErrorOnSpan(span, errors.New("boom"))
	tr.RecordErrorOnSpan(span, nil)

	_, child := tr.StartSpan(ctx, "child")
	assert.Equal(t, span.SpanContext().TraceID(), child.SpanContext().TraceID())
	child.End()
	span.End()
}

func TestToAttributes_SortedAndTyped(t *testing.T) {
	got := toAttributes(map[string]interface{}{
		"scheme": "sqlite",
		"rows":   int64(3),
		"ok":     true,
		"ratio":  0.5,
		"n":      2,
		"tags":   []string{"a"},
		"err":    errors.New("boom"),
		"other":  []int{1},
	})
	assert.Equal(t, []attribute.KeyValue{
		attribute.String("err", "boom"),
		attribute.Int("n", 2),
		attribute.Bool("ok", true),
		attribute.String("other", "[1]"),
		attribute.Float64("ratio", 0.5),
		attribute.Int64("rows", 3),
		attribute.String("scheme", "sqlite"),
		attribute.StringSlice("tags", []string{"a"}),
	}, got)
}

func TestShutdown_Nil(t *testing.T) {
	var tr *Tracer
	assert.NoError(t, tr.Shutdown(context.Background()))
}
