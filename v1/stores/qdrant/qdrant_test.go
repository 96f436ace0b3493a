package qdrant

import (
	"context"
	"testing"

	qdrant "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/polystore/v1/index"
	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
)

func TestConfigFromLocator(t *testing.T) {
	t.Setenv("QDRANT_API_KEY", "")

	loc, err := store.ParseLocator("qdrant")
	require.NoError(t, err)
	cfg, err := ConfigFromLocator(loc)
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Endpoint)
	assert.Equal(t, 6334, cfg.Port)
	assert.Empty(t, cfg.Namespace)

	loc, err = store.ParseLocator("qdrant://vectors:7000/people?api_key=k&tls=true")
	require.NoError(t, err)
	cfg, err = ConfigFromLocator(loc)
	require.NoError(t, err)
	assert.Equal(t, "vectors", cfg.Endpoint)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "people", cfg.Namespace)
	assert.Equal(t, "k", cfg.ApiKey)
	assert.True(t, cfg.UseTLS)

	loc, err = store.ParseLocator("qdrant://vectors:6334/x?tls=maybe")
	require.NoError(t, err)
	_, err = ConfigFromLocator(loc)
	assert.ErrorIs(t, err, store.ErrInvalidLocator)
}

func TestNamespaceNames(t *testing.T) {
	cfg := Config{Namespace: "people"}
	assert.Equal(t, "people__Person", cfg.nativeName("Person"))

	name, ok := cfg.collectionName("people__Person")
	assert.True(t, ok)
	assert.Equal(t, "Person", name)

	_, ok = cfg.collectionName("other__Person")
	assert.False(t, ok)
	_, ok = cfg.collectionName("people__")
	assert.False(t, ok)

	plain := Config{}
	name, ok = plain.collectionName("anything")
	assert.True(t, ok)
	assert.Equal(t, "anything", name)
}

func TestConvertWhere(t *testing.T) {
	filter, residual := convertWhere(nil)
	assert.Nil(t, filter)
	assert.Nil(t, residual)

	filter, residual = convertWhere(query.Where{
		"name":  "John",
		"age":   30,
		"ok":    true,
		"gone":  nil,
		"tags":  []any{"a"},
		"inner": map[string]any{"k": 1},
	})
	require.NotNil(t, filter)
	assert.Len(t, filter.Must, 4)
	assert.Equal(t, query.Where{"tags": []any{"a"}, "inner": map[string]any{"k": 1}}, residual)

	// keys are sorted: age, gone, name, ok
	r := filter.Must[0].GetField().GetRange()
	require.NotNil(t, r)
	assert.Equal(t, 30.0, r.GetGte())
	assert.Equal(t, 30.0, r.GetLte())
	assert.NotNil(t, filter.Must[1].GetFilter())
	assert.Equal(t, "John", filter.Must[2].GetField().GetMatch().GetKeyword())
	assert.True(t, filter.Must[3].GetField().GetMatch().GetBoolean())

	filter, residual = convertWhere(query.Where{"tags": []any{"a"}})
	assert.Nil(t, filter)
	assert.Len(t, residual, 1)
}

func TestConvertWhere_LargeIntegersStayExact(t *testing.T) {
	filter, residual := convertWhere(query.Where{"id": "A", "n": int64(9007199254740993)})
	require.NotNil(t, filter)
	assert.Len(t, filter.Must, 1)
	assert.Equal(t, query.Where{"n": int64(9007199254740993)}, residual)

	rows := []query.Object{
		{"id": "A", "n": int64(9007199254740993)},
		{"id": "A", "n": int64(9007199254740992)},
	}
	assert.Len(t, query.Filter(rows, residual), 1)
}

func TestPayloadRoundTrip(t *testing.T) {
	obj := query.Object{
		"s":    "x",
		"i":    7,
		"f":    1.5,
		"b":    false,
		"n":    nil,
		"list": []any{"a", 2},
		"obj":  map[string]any{"k": "v"},
	}
	payload, err := toPayload(obj)
	require.NoError(t, err)
	assert.IsType(t, &qdrant.Value_IntegerValue{}, payload["i"].Kind)

	back := fromPayload(payload)
	for k, v := range obj {
		assert.True(t, query.Equal(v, back[k]), "field %s: %#v != %#v", k, v, back[k])
	}

	_, err = toPayload(query.Object{"ch": make(chan int)})
	assert.ErrorIs(t, err, store.ErrUnsupportedValue)
}

func TestPointID(t *testing.T) {
	assert.Equal(t, "00000000000000000042", pointID(qdrant.NewIDNum(42)))
	assert.Equal(t, "5c56c793-69f3-4fbf-87e6-c4bf54c28c26", pointID(qdrant.NewID("5c56c793-69f3-4fbf-87e6-c4bf54c28c26")))
	assert.Empty(t, pointID(nil))
}

func TestVectorSize_FollowsEmbedder(t *testing.T) {
	ix, err := index.New("t", index.EmbedderFunc(func(context.Context, string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}))
	require.NoError(t, err)
	require.Equal(t, index.DefaultVectorLength, ix.VectorLength())

	size, err := vectorSize(context.Background(), ix)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), size)

	empty, err := index.New("t", index.EmbedderFunc(func(context.Context, string) ([]float32, error) {
		return nil, nil
	}))
	require.NoError(t, err)
	_, err = vectorSize(context.Background(), empty)
	assert.ErrorIs(t, err, store.ErrInvalidConfig)
}
