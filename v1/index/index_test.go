package index

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// axisEmbedder maps a few known words to unit vectors so scores are exact.
var axisEmbedder = EmbedderFunc(func(_ context.Context, text string) ([]float32, error) {
	switch text {
	case "x":
		return []float32{1, 0, 0}, nil
	case "y":
		return []float32{0, 1, 0}, nil
	case "xy":
		return []float32{1, 1, 0}, nil
	case "zero":
		return []float32{0, 0, 0}, nil
	}
	return nil, errors.New("unknown text")
})

func TestCosineSimilarity(t *testing.T) {
	s, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s, 1e-9)

	s, err = CosineSimilarity([]float32{1, 0}, []float32{-1, 0})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, s, 1e-9)

	s, err = CosineSimilarity([]float32{1, 1}, []float32{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1/math.Sqrt2, s, 1e-6)
}

func TestCosineSimilarity_DomainErrors(t *testing.T) {
	_, err := CosineSimilarity([]float32{0, 0}, []float32{1, 0})
	assert.ErrorIs(t, err, ErrZeroVector)

	_, err = CosineSimilarity([]float32{1}, []float32{1, 0})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestObjectToText_JSONFallbackDropsNulls(t *testing.T) {
	ix, err := New("t", nil)
	require.NoError(t, err)

	text, err := ix.ObjectToText(map[string]any{"name": "John", "age": 30, "city": nil})
	require.NoError(t, err)
	assert.Equal(t, `{"age":30,"name":"John"}`, text)
}

func TestObjectToText_KeepNulls(t *testing.T) {
	ix, err := New("t", nil, WithKeepNulls(true))
	require.NoError(t, err)

	text, err := ix.ObjectToText(map[string]any{"city": nil})
	require.NoError(t, err)
	assert.Equal(t, `{"city":null}`, text)
}

func TestObjectToText_AttributesAndTemplate(t *testing.T) {
	ix, err := New("t", nil,
		WithAttributes("name", "age"),
		WithTextTemplate("{{.name}} is {{.age}}"),
	)
	require.NoError(t, err)

	text, err := ix.ObjectToText(map[string]any{"name": "Alice", "age": 25, "id": "P2"})
	require.NoError(t, err)
	assert.Equal(t, "Alice is 25", text)
}

func TestNew_InvalidTemplate(t *testing.T) {
	_, err := New("t", nil, WithTextTemplate("{{.name"))
	assert.Error(t, err)
}

func TestNoEmbedder_NotImplemented(t *testing.T) {
	ix, err := New("t", nil)
	require.NoError(t, err)

	_, err = ix.TextToVector(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotImplemented)
	_, err = ix.ObjectToVector(context.Background(), map[string]any{"a": 1})
	assert.ErrorIs(t, err, ErrNotImplemented)
	_, err = ix.Search(context.Background(), "x", nil, 0)
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestSearch_RanksDescending(t *testing.T) {
	ix, err := New("t", axisEmbedder)
	require.NoError(t, err)

	candidates := []Candidate{
		{ID: "a", Vector: []float32{0, 1, 0}},
		{ID: "b", Vector: []float32{1, 0, 0}},
		{ID: "c", Vector: []float32{1, 1, 0}},
	}
	hits, err := ix.Search(context.Background(), "x", candidates, 0)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "b", hits[0].ID)
	assert.Equal(t, "c", hits[1].ID)
	assert.Equal(t, "a", hits[2].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}

func TestSearch_StableTiesAndLimit(t *testing.T) {
	ix, err := New("t", axisEmbedder)
	require.NoError(t, err)

	candidates := []Candidate{
		{ID: "first", Vector: []float32{0, 1, 0}},
		{ID: "second", Vector: []float32{0, 2, 0}},
		{ID: "third", Vector: []float32{0, 3, 0}},
	}
	for i := 0; i < 5; i++ {
		hits, err := ix.Search(context.Background(), "y", candidates, 2)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, "first", hits[0].ID)
		assert.Equal(t, "second", hits[1].ID)
	}
}

func TestSearch_ZeroCandidateIsError(t *testing.T) {
	ix, err := New("t", axisEmbedder)
	require.NoError(t, err)

	_, err = ix.Search(context.Background(), "x", []Candidate{{ID: "z", Vector: []float32{0, 0, 0}}}, 0)
	assert.ErrorIs(t, err, ErrZeroVector)

	_, err = ix.Search(context.Background(), "zero", []Candidate{{ID: "a", Vector: []float32{1, 0, 0}}}, 0)
	assert.ErrorIs(t, err, ErrZeroVector)
}

func TestObjectsToVectors_UsesEmbedderPerObject(t *testing.T) {
	ix, err := New("t", axisEmbedder, WithTextTemplate("{{.k}}"))
	require.NoError(t, err)

	vecs, err := ix.ObjectsToVectors(context.Background(), []map[string]any{{"k": "x"}, {"k": "y"}})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0, 0}, {0, 1, 0}}, vecs)
}

func TestFromConfig(t *testing.T) {
	ix, err := FromConfig(Config{Name: "people", Metric: Dot, VectorLength: 8}, axisEmbedder)
	require.NoError(t, err)
	assert.Equal(t, Dot, ix.Metric())
	assert.Equal(t, 8, ix.VectorLength())
	assert.Equal(t, DefaultIndexField, ix.IndexField())

	_, err = FromConfig(Config{Name: "bad", Metric: "manhattan"}, nil)
	assert.ErrorIs(t, err, ErrUnknownMetric)
}
