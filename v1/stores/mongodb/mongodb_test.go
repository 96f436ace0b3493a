package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
)

func TestURIFromLocator(t *testing.T) {
	tests := []struct {
		handle string
		uri    string
		db     string
	}{
		{"mongodb", DefaultURI, DefaultDatabase},
		{"mongodb://localhost:27017/people", "mongodb://localhost:27017/", "people"},
		{"mongodb://u:p@mongo:27017/", "mongodb://u:p@mongo:27017/", DefaultDatabase},
		{"mongodb://mongo/x?replicaSet=rs0", "mongodb://mongo/?replicaSet=rs0", "x"},
	}
	for _, tt := range tests {
		loc, err := store.ParseLocator(tt.handle)
		require.NoError(t, err)
		uri, db, err := URIFromLocator(loc)
		require.NoError(t, err)
		assert.Equal(t, tt.uri, uri, tt.handle)
		assert.Equal(t, tt.db, db, tt.handle)
	}

	loc, err := store.ParseLocator("mongodb:people")
	require.NoError(t, err)
	_, _, err = URIFromLocator(loc)
	assert.ErrorIs(t, err, store.ErrInvalidLocator)
}

func TestToFilter_SortedKeys(t *testing.T) {
	f := toFilter(query.Where{"b": 2, "a": nil})
	assert.Equal(t, bson.D{{Key: "a", Value: nil}, {Key: "b", Value: 2}}, f)
	assert.Empty(t, toFilter(nil))
}

func TestToFilter_NestedObjectsEncodeStably(t *testing.T) {
	where := query.Where{"meta": map[string]any{
		"z": 1, "y": 2, "x": 3, "w": 4, "v": map[string]any{"q": 1, "p": 2},
		"list": []any{map[string]any{"d": 1, "c": 2}},
	}}
	want, err := bson.Marshal(toFilter(where))
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		got, err := bson.Marshal(toFilter(where))
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	meta := toFilter(where)[0].Value.(bson.D)
	keys := make([]string, len(meta))
	for i, e := range meta {
		keys[i] = e.Key
	}
	assert.Equal(t, []string{"list", "v", "w", "x", "y", "z"}, keys)
	assert.Equal(t, bson.A{bson.D{{Key: "c", Value: 2}, {Key: "d", Value: 1}}}, meta[0].Value)
}

func TestToDocument_MatchesFilterEncoding(t *testing.T) {
	obj := query.Object{"id": "a", "meta": map[string]any{"b": 1, "a": 2}}
	doc, err := bson.Marshal(toDocument(obj)[1].Value)
	require.NoError(t, err)
	filter, err := bson.Marshal(toFilter(query.FilterFromObject(obj))[1].Value)
	require.NoError(t, err)
	assert.Equal(t, doc, filter)
}

func TestPlain(t *testing.T) {
	id := primitive.NewObjectID()
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	got := toObject(bson.M{
		"_id":   id,
		"ref":   id,
		"tags":  bson.A{"x", bson.M{"k": int32(1)}},
		"inner": bson.D{{Key: "n", Value: int64(2)}},
		"when":  primitive.NewDateTimeFromTime(ts),
	})

	_, hasID := got["_id"]
	assert.False(t, hasID)
	assert.Equal(t, id.Hex(), got["ref"])
	assert.Equal(t, []any{"x", map[string]any{"k": int32(1)}}, got["tags"])
	assert.Equal(t, map[string]any{"n": int64(2)}, got["inner"])
	assert.Equal(t, ts, got["when"])
}
