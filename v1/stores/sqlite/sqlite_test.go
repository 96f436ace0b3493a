package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
)

func open(t *testing.T, handle string) store.Database {
	t.Helper()
	r := store.NewRegistry()
	Register(r)
	db, err := r.Open(context.Background(), handle, store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(context.Background()) })
	return db
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		handle string
		want   string
	}{
		{"sqlite", MemoryPath},
		{"sqlite:///:memory:", MemoryPath},
		{"sqlite:///data/people.db", "/data/people.db"},
		{"sqlite:////data/people.db", "/data/people.db"},
		{"sqlite:people.db", "people.db"},
		{"sqlite://rel/people.db", "rel/people.db"},
	}
	for _, tt := range tests {
		loc, err := store.ParseLocator(tt.handle)
		require.NoError(t, err)
		if got := resolvePath(loc); got != tt.want {
			t.Errorf("resolvePath(%q) = %q, want %q", tt.handle, got, tt.want)
		}
	}
}

func TestPersonScenario(t *testing.T) {
	ctx := context.Background()
	db := open(t, "sqlite:///:memory:")

	c, err := db.CreateCollection(ctx, "Person")
	require.NoError(t, err)
	require.NoError(t, c.Insert(ctx,
		query.Object{"id": "P1", "name": "John", "age": 30},
		query.Object{"id": "P2", "name": "Alice", "age": 25},
	))

	res, err := c.Query(ctx, query.New("Person"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.NumRows)

	res, err = c.Find(ctx, query.Where{"name": "John"}, 0)
	require.NoError(t, err)
	require.Equal(t, 1, res.NumRows)
	assert.Equal(t, "P1", res.Rows[0]["id"])

	n, err := c.DeleteWhere(ctx, query.Where{"name": "John"}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	res, err = c.Query(ctx, query.New("Person"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.NumRows)
}

func TestQuery_NumRowsIndependentOfLimit(t *testing.T) {
	ctx := context.Background()
	db := open(t, "sqlite")
	c, err := db.CreateCollection(ctx, "n")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, c.Insert(ctx, query.Object{"i": i}))
	}

	res, err := c.Query(ctx, query.New("n").WithLimit(2).WithOffset(1))
	require.NoError(t, err)
	assert.Equal(t, 5, res.NumRows)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, int64(1), res.Rows[0]["i"])

	res, err = c.Query(ctx, query.New("n").WithSort(query.SortField{Field: "i", Desc: true}).WithLimit(2))
	require.NoError(t, err)
	assert.Equal(t, 5, res.NumRows)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, int64(4), res.Rows[0]["i"])

	_, err = c.Query(ctx, query.New("n").WithLimit(-1))
	assert.ErrorIs(t, err, store.ErrInvalidQuery)
}

func TestFilter_TypesDoNotMix(t *testing.T) {
	ctx := context.Background()
	db := open(t, "sqlite")
	c, err := db.CreateCollection(ctx, "v")
	require.NoError(t, err)
	require.NoError(t, c.Insert(ctx,
		query.Object{"id": "a", "v": true},
		query.Object{"id": "b", "v": 1},
		query.Object{"id": "c", "v": "1"},
		query.Object{"id": "d", "v": nil},
		query.Object{"id": "e"},
		query.Object{"id": "f", "v": []any{1, 2}},
	))

	cases := []struct {
		value any
		want  []string
	}{
		{true, []string{"a"}},
		{1, []string{"b"}},
		{1.0, []string{"b"}},
		{"1", []string{"c"}},
		{nil, []string{"d", "e"}},
		{[]any{1, 2}, []string{"f"}},
	}
	for _, tc := range cases {
		res, err := c.Find(ctx, query.Where{"v": tc.value}, 0)
		require.NoError(t, err)
		var ids []string
		for _, row := range res.Rows {
			ids = append(ids, row["id"].(string))
		}
		assert.Equal(t, tc.want, ids, "value %#v", tc.value)
	}
}

func TestDelete_Semantics(t *testing.T) {
	ctx := context.Background()
	db := open(t, "sqlite")
	c, err := db.CreateCollection(ctx, "t")
	require.NoError(t, err)
	require.NoError(t, c.Insert(ctx,
		query.Object{"id": 1, "color": "red"},
		query.Object{"id": 2, "color": "blue"},
		query.Object{"id": 3, "color": "red"},
	))

	n, err := c.Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = c.Delete(ctx, query.Object{"id": 2, "color": "red"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// row 1 is matched by both objects but removed once
	n, err = c.Delete(ctx, query.Object{"id": 1}, query.Object{"color": "red", "id": 1}, query.Object{"color": "blue"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = c.DeleteWhere(ctx, query.Where{"color": "green"}, false)
	assert.ErrorIs(t, err, store.ErrNotFound)

	n, err = c.DeleteWhere(ctx, query.Where{"color": "green"}, true)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestFileDatabase_PersistsAndDropRemovesFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sub", "people.db")
	handle := "sqlite://" + path

	db := open(t, handle)
	c, err := db.CreateCollection(ctx, "Person")
	require.NoError(t, err)
	require.NoError(t, c.Insert(ctx, query.Object{"name": "John"}))
	require.NoError(t, db.Close(ctx))

	db = open(t, handle)
	names, err := db.ListCollectionNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Person"}, names)

	res, err := db.Query(ctx, query.New("Person"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.NumRows)

	require.NoError(t, db.Drop(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	_, err = db.ListCollections(ctx)
	assert.ErrorIs(t, err, store.ErrClosed)
}

func TestCollectionDrop(t *testing.T) {
	ctx := context.Background()
	db := open(t, "sqlite")
	c, err := db.CreateCollection(ctx, "gone")
	require.NoError(t, err)
	require.NoError(t, c.Drop(ctx))

	_, err = db.GetCollection(ctx, "gone", false)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLargeIntegers_MatchExactly(t *testing.T) {
	ctx := context.Background()
	db := open(t, "sqlite")
	c, err := db.CreateCollection(ctx, "ids")
	require.NoError(t, err)

	const a, b = int64(9007199254740993), int64(9007199254740992)
	require.NoError(t, c.Insert(ctx,
		query.Object{"id": "A", "n": a},
		query.Object{"id": "B", "n": b},
	))

	res, err := c.Find(ctx, query.Where{"n": a}, 0)
	require.NoError(t, err)
	require.Equal(t, 1, res.NumRows)
	assert.Equal(t, "A", res.Rows[0]["id"])
	assert.Equal(t, a, res.Rows[0]["n"])

	n, err := c.Delete(ctx, query.Object{"id": "A", "n": a})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	res, err = c.Find(ctx, nil, 0)
	require.NoError(t, err)
	require.Equal(t, 1, res.NumRows)
	assert.Equal(t, b, res.Rows[0]["n"])
}
