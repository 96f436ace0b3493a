package docstore

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
)

// mapPersister keeps saved collections in a map and counts saves.
type mapPersister struct {
	mu      sync.Mutex
	data    map[string][]query.Object
	saves   int
	removed bool
	closed  bool
}

func newMapPersister() *mapPersister {
	return &mapPersister{data: map[string][]query.Object{}}
}

func (p *mapPersister) List(context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var names []string
	for n := range p.data {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (p *mapPersister) Load(_ context.Context, name string) ([]query.Object, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]query.Object(nil), p.data[name]...), nil
}

func (p *mapPersister) Save(_ context.Context, name string, rows []query.Object) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data[name] = append([]query.Object(nil), rows...)
	p.saves++
	return nil
}

func (p *mapPersister) Remove(_ context.Context, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.data, name)
	return nil
}

func (p *mapPersister) RemoveAll(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = map[string][]query.Object{}
	p.removed = true
	return nil
}

func (p *mapPersister) Close(context.Context) error {
	p.closed = true
	return nil
}

func newDB(t *testing.T, p Persister) *Database {
	t.Helper()
	loc, err := store.ParseLocator("test:///x")
	require.NoError(t, err)
	return New(loc, store.Options{Alias: "x"}, p)
}

func TestDelete_OrAcrossObjectsAndAndWithinObject(t *testing.T) {
	ctx := context.Background()
	db := newDB(t, nil)
	c, err := db.CreateCollection(ctx, "t")
	require.NoError(t, err)

	require.NoError(t, c.Insert(ctx,
		query.Object{"id": 1, "color": "red"},
		query.Object{"id": 2, "color": "blue"},
		query.Object{"id": 3, "color": "red"},
	))

	// matches nothing: id=2 is blue
	n, err := c.Delete(ctx, query.Object{"id": 2, "color": "red"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = c.Delete(ctx, query.Object{"id": 1}, query.Object{"color": "blue"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	res, err := c.Query(ctx, query.New("t"))
	require.NoError(t, err)
	require.Equal(t, 1, res.NumRows)
	assert.Equal(t, 3, res.Rows[0]["id"])
}

func TestDelete_EmptyIsNoop(t *testing.T) {
	ctx := context.Background()
	db := newDB(t, nil)
	c, err := db.CreateCollection(ctx, "t")
	require.NoError(t, err)
	require.NoError(t, c.Insert(ctx, query.Object{"a": 1}))

	n, err := c.Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDelete_RemovesDuplicates(t *testing.T) {
	ctx := context.Background()
	db := newDB(t, nil)
	c, err := db.CreateCollection(ctx, "t")
	require.NoError(t, err)
	require.NoError(t, c.Insert(ctx, query.Object{"a": 1}, query.Object{"a": 1}, query.Object{"a": 2}))

	n, err := c.Delete(ctx, query.Object{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDeleteWhere_MissingOK(t *testing.T) {
	ctx := context.Background()
	db := newDB(t, nil)
	c, err := db.CreateCollection(ctx, "t")
	require.NoError(t, err)
	require.NoError(t, c.Insert(ctx, query.Object{"a": 1}, query.Object{"a": 2}))

	n, err := c.DeleteWhere(ctx, query.Where{}, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = c.DeleteWhere(ctx, query.Where{}, true)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = c.DeleteWhere(ctx, query.Where{}, false)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInsert_EmptyIsNoop(t *testing.T) {
	ctx := context.Background()
	p := newMapPersister()
	db := newDB(t, p)
	c, err := db.CreateCollection(ctx, "t")
	require.NoError(t, err)
	require.NoError(t, db.Commit(ctx))
	saves := p.saves

	require.NoError(t, c.Insert(ctx))
	require.NoError(t, db.Commit(ctx))
	assert.Equal(t, saves, p.saves)
}

func TestCommit_WritesOnlyDirtyCollections(t *testing.T) {
	ctx := context.Background()
	p := newMapPersister()
	db := newDB(t, p)

	a, err := db.CreateCollection(ctx, "a")
	require.NoError(t, err)
	_, err = db.CreateCollection(ctx, "b")
	require.NoError(t, err)
	require.NoError(t, db.Commit(ctx))
	assert.Equal(t, 2, p.saves)

	require.NoError(t, a.Insert(ctx, query.Object{"x": 1}))
	assert.Empty(t, p.data["a"], "writes are buffered until commit")

	require.NoError(t, db.Commit(ctx))
	assert.Equal(t, 3, p.saves)
	assert.Len(t, p.data["a"], 1)
}

func TestOpen_DiscoversPersistedCollections(t *testing.T) {
	ctx := context.Background()
	p := newMapPersister()
	p.data["Person"] = []query.Object{{"id": "P1", "age": float64(30)}}

	db := newDB(t, p)
	names, err := db.ListCollectionNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Person"}, names)

	res, err := db.Query(ctx, query.New("Person").WithWhere(query.Where{"age": 30}))
	require.NoError(t, err)
	assert.Equal(t, 1, res.NumRows)
}

func TestClose_FlushesAndCloses(t *testing.T) {
	ctx := context.Background()
	p := newMapPersister()
	db := newDB(t, p)
	c, err := db.CreateCollection(ctx, "t")
	require.NoError(t, err)
	require.NoError(t, c.Insert(ctx, query.Object{"x": 1}))

	require.NoError(t, db.Close(ctx))
	assert.True(t, p.closed)
	assert.Len(t, p.data["t"], 1)

	assert.ErrorIs(t, c.Insert(ctx, query.Object{"x": 2}), store.ErrClosed)
}

func TestDrop_RemovesPersistedState(t *testing.T) {
	ctx := context.Background()
	p := newMapPersister()
	db := newDB(t, p)
	_, err := db.CreateCollection(ctx, "t")
	require.NoError(t, err)
	require.NoError(t, db.Commit(ctx))

	require.NoError(t, db.Drop(ctx))
	assert.True(t, p.removed)
	assert.Empty(t, p.data)
}

func TestCollectionDrop_Forgets(t *testing.T) {
	ctx := context.Background()
	p := newMapPersister()
	db := newDB(t, p)
	c, err := db.CreateCollection(ctx, "t")
	require.NoError(t, err)
	require.NoError(t, db.Commit(ctx))

	require.NoError(t, c.Drop(ctx))
	_, err = db.GetCollection(ctx, "t", false)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, ok := p.data["t"]
	assert.False(t, ok)
}

func TestRows_AreNotShared(t *testing.T) {
	ctx := context.Background()
	db := newDB(t, nil)
	c, err := db.CreateCollection(ctx, "t")
	require.NoError(t, err)

	obj := query.Object{"id": 1, "meta": map[string]any{"tag": "a"}, "vec": []float32{1, 2}}
	require.NoError(t, c.Insert(ctx, obj))
	obj["id"] = 2
	obj["meta"].(map[string]any)["tag"] = "changed"
	obj["vec"].([]float32)[0] = 9

	res, err := c.Query(ctx, query.New("t"))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	res.Rows[0]["id"] = 3
	res.Rows[0]["meta"].(map[string]any)["tag"] = "changed"

	res, err = c.Query(ctx, query.New("t"))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 1, res.Rows[0]["id"])
	assert.Equal(t, map[string]any{"tag": "a"}, res.Rows[0]["meta"])
	assert.Equal(t, []float32{1, 2}, res.Rows[0]["vec"])

	projected, err := c.Query(ctx, query.New("t").WithSelect("meta"))
	require.NoError(t, err)
	projected.Rows[0]["meta"].(map[string]any)["tag"] = "changed"

	res, err = c.Query(ctx, query.New("t"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"tag": "a"}, res.Rows[0]["meta"])
}
