package client

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
	"github.com/Aleph-Alpha/polystore/v1/stores/docstore"
)

var errStub = errors.New("stub failure")

// stubPersister persists nothing and fails the operations it is told to.
type stubPersister struct {
	mu         sync.Mutex
	failDrop   bool
	failClose  bool
	closed     int
	closeCtxOK bool
	wait       <-chan struct{}
	done       chan<- struct{}
}

func (p *stubPersister) List(context.Context) ([]string, error) { return nil, nil }
func (p *stubPersister) Load(context.Context, string) ([]query.Object, error) { return nil, nil }
func (p *stubPersister) Save(context.Context, string, []query.Object) error { return nil }
func (p *stubPersister) Remove(context.Context, string) error { return nil }

func (p *stubPersister) RemoveAll(context.Context) error {
	if p.failDrop {
		return errStub
	}
	return nil
}

func (p *stubPersister) Close(ctx context.Context) error {
	if p.wait != nil {
		<-p.wait
		time.Sleep(20 * time.Millisecond)
	}
	p.mu.Lock()
	p.closed++
	p.closeCtxOK = ctx.Err() == nil
	p.mu.Unlock()
	if p.done != nil {
		close(p.done)
	}
	if p.failClose {
		return errStub
	}
	return nil
}

// stubRegistry serves the "stub" scheme, handing out one persister per alias.
func stubRegistry(persisters map[string]*stubPersister) *store.Registry {
	r := store.NewRegistry()
	r.Register("stub", func(_ context.Context, loc store.Locator, opts store.Options) (store.Database, error) {
		return docstore.New(loc, opts, persisters[opts.Alias]), nil
	})
	return r
}

func TestAttachDatabase_BareSchemeIsAlias(t *testing.T) {
	ctx := context.Background()
	c := New()
	defer c.Close(ctx)

	db, err := c.AttachDatabase(ctx, "sqlite")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", db.Alias())
	assert.Equal(t, "sqlite", db.Scheme())
	assert.Equal(t, []string{"sqlite"}, c.Aliases())
	assert.Equal(t, c, db.Parent())
}

func TestAttachDatabase_UnknownScheme(t *testing.T) {
	ctx := context.Background()
	c := New()

	_, err := c.AttachDatabase(ctx, "nosuchdb:///x", WithAlias("x"))
	assert.ErrorIs(t, err, store.ErrUnknownScheme)
	assert.Empty(t, c.Databases())
}

func TestDatabase_RequiresExactlyOne(t *testing.T) {
	ctx := context.Background()
	c := New()
	defer c.Close(ctx)

	_, err := c.Database(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = c.AttachDatabase(ctx, "memory", WithAlias("a"))
	require.NoError(t, err)
	db, err := c.GetDatabase(ctx, "", false)
	require.NoError(t, err)
	assert.Equal(t, "a", db.Alias())

	_, err = c.AttachDatabase(ctx, "memory", WithAlias("b"))
	require.NoError(t, err)
	_, err = c.Database(ctx)
	assert.ErrorIs(t, err, store.ErrAmbiguous)
}

func TestGetDatabase_CreateIfNotExists(t *testing.T) {
	ctx := context.Background()
	c := New()
	defer c.Close(ctx)

	_, err := c.GetDatabase(ctx, "memory", false)
	assert.ErrorIs(t, err, store.ErrNotFound)

	db, err := c.GetDatabase(ctx, "memory", true)
	require.NoError(t, err)
	assert.Equal(t, "memory", db.Alias())

	again, err := c.GetDatabase(ctx, "memory", false)
	require.NoError(t, err)
	assert.Same(t, db, again)
}

func TestAttachDatabase_ReplacesAlias(t *testing.T) {
	ctx := context.Background()
	c := New()
	defer c.Close(ctx)

	first, err := c.AttachDatabase(ctx, "memory", WithAlias("t"))
	require.NoError(t, err)
	second, err := c.AttachDatabase(ctx, "sqlite", WithAlias("t"))
	require.NoError(t, err)

	db, err := c.GetDatabase(ctx, "t", false)
	require.NoError(t, err)
	assert.Same(t, second, db)

	_, err = first.ListCollections(ctx)
	assert.ErrorIs(t, err, store.ErrClosed)
}

func TestAttachDatabase_InconsistentAlias(t *testing.T) {
	ctx := context.Background()
	c := New()

	_, err := c.AttachDatabase(ctx, "memory",
		WithAlias("a"),
		WithDatabaseConfig(store.DatabaseConfig{Handle: "memory", Alias: "b"}))
	assert.ErrorIs(t, err, store.ErrInconsistentAlias)
	assert.Empty(t, c.Databases())
}

func TestPersonScenario(t *testing.T) {
	ctx := context.Background()
	c := New()
	defer c.Close(ctx)

	db, err := c.AttachDatabase(ctx, "sqlite", WithAlias("t"))
	require.NoError(t, err)
	coll, err := db.CreateCollection(ctx, "Person")
	require.NoError(t, err)
	require.NoError(t, coll.Insert(ctx,
		query.Object{"id": "P1", "name": "John", "age": 30},
		query.Object{"id": "P2", "name": "Alice", "age": 25},
	))

	res, err := coll.Find(ctx, query.Where{}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NumRows)

	res, err = db.Query(ctx, query.New("Person").WithWhere(query.Where{"name": "John"}))
	require.NoError(t, err)
	require.Equal(t, 1, res.NumRows)
	assert.Equal(t, "P1", res.Rows[0]["id"])

	n, err := coll.DeleteWhere(ctx, query.Where{"name": "John"}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	res, err = coll.Find(ctx, query.Where{}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.NumRows)
}

func TestDropDatabase_RemovesAliasAndFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "people.db")
	c := New()
	defer c.Close(ctx)

	db, err := c.AttachDatabase(ctx, "sqlite://"+path, WithAlias("people"))
	require.NoError(t, err)
	_, err = db.CreateCollection(ctx, "Person")
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, c.DropDatabase(ctx, "people", false))
	assert.Empty(t, c.Databases())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	_, err = c.AttachDatabase(ctx, "memory")
	require.NoError(t, err)
	assert.ErrorIs(t, c.DropDatabase(ctx, "people", false), store.ErrNotFound)
	assert.NoError(t, c.DropDatabase(ctx, "people", true))
}

func TestDropDatabase_UnattachedHandle(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "old.db")

	seed := New()
	db, err := seed.AttachDatabase(ctx, "sqlite://"+path)
	require.NoError(t, err)
	_, err = db.CreateCollection(ctx, "x")
	require.NoError(t, err)
	require.NoError(t, seed.Close(ctx))

	c := New()
	require.NoError(t, c.DropDatabase(ctx, "sqlite://"+path, false))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDropAllDatabases(t *testing.T) {
	ctx := context.Background()
	c := New()
	for _, alias := range []string{"a", "b", "c"} {
		_, err := c.AttachDatabase(ctx, "memory", WithAlias(alias))
		require.NoError(t, err)
	}
	require.NoError(t, c.DropAllDatabases(ctx))
	assert.Empty(t, c.Databases())
}

func TestAttachDatabase_Recreate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "r.db")
	c := New()
	defer c.Close(ctx)

	db, err := c.AttachDatabase(ctx, "sqlite://"+path, WithAlias("r"))
	require.NoError(t, err)
	coll, err := db.CreateCollection(ctx, "Person")
	require.NoError(t, err)
	require.NoError(t, coll.Insert(ctx, query.Object{"name": "John"}))

	db, err = c.AttachDatabase(ctx, "sqlite://"+path, WithAlias("r"), WithRecreateIfExists(true))
	require.NoError(t, err)
	names, err := db.ListCollectionNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestFromConfig(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.yaml"), []byte(`
id: https://example.org/people
name: people
classes:
  Person:
    attributes:
      name:
        range: string
`), 0o644))

	cfg, err := ParseConfig([]byte(`
base_dir: ` + dir + `
databases:
  people:
    handle: "sqlite:///{base_dir}/people.db"
    schema_location: "{base_dir}/schema.yaml"
    collections:
      Person:
        attributes:
          age:
            range: integer
  scratch:
    handle: memory
`))
	require.NoError(t, err)

	c := New()
	defer c.Close(ctx)
	require.NoError(t, c.FromConfig(ctx, cfg))
	assert.Equal(t, []string{"people", "scratch"}, c.Aliases())
	assert.Equal(t, dir, c.BaseDir())

	db, err := c.GetDatabase(ctx, "people", false)
	require.NoError(t, err)
	assert.Equal(t, "people", db.Config().Alias)

	names, err := db.ListCollectionNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Person"}, names)

	class := db.SchemaView().Class("Person")
	require.NotNil(t, class)
	assert.Contains(t, class.Attributes, "name")
	assert.Contains(t, class.Attributes, "age")

	_, err = os.Stat(filepath.Join(dir, "people.db"))
	assert.NoError(t, err)
}

func TestGetDatabase_FromConfigOnDemand(t *testing.T) {
	ctx := context.Background()
	c := New()
	defer c.Close(ctx)

	cfg := &Config{Databases: map[string]store.DatabaseConfig{}}
	require.NoError(t, c.FromConfig(ctx, cfg))
	cfg.Databases["later"] = store.DatabaseConfig{Handle: "memory"}

	db, err := c.GetDatabase(ctx, "later", false)
	require.NoError(t, err)
	assert.Equal(t, "later", db.Alias())
}

func TestParseConfig_Invalid(t *testing.T) {
	_, err := ParseConfig([]byte("databases:\n  x:\n    alias: y\n    handle: memory\n"))
	assert.ErrorIs(t, err, store.ErrInconsistentAlias)

	_, err = ParseConfig([]byte("databases:\n  x:\n    handle: \"\"\n"))
	assert.ErrorIs(t, err, store.ErrInvalidConfig)
}

func TestClose_EmptiesRegistry(t *testing.T) {
	ctx := context.Background()
	c := New()
	db, err := c.AttachDatabase(ctx, "memory")
	require.NoError(t, err)
	require.NoError(t, c.Close(ctx))
	assert.Empty(t, c.Databases())

	_, err = db.ListCollections(ctx)
	assert.ErrorIs(t, err, store.ErrClosed)
}

func TestAttachDatabase_RecreateClosesOnDropFailure(t *testing.T) {
	ctx := context.Background()
	p := &stubPersister{failDrop: true}
	c := New(WithRegistry(stubRegistry(map[string]*stubPersister{"s": p})))

	_, err := c.AttachDatabase(ctx, "stub:///s", WithAlias("s"), WithRecreateIfExists(true))
	require.ErrorIs(t, err, errStub)
	assert.Empty(t, c.Databases())
	assert.Equal(t, 1, p.closed)
}

func TestDropDatabase_UnattachedHandleClosesOnDropFailure(t *testing.T) {
	ctx := context.Background()
	p := &stubPersister{failDrop: true}
	c := New(WithRegistry(stubRegistry(map[string]*stubPersister{"stub:///s": p})))

	require.ErrorIs(t, c.DropDatabase(ctx, "stub:///s", false), errStub)
	assert.Equal(t, 1, p.closed)
}

func TestClose_FailureDoesNotCancelOthers(t *testing.T) {
	ctx := context.Background()
	failed := make(chan struct{})
	bad := &stubPersister{failClose: true, done: failed}
	good := &stubPersister{wait: failed}
	c := New(WithRegistry(stubRegistry(map[string]*stubPersister{"bad": bad, "good": good})))

	_, err := c.AttachDatabase(ctx, "stub:///bad", WithAlias("bad"))
	require.NoError(t, err)
	_, err = c.AttachDatabase(ctx, "stub:///good", WithAlias("good"))
	require.NoError(t, err)

	require.ErrorIs(t, c.Close(ctx), errStub)
	assert.Equal(t, 1, good.closed)
	assert.True(t, good.closeCtxOK, "close context was cancelled by a sibling failure")
	assert.Empty(t, c.Databases())
}
