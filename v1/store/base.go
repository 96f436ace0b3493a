package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Aleph-Alpha/polystore/v1/index"
	"github.com/Aleph-Alpha/polystore/v1/index/ngram"
	"github.com/Aleph-Alpha/polystore/v1/observability"
	"github.com/Aleph-Alpha/polystore/v1/query"
)

// DefaultIndexName is the name of the index a database uses for search when
// none was configured.
const DefaultIndexName = "simple"

// Base implements the parts of Database that do not depend on the native
// store. Adapters embed *Base and provide a Driver.
type Base struct {
	// createMu serialises collection creation and discovery; mu guards the
	// fields below and is never held across Driver calls.
	createMu sync.Mutex
	mu       sync.Mutex

	driver   Driver
	loc      Locator
	alias    string
	parent   Parent
	logger   Logger
	observer observability.Observer
	tracer   Tracer
	embedder index.Embedder

	cfg         DatabaseConfig
	schema      *Schema
	ix          *index.Index
	collections map[string]Collection
	discovered  bool
	closed      bool
}

// NewBase returns the shared state of a database opened from loc.
func NewBase(driver Driver, loc Locator, opts Options) *Base {
	alias := opts.Alias
	if alias == "" {
		alias = DefaultAlias(loc)
	}
	lg := opts.Logger
	if lg == nil {
		lg = nopLogger{}
	}
	return &Base{
		driver:      driver,
		loc:         loc,
		alias:       alias,
		parent:      opts.Parent,
		logger:      lg,
		observer:    opts.Observer,
		tracer:      opts.Tracer,
		embedder:    opts.Embedder,
		cfg:         DatabaseConfig{Handle: loc.Raw, Alias: alias},
		collections: map[string]Collection{},
	}
}

// Alias returns the name the database is registered under.
func (b *Base) Alias() string { return b.alias }

// Handle returns the handle the database was opened from.
func (b *Base) Handle() string { return b.loc.Raw }

// Scheme returns the locator scheme, which names the adapter.
func (b *Base) Scheme() string { return b.loc.Scheme }

// Locator returns the parsed handle.
func (b *Base) Locator() Locator { return b.loc }

// Logger returns the database logger; never nil.
func (b *Base) Logger() Logger { return b.logger }

// Parent returns the client the database is attached to, if any.
func (b *Base) Parent() Parent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.parent
}

// SetParent records the client the database is attached to.
func (b *Base) SetParent(p Parent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parent = p
}

// Config returns the configuration last applied with FromConfig.
func (b *Base) Config() DatabaseConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg
}

// CheckOpen returns ErrClosed once the database was closed or dropped.
func (b *Base) CheckOpen() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("database %s: %w", b.alias, ErrClosed)
	}
	return nil
}

func (b *Base) wrap(c Collection) Collection {
	return Instrument(c, b.loc.Scheme, b.alias, b.observer, b.tracer)
}

// discover registers the collections that already exist natively. It runs
// once per database and must be called with createMu held.
func (b *Base) discover(ctx context.Context) error {
	b.mu.Lock()
	done := b.discovered
	b.mu.Unlock()
	if done {
		return nil
	}

	names, err := b.driver.ListNative(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections of %s: %w", b.alias, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range names {
		if _, ok := b.collections[n]; !ok {
			b.collections[n] = b.wrap(b.driver.NewCollection(n))
		}
	}
	b.discovered = true
	return nil
}

func (b *Base) lookup(name string) (Collection, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.collections[name]
	return c, ok
}

// CreateCollection creates the collection natively when it does not exist
// yet and registers it. With RecreateIfExists all its records are deleted.
func (b *Base) CreateCollection(ctx context.Context, name string, opts ...CollectionOption) (Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("collection name is empty: %w", ErrInvalidConfig)
	}
	if err := b.CheckOpen(); err != nil {
		return nil, err
	}

	o := CollectionOptions{RecreateIfExists: b.Config().RecreateIfExists}
	for _, opt := range opts {
		opt(&o)
	}

	b.createMu.Lock()
	defer b.createMu.Unlock()

	if err := b.discover(ctx); err != nil {
		return nil, err
	}

	c, exists := b.lookup(name)
	if !exists {
		if err := b.driver.CreateNative(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to create collection %s in %s: %w", name, b.alias, err)
		}
		c = b.wrap(b.driver.NewCollection(name))
		b.mu.Lock()
		b.collections[name] = c
		b.mu.Unlock()
		b.logger.DebugWithContext(ctx, "created collection", nil, map[string]interface{}{
			"database":   b.alias,
			"collection": name,
		})
	}

	if o.Config != nil {
		class := o.Config.Type
		if class == "" {
			class = name
		}
		b.SchemaView().MergeClass(class, o.Config.Attributes)
	}

	if o.RecreateIfExists {
		if _, err := c.DeleteWhere(ctx, query.Where{}, true); err != nil {
			return nil, fmt.Errorf("failed to empty collection %s: %w", name, err)
		}
	}
	return c, nil
}

// GetCollection returns the named collection. When it does not exist it is
// created if createIfNotExists is set; otherwise ErrNotFound is returned.
func (b *Base) GetCollection(ctx context.Context, name string, createIfNotExists bool) (Collection, error) {
	if err := b.CheckOpen(); err != nil {
		return nil, err
	}

	b.createMu.Lock()
	err := b.discover(ctx)
	b.createMu.Unlock()
	if err != nil {
		return nil, err
	}

	if c, ok := b.lookup(name); ok {
		return c, nil
	}
	if !createIfNotExists {
		return nil, fmt.Errorf("collection %q in database %q: %w", name, b.alias, ErrNotFound)
	}
	return b.CreateCollection(ctx, name)
}

// ListCollections returns every collection sorted by name.
func (b *Base) ListCollections(ctx context.Context) ([]Collection, error) {
	if err := b.CheckOpen(); err != nil {
		return nil, err
	}

	b.createMu.Lock()
	err := b.discover(ctx)
	b.createMu.Unlock()
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Collection, 0, len(b.collections))
	for _, c := range b.collections {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

// ListCollectionNames returns the names of every collection, sorted.
func (b *Base) ListCollectionNames(ctx context.Context) ([]string, error) {
	cs, err := b.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name()
	}
	return names, nil
}

// Forget removes a collection from the registry after it was dropped.
func (b *Base) Forget(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.collections, name)
}

// Query routes q to the collection named by q.From.
func (b *Base) Query(ctx context.Context, q query.Query) (*query.Result, error) {
	if q.From == "" {
		return nil, fmt.Errorf("query has no collection: %w", ErrInvalidQuery)
	}
	c, err := b.GetCollection(ctx, q.From, false)
	if err != nil {
		return nil, err
	}
	return c.Query(ctx, q)
}

// FromConfig applies cfg: it loads the schema, configures the index and
// creates the declared collections.
func (b *Base) FromConfig(ctx context.Context, cfg DatabaseConfig) error {
	if err := b.CheckOpen(); err != nil {
		return err
	}
	if cfg.Alias != "" && cfg.Alias != b.alias {
		return fmt.Errorf("database %s configured with alias %s: %w", b.alias, cfg.Alias, ErrInconsistentAlias)
	}
	cfg.Alias = b.alias
	if cfg.Handle == "" {
		cfg.Handle = b.loc.Raw
	}

	b.mu.Lock()
	b.cfg = cfg
	b.mu.Unlock()

	if cfg.SchemaLocation != "" {
		if err := b.LoadSchemaView(cfg.SchemaLocation); err != nil {
			return err
		}
	}

	if cfg.Index != nil {
		ix, err := index.FromConfig(*cfg.Index, b.defaultEmbedder(cfg.Index.VectorLength))
		if err != nil {
			return fmt.Errorf("database %s index: %v: %w", b.alias, err, ErrInvalidConfig)
		}
		b.SetIndex(ix)
	}

	names := make([]string, 0, len(cfg.Collections))
	for n := range cfg.Collections {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if _, err := b.CreateCollection(ctx, n, WithCollectionConfig(cfg.Collections[n])); err != nil {
			return err
		}
	}
	return nil
}

// Store inserts every non-empty top-level list of objects in data into the
// collection named by its key, creating collections as needed. Other values
// are ignored.
func (b *Base) Store(ctx context.Context, data map[string]any) error {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		objs, ok := objectsFrom(data[k])
		if !ok || len(objs) == 0 {
			continue
		}
		c, err := b.GetCollection(ctx, k, true)
		if err != nil {
			return err
		}
		if err := c.Insert(ctx, objs...); err != nil {
			return err
		}
	}
	return nil
}

// Commit flushes buffered writes to the backend. Stores that write through
// treat it as a no-op.
func (b *Base) Commit(ctx context.Context) error {
	if err := b.CheckOpen(); err != nil {
		return err
	}
	return b.driver.CommitNative(ctx)
}

// SchemaView returns the schema associated with the database, creating an
// empty one named after the alias on first use.
func (b *Base) SchemaView() *Schema {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.schema == nil {
		b.schema = NewSchema(b.alias)
	}
	return b.schema
}

// SetSchemaView replaces the associated schema.
func (b *Base) SetSchemaView(s *Schema) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.schema = s
}

// LoadSchemaView reads a YAML schema from path and associates it.
func (b *Base) LoadSchemaView(path string) error {
	s, err := LoadSchema(path)
	if err != nil {
		return err
	}
	b.SetSchemaView(s)
	return nil
}

// Index returns the configured index, or a default n-gram index.
func (b *Base) Index() *index.Index {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ix == nil {
		b.ix, _ = index.New(DefaultIndexName, b.defaultEmbedder(0))
	}
	return b.ix
}

// SetIndex replaces the index used for search and for computing vectors.
func (b *Base) SetIndex(ix *index.Index) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ix = ix
}

func (b *Base) defaultEmbedder(length int) index.Embedder {
	if b.embedder != nil {
		return b.embedder
	}
	return ngram.New(length)
}

// Drop releases all native state and closes the database.
func (b *Base) Drop(ctx context.Context) error {
	if err := b.CheckOpen(); err != nil {
		return err
	}
	if err := b.driver.DropNative(ctx); err != nil {
		return fmt.Errorf("failed to drop database %s: %w", b.alias, err)
	}

	b.mu.Lock()
	b.collections = map[string]Collection{}
	b.closed = true
	b.mu.Unlock()

	b.logger.InfoWithContext(ctx, "dropped database", nil, map[string]interface{}{"database": b.alias, "handle": b.loc.Raw})
	return nil
}

// Close releases native connections. Closing twice is a no-op.
func (b *Base) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	return b.driver.CloseNative(ctx)
}
