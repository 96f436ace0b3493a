package client

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Aleph-Alpha/polystore/v1/index"
	"github.com/Aleph-Alpha/polystore/v1/observability"
	"github.com/Aleph-Alpha/polystore/v1/store"
	"github.com/Aleph-Alpha/polystore/v1/stores"
)

// Client maps aliases to attached databases.
type Client struct {
	mu        sync.Mutex
	databases map[string]store.Database
	cfg       *Config
	baseDir   string

	registry *store.Registry
	logger   store.Logger
	observer observability.Observer
	tracer   store.Tracer
	embedder index.Embedder
}

// Option configures a Client.
type Option func(*Client)

// WithRegistry replaces the default scheme registry.
func WithRegistry(r *store.Registry) Option {
	return func(c *Client) { c.registry = r }
}

// WithLogger sets the logger handed to every database.
func WithLogger(l store.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithObserver reports every collection operation to o.
func WithObserver(o observability.Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithTracer records a span around every collection operation.
func WithTracer(t store.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithEmbedder sets the embedder used by database indexes. The default is the
// n-gram embedder.
func WithEmbedder(e index.Embedder) Option {
	return func(c *Client) { c.embedder = e }
}

// WithBaseDir sets the directory {base_dir} resolves to.
func WithBaseDir(dir string) Option {
	return func(c *Client) { c.baseDir = dir }
}

// New returns a client with no attached databases. Without WithRegistry all
// built-in schemes are available.
func New(opts ...Option) *Client {
	c := &Client{databases: map[string]store.Database{}}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = stores.DefaultRegistry()
	}
	if c.logger == nil {
		c.logger = nopLogger{}
	}
	return c
}

// BaseDir returns the directory {base_dir} resolves to.
func (c *Client) BaseDir() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.baseDir != "" {
		return c.baseDir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// Registry returns the scheme registry.
func (c *Client) Registry() *store.Registry { return c.registry }

// Config returns the configuration applied with FromConfig, or nil.
func (c *Client) Config() *Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

type attachOptions struct {
	alias    string
	schema   *store.Schema
	recreate bool
	config   *store.DatabaseConfig
}

// AttachOption configures AttachDatabase.
type AttachOption func(*attachOptions)

// WithAlias registers the database under alias instead of the default.
func WithAlias(alias string) AttachOption {
	return func(o *attachOptions) { o.alias = alias }
}

// WithSchemaView associates a schema with the database.
func WithSchemaView(s *store.Schema) AttachOption {
	return func(o *attachOptions) { o.schema = s }
}

// WithRecreateIfExists drops any existing native state before attaching.
func WithRecreateIfExists(recreate bool) AttachOption {
	return func(o *attachOptions) { o.recreate = recreate }
}

// WithDatabaseConfig applies cfg to the database once it is attached.
func WithDatabaseConfig(cfg store.DatabaseConfig) AttachOption {
	return func(o *attachOptions) { o.config = &cfg }
}

func (c *Client) storeOptions(alias string) store.Options {
	return store.Options{
		Alias:    alias,
		Parent:   c,
		Logger:   c.logger,
		Observer: c.observer,
		Tracer:   c.tracer,
		Embedder: c.embedder,
	}
}

// AttachDatabase opens handle and registers it. Attaching under an alias
// that is already taken replaces, and closes, the previous database.
func (c *Client) AttachDatabase(ctx context.Context, handle string, opts ...AttachOption) (store.Database, error) {
	o := attachOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	loc, err := store.ParseLocator(handle)
	if err != nil {
		return nil, err
	}
	if _, ok := c.registry.Lookup(loc.Scheme); !ok {
		return nil, fmt.Errorf("scheme %q (known: %v): %w", loc.Scheme, c.registry.Schemes(), store.ErrUnknownScheme)
	}
	alias := o.alias
	if alias == "" {
		alias = store.DefaultAlias(loc)
	}
	if o.config != nil && o.config.Alias != "" && o.config.Alias != alias {
		return nil, fmt.Errorf("database configured as %q attached as %q: %w", o.config.Alias, alias, store.ErrInconsistentAlias)
	}
	db, err := c.registry.Open(ctx, handle, c.storeOptions(alias))
	if err != nil {
		return nil, err
	}

	if o.recreate {
		if err := db.Drop(ctx); err != nil {
			_ = db.Close(ctx)
			return nil, fmt.Errorf("failed to recreate %s: %w", handle, err)
		}
		if db, err = c.registry.Open(ctx, handle, c.storeOptions(alias)); err != nil {
			return nil, err
		}
	}

	if db.Alias() != alias {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("database records alias %q, attached as %q: %w", db.Alias(), alias, store.ErrInconsistentAlias)
	}
	if o.schema != nil {
		db.SetSchemaView(o.schema)
	}
	if o.config != nil {
		if err := db.FromConfig(ctx, *o.config); err != nil {
			_ = db.Close(ctx)
			return nil, err
		}
	}

	c.mu.Lock()
	prev := c.databases[alias]
	c.databases[alias] = db
	c.mu.Unlock()

	if prev != nil && prev != db {
		if err := prev.Close(ctx); err != nil {
			c.logger.WarnWithContext(ctx, "failed to close replaced database", err, map[string]interface{}{"alias": alias})
		}
	}

	c.logger.InfoWithContext(ctx, "attached database", nil, map[string]interface{}{
		"alias":  alias,
		"handle": handle,
		"scheme": loc.Scheme,
	})
	return db, nil
}

// GetDatabase returns the database registered under name. An empty name
// returns the only attached database. A missing database is attached, from
// the client configuration when it declares name and with name as handle
// otherwise, when createIfNotExists is set.
func (c *Client) GetDatabase(ctx context.Context, name string, createIfNotExists bool) (store.Database, error) {
	if name == "" {
		return c.Database(ctx)
	}

	c.mu.Lock()
	db, ok := c.databases[name]
	cfg := c.cfg
	c.mu.Unlock()
	if ok {
		return db, nil
	}

	if cfg != nil {
		if dbCfg, ok := cfg.Databases[name]; ok {
			return c.attachFromConfig(ctx, name, dbCfg, c.BaseDir())
		}
	}
	if !createIfNotExists {
		return nil, fmt.Errorf("database %q: %w", name, store.ErrNotFound)
	}
	return c.AttachDatabase(ctx, name, WithAlias(name))
}

// Database returns the only attached database. It fails with ErrNotFound
// when none is attached and ErrAmbiguous when there are several.
func (c *Client) Database(_ context.Context) (store.Database, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch len(c.databases) {
	case 0:
		return nil, fmt.Errorf("no database attached: %w", store.ErrNotFound)
	case 1:
		for _, db := range c.databases {
			return db, nil
		}
	}
	return nil, fmt.Errorf("%d databases attached, name one of %v: %w", len(c.databases), c.aliasesLocked(), store.ErrAmbiguous)
}

// Databases returns a snapshot of the registry.
func (c *Client) Databases() map[string]store.Database {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]store.Database, len(c.databases))
	for k, v := range c.databases {
		out[k] = v
	}
	return out
}

// Aliases returns the registered aliases in sorted order.
func (c *Client) Aliases() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aliasesLocked()
}

func (c *Client) aliasesLocked() []string {
	out := make([]string, 0, len(c.databases))
	for a := range c.databases {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// DropDatabase drops the database registered under name and removes it from
// the registry. When no database is attached at all, name is treated as a
// handle, opened and dropped, which deletes on-disk stores that were never
// attached.
//
// missingOK only covers a failed open in that case: stores that create
// their container on open (sqlite, file) are opened and then dropped, so a
// handle naming nothing succeeds even with missingOK false.
func (c *Client) DropDatabase(ctx context.Context, name string, missingOK bool) error {
	c.mu.Lock()
	db, ok := c.databases[name]
	empty := len(c.databases) == 0
	c.mu.Unlock()

	if !ok {
		if !empty {
			if missingOK {
				return nil
			}
			return fmt.Errorf("database %q: %w", name, store.ErrNotFound)
		}
		transient, err := c.registry.Open(ctx, name, c.storeOptions(name))
		if err != nil {
			if missingOK {
				return nil
			}
			return err
		}
		if err := transient.Drop(ctx); err != nil {
			_ = transient.Close(ctx)
			return err
		}
		return nil
	}

	if err := db.Drop(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	if c.databases[name] == db {
		delete(c.databases, name)
	}
	c.mu.Unlock()

	c.logger.InfoWithContext(ctx, "dropped database", nil, map[string]interface{}{"alias": name})
	return nil
}

// DropAllDatabases drops every attached database in alias order, stopping at
// the first failure.
func (c *Client) DropAllDatabases(ctx context.Context) error {
	for _, alias := range c.Aliases() {
		if err := c.DropDatabase(ctx, alias, false); err != nil {
			return err
		}
	}
	return nil
}

// FromConfig attaches every database declared in cfg, in alias order.
func (c *Client) FromConfig(ctx context.Context, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config: %w", store.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if cfg.BaseDir != "" {
		c.baseDir = cfg.BaseDir
	}
	c.cfg = cfg
	c.mu.Unlock()

	baseDir := c.BaseDir()
	aliases := make([]string, 0, len(cfg.Databases))
	for a := range cfg.Databases {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)

	for _, alias := range aliases {
		if _, err := c.attachFromConfig(ctx, alias, cfg.Databases[alias], baseDir); err != nil {
			return fmt.Errorf("database %q: %w", alias, err)
		}
	}
	return nil
}

func (c *Client) attachFromConfig(ctx context.Context, alias string, dbCfg store.DatabaseConfig, baseDir string) (store.Database, error) {
	dbCfg.Handle = resolveBaseDir(dbCfg.Handle, baseDir)
	dbCfg.SchemaLocation = resolveBaseDir(dbCfg.SchemaLocation, baseDir)
	if dbCfg.Alias == "" {
		dbCfg.Alias = alias
	}
	return c.AttachDatabase(ctx, dbCfg.Handle, WithAlias(alias), WithDatabaseConfig(dbCfg))
}

// Close closes every attached database concurrently and empties the
// registry. Data is not deleted.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	dbs := c.databases
	c.databases = map[string]store.Database{}
	c.mu.Unlock()

	// a failed close must not cancel the others
	var g errgroup.Group
	for alias, db := range dbs {
		g.Go(func() error {
			if err := db.Close(ctx); err != nil {
				return fmt.Errorf("failed to close %s: %w", alias, err)
			}
			return nil
		})
	}
	return g.Wait()
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}

func (nopLogger) InfoWithContext(context.Context, string, error, ...map[string]interface{})  {}
func (nopLogger) DebugWithContext(context.Context, string, error, ...map[string]interface{}) {}
func (nopLogger) WarnWithContext(context.Context, string, error, ...map[string]interface{})  {}
func (nopLogger) ErrorWithContext(context.Context, string, error, ...map[string]interface{}) {}
