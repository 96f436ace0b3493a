package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
)

type table struct {
	rows  []query.Object
	dirty bool
}

// Database is a store.Database over in-process tables.
type Database struct {
	*store.Base

	persister Persister

	mu     sync.RWMutex
	tables map[string]*table
}

// New opens a docstore database. persister may be nil.
func New(loc store.Locator, opts store.Options, persister Persister) *Database {
	db := &Database{
		persister: persister,
		tables:    map[string]*table{},
	}
	db.Base = store.NewBase(db, loc, opts)
	return db
}

func (db *Database) NewCollection(name string) store.Collection {
	return &Collection{db: db, name: name}
}

func (db *Database) CreateNative(ctx context.Context, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, err := db.tableLocked(ctx, name)
	if err != nil {
		return err
	}
	if db.persister != nil && len(t.rows) == 0 {
		t.dirty = true
	}
	return nil
}

func (db *Database) ListNative(ctx context.Context) ([]string, error) {
	if db.persister == nil {
		return nil, nil
	}
	return db.persister.List(ctx)
}

// CommitNative writes every modified collection through the persister.
func (db *Database) CommitNative(ctx context.Context) error {
	if db.persister == nil {
		return nil
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	names := make([]string, 0, len(db.tables))
	for n, t := range db.tables {
		if t.dirty {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	for _, n := range names {
		t := db.tables[n]
		if err := db.persister.Save(ctx, n, t.rows); err != nil {
			return fmt.Errorf("failed to save collection %s: %w", n, err)
		}
		t.dirty = false
	}
	return nil
}

func (db *Database) DropNative(ctx context.Context) error {
	db.mu.Lock()
	db.tables = map[string]*table{}
	db.mu.Unlock()

	if db.persister == nil {
		return nil
	}
	if err := db.persister.RemoveAll(ctx); err != nil {
		return err
	}
	return db.persister.Close(ctx)
}

// CloseNative flushes pending writes before closing the persister.
func (db *Database) CloseNative(ctx context.Context) error {
	if db.persister == nil {
		return nil
	}
	if err := db.CommitNative(ctx); err != nil {
		return err
	}
	return db.persister.Close(ctx)
}

// tableLocked returns the named table, loading it on first use. db.mu must be
// held for writing.
func (db *Database) tableLocked(ctx context.Context, name string) (*table, error) {
	if t, ok := db.tables[name]; ok {
		return t, nil
	}
	t := &table{}
	if db.persister != nil {
		rows, err := db.persister.Load(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load collection %s: %w", name, err)
		}
		t.rows = rows
	}
	db.tables[name] = t
	return t, nil
}

// rows returns a snapshot of a table's rows.
func (db *Database) rows(ctx context.Context, name string) ([]query.Object, error) {
	db.mu.RLock()
	t, ok := db.tables[name]
	if ok {
		out := append([]query.Object(nil), t.rows...)
		db.mu.RUnlock()
		return out, nil
	}
	db.mu.RUnlock()

	db.mu.Lock()
	defer db.mu.Unlock()
	t, err := db.tableLocked(ctx, name)
	if err != nil {
		return nil, err
	}
	return append([]query.Object(nil), t.rows...), nil
}

// update runs fn on a table under the write lock and marks it dirty when fn
// reports a change.
func (db *Database) update(ctx context.Context, name string, fn func(t *table) bool) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, err := db.tableLocked(ctx, name)
	if err != nil {
		return err
	}
	if fn(t) {
		t.dirty = true
	}
	return nil
}

func (db *Database) dropTable(ctx context.Context, name string) error {
	db.mu.Lock()
	delete(db.tables, name)
	db.mu.Unlock()

	if db.persister == nil {
		return nil
	}
	return db.persister.Remove(ctx, name)
}
