package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/Aleph-Alpha/polystore/v1/store"
)

// Scheme is the locator scheme of this adapter.
const Scheme = "sqlite"

// MemoryPath is the path of an in-memory database.
const MemoryPath = ":memory:"

// Database is a store.Database backed by one SQLite file.
type Database struct {
	*store.Base

	sqlDB *sql.DB
	path  string
}

// Register adds the sqlite scheme to r.
func Register(r *store.Registry) {
	r.Register(Scheme, Open)
}

// Open is the store.Factory for the sqlite scheme.
func Open(ctx context.Context, loc store.Locator, opts store.Options) (store.Database, error) {
	path := resolvePath(loc)

	dsn := path
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
			}
		}
		dsn = path + "?_pragma=busy_timeout(5000)"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	if path == MemoryPath {
		// every connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to sqlite %s: %w", path, err)
	}

	db := &Database{sqlDB: sqlDB, path: path}
	db.Base = store.NewBase(db, loc, opts)
	db.Logger().DebugWithContext(ctx, "opened sqlite database", nil, map[string]interface{}{
		"alias": db.Alias(),
		"path":  path,
	})
	return db, nil
}

func resolvePath(loc store.Locator) string {
	if loc.Bare || loc.Path == "" {
		return MemoryPath
	}
	p := loc.Path
	if loc.Host != "" {
		// sqlite://relative/dir/file.db
		p = loc.Host + p
	}
	if p == "/"+MemoryPath || p == MemoryPath {
		return MemoryPath
	}
	return filepath.Clean(p)
}

// Path returns the database file, or ":memory:".
func (db *Database) Path() string { return db.path }

// SQL returns the underlying connection pool.
func (db *Database) SQL() *sql.DB { return db.sqlDB }

func (db *Database) NewCollection(name string) store.Collection {
	return &Collection{db: db, name: name, table: quoteIdent(name)}
}

func (db *Database) CreateNative(ctx context.Context, name string) error {
	_, err := db.sqlDB.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (doc TEXT NOT NULL)`, quoteIdent(name)))
	return err
}

func (db *Database) ListNative(ctx context.Context) ([]string, error) {
	rows, err := db.sqlDB.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// CommitNative is a no-op: every statement runs in its own transaction.
func (db *Database) CommitNative(context.Context) error { return nil }

// DropNative closes the connection pool and deletes the database file.
func (db *Database) DropNative(ctx context.Context) error {
	if err := db.sqlDB.Close(); err != nil {
		return err
	}
	if db.path == MemoryPath {
		return nil
	}
	for _, suffix := range []string{"", "-wal", "-shm", "-journal"} {
		if err := os.Remove(db.path + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", db.path+suffix, err)
		}
	}
	return nil
}

func (db *Database) CloseNative(context.Context) error {
	return db.sqlDB.Close()
}

func (db *Database) dropTable(ctx context.Context, name string) error {
	_, err := db.sqlDB.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(name)))
	return err
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
