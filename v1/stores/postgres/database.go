package postgres

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Aleph-Alpha/polystore/v1/store"
)

// Scheme is the locator scheme of this adapter.
const Scheme = "postgres"

// Database is a store.Database on one PostgreSQL database.
//
// The active *gorm.DB is held in an atomic pointer and swapped when the
// health check reconnects.
type Database struct {
	*store.Base

	cfg    Config
	client atomic.Pointer[gorm.DB]

	shutdownSignal chan struct{}
	shutdownOnce   sync.Once
}

// Register adds the postgres scheme to r.
func Register(r *store.Registry) {
	r.Register(Scheme, Open)
}

// Open is the store.Factory for the postgres scheme.
func Open(ctx context.Context, loc store.Locator, opts store.Options) (store.Database, error) {
	cfg, err := ConfigFromLocator(loc)
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg, loc, opts)
}

// New connects with cfg and starts the connection monitor.
func New(ctx context.Context, cfg Config, loc store.Locator, opts store.Options) (*Database, error) {
	conn, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	db := &Database{cfg: cfg, shutdownSignal: make(chan struct{})}
	db.client.Store(conn)
	db.Base = store.NewBase(db, loc, opts)

	db.Logger().InfoWithContext(ctx, "connected to PostgreSQL", nil, map[string]interface{}{
		"alias":    db.Alias(),
		"host":     cfg.Host,
		"port":     cfg.Port,
		"database": cfg.DbName,
	})

	if cfg.HealthCheckInterval >= 0 {
		go db.monitorConnection()
	}
	return db, nil
}

func connect(ctx context.Context, cfg Config) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get PostgreSQL database instance: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 50
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 25
	}
	maxLifetime := cfg.ConnMaxLifetime
	if maxLifetime == 0 {
		maxLifetime = time.Minute
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(maxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL database: %w", err)
	}
	return conn, nil
}

// DB returns the current connection bound to ctx.
func (db *Database) DB(ctx context.Context) *gorm.DB {
	return db.client.Load().WithContext(ctx)
}

// monitorConnection pings the database periodically and reconnects when the
// ping fails. It stops when the database is closed.
func (db *Database) monitorConnection() {
	interval := db.cfg.HealthCheckInterval
	if interval == 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-db.shutdownSignal:
			return
		case <-ticker.C:
			err := db.healthCheck()
			if err == nil {
				continue
			}
			db.Logger().Warn("PostgreSQL health check failed, reconnecting", err, map[string]interface{}{"alias": db.Alias()})

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			conn, err := connect(ctx, db.cfg)
			cancel()
			if err != nil {
				db.Logger().ErrorWithContext(ctx, "PostgreSQL reconnection failed", err, map[string]interface{}{"alias": db.Alias()})
				continue
			}
			select {
			case <-db.shutdownSignal:
				closeConn(conn)
				return
			default:
			}
			old := db.client.Swap(conn)
			closeConn(old)
			db.Logger().Info("reconnected to PostgreSQL", nil, map[string]interface{}{"alias": db.Alias()})
		}
	}
}

func (db *Database) healthCheck() error {
	sqlDB, err := db.client.Load().DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance during health check: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed during health check: %w", err)
	}
	return nil
}

func closeConn(conn *gorm.DB) {
	if conn == nil {
		return
	}
	if sqlDB, err := conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (db *Database) NewCollection(name string) store.Collection {
	return &Collection{db: db, name: name, table: quoteIdent(name)}
}

func (db *Database) CreateNative(ctx context.Context, name string) error {
	err := db.DB(ctx).Exec(fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (row_id BIGSERIAL PRIMARY KEY, doc JSONB NOT NULL)`, quoteIdent(name))).Error
	return translateError(err)
}

// ListNative returns the tables of the current schema shaped like a
// collection.
func (db *Database) ListNative(ctx context.Context) ([]string, error) {
	var names []string
	err := db.DB(ctx).Raw(`
		SELECT table_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND column_name = 'doc' AND data_type = 'jsonb'
		ORDER BY table_name`).Scan(&names).Error
	return names, translateError(err)
}

// CommitNative is a no-op: every write commits on its own.
func (db *Database) CommitNative(context.Context) error { return nil }

// DropNative drops every collection table and closes the connection.
func (db *Database) DropNative(ctx context.Context) error {
	names, err := db.ListNative(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		if err := db.dropTable(ctx, n); err != nil {
			return err
		}
	}
	return db.CloseNative(ctx)
}

func (db *Database) CloseNative(context.Context) error {
	db.shutdownOnce.Do(func() { close(db.shutdownSignal) })
	sqlDB, err := db.client.Load().DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (db *Database) dropTable(ctx context.Context, name string) error {
	return translateError(db.DB(ctx).Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(name))).Error)
}
