// Package redis registers the "redis" scheme: collections persisted as JSON
// documents in one Redis hash per database.
//
// Handles:
//
//	redis                                  localhost:6379, hash "polystore"
//	redis://host:6379/people               hash "people"
//	redis://:secret@host:6379/people?db=2&tls=true
//
// REDIS_PASSWORD is used when the handle carries no password. Writes are
// buffered in memory and flushed on Commit and Close; dropping the database
// deletes the hash.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
	"github.com/Aleph-Alpha/polystore/v1/stores/docstore"
)

// Scheme is the locator scheme of this adapter.
const Scheme = "redis"

// Register adds the redis scheme to r.
func Register(r *store.Registry) {
	r.Register(Scheme, Open)
}

// Open is the store.Factory for the redis scheme.
func Open(ctx context.Context, loc store.Locator, opts store.Options) (store.Database, error) {
	cfg, err := ConfigFromLocator(loc)
	if err != nil {
		return nil, err
	}
	p, err := NewPersister(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if opts.Logger != nil {
		opts.Logger.Info("Connected to Redis", nil, map[string]interface{}{
			"addr":      cfg.Addr(),
			"db":        cfg.DB,
			"namespace": cfg.Namespace,
		})
	}
	return docstore.New(loc, opts, p), nil
}

// Persister stores each collection as one field of the namespace hash.
type Persister struct {
	cfg    Config
	client *redis.Client
}

// NewPersister connects to Redis and verifies the connection with PING.
func NewPersister(ctx context.Context, cfg Config) (*Persister, error) {
	opts := &redis.Options{
		Addr:         cfg.Addr(),
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if cfg.TLS.Enabled {
		tlsConfig, err := createTLSConfig(cfg.TLS, cfg.Host)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		opts.TLSConfig = tlsConfig
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr(), err)
	}
	return &Persister{cfg: cfg, client: client}, nil
}

// Client returns the underlying go-redis client.
func (p *Persister) Client() *redis.Client { return p.client }

func (p *Persister) List(ctx context.Context) ([]string, error) {
	names, err := p.client.HKeys(ctx, p.cfg.Namespace).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (p *Persister) Load(ctx context.Context, name string) ([]query.Object, error) {
	b, err := p.client.HGet(ctx, p.cfg.Namespace, name).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	rows, err := query.UnmarshalObjects(b)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s/%s: %w", p.cfg.Namespace, name, err)
	}
	return rows, nil
}

func (p *Persister) Save(ctx context.Context, name string, rows []query.Object) error {
	if rows == nil {
		rows = []query.Object{}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %v: %w", name, err, store.ErrUnsupportedValue)
	}
	return p.client.HSet(ctx, p.cfg.Namespace, name, b).Err()
}

func (p *Persister) Remove(ctx context.Context, name string) error {
	return p.client.HDel(ctx, p.cfg.Namespace, name).Err()
}

func (p *Persister) RemoveAll(ctx context.Context) error {
	return p.client.Del(ctx, p.cfg.Namespace).Err()
}

func (p *Persister) Close(context.Context) error {
	return p.client.Close()
}
