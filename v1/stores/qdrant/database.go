package qdrant

import (
	"context"
	"fmt"

	qdrant "github.com/qdrant/go-client/qdrant"

	"github.com/Aleph-Alpha/polystore/v1/index"
	"github.com/Aleph-Alpha/polystore/v1/store"
)

// Scheme is the locator scheme of this adapter.
const Scheme = "qdrant"

// Database is a store.Database on a Qdrant instance, scoped to a namespace.
type Database struct {
	*store.Base

	cfg Config
	api *qdrant.Client
}

// Register adds the qdrant scheme to r.
func Register(r *store.Registry) {
	r.Register(Scheme, Open)
}

// Open is the store.Factory for the qdrant scheme.
func Open(ctx context.Context, loc store.Locator, opts store.Options) (store.Database, error) {
	cfg, err := ConfigFromLocator(loc)
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg, loc, opts)
}

// New connects to Qdrant and verifies connectivity with a health check.
func New(ctx context.Context, cfg Config, loc store.Locator, opts store.Options) (*Database, error) {
	api, err := qdrant.NewClient(&qdrant.Config{
		Host:                   cfg.Endpoint,
		Port:                   cfg.Port,
		APIKey:                 cfg.ApiKey,
		UseTLS:                 cfg.UseTLS,
		SkipCompatibilityCheck: !cfg.CheckCompatibility,
	})
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] failed to initialize client: %w", err)
	}

	db := &Database{cfg: cfg, api: api}
	db.Base = store.NewBase(db, loc, opts)

	checkCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	resp, err := api.HealthCheck(checkCtx)
	if err != nil {
		_ = api.Close()
		return nil, fmt.Errorf("[Qdrant] health check failed: %w", err)
	}

	db.Logger().InfoWithContext(ctx, "connected to Qdrant", nil, map[string]interface{}{
		"alias":     db.Alias(),
		"endpoint":  cfg.Endpoint,
		"port":      cfg.Port,
		"namespace": cfg.Namespace,
		"version":   resp.GetVersion(),
	})
	return db, nil
}

// Client returns the underlying Qdrant SDK client.
func (db *Database) Client() *qdrant.Client { return db.api }

func (db *Database) NewCollection(name string) store.Collection {
	return &Collection{db: db, name: name, native: db.cfg.nativeName(name)}
}

// CreateNative creates the Qdrant collection sized for the vectors the
// database index produces.
func (db *Database) CreateNative(ctx context.Context, name string) error {
	native := db.cfg.nativeName(name)
	exists, err := db.api.CollectionExists(ctx, native)
	if err != nil {
		return fmt.Errorf("[Qdrant] failed to check collection '%s': %w", native, err)
	}
	if exists {
		return nil
	}

	ix := db.Index()
	size, err := vectorSize(ctx, ix)
	if err != nil {
		return fmt.Errorf("[Qdrant] failed to size collection '%s': %w", native, err)
	}
	distance := qdrant.Distance_Cosine
	if ix.Metric() == index.Dot {
		distance = qdrant.Distance_Dot
	}
	err = db.api.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: native,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     size,
			Distance: distance,
		}),
	})
	if err != nil {
		return fmt.Errorf("[Qdrant] failed to create collection '%s': %w", native, err)
	}
	db.Logger().DebugWithContext(ctx, "created Qdrant collection", nil, map[string]interface{}{
		"collection":  native,
		"vector_size": size,
		"distance":    distance.String(),
	})
	return nil
}

// vectorSize returns the dimensionality the index's embedder produces. The
// configured vector length is only a hint to embedders that honour it.
func vectorSize(ctx context.Context, ix *index.Index) (uint64, error) {
	v, err := ix.TextToVector(ctx, ix.Name())
	if err != nil {
		return 0, err
	}
	if len(v) == 0 {
		return 0, fmt.Errorf("embedder returned an empty vector: %w", store.ErrInvalidConfig)
	}
	return uint64(len(v)), nil
}

// ListNative returns the collections inside the namespace, or every
// collection when there is none.
func (db *Database) ListNative(ctx context.Context) ([]string, error) {
	natives, err := db.api.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] failed to list collections: %w", err)
	}
	var names []string
	for _, n := range natives {
		if name, ok := db.cfg.collectionName(n); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// CommitNative is a no-op: upserts wait for completion.
func (db *Database) CommitNative(context.Context) error { return nil }

// DropNative deletes every collection of the namespace and closes the
// client.
func (db *Database) DropNative(ctx context.Context) error {
	names, err := db.ListNative(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		if err := db.api.DeleteCollection(ctx, db.cfg.nativeName(n)); err != nil {
			return fmt.Errorf("[Qdrant] failed to delete collection '%s': %w", n, err)
		}
	}
	return db.api.Close()
}

func (db *Database) CloseNative(context.Context) error {
	return db.api.Close()
}
