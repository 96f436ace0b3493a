package store

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/polystore/v1/index"
	"github.com/Aleph-Alpha/polystore/v1/query"
)

// Collection is a named set of objects inside a Database, backed by one
// native table, collection, index or file.
type Collection interface {
	// Name returns the collection name, unique within its database.
	Name() string

	// Database returns the owning database.
	Database() Database

	// Insert adds objects. Inserting nothing is a no-op. Existing records are
	// never replaced.
	Insert(ctx context.Context, objs ...query.Object) error

	// Query executes q against this collection, ignoring q.From.
	Query(ctx context.Context, q query.Query) (*query.Result, error)

	// Find is shorthand for Query with only a filter and a limit.
	Find(ctx context.Context, where query.Where, limit int) (*query.Result, error)

	// Delete removes every record matching any of objs and returns the
	// number removed. Deleting nothing returns 0.
	Delete(ctx context.Context, objs ...query.Object) (int, error)

	// DeleteWhere removes every record matching where; an empty filter
	// removes everything. When nothing matched it fails with ErrNotFound
	// unless missingOK is set.
	DeleteWhere(ctx context.Context, where query.Where, missingOK bool) (int, error)

	// Drop removes the native collection and all its records.
	Drop(ctx context.Context) error
}

// Hit is one ranked search result.
type Hit struct {
	Score  float64      `yaml:"score" json:"score"`
	Object query.Object `yaml:"object" json:"object"`
}

// Searcher is implemented by collections that can answer similarity
// searches.
type Searcher interface {
	Search(ctx context.Context, text string, where query.Where, limit int) ([]Hit, error)
}

// Parent is the non-owning back-reference from a database to the client that
// attached it.
type Parent interface {
	BaseDir() string
}

// Tracer opens the span around each collection operation.
// *tracer.Tracer satisfies it.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, trace.Span)
	SetAttributes(span trace.Span, attrs map[string]interface{})
	RecordErrorOnSpan(span trace.Span, err error)
}

// Logger is the logging interface used by stores.
// *logger.Logger satisfies it. The WithContext variants add the trace and
// span IDs of the operation in ctx.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})

	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

// Database is one attached backing store.
type Database interface {
	// Alias is the name the database is registered under in its client.
	Alias() string

	// Handle is the locator string the database was opened from.
	Handle() string

	// Scheme is the registry scheme of the adapter.
	Scheme() string

	Parent() Parent
	SetParent(p Parent)

	// Config returns the configuration last applied with FromConfig.
	Config() DatabaseConfig

	// CreateCollection creates, or returns the existing, collection.
	CreateCollection(ctx context.Context, name string, opts ...CollectionOption) (Collection, error)

	// GetCollection returns an existing collection, creating it when
	// createIfNotExists is set, or fails with ErrNotFound.
	GetCollection(ctx context.Context, name string, createIfNotExists bool) (Collection, error)

	ListCollections(ctx context.Context) ([]Collection, error)
	ListCollectionNames(ctx context.Context) ([]string, error)

	// Query routes q to the collection named by q.From.
	Query(ctx context.Context, q query.Query) (*query.Result, error)

	// FromConfig applies a declarative configuration: schema location,
	// collections and index.
	FromConfig(ctx context.Context, cfg DatabaseConfig) error

	// Store inserts every top-level list of objects in data into the
	// collection named by its key.
	Store(ctx context.Context, data map[string]any) error

	// Commit makes buffered writes durable.
	Commit(ctx context.Context) error

	SchemaView() *Schema
	SetSchemaView(s *Schema)
	LoadSchemaView(path string) error

	Index() *index.Index
	SetIndex(ix *index.Index)

	// Drop releases every native resource of the database, including files
	// on disk. The database is unusable afterwards.
	Drop(ctx context.Context) error

	// Close releases connections without deleting data.
	Close(ctx context.Context) error
}

// Driver is the native half of a Database adapter, called by Base.
type Driver interface {
	// NewCollection returns the collection handle for name without touching
	// the native store.
	NewCollection(name string) Collection

	// CreateNative makes sure the native collection exists.
	CreateNative(ctx context.Context, name string) error

	// ListNative returns the names of collections that already exist in the
	// native store.
	ListNative(ctx context.Context) ([]string, error)

	CommitNative(ctx context.Context) error

	// DropNative deletes all persisted state and releases connections.
	DropNative(ctx context.Context) error
	CloseNative(ctx context.Context) error
}
