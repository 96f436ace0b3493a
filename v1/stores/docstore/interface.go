package docstore

import (
	"context"

	"github.com/Aleph-Alpha/polystore/v1/query"
)

// Persister stores whole collections. A nil Persister keeps everything in
// memory.
type Persister interface {
	// List returns the names of persisted collections.
	List(ctx context.Context) ([]string, error)

	// Load returns the rows of a persisted collection. A collection that does
	// not exist loads as empty.
	Load(ctx context.Context, name string) ([]query.Object, error)

	Save(ctx context.Context, name string, rows []query.Object) error

	Remove(ctx context.Context, name string) error

	// RemoveAll deletes every persisted collection and the container that
	// held them.
	RemoveAll(ctx context.Context) error

	Close(ctx context.Context) error
}
