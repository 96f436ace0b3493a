// Package memory registers the "memory" scheme: a database held entirely in
// process memory. Every attach creates a fresh, empty store, and dropping it
// simply discards the data.
package memory

import (
	"context"

	"github.com/Aleph-Alpha/polystore/v1/store"
	"github.com/Aleph-Alpha/polystore/v1/stores/docstore"
)

// Scheme is the locator scheme of this adapter.
const Scheme = "memory"

// Open is the store.Factory for the memory scheme.
func Open(_ context.Context, loc store.Locator, opts store.Options) (store.Database, error) {
	return docstore.New(loc, opts, nil), nil
}

// Register adds the memory scheme to r.
func Register(r *store.Registry) {
	r.Register(Scheme, Open)
}
