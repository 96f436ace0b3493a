// Package docstore is an in-process document engine used by the stores that
// have no query engine of their own: process memory, flat files and object
// storage.
//
// Collections are held as ordered row slices and queried with the reference
// evaluation of package query. A Persister moves whole collections between
// memory and durable storage: collections are loaded on first use and dirty
// collections are written back on Commit and Close. Filtered counts are
// computed by a full scan of the collection.
//
// Rows are copied deeply on the way in and on the way out, so callers may
// modify inserted objects and query results without touching stored data.
//
// A durable adapter only implements Persister and hands it to New:
//
//	func Open(ctx context.Context, loc store.Locator, opts store.Options) (store.Database, error) {
//	    p := &bucketPersister{client: client, bucket: loc.Name()}
//	    return docstore.New(loc, opts, p), nil
//	}
//
// Load must report a missing collection as empty rather than failing.
// RemoveAll is called when the database is dropped and should delete the
// container as well (directory, hash or bucket).
package docstore
