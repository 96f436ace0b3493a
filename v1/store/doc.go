// Package store defines the contracts every storage adapter satisfies and the
// shared machinery they build on.
//
// # Contracts
//
// A Database is one attached backing store (an embedded SQL file, a MongoDB
// database, a Qdrant namespace, a directory of files, ...). It owns a set of
// named Collections. A Collection translates the backend-neutral query model
// of package query into native calls of its store:
//
//	c, err := db.CreateCollection(ctx, "Person")
//	if err != nil {
//	    return err
//	}
//	err = c.Insert(ctx,
//	    query.Object{"id": "P1", "name": "John", "age": 30},
//	    query.Object{"id": "P2", "name": "Alice", "age": 25},
//	)
//	res, err := c.Query(ctx, query.New("Person").WithWhere(query.Where{"name": "John"}))
//	n, err := c.DeleteWhere(ctx, query.Where{"name": "John"}, false)
//
// Delete semantics: Delete(objs...) removes every record that matches any of
// the objects, where an object matches a record when all of the object's
// fields are equal. Records that share all fields of a deleted object are
// removed with it. DeleteWhere fails with ErrNotFound when nothing matched,
// unless missingOK is set.
//
// Query semantics are the same on every store: Result.NumRows counts every
// match regardless of Limit and Offset, rows without a sort come back in
// insertion order, and a sort is stable. Integers compare exactly; a float
// equals an integer only when it is whole.
//
// # Bulk Loading
//
// Database.Store takes a document whose top-level keys name collections and
// whose values are lists of objects, and inserts each list into the
// collection of that name, creating it when needed. Keys whose values are
// not lists of objects are skipped:
//
//	err := db.Store(ctx, map[string]any{
//	    "Person": []any{
//	        map[string]any{"id": "P1", "name": "John"},
//	    },
//	    "name": "not a collection",
//	})
//
// # Search
//
// Every collection handed out by a Database implements Searcher. Adapters
// with a vector engine (Qdrant) answer natively. For the others, Search
// reads the rows matching the filter, embeds those that carry no stored
// vector with the database Index and ranks them by similarity:
//
//	hits, err := c.(store.Searcher).Search(ctx, "tall person in Berlin", nil, 5)
//	for _, h := range hits {
//	    fmt.Println(h.Score, h.Object["name"])
//	}
//
// Under cosine similarity, rows whose vector is all zeros are left out of
// the hits.
//
// # Adapters
//
// Adapters embed *Base, which implements the collection registry, schema
// association, configuration, Store/Query routing and lifecycle state, and
// supply a Driver for the native parts:
//
//	type Database struct {
//	    *store.Base
//	    conn *sql.DB
//	}
//
//	func Open(ctx context.Context, loc store.Locator, opts store.Options) (store.Database, error) {
//	    db := &Database{conn: conn}
//	    db.Base = store.NewBase(db, loc, opts)
//	    return db, nil
//	}
//
// Schemes are mapped to adapter factories through a Registry; a Locator is
// the parsed form of a database handle such as "sqlite:///data/people.db" or
// "mongodb://localhost:27017/db". A bare scheme ("sqlite") parses with Bare
// set and selects the adapter's default instance.
//
// Base discovers the collections that already exist natively the first time
// they are listed or looked up, and wraps every collection with Instrument.
//
// # Instrumentation
//
// Instrumented decorates a collection. Each operation (insert, query, delete,
// delete_where, drop, search) is reported to the Observer from Options with
// its duration, size and error, and, when Options carries a Tracer, runs
// inside a polystore.<operation> client span with db.system, db.name and
// db.collection.name attributes.
//
// # Configuration
//
// DatabaseConfig is the declarative form of a database. FromConfig applies
// it: the schema at SchemaLocation is loaded, the declared collections are
// created (and emptied when RecreateIfExists is set), their attributes are
// folded into the schema view and the Index section replaces the default
// n-gram index.
//
// # Errors
//
// Sentinel errors (ErrNotFound, ErrAmbiguous, ErrUnknownScheme, ...) are
// wrapped with context and can be tested with errors.Is or the Is* helpers:
//
//	if _, err := db.GetCollection(ctx, "Person", false); store.IsNotFound(err) {
//	    // create it
//	}
//
// Errors of the native clients are wrapped with %w and never swallowed.
// Operations on a database after Close or Drop fail with ErrClosed.
//
// # Thread Safety
//
// Base and Instrumented are safe for concurrent use. Collection creation is
// serialised per database so that concurrent CreateCollection calls for one
// name create it once.
package store
