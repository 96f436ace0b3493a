// Package qdrant registers the "qdrant" scheme: a vector store on Qdrant,
// reached over gRPC with the official Go client.
//
// Every object becomes one point. The object itself is the point payload and
// the point vector is computed with the database index when the object is
// inserted, unless the object already carries a vector under the index
// field. Point ids are time-ordered UUIDs, so scrolling by id returns points
// in insertion order.
//
// Handles:
//
//	qdrant                               localhost:6334, no namespace
//	qdrant://qdrant.internal:6334/people  collections prefixed with "people__"
//	qdrant://host:6334/people?api_key=...&tls=true
//
// The API key may also be given with QDRANT_API_KEY.
//
// # Collections
//
// A collection is created on first use with one unnamed dense vector. Its
// size is the length of a vector the database index's embedder actually
// returns, so switching embedders never leaves Qdrant with a mismatched
// dimension. The distance is Cosine, or Dot when the index metric is dot.
//
// Collection names are prefixed with the namespace and the "__" separator;
// collections outside the namespace are invisible to the database:
//
//	db, _ := c.AttachDatabase(ctx, "qdrant://qdrant:6334/people")
//	coll, _ := db.CreateCollection(ctx, "Person")   // Qdrant collection "people__Person"
//
// # Filters
//
// Equality filters on strings, booleans and nil become Qdrant match and
// is-null conditions. Numbers become a closed range on the value, so 3
// matches a stored 3.0. Nested objects, lists and numbers beyond 2^53 are
// applied in Go after scrolling, where integers compare exactly.
//
//	res, err := coll.Query(ctx, query.New("Person").WithWhere(query.Where{
//	    "city": "Berlin",                          // evaluated by Qdrant
//	    "address": map[string]any{"zip": "10115"}, // evaluated in Go
//	}))
//
// Queries scroll in point id order. With a limit and no residual filter or
// sort, scrolling stops after Offset+Limit points; NumRows is then taken
// from Qdrant's exact count.
//
// # Search
//
// Collections implement store.Searcher natively: the query text is embedded
// with the index and the nearest points that satisfy the filter are returned
// with Qdrant's scores.
//
//	hits, err := coll.(store.Searcher).Search(ctx, "tall person", nil, 5)
//
// # Configuration
//
//	QDRANT_API_KEY=...     api key when the handle has none
//
// Handle parameters: api_key, tls and check_compatibility.
package qdrant
