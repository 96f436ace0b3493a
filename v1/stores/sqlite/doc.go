// Package sqlite registers the "sqlite" scheme, an embedded SQL store built on
// the pure-Go modernc.org/sqlite driver.
//
// Every collection is a table with a single JSON document column. Equality
// filters are pushed down with the JSON1 functions; sorting happens in Go so
// that every store orders values the same way.
//
// Handles:
//
//	sqlite                      in-memory database
//	sqlite:///:memory:          in-memory database
//	sqlite:///data/people.db    file at /data/people.db
//	sqlite:people.db            file relative to the working directory
//
// Dropping a file database deletes the file.
package sqlite
