// Package postgres registers the "postgres" scheme: a relational JSON store
// on PostgreSQL, reached through GORM and the pgx driver.
//
// Every collection is a table with a BIGSERIAL row_id, which fixes insertion
// order, and a JSONB doc column. Equality filters compare doc->'field'
// against a JSONB literal, so numbers compare numerically and types never
// mix. Rows are only sorted in SQL by row_id; field sorts happen in Go.
//
// Handles follow the libpq URL form:
//
//	postgres                                       localhost:5432, user and database "postgres"
//	postgres://user:secret@db:5432/people?sslmode=disable
//
// The password may also be supplied with POSTGRES_PASSWORD. The connection
// is health-checked in the background and replaced when it fails.
//
// Dropping the database drops every collection table; the PostgreSQL
// database itself is left in place.
package postgres
