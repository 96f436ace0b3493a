// Package mariadb registers the "mariadb" scheme: a relational JSON store on
// MariaDB 10.7 or later, reached through GORM and the MySQL driver.
//
// Every collection is a table with an AUTO_INCREMENT row_id, which fixes
// insertion order, and a JSON doc column. Scalar filters check JSON_TYPE
// before comparing, so "30" never matches 30; objects and lists compare with
// JSON_EQUALS. Field sorts happen in Go.
//
// Handles:
//
//	mariadb                                     localhost:3306, user root, database "polystore"
//	mariadb://user:secret@db:3306/people
//
// The password may also be supplied with MARIADB_PASSWORD. The connection is
// health-checked in the background and replaced when it fails.
//
// Dropping the database drops every collection table; the schema itself is
// left in place.
package mariadb
