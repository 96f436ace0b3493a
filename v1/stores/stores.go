// Package stores wires every built-in adapter into a scheme registry.
package stores

import (
	"github.com/Aleph-Alpha/polystore/v1/store"
	"github.com/Aleph-Alpha/polystore/v1/stores/file"
	"github.com/Aleph-Alpha/polystore/v1/stores/mariadb"
	"github.com/Aleph-Alpha/polystore/v1/stores/memory"
	"github.com/Aleph-Alpha/polystore/v1/stores/minio"
	"github.com/Aleph-Alpha/polystore/v1/stores/mongodb"
	"github.com/Aleph-Alpha/polystore/v1/stores/postgres"
	"github.com/Aleph-Alpha/polystore/v1/stores/qdrant"
	"github.com/Aleph-Alpha/polystore/v1/stores/redis"
	"github.com/Aleph-Alpha/polystore/v1/stores/sqlite"
)

// Register adds every built-in scheme to r.
func Register(r *store.Registry) {
	memory.Register(r)
	file.Register(r)
	sqlite.Register(r)
	postgres.Register(r)
	mariadb.Register(r)
	mongodb.Register(r)
	qdrant.Register(r)
	minio.Register(r)
	redis.Register(r)
}

// DefaultRegistry returns a new registry holding every built-in scheme.
func DefaultRegistry() *store.Registry {
	r := store.NewRegistry()
	Register(r)
	return r
}
