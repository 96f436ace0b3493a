// Package client is the entry point of polystore: a registry of attached
// databases keyed by alias.
//
// The client owns no data itself. It parses database handles, picks the
// adapter registered for the handle's scheme, opens the database and keeps
// it under an alias until it is dropped or the client is closed. Every
// database handed out by the client returns instrumented collections, so
// logging, metrics and tracing configured on the client apply to every store
// alike.
//
// # Architecture
//
//   - Client: the alias registry, safe for concurrent use
//   - Option: configures the logger, observer, tracer, embedder, base
//     directory and scheme registry of a Client
//   - AttachOption: configures one AttachDatabase call
//   - Config: the declarative form of a set of databases, read from YAML or
//     JSON
//   - FXModule: builds a Client from injected dependencies and ties attaching
//     and closing to the application lifecycle
//
// # Direct Usage (Without FX)
//
// A database is attached from a handle; the handle's scheme selects the
// adapter:
//
//	c := client.New(client.WithLogger(log))
//	defer c.Close(ctx)
//
//	db, err := c.AttachDatabase(ctx, "sqlite", client.WithAlias("t"))
//	if err != nil {
//	    return err
//	}
//	persons, err := db.CreateCollection(ctx, "Person")
//	if err != nil {
//	    return err
//	}
//	err = persons.Insert(ctx, query.Object{"name": "John", "age": 30})
//
// A bare scheme ("sqlite", "memory", "file") opens the default, usually
// ephemeral, instance of that scheme and is also its default alias; any other
// handle is its own default alias:
//
//	c.AttachDatabase(ctx, "memory")                          // alias "memory"
//	c.AttachDatabase(ctx, "sqlite:///data/people.db")        // alias "sqlite:///data/people.db"
//	c.AttachDatabase(ctx, "sqlite:///data/people.db",
//	    client.WithAlias("people"))                          // alias "people"
//
// Attaching under an alias that is already taken replaces the registered
// database and closes the previous one. WithRecreateIfExists drops whatever
// the handle points at before attaching it.
//
// # Looking Up Databases
//
// GetDatabase returns a database by alias. An empty alias returns the only
// attached database and fails with store.ErrAmbiguous when several are
// attached. When the alias is unknown, GetDatabase attaches it from the
// client configuration if the configuration declares it, or, with
// createIfNotExists set, treats the alias as a handle:
//
//	db, err := c.GetDatabase(ctx, "people", false)
//	if store.IsNotFound(err) {
//	    // not attached and not configured
//	}
//
// # Configuration
//
// Several databases can be attached at once from a configuration document:
//
//	base_dir: /data
//	databases:
//	  people:
//	    handle: "sqlite:///{base_dir}/people.db"
//	    schema_location: "{base_dir}/people.schema.yaml"
//	    index:
//	      name: people-ix
//	      attributes: [name, city]
//	    collections:
//	      Person:
//	        attributes:
//	          name: {range: string, required: true}
//
//	cfg, err := client.LoadConfig("polystore.yaml")
//	if err != nil {
//	    return err
//	}
//	err = c.FromConfig(ctx, cfg)
//
// The {base_dir} placeholder resolves to the configured base directory, or
// the working directory when none is set. Databases are attached in alias
// order and FromConfig stops at the first failure.
//
// # Observability
//
// Options decide what every attached database reports:
//
//	m := metrics.NewMetrics(metrics.Config{ServiceName: "polystore"})
//	t, err := tracer.NewClient(tracer.Config{ServiceName: "polystore"}, log)
//	if err != nil {
//	    return err
//	}
//	c := client.New(
//	    client.WithLogger(log),
//	    client.WithObserver(m),
//	    client.WithTracer(t),
//	)
//
// Each collection operation then opens a polystore.<operation> span and is
// counted in the store_operations_total metric. With tracing enabled on the
// logger, log lines written during an operation carry its trace and span
// IDs.
//
// # FX Module Integration
//
//	app := fx.New(
//	    logger.FXModule,
//	    metrics.FXModule,
//	    tracer.FXModule,
//	    client.FXModule,
//	    fx.Provide(func() (*client.Config, error) {
//	        return client.LoadConfig("polystore.yaml")
//	    }),
//	)
//
// The module attaches the configured databases when the application starts
// and closes them when it stops. Metrics, tracer and embedder are optional.
//
// # Dropping and Closing
//
// DropDatabase deletes the data behind an alias and unregisters it; Close
// only releases connections and leaves the data in place. Close closes every
// database concurrently and reports the first error after all of them were
// given the chance to close.
//
// # Thread Safety
//
// The Client is safe for concurrent use. Databases and collections are safe
// for concurrent use as far as their adapters are; every built-in adapter is.
package client
