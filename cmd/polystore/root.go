package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Aleph-Alpha/polystore/v1/client"
	"github.com/Aleph-Alpha/polystore/v1/embedding"
	"github.com/Aleph-Alpha/polystore/v1/logger"
	"github.com/Aleph-Alpha/polystore/v1/store"
	"github.com/Aleph-Alpha/polystore/v1/tracer"
)

const envPrefix = "POLYSTORE"

// settings holds what the global flags select for the current invocation.
type settings struct {
	v *viper.Viper

	client *client.Client
	log    *logger.Logger
	tracer *tracer.Tracer
}

func newRootCmd() *cobra.Command {
	s := &settings{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "polystore",
		Short:         "Work with objects in any attached database",
		Long:          `A command-line interface for inserting, querying and searching objects across SQLite, PostgreSQL, MariaDB, MongoDB, Qdrant, Redis, MinIO and file databases.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return s.teardown(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("database", "d", "", "Database alias or handle")
	flags.StringP("collection", "c", "", "Collection name")
	flags.StringP("config", "C", "", "Path to the configuration file")
	flags.StringArray("set", nil, "Database settings in the form PATH=value (value is YAML)")
	flags.CountP("verbose", "v", "Increase log verbosity")
	flags.BoolP("quiet", "q", false, "Only log errors")
	flags.String("trace-endpoint", "", "Export spans to this OTLP/HTTP collector (host:port)")
	flags.Bool("trace-insecure", false, "Disable TLS towards the trace collector")

	s.v.SetEnvPrefix(envPrefix)
	s.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	s.v.AutomaticEnv()
	_ = s.v.BindPFlags(flags)

	rootCmd.AddCommand(
		newInsertCmd(s),
		newQueryCmd(s),
		newListCollectionsCmd(s),
		newSearchCmd(s),
		newSchemaCmd(s),
		newDropCmd(s),
	)
	return rootCmd
}

func (s *settings) databaseName() string   { return s.v.GetString("database") }
func (s *settings) collectionName() string { return s.v.GetString("collection") }

func (s *settings) logLevel() string {
	switch {
	case s.v.GetBool("quiet"):
		return logger.Error
	case s.v.GetInt("verbose") >= 2:
		return logger.Debug
	case s.v.GetInt("verbose") == 1:
		return logger.Info
	default:
		return logger.Warning
	}
}

// setup builds the client and attaches the databases of the configuration
// document, if one was given.
func (s *settings) setup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.log = logger.NewLoggerClient(logger.Config{
		Level:       s.logLevel(),
		Encoding:    logger.ConsoleEncoding,
		ServiceName: "polystore",
	})

	if endpoint := s.v.GetString("trace-endpoint"); endpoint != "" {
		t, err := tracer.NewClient(tracer.Config{
			ServiceName:  "polystore",
			EnableExport: true,
			Endpoint:     endpoint,
			Insecure:     s.v.GetBool("trace-insecure"),
		}, s.log)
		if err != nil {
			return err
		}
		s.tracer = t
	}

	opts := []client.Option{client.WithLogger(s.log)}
	if s.tracer != nil {
		opts = append(opts, client.WithTracer(s.tracer))
	}
	if os.Getenv("EMBEDDING_ENDPOINT") != "" {
		emb, err := embedding.NewClient(embedding.NewConfig())
		if err != nil {
			return err
		}
		opts = append(opts, client.WithEmbedder(emb))
	}
	s.client = client.New(opts...)

	doc, err := s.configDocument()
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	b, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	cfg, err := client.ParseConfig(b)
	if err != nil {
		return err
	}
	return s.client.FromConfig(ctx, cfg)
}

// configDocument returns the configuration file, if any, with every --set
// expression applied to the selected database. Nil means no configuration.
func (s *settings) configDocument() (map[string]any, error) {
	var doc map[string]any
	if path := s.v.GetString("config"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %v: %w", path, err, store.ErrInvalidConfig)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	}

	sets := s.v.GetStringSlice("set")
	if len(sets) == 0 {
		return doc, nil
	}
	name := s.databaseName()
	if name == "" {
		return nil, fmt.Errorf("--set needs --database: %w", store.ErrInvalidConfig)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	dbs, _ := doc["databases"].(map[string]any)
	if dbs == nil {
		dbs = map[string]any{}
		doc["databases"] = dbs
	}
	db, _ := dbs[name].(map[string]any)
	if db == nil {
		db = map[string]any{"handle": name}
		dbs[name] = db
	}
	for _, expr := range sets {
		if err := applySet(db, expr); err != nil {
			return nil, err
		}
		s.debug("Applied setting", map[string]interface{}{"database": name, "expr": expr})
	}
	return doc, nil
}

func (s *settings) teardown(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.client.Close(ctx)
	if s.tracer != nil {
		if terr := s.tracer.Shutdown(ctx); terr != nil && err == nil {
			err = terr
		}
	}
	if s.log != nil {
		_ = s.log.Zap.Sync()
	}
	return err
}

// database returns the selected database. A name that is neither attached
// nor configured is attached as a handle.
func (s *settings) database(ctx context.Context) (store.Database, error) {
	return s.client.GetDatabase(ctx, s.databaseName(), true)
}

// collection returns the selected collection, creating it when needed. With
// no --collection the first existing collection is used.
func (s *settings) collection(ctx context.Context) (store.Collection, error) {
	db, err := s.database(ctx)
	if err != nil {
		return nil, err
	}
	if name := s.collectionName(); name != "" {
		return db.GetCollection(ctx, name, true)
	}
	names, err := db.ListCollectionNames(ctx)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("database %s has no collections, use --collection: %w", db.Alias(), store.ErrNotFound)
	}
	return db.GetCollection(ctx, names[0], false)
}

func (s *settings) debug(msg string, fields map[string]interface{}) {
	if s.log != nil {
		s.log.Debug(msg, nil, fields)
	}
}
