package store

import "github.com/Aleph-Alpha/polystore/v1/index"

// DatabaseConfig is the declarative configuration of one database, as found
// under "databases" in a client configuration document.
type DatabaseConfig struct {
	// Handle is the locator; it may contain a {base_dir} placeholder.
	Handle string `yaml:"handle" mapstructure:"handle" json:"handle"`

	// Alias records the name the database is attached under.
	Alias string `yaml:"alias" mapstructure:"alias" json:"alias,omitempty"`

	// SchemaLocation is the path of a YAML schema; it may contain a
	// {base_dir} placeholder.
	SchemaLocation string `yaml:"schema_location" mapstructure:"schema_location" json:"schema_location,omitempty"`

	// RecreateIfExists empties the database's collections when they are
	// created.
	RecreateIfExists bool `yaml:"recreate_if_exists" mapstructure:"recreate_if_exists" json:"recreate_if_exists,omitempty"`

	Collections map[string]CollectionConfig `yaml:"collections" mapstructure:"collections" json:"collections,omitempty"`

	// Index configures the similarity index used for collection search.
	Index *index.Config `yaml:"index" mapstructure:"index" json:"index,omitempty"`
}

// CollectionConfig declares one collection.
type CollectionConfig struct {
	// Type names the schema class of the collection's objects. Defaults to
	// the collection name.
	Type string `yaml:"type" mapstructure:"type" json:"type,omitempty"`

	RecreateIfExists bool `yaml:"recreate_if_exists" mapstructure:"recreate_if_exists" json:"recreate_if_exists,omitempty"`

	// Attributes are folded into the database's schema view.
	Attributes map[string]Attribute `yaml:"attributes" mapstructure:"attributes" json:"attributes,omitempty"`
}

// CollectionOptions are the resolved options of CreateCollection.
type CollectionOptions struct {
	RecreateIfExists bool
	Config           *CollectionConfig
}

// CollectionOption configures CreateCollection.
type CollectionOption func(*CollectionOptions)

// WithRecreateIfExists deletes all records of an existing collection.
func WithRecreateIfExists(recreate bool) CollectionOption {
	return func(o *CollectionOptions) { o.RecreateIfExists = recreate }
}

// WithCollectionConfig attaches a declarative configuration; its attributes
// are added to the schema view.
func WithCollectionConfig(cfg CollectionConfig) CollectionOption {
	return func(o *CollectionOptions) {
		o.Config = &cfg
		if cfg.RecreateIfExists {
			o.RecreateIfExists = true
		}
	}
}
