package client

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Aleph-Alpha/polystore/v1/store"
)

// BaseDirPlaceholder is replaced by the base directory in handles and schema
// locations.
const BaseDirPlaceholder = "{base_dir}"

// Config is the declarative configuration of a client.
type Config struct {
	// BaseDir resolves {base_dir}; empty means the working directory.
	BaseDir string `yaml:"base_dir" mapstructure:"base_dir" json:"base_dir,omitempty"`

	// Databases maps aliases to database configurations.
	Databases map[string]store.DatabaseConfig `yaml:"databases" mapstructure:"databases" json:"databases,omitempty"`
}

// LoadConfig reads a YAML or JSON configuration document.
//
// Keys are case-sensitive because collection and class names are.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return ParseConfig(b)
}

// ParseConfig decodes and validates a configuration document.
func ParseConfig(b []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %v: %w", err, store.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every database has a handle and a consistent alias.
func (c *Config) Validate() error {
	for alias, db := range c.Databases {
		if strings.TrimSpace(db.Handle) == "" {
			return fmt.Errorf("database %q has no handle: %w", alias, store.ErrInvalidConfig)
		}
		if db.Alias != "" && db.Alias != alias {
			return fmt.Errorf("database %q declares alias %q: %w", alias, db.Alias, store.ErrInconsistentAlias)
		}
	}
	return nil
}

// resolveBaseDir substitutes the {base_dir} placeholder.
func resolveBaseDir(s, baseDir string) string {
	return strings.ReplaceAll(s, BaseDirPlaceholder, baseDir)
}
