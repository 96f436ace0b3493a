package qdrant

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/Aleph-Alpha/polystore/v1/store"
)

// NamespaceSeparator joins a namespace and a collection name.
const NamespaceSeparator = "__"

// Config holds connection settings for a Qdrant database.
type Config struct {
	// Hostname of the Qdrant server, e.g. "localhost".
	Endpoint string

	// gRPC port of the Qdrant server. Defaults to 6334.
	Port int

	// Optional authentication token for secured deployments.
	ApiKey string

	UseTLS bool

	// Namespace prefixes every collection name, so several databases can
	// share one Qdrant instance.
	Namespace string

	// Connection establishment timeout.
	ConnectTimeout time.Duration

	// Whether to perform version compatibility checks between client and server.
	CheckCompatibility bool
}

// DefaultConfig provides sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Endpoint:       "localhost",
		Port:           6334,
		ApiKey:         os.Getenv("QDRANT_API_KEY"),
		ConnectTimeout: 5 * time.Second,
	}
}

// ConfigFromLocator derives a Config from a qdrant handle.
func ConfigFromLocator(loc store.Locator) (Config, error) {
	cfg := DefaultConfig()
	if loc.Bare {
		return cfg, nil
	}
	if loc.Host == "" {
		return cfg, fmt.Errorf("qdrant handle %q needs the form qdrant://host:port/namespace: %w", loc.Raw, store.ErrInvalidLocator)
	}

	u := url.URL{Host: loc.Host}
	if h := u.Hostname(); h != "" {
		cfg.Endpoint = h
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return cfg, fmt.Errorf("qdrant port %q: %w", p, store.ErrInvalidLocator)
		}
		cfg.Port = port
	}
	cfg.Namespace = loc.Name()
	if key := loc.Params.Get("api_key"); key != "" {
		cfg.ApiKey = key
	}
	if tls := loc.Params.Get("tls"); tls != "" {
		v, err := strconv.ParseBool(tls)
		if err != nil {
			return cfg, fmt.Errorf("qdrant tls=%q: %w", tls, store.ErrInvalidLocator)
		}
		cfg.UseTLS = v
	}
	if loc.Params.Get("check_compatibility") == "true" {
		cfg.CheckCompatibility = true
	}
	return cfg, nil
}

// nativeName returns the Qdrant collection name of a collection.
func (c Config) nativeName(name string) string {
	if c.Namespace == "" {
		return name
	}
	return c.Namespace + NamespaceSeparator + name
}

// collectionName reverses nativeName; ok is false for collections outside
// the namespace.
func (c Config) collectionName(native string) (string, bool) {
	if c.Namespace == "" {
		return native, true
	}
	prefix := c.Namespace + NamespaceSeparator
	if len(native) <= len(prefix) || native[:len(prefix)] != prefix {
		return "", false
	}
	return native[len(prefix):], true
}
