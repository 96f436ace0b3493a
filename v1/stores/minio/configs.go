package minio

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Aleph-Alpha/polystore/v1/store"
)

// Defaults used for a bare "minio" handle.
const (
	DefaultEndpoint = "localhost:9000"
	DefaultBucket   = "polystore"
	defaultUser     = "minioadmin"
)

// Config holds the connection and layout settings of a MinIO database.
type Config struct {
	// Endpoint is host:port of the S3 API.
	Endpoint string

	AccessKeyID     string
	SecretAccessKey string

	UseSSL bool
	Region string

	BucketName string

	// Prefix is prepended to every object key. It never starts or ends with
	// a slash.
	Prefix string

	// AccessBucketCreation allows the bucket to be created when missing.
	AccessBucketCreation bool
}

// DefaultConfig returns the settings of a bare handle.
func DefaultConfig() Config {
	return Config{
		Endpoint:             DefaultEndpoint,
		AccessKeyID:          envOr("MINIO_ACCESS_KEY", defaultUser),
		SecretAccessKey:      envOr("MINIO_SECRET_KEY", defaultUser),
		BucketName:           DefaultBucket,
		AccessBucketCreation: true,
	}
}

// ConfigFromLocator derives a Config from a minio handle.
func ConfigFromLocator(loc store.Locator) (Config, error) {
	cfg := DefaultConfig()
	if loc.Bare {
		return cfg, nil
	}
	if loc.Host == "" {
		return cfg, fmt.Errorf("minio handle %q needs the form minio://host:port/bucket[/prefix]: %w", loc.Raw, store.ErrInvalidLocator)
	}
	cfg.Endpoint = loc.Host

	if loc.User != nil {
		cfg.AccessKeyID = loc.User.Username()
		if secret, ok := loc.User.Password(); ok {
			cfg.SecretAccessKey = secret
		}
	}

	bucket, prefix, _ := strings.Cut(loc.Name(), "/")
	if bucket != "" {
		cfg.BucketName = bucket
	}
	cfg.Prefix = strings.Trim(prefix, "/")

	if v := loc.Params.Get("secure"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("minio handle %q: secure=%q: %w", loc.Raw, v, store.ErrInvalidLocator)
		}
		cfg.UseSSL = b
	}
	cfg.Region = loc.Params.Get("region")
	return cfg, nil
}

// objectKey returns the key that stores the named collection.
func (c Config) objectKey(name string) string {
	if c.Prefix == "" {
		return name + extension
	}
	return c.Prefix + "/" + name + extension
}

// listPrefix is the prefix under which collection objects are listed.
func (c Config) listPrefix() string {
	if c.Prefix == "" {
		return ""
	}
	return c.Prefix + "/"
}

// collectionName reverses objectKey. Keys in nested folders or without the
// collection extension are not collections.
func (c Config) collectionName(key string) (string, bool) {
	rest := strings.TrimPrefix(key, c.listPrefix())
	if rest == key && c.Prefix != "" {
		return "", false
	}
	if strings.Contains(rest, "/") || !strings.HasSuffix(rest, extension) {
		return "", false
	}
	name := strings.TrimSuffix(rest, extension)
	return name, name != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
