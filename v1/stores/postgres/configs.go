package postgres

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Aleph-Alpha/polystore/v1/store"
)

// Defaults for bare handles.
const (
	DefaultHost     = "localhost"
	DefaultPort     = "5432"
	DefaultUser     = "postgres"
	DefaultDatabase = "postgres"
)

// Config holds the connection settings derived from a handle.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DbName   string
	SSLMode  string

	// Pool settings; zero selects the package defaults.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// HealthCheckInterval is how often the connection is pinged; zero
	// selects 10 seconds and a negative value disables monitoring.
	HealthCheckInterval time.Duration
}

// ConfigFromLocator derives a Config from a postgres handle.
func ConfigFromLocator(loc store.Locator) (Config, error) {
	cfg := Config{
		Host:     DefaultHost,
		Port:     DefaultPort,
		User:     DefaultUser,
		Password: os.Getenv("POSTGRES_PASSWORD"),
		DbName:   DefaultDatabase,
		SSLMode:  "disable",
	}
	if loc.Bare {
		return cfg, nil
	}
	if loc.Host == "" && loc.Path != "" && !strings.HasPrefix(loc.Path, "/") {
		return cfg, fmt.Errorf("postgres handle %q needs the form postgres://host:port/db: %w", loc.Raw, store.ErrInvalidLocator)
	}

	if loc.Host != "" {
		u := url.URL{Host: loc.Host}
		if h := u.Hostname(); h != "" {
			cfg.Host = h
		}
		if p := u.Port(); p != "" {
			cfg.Port = p
		}
	}
	if loc.User != nil {
		if n := loc.User.Username(); n != "" {
			cfg.User = n
		}
		if pw, ok := loc.User.Password(); ok {
			cfg.Password = pw
		}
	}
	if name := loc.Name(); name != "" {
		cfg.DbName = name
	}
	if m := loc.Params.Get("sslmode"); m != "" {
		cfg.SSLMode = m
	}
	return cfg, nil
}

// DSN renders the key/value connection string.
func (c Config) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.DbName, c.SSLMode)
	if c.Password != "" {
		dsn += " password=" + c.Password
	}
	return dsn
}
