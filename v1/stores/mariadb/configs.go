package mariadb

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
	DefaultPort     = "3306"
	DefaultUser     = "root"
	DefaultDatabase = "polystore"
)

// Config holds the connection settings derived from a handle.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DbName   string

	// Pool settings; zero selects the package defaults.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// HealthCheckInterval is how often the connection is pinged; zero
	// selects 10 seconds and a negative value disables monitoring.
	HealthCheckInterval time.Duration
}

// ConfigFromLocator derives a Config from a mariadb handle.
func ConfigFromLocator(loc store.Locator) (Config, error) {
	cfg := Config{
		Host:     DefaultHost,
		Port:     DefaultPort,
		User:     DefaultUser,
		Password: os.Getenv("MARIADB_PASSWORD"),
		DbName:   DefaultDatabase,
	}
	if loc.Bare {
		return cfg, nil
	}
	if loc.Host == "" && loc.Path != "" && !strings.HasPrefix(loc.Path, "/") {
		return cfg, fmt.Errorf("mariadb handle %q needs the form mariadb://host:port/db: %w", loc.Raw, store.ErrInvalidLocator)
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
	return cfg, nil
}

// DSN renders the driver connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DbName)
}
