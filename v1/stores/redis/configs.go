package redis

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/Aleph-Alpha/polystore/v1/store"
)

// Default connection parameters
const (
	DefaultHost        = "localhost"
	DefaultPort        = 6379
	DefaultNamespace   = "polystore"
	DefaultDialTimeout = 5 * time.Second
	DefaultReadTimeout = 3 * time.Second
)

// Config defines the connection settings and key layout of a Redis database.
type Config struct {
	// Host is the Redis server hostname or IP address
	Host string

	// Port is the Redis server port
	Port int

	// Username is the Redis username for ACL authentication (Redis 6.0+)
	Username string

	// Password is the Redis password for authentication
	Password string

	// DB is the Redis database number to use
	DB int

	// Namespace is the key of the hash that holds the collections.
	Namespace string

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// TLS contains TLS/SSL configuration
	TLS TLSConfig
}

// TLSConfig contains TLS/SSL configuration parameters.
type TLSConfig struct {
	Enabled bool

	// CACertPath is the file path to the CA certificate for verifying the server
	CACertPath string

	// InsecureSkipVerify controls whether to skip verification of the server's certificate
	// WARNING: Setting this to true is insecure and should only be used in testing
	InsecureSkipVerify bool
}

// DefaultConfig returns the settings of a bare "redis" handle.
func DefaultConfig() Config {
	return Config{
		Host:        DefaultHost,
		Port:        DefaultPort,
		Password:    os.Getenv("REDIS_PASSWORD"),
		Namespace:   DefaultNamespace,
		DialTimeout: DefaultDialTimeout,
		ReadTimeout: DefaultReadTimeout,
	}
}

// ConfigFromLocator derives a Config from a redis handle of the form
// redis://[user:password@]host:port/namespace?db=N&tls=true.
func ConfigFromLocator(loc store.Locator) (Config, error) {
	cfg := DefaultConfig()
	if loc.Bare {
		return cfg, nil
	}
	if loc.Host == "" {
		return cfg, fmt.Errorf("redis handle %q needs the form redis://host:port/namespace: %w", loc.Raw, store.ErrInvalidLocator)
	}

	host, port, err := net.SplitHostPort(loc.Host)
	if err != nil {
		cfg.Host = loc.Host
	} else {
		cfg.Host = host
		p, err := strconv.Atoi(port)
		if err != nil {
			return cfg, fmt.Errorf("redis handle %q: invalid port: %w", loc.Raw, store.ErrInvalidLocator)
		}
		cfg.Port = p
	}

	if loc.User != nil {
		cfg.Username = loc.User.Username()
		if pw, ok := loc.User.Password(); ok {
			cfg.Password = pw
		}
	}
	if ns := loc.Name(); ns != "" {
		cfg.Namespace = ns
	}

	if v := loc.Params.Get("db"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil || db < 0 {
			return cfg, fmt.Errorf("redis handle %q: db=%q: %w", loc.Raw, v, store.ErrInvalidLocator)
		}
		cfg.DB = db
	}
	if v := loc.Params.Get("tls"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("redis handle %q: tls=%q: %w", loc.Raw, v, store.ErrInvalidLocator)
		}
		cfg.TLS.Enabled = enabled
	}
	cfg.TLS.CACertPath = loc.Params.Get("ca_cert")
	return cfg, nil
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func createTLSConfig(cfg TLSConfig, serverName string) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		ServerName:         serverName,
	}
	if cfg.CACertPath != "" {
		caCert, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA cert")
		}
		tlsConfig.RootCAs = caCertPool
	}
	return tlsConfig, nil
}
