// Package config assembles a somiod service from declarative server
// configuration.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/somiod/pkg/somiod"
	auditfs "github.com/tendant/somiod/pkg/somiod/audit/fs"
	auditmemory "github.com/tendant/somiod/pkg/somiod/audit/memory"
	repomemory "github.com/tendant/somiod/pkg/somiod/repo/memory"
	repopg "github.com/tendant/somiod/pkg/somiod/repo/postgres"
	"github.com/tendant/somiod/pkg/somiod/sender/httpsender"
	"github.com/tendant/somiod/pkg/somiod/sender/mqttsender"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:            "8080",
		Environment:     "development",
		DatabaseType:    "memory",
		NotificationDir: "notifications",
		HTTPSendTimeout: httpsender.DefaultTimeout,
	}
}

// WithPort sets the HTTP listen port.
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the deployment environment (development, production,
// testing).
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		c.Environment = env
		return nil
	}
}

// WithDatabase selects the repository backend. url is ignored for "memory".
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithMigrations controls whether schema migrations run at startup.
func WithMigrations(run bool) Option {
	return func(c *ServerConfig) error {
		c.RunMigrations = run
		return nil
	}
}

// WithNotificationDir sets the directory for notification audit records. An
// empty dir keeps records in memory.
func WithNotificationDir(dir string) Option {
	return func(c *ServerConfig) error {
		c.NotificationDir = dir
		return nil
	}
}

// WithHTTPSendTimeout bounds each webhook delivery attempt.
func WithHTTPSendTimeout(d time.Duration) Option {
	return func(c *ServerConfig) error {
		c.HTTPSendTimeout = d
		return nil
	}
}

// ServerConfig represents server configuration for the somiod service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseType string // "memory", "postgres"
	DatabaseURL  string // required for postgres
	RunMigrations bool

	// Notification audit store. Empty NotificationDir keeps records in
	// memory.
	NotificationDir string

	// Transport configuration
	HTTPSendTimeout time.Duration
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}
	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}
	if c.HTTPSendTimeout <= 0 {
		return errors.New("http send timeout must be positive")
	}
	return nil
}

// BuildService wires repository, senders and audit store into a Service.
func (c *ServerConfig) BuildService(ctx context.Context) (somiod.Service, error) {
	repo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, err
	}

	var store somiod.NotificationStore
	if c.NotificationDir != "" {
		store = auditfs.New(c.NotificationDir)
	} else {
		store = auditmemory.New()
	}

	httpSender := httpsender.NewWithTimeout(c.HTTPSendTimeout)

	return somiod.New(
		somiod.WithRepository(repo),
		somiod.WithNotificationStore(store),
		somiod.WithSender("http", httpSender),
		somiod.WithSender("https", httpSender),
		somiod.WithSender("mqtt", mqttsender.New()),
	)
}

func (c *ServerConfig) buildRepository(ctx context.Context) (somiod.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return repomemory.New(), nil
	case "postgres":
		if c.RunMigrations {
			if err := repopg.Migrate(c.DatabaseURL); err != nil {
				return nil, err
			}
		}
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		return repopg.New(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", c.DatabaseType)
	}
}
