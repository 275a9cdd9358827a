package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-pages/pkg/pages"
	"github.com/tendant/simple-pages/pkg/pages/repo/memory"
	repopg "github.com/tendant/simple-pages/pkg/pages/repo/postgres"
	reposqlite "github.com/tendant/simple-pages/pkg/pages/repo/sqlite"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
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
		Port:          "8080",
		Environment:   "development",
		DatabaseType:  "memory",
		DBSchema:      "pages",
		SiteID:        pages.DefaultSiteID,
		PreviewKey:    pages.DefaultPreviewKey,
		AutoMigrate:   true,
		EnableLogging: true,
	}
}

// ServerConfig represents configuration for the page service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres", "sqlite"
	DBSchema     string // Postgres schema to use (default: pages)
	AutoMigrate  bool   // create the page table on startup

	// Page behaviour
	SiteID      int64         // site used when a request names none
	PreviewKey  string        // query parameter requesting preview mode
	CacheMaxAge time.Duration // zero keeps cached pages for the whole request

	// Auth
	JWTSecret         string
	AdminAPIKeySHA256 string

	EnableLogging bool
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.DatabaseType {
	case "memory":
	case "postgres", "sqlite":
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required when using %s", c.DatabaseType)
		}
	default:
		return errors.New("database_type must be 'memory', 'postgres' or 'sqlite'")
	}

	if c.SiteID <= 0 {
		return fmt.Errorf("site_id must be positive, got: %d", c.SiteID)
	}
	if c.CacheMaxAge < 0 {
		return fmt.Errorf("cache max age cannot be negative, got: %s", c.CacheMaxAge)
	}
	return nil
}

// SessionOptions returns the options for per-request page sessions.
func (c *ServerConfig) SessionOptions() pages.SessionOptions {
	return pages.SessionOptions{
		PreviewKey:  c.PreviewKey,
		CachePolicy: pages.CachePolicy{MaxAge: c.CacheMaxAge},
	}
}

// SiteResolver resolves the site carried by the request context, falling
// back to the configured site.
func (c *ServerConfig) SiteResolver() pages.SiteResolver {
	return pages.ContextSite{Default: c.SiteID}
}

// BuildManager creates a PageManager from the server configuration. Extra
// options are applied last, so callers can add a recorder or hooks.
func (c *ServerConfig) BuildManager(ctx context.Context, extra ...pages.Option) (*pages.PageManager, error) {
	store, err := c.BuildStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build store: %w", err)
	}

	options := []pages.Option{
		pages.WithStore(store),
		pages.WithSiteResolver(c.SiteResolver()),
		pages.WithLogger(slog.Default()),
	}
	if c.EnableLogging {
		options = append(options, pages.WithHooks(pages.LoggingHooks(slog.Default())))
	}
	options = append(options, extra...)

	return pages.New(options...)
}

type migrator interface {
	Migrate(ctx context.Context) error
}

// openSQLite opens the sqlite database; tests replace it to observe the
// handle.
var openSQLite = reposqlite.Open

// BuildStore creates the page store based on the configuration, applying
// the schema when AutoMigrate is set. The connection is closed again if
// the schema cannot be applied.
func (c *ServerConfig) BuildStore(ctx context.Context) (pages.Store, error) {
	var store pages.Store
	var closeStore func()
	switch c.DatabaseType {
	case "memory":
		return memory.New(), nil
	case "postgres":
		pool, err := c.newPool(ctx)
		if err != nil {
			return nil, err
		}
		store = repopg.NewWithPool(pool)
		closeStore = pool.Close
	case "sqlite":
		db, err := openSQLite(c.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store = reposqlite.New(db)
		closeStore = func() {
			if err := db.Close(); err != nil {
				slog.Warn("Failed to close sqlite database", "error", err)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}

	if c.AutoMigrate {
		if m, ok := store.(migrator); ok {
			if err := m.Migrate(ctx); err != nil {
				closeStore()
				return nil, err
			}
		}
	}
	return store, nil
}

func (c *ServerConfig) newPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	schema := c.DBSchema
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if schema == "" {
			return nil
		}
		_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
		return err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}

// PingPostgres verifies connectivity to Postgres.
func PingPostgres(databaseURL, schema string) error {
	c := &ServerConfig{DatabaseURL: databaseURL, DBSchema: schema}
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	pool, err := c.newPool(context.Background())
	if err != nil {
		return err
	}
	defer pool.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
