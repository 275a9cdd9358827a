package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// envVars is the environment surface read by WithEnv. Unset variables keep
// the values already configured.
type envVars struct {
	Port              string        `env:"PORT"`
	Environment       string        `env:"ENVIRONMENT"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	DBSchema          string        `env:"DB_SCHEMA"`
	SiteID            int64         `env:"SITE_ID"`
	PreviewKey        string        `env:"PREVIEW_KEY"`
	CacheMaxAge       time.Duration `env:"PAGE_CACHE_MAX_AGE"`
	JWTSecret         string        `env:"JWT_SECRET"`
	AdminAPIKeySHA256 string        `env:"ADMIN_API_KEY_SHA256"`
}

// WithEnv applies environment variable overrides.
//
// Server:
//
//	PORT - Server port (default: "8080")
//	ENVIRONMENT - Runtime environment (default: "development")
//
// Database:
//
//	DATABASE_URL - one of:
//	               - "memory" - in-memory store (default)
//	               - "postgres://..." or "postgresql://..." - PostgreSQL
//	               - "sqlite://path/to/pages.db" or "sqlite://:memory:" - SQLite
//	DB_SCHEMA - Postgres schema (default: "pages")
//
// Pages:
//
//	SITE_ID - default site (default: 1)
//	PREVIEW_KEY - preview query parameter (default: "preview")
//	PAGE_CACHE_MAX_AGE - cache entry lifetime, e.g. "30s" (default: request lifetime)
//
// Auth:
//
//	JWT_SECRET - HS256 secret for staff tokens
//	ADMIN_API_KEY_SHA256 - hex SHA-256 of the admin API key
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env envVars
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}

		if env.Port != "" {
			c.Port = env.Port
		}
		if env.Environment != "" {
			c.Environment = env.Environment
		}
		if err := applyDatabaseURL(env.DatabaseURL, c); err != nil {
			return err
		}
		if env.DBSchema != "" {
			c.DBSchema = env.DBSchema
		}
		if env.SiteID != 0 {
			c.SiteID = env.SiteID
		}
		if env.PreviewKey != "" {
			c.PreviewKey = env.PreviewKey
		}
		if env.CacheMaxAge != 0 {
			c.CacheMaxAge = env.CacheMaxAge
		}
		if env.JWTSecret != "" {
			c.JWTSecret = env.JWTSecret
		}
		if env.AdminAPIKeySHA256 != "" {
			c.AdminAPIKeySHA256 = env.AdminAPIKeySHA256
		}
		return nil
	}
}

// applyDatabaseURL detects the database type from the URL scheme
func applyDatabaseURL(dbURL string, c *ServerConfig) error {
	switch {
	case dbURL == "":
	case dbURL == "memory" || dbURL == "memory://":
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
	case strings.HasPrefix(dbURL, "postgresql://"), strings.HasPrefix(dbURL, "postgres://"):
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
	case strings.HasPrefix(dbURL, "sqlite://"):
		path := strings.TrimPrefix(dbURL, "sqlite://")
		if path == "" {
			return fmt.Errorf("sqlite path cannot be empty in DATABASE_URL")
		}
		c.DatabaseType = "sqlite"
		c.DatabaseURL = path
	default:
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory', 'postgresql://...' or 'sqlite://...')", dbURL)
	}
	return nil
}
