package config

import (
	"fmt"
	"time"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase configures the database backend
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		switch dbType {
		case "memory":
			url = ""
		case "postgres", "sqlite":
			if url == "" {
				return fmt.Errorf("database URL is required for %s", dbType)
			}
		default:
			return fmt.Errorf("database type must be 'memory', 'postgres' or 'sqlite', got: %s", dbType)
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseURL configures the database backend from a URL, detecting
// the type from its scheme the same way DATABASE_URL is read.
func WithDatabaseURL(dbURL string) Option {
	return func(c *ServerConfig) error {
		return applyDatabaseURL(dbURL, c)
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithAutoMigrate controls whether the page table is created on startup
func WithAutoMigrate(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.AutoMigrate = enabled
		return nil
	}
}

// WithSite sets the default site id
func WithSite(siteID int64) Option {
	return func(c *ServerConfig) error {
		if siteID <= 0 {
			return fmt.Errorf("site id must be positive, got: %d", siteID)
		}
		c.SiteID = siteID
		return nil
	}
}

// WithPreviewKey sets the query parameter that requests preview mode
func WithPreviewKey(key string) Option {
	return func(c *ServerConfig) error {
		if key == "" {
			return fmt.Errorf("preview key cannot be empty")
		}
		c.PreviewKey = key
		return nil
	}
}

// WithCacheMaxAge bounds how long a request may serve a cached page
func WithCacheMaxAge(maxAge time.Duration) Option {
	return func(c *ServerConfig) error {
		if maxAge < 0 {
			return fmt.Errorf("cache max age cannot be negative, got: %s", maxAge)
		}
		c.CacheMaxAge = maxAge
		return nil
	}
}

// WithJWTSecret sets the secret used to verify staff tokens
func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = secret
		return nil
	}
}

// WithAdminAPIKeySHA256 sets the hashed admin API key
func WithAdminAPIKeySHA256(sum string) Option {
	return func(c *ServerConfig) error {
		c.AdminAPIKeySHA256 = sum
		return nil
	}
}

// WithLogging toggles the logging lifecycle hooks
func WithLogging(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableLogging = enabled
		return nil
	}
}
