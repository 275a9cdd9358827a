package postgres

import (
	"context"
	"fmt"
)

// schema creates the page table. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS pages (
		id               BIGSERIAL PRIMARY KEY,
		site_id          BIGINT NOT NULL,
		parent_id        BIGINT REFERENCES pages (id) ON DELETE RESTRICT,
		title            TEXT NOT NULL,
		short_title      TEXT NOT NULL DEFAULT '',
		url_title        TEXT NOT NULL DEFAULT '',
		permalink        TEXT,
		publication_date TIMESTAMPTZ,
		expiry_date      TIMESTAMPTZ,
		is_online        BOOLEAN NOT NULL DEFAULT TRUE,
		in_navigation    BOOLEAN NOT NULL DEFAULT TRUE,
		sort_order       INTEGER NOT NULL DEFAULT 0,
		browser_title    TEXT NOT NULL DEFAULT '',
		meta_keywords    TEXT NOT NULL DEFAULT '',
		meta_description TEXT NOT NULL DEFAULT '',
		content_type     TEXT NOT NULL DEFAULT '',
		content_data     TEXT NOT NULL DEFAULT '',
		last_modified    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS pages_site_permalink_key ON pages (site_id, permalink)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS pages_parent_url_title_key ON pages (parent_id, url_title)`,
	`CREATE INDEX IF NOT EXISTS pages_content_type_idx ON pages (content_type)`,
}

// Migrate creates the page table and indexes if they do not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
