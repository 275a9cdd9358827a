package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tendant/simple-pages/pkg/pages"
	"github.com/tendant/simple-pages/pkg/pages/repo/sqlquery"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Repository implements pages.Store using SQLite
type Repository struct {
	db *sql.DB
}

// New creates a repository on an open database
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Open opens the database at dsn with foreign keys enforced. An in-memory
// database is limited to a single connection so every query sees the same
// data.
func Open(dsn string) (*sql.DB, error) {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", dsn+sep+"_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS pages (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		site_id          INTEGER NOT NULL,
		parent_id        INTEGER REFERENCES pages (id) ON DELETE RESTRICT,
		title            TEXT NOT NULL,
		short_title      TEXT NOT NULL DEFAULT '',
		url_title        TEXT NOT NULL DEFAULT '',
		permalink        TEXT,
		publication_date INTEGER,
		expiry_date      INTEGER,
		is_online        BOOLEAN NOT NULL DEFAULT 1,
		in_navigation    BOOLEAN NOT NULL DEFAULT 1,
		sort_order       INTEGER NOT NULL DEFAULT 0,
		browser_title    TEXT NOT NULL DEFAULT '',
		meta_keywords    TEXT NOT NULL DEFAULT '',
		meta_description TEXT NOT NULL DEFAULT '',
		content_type     TEXT NOT NULL DEFAULT '',
		content_data     TEXT NOT NULL DEFAULT '',
		last_modified    INTEGER NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS pages_site_permalink_key ON pages (site_id, permalink)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS pages_parent_url_title_key ON pages (parent_id, url_title)`,
	`CREATE INDEX IF NOT EXISTS pages_content_type_idx ON pages (content_type)`,
}

// Migrate creates the page table and indexes if they do not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func (r *Repository) handleSQLiteError(operation string, err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("%s: %w", operation, pages.ErrDuplicatePage)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			if strings.HasPrefix(operation, "delete") {
				return pages.ErrPageHasChildren
			}
			return fmt.Errorf("%s: parent: %w", operation, pages.ErrPageNotFound)
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return pages.ErrPageNotFound
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) FindPages(ctx context.Context, q pages.Query) ([]*pages.Page, error) {
	query, args := sqlquery.SQLite.Select(q)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.handleSQLiteError("find pages", err)
	}
	defer rows.Close()

	var result []*pages.Page
	for rows.Next() {
		p, err := sqlquery.ScanPage(rows)
		if err != nil {
			return nil, r.handleSQLiteError("scan page", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handleSQLiteError("iterate page rows", err)
	}
	return result, nil
}

func (r *Repository) CreatePage(ctx context.Context, page *pages.Page) error {
	query := `
		INSERT INTO pages (
			site_id, parent_id, title, short_title, url_title, permalink,
			publication_date, expiry_date, is_online, in_navigation, sort_order,
			browser_title, meta_keywords, meta_description,
			content_type, content_data, last_modified
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, sqlquery.SQLite.Args(page)...)
	if err != nil {
		return r.handleSQLiteError("create page", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return r.handleSQLiteError("create page", err)
	}
	page.ID = id
	return nil
}

func (r *Repository) UpdatePage(ctx context.Context, page *pages.Page) error {
	query := `
		UPDATE pages SET
			site_id = ?, parent_id = ?, title = ?, short_title = ?, url_title = ?,
			permalink = ?, publication_date = ?, expiry_date = ?, is_online = ?,
			in_navigation = ?, sort_order = ?, browser_title = ?,
			meta_keywords = ?, meta_description = ?, content_type = ?,
			content_data = ?, last_modified = ?
		WHERE id = ?`

	args := append(sqlquery.SQLite.Args(page), page.ID)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return r.handleSQLiteError("update page", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return pages.ErrPageNotFound
	}
	return nil
}

func (r *Repository) DeletePage(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return r.handleSQLiteError("delete page", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return pages.ErrPageNotFound
	}
	return nil
}
