package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-pages/pkg/pages"
	"github.com/tendant/simple-pages/pkg/pages/repo/sqlquery"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements pages.Store using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: constraint %s: %w", operation, pgErr.ConstraintName, pages.ErrDuplicatePage)
		case "23503": // foreign_key_violation
			if strings.HasPrefix(operation, "delete") {
				return pages.ErrPageHasChildren
			}
			return fmt.Errorf("%s: parent: %w", operation, pages.ErrPageNotFound)
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return pages.ErrPageNotFound
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) FindPages(ctx context.Context, q pages.Query) ([]*pages.Page, error) {
	query, args := sqlquery.Postgres.Select(q)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("find pages", err)
	}
	defer rows.Close()

	var result []*pages.Page
	for rows.Next() {
		p, err := sqlquery.ScanPage(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan page", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("iterate page rows", err)
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
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`

	if err := r.db.QueryRow(ctx, query, sqlquery.Postgres.Args(page)...).Scan(&page.ID); err != nil {
		return r.handlePostgresError("create page", err)
	}
	return nil
}

func (r *Repository) UpdatePage(ctx context.Context, page *pages.Page) error {
	query := `
		UPDATE pages SET
			site_id = $1, parent_id = $2, title = $3, short_title = $4, url_title = $5,
			permalink = $6, publication_date = $7, expiry_date = $8, is_online = $9,
			in_navigation = $10, sort_order = $11, browser_title = $12,
			meta_keywords = $13, meta_description = $14, content_type = $15,
			content_data = $16, last_modified = $17
		WHERE id = $18`

	args := append(sqlquery.Postgres.Args(page), page.ID)
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return r.handlePostgresError("update page", err)
	}
	if tag.RowsAffected() == 0 {
		return pages.ErrPageNotFound
	}
	return nil
}

func (r *Repository) DeletePage(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM pages WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete page", err)
	}
	if tag.RowsAffected() == 0 {
		return pages.ErrPageNotFound
	}
	return nil
}
