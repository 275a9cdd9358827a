// Package sqlquery translates pages.Query values into SQL shared by the
// PostgreSQL and SQLite stores.
package sqlquery

import (
	"fmt"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/tendant/simple-pages/pkg/pages"
)

// Table is the page table name.
const Table = "pages"

// Columns lists the page columns in scan order.
var Columns = []string{
	"id", "site_id", "parent_id", "title", "short_title", "url_title", "permalink",
	"publication_date", "expiry_date", "is_online", "in_navigation", "sort_order",
	"browser_title", "meta_keywords", "meta_description",
	"content_type", "content_data", "last_modified",
}

// Dialect describes how a database spells placeholders and timestamps.
type Dialect struct {
	Flavor     sqlbuilder.Flavor
	EncodeTime func(time.Time) interface{}
}

// Postgres stores timestamps as TIMESTAMPTZ.
var Postgres = Dialect{
	Flavor:     sqlbuilder.PostgreSQL,
	EncodeTime: func(t time.Time) interface{} { return t.UTC() },
}

// SQLite stores timestamps as integer milliseconds since the epoch.
var SQLite = Dialect{
	Flavor:     sqlbuilder.SQLite,
	EncodeTime: func(t time.Time) interface{} { return t.UTC().UnixMilli() },
}

// Select builds the SELECT statement for q.
func (d Dialect) Select(q pages.Query) (string, []interface{}) {
	sb := d.Flavor.NewSelectBuilder()
	sb.Select(Columns...).From(Table)

	var where []string
	if q.SiteID != nil {
		where = append(where, sb.Equal("site_id", *q.SiteID))
	}
	if q.ID != nil {
		where = append(where, sb.Equal("id", *q.ID))
	}
	if q.Permalink != nil {
		where = append(where, sb.Equal("permalink", *q.Permalink))
	}
	if q.RootsOnly {
		where = append(where, sb.IsNull("parent_id"))
	}
	if q.ParentID != nil {
		where = append(where, sb.Equal("parent_id", *q.ParentID))
	}
	if q.URLTitle != nil {
		where = append(where, sb.Equal("url_title", *q.URLTitle))
	}
	if q.ContentType != nil {
		where = append(where, sb.Equal("content_type", *q.ContentType))
	}
	if q.InNavigation != nil {
		where = append(where, sb.Equal("in_navigation", *q.InNavigation))
	}
	if q.PublishedAt != nil {
		now := d.EncodeTime(*q.PublishedAt)
		where = append(where,
			sb.Equal("is_online", true),
			sb.Or(sb.IsNull("publication_date"), sb.LessEqualThan("publication_date", now)),
			sb.Or(sb.IsNull("expiry_date"), sb.GreaterThan("expiry_date", now)),
		)
	}
	if len(where) > 0 {
		sb.Where(where...)
	}

	sb.OrderBy("sort_order", "id").Asc()
	if q.MaxResults > 0 {
		sb.Limit(q.MaxResults)
	}
	return sb.Build()
}

// Scanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...interface{}) error
}

// ScanPage reads one row selected with Columns.
func ScanPage(s Scanner) (*pages.Page, error) {
	var (
		p            pages.Page
		parentID     *int64
		permalink    *string
		pubDate      interface{}
		expDate      interface{}
		lastModified interface{}
	)
	err := s.Scan(
		&p.ID, &p.SiteID, &parentID, &p.Title, &p.ShortTitle, &p.URLTitle, &permalink,
		&pubDate, &expDate, &p.IsOnline, &p.InNavigation, &p.SortOrder,
		&p.BrowserTitle, &p.MetaKeywords, &p.MetaDescription,
		&p.ContentType, &p.ContentData, &lastModified,
	)
	if err != nil {
		return nil, err
	}
	p.ParentID = parentID
	if permalink != nil {
		p.Permalink = *permalink
	}
	if p.PublicationDate, err = decodeTime(pubDate); err != nil {
		return nil, err
	}
	if p.ExpiryDate, err = decodeTime(expDate); err != nil {
		return nil, err
	}
	modified, err := decodeTime(lastModified)
	if err != nil {
		return nil, err
	}
	if modified != nil {
		p.LastModified = *modified
	}
	return &p, nil
}

// Args returns the insert/update values of page in Columns order, without
// the leading id.
func (d Dialect) Args(page *pages.Page) []interface{} {
	var permalink *string
	if page.Permalink != "" {
		v := page.Permalink
		permalink = &v
	}
	return []interface{}{
		page.SiteID, page.ParentID, page.Title, page.ShortTitle, page.URLTitle, permalink,
		d.encodeTimePtr(page.PublicationDate), d.encodeTimePtr(page.ExpiryDate),
		page.IsOnline, page.InNavigation, page.SortOrder,
		page.BrowserTitle, page.MetaKeywords, page.MetaDescription,
		page.ContentType, page.ContentData, d.EncodeTime(page.LastModified),
	}
}

func (d Dialect) encodeTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return d.EncodeTime(*t)
}

// decodeTime accepts the timestamp representations returned by the
// supported drivers.
func decodeTime(v interface{}) (*time.Time, error) {
	var t time.Time
	switch tv := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		t = tv
	case int64:
		t = time.UnixMilli(tv)
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, tv)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %w", tv, err)
		}
		t = parsed
	default:
		return nil, fmt.Errorf("unsupported timestamp type %T", v)
	}
	t = t.UTC()
	return &t, nil
}
