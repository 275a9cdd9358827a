package pages

import (
	"time"
)

// Page represents a node in a site's page tree.
//
// A page with a nil ParentID is the site homepage. ContentType and
// ContentData together form the polymorphic content envelope resolved by a
// ContentRegistry.
type Page struct {
	ID       int64  `json:"id"`
	SiteID   int64  `json:"site_id"`
	ParentID *int64 `json:"parent_id,omitempty"`

	Title      string `json:"title"`
	ShortTitle string `json:"short_title,omitempty"`
	URLTitle   string `json:"url_title"`
	Permalink  string `json:"permalink,omitempty"`

	// Publication fields
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	ExpiryDate      *time.Time `json:"expiry_date,omitempty"`
	IsOnline        bool       `json:"is_online"`

	// Navigation fields
	InNavigation bool `json:"in_navigation"`
	SortOrder    int  `json:"sort_order"`

	// SEO fields
	BrowserTitle    string `json:"browser_title,omitempty"`
	MetaKeywords    string `json:"meta_keywords,omitempty"`
	MetaDescription string `json:"meta_description,omitempty"`

	// Content envelope
	ContentType string `json:"content_type,omitempty"`
	ContentData string `json:"content_data,omitempty"`

	LastModified time.Time `json:"last_modified"`
}

// IsRoot reports whether the page has no parent.
func (p *Page) IsRoot() bool {
	return p.ParentID == nil
}

// IsPublishedAt reports whether the page is online and inside its
// publication window at the given instant. Site scoping is not checked here.
func (p *Page) IsPublishedAt(now time.Time) bool {
	if !p.IsOnline {
		return false
	}
	if p.PublicationDate != nil && p.PublicationDate.After(now) {
		return false
	}
	if p.ExpiryDate != nil && !p.ExpiryDate.After(now) {
		return false
	}
	return true
}

// DisplayTitle returns the short title, falling back to the full title.
func (p *Page) DisplayTitle() string {
	if p.ShortTitle != "" {
		return p.ShortTitle
	}
	return p.Title
}

// Clone returns a deep copy of the page.
func (p *Page) Clone() *Page {
	c := *p
	if p.ParentID != nil {
		v := *p.ParentID
		c.ParentID = &v
	}
	if p.PublicationDate != nil {
		v := *p.PublicationDate
		c.PublicationDate = &v
	}
	if p.ExpiryDate != nil {
		v := *p.ExpiryDate
		c.ExpiryDate = &v
	}
	return &c
}

// Query describes a selection of pages. It is a value type: every builder
// method returns a modified copy, so a base query can be shared and
// refined without aliasing.
type Query struct {
	SiteID       *int64
	ID           *int64
	Permalink    *string
	ParentID     *int64
	RootsOnly    bool
	URLTitle     *string
	ContentType  *string
	InNavigation *bool
	// PublishedAt applies the publication predicate at the given instant.
	PublishedAt *time.Time
	// MaxResults limits the result set; zero means unlimited.
	MaxResults int
}

// ForSite scopes the query to a site.
func (q Query) ForSite(siteID int64) Query {
	q.SiteID = &siteID
	return q
}

// ByID restricts the query to a single page id.
func (q Query) ByID(id int64) Query {
	q.ID = &id
	return q
}

// ByPermalink restricts the query to a permalink.
func (q Query) ByPermalink(permalink string) Query {
	q.Permalink = &permalink
	return q
}

// ChildrenOf restricts the query to direct children of the given page.
func (q Query) ChildrenOf(parentID int64) Query {
	q.ParentID = &parentID
	q.RootsOnly = false
	return q
}

// Roots restricts the query to pages without a parent.
func (q Query) Roots() Query {
	q.RootsOnly = true
	q.ParentID = nil
	return q
}

// WithURLTitle restricts the query to a url title.
func (q Query) WithURLTitle(urlTitle string) Query {
	q.URLTitle = &urlTitle
	return q
}

// OfContentType restricts the query to a content type tag.
func (q Query) OfContentType(contentType string) Query {
	q.ContentType = &contentType
	return q
}

// InNav restricts the query on the in-navigation flag.
func (q Query) InNav(in bool) Query {
	q.InNavigation = &in
	return q
}

// Published applies the publication predicate at now.
func (q Query) Published(now time.Time) Query {
	q.PublishedAt = &now
	return q
}

// Limit caps the number of results.
func (q Query) Limit(n int) Query {
	q.MaxResults = n
	return q
}

// Matches evaluates the query against a single page. In-memory stores use
// it directly; SQL stores translate the same fields into a WHERE clause.
func (q Query) Matches(p *Page) bool {
	if q.SiteID != nil && p.SiteID != *q.SiteID {
		return false
	}
	if q.ID != nil && p.ID != *q.ID {
		return false
	}
	if q.Permalink != nil && (*q.Permalink == "" || p.Permalink != *q.Permalink) {
		return false
	}
	if q.RootsOnly && p.ParentID != nil {
		return false
	}
	if q.ParentID != nil && (p.ParentID == nil || *p.ParentID != *q.ParentID) {
		return false
	}
	if q.URLTitle != nil && p.URLTitle != *q.URLTitle {
		return false
	}
	if q.ContentType != nil && p.ContentType != *q.ContentType {
		return false
	}
	if q.InNavigation != nil && p.InNavigation != *q.InNavigation {
		return false
	}
	if q.PublishedAt != nil && !p.IsPublishedAt(*q.PublishedAt) {
		return false
	}
	return true
}
