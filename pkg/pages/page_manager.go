package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// GetByID returns the page with the given id, consulting the session cache
// before the store.
func (m *PageManager) GetByID(ctx context.Context, id int64) (*Page, error) {
	if s := SessionFrom(ctx); s != nil {
		p, err := s.Cache.ByID(id)
		m.recorder.CacheLookup("id", err == nil)
		if err == nil {
			return m.visible(ctx, p)
		}
	}

	q, err := m.QuerySet(ctx)
	if err != nil {
		return nil, err
	}
	p, err := m.get(ctx, "get_by_id", q.ByID(id))
	if err != nil {
		return nil, &PageError{PageID: id, Op: "get", Err: err}
	}
	return p, nil
}

// GetByPermalink returns the page with the given permalink, consulting the
// session cache before the store.
func (m *PageManager) GetByPermalink(ctx context.Context, permalink string) (*Page, error) {
	// Pages without a permalink are not addressable by it.
	if permalink == "" {
		return nil, &PageError{Op: "get", Err: ErrPageNotFound}
	}
	if s := SessionFrom(ctx); s != nil {
		p, err := s.Cache.ByPermalink(permalink)
		m.recorder.CacheLookup("permalink", err == nil)
		if err == nil {
			return m.visible(ctx, p)
		}
	}

	q, err := m.QuerySet(ctx)
	if err != nil {
		return nil, err
	}
	p, err := m.get(ctx, "get_by_permalink", q.ByPermalink(permalink))
	if err != nil {
		return nil, fmt.Errorf("permalink %q: %w", permalink, err)
	}
	return p, nil
}

// visible applies site scoping and, when active, publication filtering to a
// cached page so that a cache hit never returns a page the store query
// would have excluded.
func (m *PageManager) visible(ctx context.Context, p *Page) (*Page, error) {
	site, err := m.sites.CurrentSite(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current site: %w", err)
	}
	if p.SiteID != site {
		return nil, &PageError{PageID: p.ID, Op: "get", Err: ErrPageNotFound}
	}
	if m.filteringActive(ctx) && !p.IsPublishedAt(m.clock()) {
		return nil, &PageError{PageID: p.ID, Op: "get", Err: ErrPageNotFound}
	}
	return p, nil
}

// Resolve returns the page named by ident. A *Page is returned unchanged.
func (m *PageManager) Resolve(ctx context.Context, ident Identifier) (*Page, error) {
	switch v := ident.(type) {
	case *Page:
		if v == nil {
			return nil, &IdentifierTypeError{Value: ident}
		}
		return v, nil
	case ID:
		return m.GetByID(ctx, int64(v))
	case Permalink:
		return m.GetByPermalink(ctx, string(v))
	default:
		return nil, &IdentifierTypeError{Value: ident}
	}
}

// ResolveAny resolves a dynamically typed identifier, such as a value
// coming from a template or a decoded document.
func (m *PageManager) ResolveAny(ctx context.Context, v interface{}) (*Page, error) {
	ident, err := IdentifierOf(v)
	if err != nil {
		return nil, err
	}
	return m.Resolve(ctx, ident)
}

// ResolveURL converts a page shortcut into a URL. A slug containing "/" is
// returned unchanged; otherwise it is resolved as an id or permalink and
// the page URL returned. Unknown slugs are returned unchanged.
func (m *PageManager) ResolveURL(ctx context.Context, slug string) (string, error) {
	if strings.Contains(slug, "/") {
		return slug, nil
	}
	page, err := m.Resolve(ctx, ParseIdentifier(slug))
	if errors.Is(err, ErrPageNotFound) {
		return slug, nil
	}
	if err != nil {
		return "", err
	}
	return m.AbsoluteURL(ctx, page)
}

// Homepage returns the single root page of the current site.
func (m *PageManager) Homepage(ctx context.Context) (*Page, error) {
	q, err := m.QuerySet(ctx)
	if err != nil {
		return nil, err
	}
	p, err := m.get(ctx, "homepage", q.Roots())
	if errors.Is(err, ErrPageNotFound) || errors.Is(err, ErrMultiplePages) {
		var site int64
		if q.SiteID != nil {
			site = *q.SiteID
		}
		return nil, &IntegrityError{Op: "homepage", SiteID: site, Err: err}
	}
	return p, err
}

// Filter returns the pages selected by refining the current query set.
func (m *PageManager) Filter(ctx context.Context, refine func(Query) Query) ([]*Page, error) {
	q, err := m.QuerySet(ctx)
	if err != nil {
		return nil, err
	}
	if refine != nil {
		q = refine(q)
	}
	return m.find(ctx, "filter", q)
}

// Children returns the direct children of page in the current publication
// mode.
func (m *PageManager) Children(ctx context.Context, page *Page) ([]*Page, error) {
	return m.Filter(ctx, func(q Query) Query { return q.ChildrenOf(page.ID) })
}

// PublishedChildren returns the published children of page regardless of
// the current publication mode.
func (m *PageManager) PublishedChildren(ctx context.Context, page *Page) ([]*Page, error) {
	now := m.clock()
	return m.Filter(ctx, func(q Query) Query { return q.ChildrenOf(page.ID).Published(now) })
}

// Navigation returns the published children of page that appear in site
// navigation.
func (m *PageManager) Navigation(ctx context.Context, page *Page) ([]*Page, error) {
	now := m.clock()
	return m.Filter(ctx, func(q Query) Query { return q.ChildrenOf(page.ID).Published(now).InNav(true) })
}

// AllChildren returns every descendant of page in depth-first pre-order.
func (m *PageManager) AllChildren(ctx context.Context, page *Page) ([]*Page, error) {
	var all []*Page
	seen := map[int64]bool{page.ID: true}
	var walk func(p *Page) error
	walk = func(p *Page) error {
		children, err := m.Children(ctx, p)
		if err != nil {
			return err
		}
		for _, child := range children {
			if seen[child.ID] {
				return &PageError{PageID: child.ID, Op: "all_children", Err: ErrCyclicHierarchy}
			}
			seen[child.ID] = true
			all = append(all, child)
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(page); err != nil {
		return nil, err
	}
	return all, nil
}

// AllParents returns the ancestors of page, nearest first.
func (m *PageManager) AllParents(ctx context.Context, page *Page) ([]*Page, error) {
	var parents []*Page
	seen := map[int64]bool{page.ID: true}
	cur := page
	for cur.ParentID != nil {
		if seen[*cur.ParentID] {
			return nil, &PageError{PageID: page.ID, Op: "all_parents", Err: ErrCyclicHierarchy}
		}
		parent, err := m.GetByID(ctx, *cur.ParentID)
		if err != nil {
			return nil, err
		}
		seen[parent.ID] = true
		parents = append(parents, parent)
		cur = parent
	}
	return parents, nil
}

// IsPublished reports whether page belongs to the current site and is
// inside its publication window now.
func (m *PageManager) IsPublished(ctx context.Context, page *Page) (bool, error) {
	site, err := m.sites.CurrentSite(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to resolve current site: %w", err)
	}
	return page.SiteID == site && page.IsPublishedAt(m.clock()), nil
}

// Content decodes the page content through the registry. Pages without a
// content type have no content.
func (m *PageManager) Content(page *Page) (Content, error) {
	if page.ContentType == "" {
		return nil, nil
	}
	return m.registry.Decode(page)
}
