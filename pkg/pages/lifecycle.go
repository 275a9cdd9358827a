package pages

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// Save creates the page when it has no id and updates it otherwise. On
// success the saved instance replaces any cached copy in the session.
func (m *PageManager) Save(ctx context.Context, page *Page) error {
	if page.SiteID == 0 {
		site, err := m.sites.CurrentSite(ctx)
		if err != nil {
			return fmt.Errorf("failed to resolve current site: %w", err)
		}
		page.SiteID = site
	}

	if err := m.validate(ctx, page); err != nil {
		m.hooks.executeOnError(ctx, "save", err)
		return err
	}
	if err := m.hooks.executeBeforeSave(ctx, page); err != nil {
		return err
	}

	page.LastModified = m.clock().UTC()
	op := "update"
	var err error
	start := time.Now()
	if page.ID == 0 {
		op = "create"
		err = m.store.CreatePage(ctx, page)
	} else {
		err = m.store.UpdatePage(ctx, page)
	}
	m.recorder.StoreQuery(op, time.Since(start), err)
	if err != nil {
		err = &PageError{PageID: page.ID, Op: op, Err: err}
		m.hooks.executeOnError(ctx, op, err)
		return err
	}

	if s := SessionFrom(ctx); s != nil {
		s.Cache.Add(page)
	}
	m.logger.Debug("page saved", "op", op, "page_id", page.ID, "permalink", page.Permalink)

	return m.hooks.executeAfterSave(ctx, page)
}

// Delete removes the page and all of its descendants, children first, and
// evicts each of them from the session cache.
func (m *PageManager) Delete(ctx context.Context, page *Page) error {
	var descendants []*Page
	err := m.unfiltered(ctx, func() error {
		var err error
		descendants, err = m.AllChildren(ctx, page)
		return err
	})
	if err != nil {
		return err
	}

	victims := make([]*Page, 0, len(descendants)+1)
	for i := len(descendants) - 1; i >= 0; i-- {
		victims = append(victims, descendants[i])
	}
	victims = append(victims, page)

	for _, p := range victims {
		if err := m.deleteOne(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (m *PageManager) deleteOne(ctx context.Context, page *Page) error {
	if err := m.hooks.executeBeforeDelete(ctx, page); err != nil {
		return err
	}
	start := time.Now()
	err := m.store.DeletePage(ctx, page.ID)
	m.recorder.StoreQuery("delete", time.Since(start), err)
	if err != nil {
		err = &PageError{PageID: page.ID, Op: "delete", Err: err}
		m.hooks.executeOnError(ctx, "delete", err)
		return err
	}
	if s := SessionFrom(ctx); s != nil {
		s.Cache.Remove(page)
	}
	m.logger.Debug("page deleted", "page_id", page.ID)
	return m.hooks.executeAfterDelete(ctx, page)
}

// AbsoluteURL returns the path of page: "/" for the homepage, otherwise the
// parent's URL followed by the page's url title and a trailing slash.
// Parents are resolved without publication filtering.
func (m *PageManager) AbsoluteURL(ctx context.Context, page *Page) (string, error) {
	var segments []string
	err := m.unfiltered(ctx, func() error {
		seen := map[int64]bool{page.ID: true}
		cur := page
		for cur.ParentID != nil {
			segments = append(segments, cur.URLTitle)
			if seen[*cur.ParentID] {
				return &PageError{PageID: page.ID, Op: "absolute_url", Err: ErrCyclicHierarchy}
			}
			parent, err := m.GetByID(ctx, *cur.ParentID)
			if err != nil {
				return err
			}
			seen[parent.ID] = true
			cur = parent
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(segments) == 0 {
		return "/", nil
	}

	var b strings.Builder
	b.WriteString("/")
	for i := len(segments) - 1; i >= 0; i-- {
		b.WriteString(segments[i])
		b.WriteString("/")
	}
	return b.String(), nil
}

func (m *PageManager) validate(ctx context.Context, page *Page) error {
	invalid := func(format string, args ...interface{}) error {
		return &PageError{PageID: page.ID, Op: "validate", Err: fmt.Errorf("%w: %s", ErrInvalidPage, fmt.Sprintf(format, args...))}
	}

	if strings.TrimSpace(page.Title) == "" {
		return invalid("title is required")
	}
	if page.ParentID != nil && page.URLTitle == "" {
		return invalid("url title is required for non-root pages")
	}
	if page.URLTitle != "" && !slugPattern.MatchString(page.URLTitle) {
		return invalid("url title %q is not a slug", page.URLTitle)
	}
	if page.Permalink != "" {
		if !slugPattern.MatchString(page.Permalink) {
			return invalid("permalink %q is not a slug", page.Permalink)
		}
		// Integer permalinks would be read back as ids by ParseIdentifier.
		if _, err := strconv.ParseInt(page.Permalink, 10, 64); err == nil {
			return invalid("permalink %q must not be an integer", page.Permalink)
		}
	}
	if page.ExpiryDate != nil && page.PublicationDate != nil && !page.ExpiryDate.After(*page.PublicationDate) {
		return invalid("expiry date must be after publication date")
	}
	if page.ParentID == nil {
		return nil
	}
	if page.ID != 0 && *page.ParentID == page.ID {
		return &PageError{PageID: page.ID, Op: "validate", Err: ErrCyclicHierarchy}
	}

	return m.unfiltered(ctx, func() error {
		parent, err := m.GetByID(ctx, *page.ParentID)
		if err != nil {
			return invalid("parent %d: %v", *page.ParentID, err)
		}
		if parent.SiteID != page.SiteID {
			return invalid("parent %d belongs to another site", parent.ID)
		}
		if page.ID == 0 {
			return nil
		}
		ancestors, err := m.AllParents(ctx, parent)
		if err != nil {
			return err
		}
		for _, a := range ancestors {
			if a.ID == page.ID {
				return &PageError{PageID: page.ID, Op: "validate", Err: ErrCyclicHierarchy}
			}
		}
		return nil
	})
}
