package pages

import (
	"time"
)

// CachePolicy bounds how long a cached page may be served.
//
// Only writes made through the owning session refresh the cache. Writes by
// other processes or sessions become visible after the session ends or,
// when MaxAge is set, once the cached entry is older than MaxAge.
type CachePolicy struct {
	// MaxAge is the maximum entry age. Zero keeps entries for the life of
	// the session.
	MaxAge time.Duration
}

type cacheEntry struct {
	page    *Page
	addedAt time.Time
}

// PageCache is a session-local identity map of pages keyed by id and by
// permalink. Both keys refer to the same entry; Add and Remove keep them
// consistent.
//
// A PageCache belongs to one Session and is not safe for concurrent use.
type PageCache struct {
	byID        map[int64]cacheEntry
	byPermalink map[string]cacheEntry
	policy      CachePolicy
	clock       Clock
}

// NewPageCache creates an empty cache.
func NewPageCache(policy CachePolicy, clock Clock) *PageCache {
	if clock == nil {
		clock = time.Now
	}
	return &PageCache{
		byID:        make(map[int64]cacheEntry),
		byPermalink: make(map[string]cacheEntry),
		policy:      policy,
		clock:       clock,
	}
}

// Add inserts or replaces the page. A permalink previously cached for the
// same id is dropped if the page no longer carries it.
func (c *PageCache) Add(page *Page) {
	if page == nil {
		return
	}
	if old, ok := c.byID[page.ID]; ok && old.page.Permalink != "" && old.page.Permalink != page.Permalink {
		c.dropPermalink(old.page.Permalink, page.ID)
	}
	entry := cacheEntry{page: page, addedAt: c.clock()}
	c.byID[page.ID] = entry
	if page.Permalink != "" {
		c.byPermalink[page.Permalink] = entry
	}
}

// Remove deletes the page from the cache. Removing an absent page is a
// no-op.
func (c *PageCache) Remove(page *Page) {
	if page == nil {
		return
	}
	if old, ok := c.byID[page.ID]; ok {
		delete(c.byID, page.ID)
		if old.page.Permalink != "" {
			c.dropPermalink(old.page.Permalink, page.ID)
		}
	}
	if page.Permalink != "" {
		c.dropPermalink(page.Permalink, page.ID)
	}
}

// dropPermalink removes the permalink entry only while it still points at
// id, so a permalink reassigned to another page survives.
func (c *PageCache) dropPermalink(permalink string, id int64) {
	if e, ok := c.byPermalink[permalink]; ok && e.page.ID == id {
		delete(c.byPermalink, permalink)
	}
}

// Clear empties the cache.
func (c *PageCache) Clear() {
	c.byID = make(map[int64]cacheEntry)
	c.byPermalink = make(map[string]cacheEntry)
}

// Len returns the number of pages cached by id.
func (c *PageCache) Len() int {
	return len(c.byID)
}

// ContainsID reports whether a fresh entry exists for id.
func (c *PageCache) ContainsID(id int64) bool {
	_, err := c.ByID(id)
	return err == nil
}

// ContainsPermalink reports whether a fresh entry exists for permalink.
func (c *PageCache) ContainsPermalink(permalink string) bool {
	_, err := c.ByPermalink(permalink)
	return err == nil
}

// ByID returns the cached page for id, or ErrCacheMiss.
func (c *PageCache) ByID(id int64) (*Page, error) {
	e, ok := c.byID[id]
	if !ok {
		return nil, ErrCacheMiss
	}
	if c.expired(e) {
		c.Remove(e.page)
		return nil, ErrCacheMiss
	}
	return e.page, nil
}

// ByPermalink returns the cached page for permalink, or ErrCacheMiss.
func (c *PageCache) ByPermalink(permalink string) (*Page, error) {
	if permalink == "" {
		return nil, ErrCacheMiss
	}
	e, ok := c.byPermalink[permalink]
	if !ok {
		return nil, ErrCacheMiss
	}
	// The cached instance may have been edited in place since it was added.
	if e.page.Permalink != permalink {
		delete(c.byPermalink, permalink)
		return nil, ErrCacheMiss
	}
	if c.expired(e) {
		c.Remove(e.page)
		return nil, ErrCacheMiss
	}
	return e.page, nil
}

func (c *PageCache) expired(e cacheEntry) bool {
	if c.policy.MaxAge <= 0 {
		return false
	}
	return c.clock().Sub(e.addedAt) > c.policy.MaxAge
}
