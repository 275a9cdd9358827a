package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tendant/simple-pages/pkg/pages"
)

// Repository implements pages.Store using in-memory storage
type Repository struct {
	mu     sync.RWMutex
	pages  map[int64]*pages.Page
	nextID int64
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		pages:  make(map[int64]*pages.Page),
		nextID: 1,
	}
}

func (r *Repository) FindPages(ctx context.Context, q pages.Query) ([]*pages.Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*pages.Page
	for _, p := range r.pages {
		if q.Matches(p) {
			// Return a copy to prevent external modifications
			result = append(result, p.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].SortOrder != result[j].SortOrder {
			return result[i].SortOrder < result[j].SortOrder
		}
		return result[i].ID < result[j].ID
	})

	if q.MaxResults > 0 && len(result) > q.MaxResults {
		result = result[:q.MaxResults]
	}
	return result, nil
}

func (r *Repository) CreatePage(ctx context.Context, page *pages.Page) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUnique(page); err != nil {
		return err
	}
	if page.ParentID != nil {
		if _, exists := r.pages[*page.ParentID]; !exists {
			return fmt.Errorf("parent %d: %w", *page.ParentID, pages.ErrPageNotFound)
		}
	}

	page.ID = r.nextID
	r.nextID++
	r.pages[page.ID] = page.Clone()
	return nil
}

func (r *Repository) UpdatePage(ctx context.Context, page *pages.Page) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pages[page.ID]; !exists {
		return pages.ErrPageNotFound
	}
	if err := r.checkUnique(page); err != nil {
		return err
	}

	r.pages[page.ID] = page.Clone()
	return nil
}

func (r *Repository) DeletePage(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pages[id]; !exists {
		return pages.ErrPageNotFound
	}
	for _, p := range r.pages {
		if p.ParentID != nil && *p.ParentID == id {
			return pages.ErrPageHasChildren
		}
	}
	delete(r.pages, id)
	return nil
}

// checkUnique enforces permalink uniqueness per site and (parent, url
// title) uniqueness. Caller must hold the write lock.
func (r *Repository) checkUnique(page *pages.Page) error {
	for id, p := range r.pages {
		if id == page.ID || p.SiteID != page.SiteID {
			continue
		}
		if page.Permalink != "" && p.Permalink == page.Permalink {
			return fmt.Errorf("permalink %q: %w", page.Permalink, pages.ErrDuplicatePage)
		}
		if page.ParentID != nil && p.ParentID != nil && *p.ParentID == *page.ParentID && p.URLTitle == page.URLTitle {
			return fmt.Errorf("url title %q under parent %d: %w", page.URLTitle, *page.ParentID, pages.ErrDuplicatePage)
		}
	}
	return nil
}
