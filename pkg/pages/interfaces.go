package pages

import (
	"context"
	"time"
)

// Store defines the interface for page persistence. Implementations only
// evaluate queries; publication filtering and site scoping are decided by
// the managers.
type Store interface {
	// FindPages returns the pages matching q ordered by sort order, then id
	FindPages(ctx context.Context, q Query) ([]*Page, error)

	// CreatePage inserts the page and assigns its ID
	CreatePage(ctx context.Context, page *Page) error

	// UpdatePage replaces the stored row for page.ID
	UpdatePage(ctx context.Context, page *Page) error

	// DeletePage removes the row for id
	DeletePage(ctx context.Context, id int64) error
}

// SiteResolver supplies the current site used for scoping queries.
type SiteResolver interface {
	CurrentSite(ctx context.Context) (int64, error)
}

// Principal is the requesting user as seen by preview checks.
type Principal interface {
	IsAuthenticated() bool
	IsStaff() bool
	IsActive() bool
}

// Recorder receives instrumentation events from the managers.
type Recorder interface {
	// CacheLookup records a session cache lookup keyed by "id" or "permalink"
	CacheLookup(key string, hit bool)

	// StoreQuery records a store round trip
	StoreQuery(op string, d time.Duration, err error)
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time
