package pages

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultSiteID is used when no SiteResolver is configured.
const DefaultSiteID int64 = 1

// PublishedManager builds page queries, applying the publication predicate
// when the session carried by the context has filtering active.
type PublishedManager struct {
	store    Store
	clock    Clock
	recorder Recorder
	logger   *slog.Logger
}

// QuerySet returns the base query for the current publication mode.
func (m *PublishedManager) QuerySet(ctx context.Context) Query {
	var q Query
	if m.filteringActive(ctx) {
		q = q.Published(m.clock())
	}
	return q
}

func (m *PublishedManager) filteringActive(ctx context.Context) bool {
	s := SessionFrom(ctx)
	return s != nil && s.Publication.SelectPublishedActive()
}

// find runs q against the store and caches every loaded page in the
// session.
func (m *PublishedManager) find(ctx context.Context, op string, q Query) ([]*Page, error) {
	start := time.Now()
	found, err := m.store.FindPages(ctx, q)
	m.recorder.StoreQuery(op, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if s := SessionFrom(ctx); s != nil {
		for _, p := range found {
			if p.ID != 0 {
				s.Cache.Add(p)
			}
		}
	}
	return found, nil
}

// get returns the single page matching q.
func (m *PublishedManager) get(ctx context.Context, op string, q Query) (*Page, error) {
	found, err := m.find(ctx, op, q.Limit(2))
	if err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, ErrPageNotFound
	case 1:
		return found[0], nil
	default:
		return nil, ErrMultiplePages
	}
}

// PageBaseManager scopes queries to the current site on top of
// PublishedManager.
type PageBaseManager struct {
	PublishedManager
	sites SiteResolver
}

// QuerySet returns the publication-aware query scoped to the current site.
func (m *PageBaseManager) QuerySet(ctx context.Context) (Query, error) {
	q := m.PublishedManager.QuerySet(ctx)
	site, err := m.sites.CurrentSite(ctx)
	if err != nil {
		return Query{}, fmt.Errorf("failed to resolve current site: %w", err)
	}
	return q.ForSite(site), nil
}

// PageManager resolves pages by id, permalink or mixed identifiers, using
// the session cache before the store, and keeps the cache consistent across
// saves and deletes.
type PageManager struct {
	PageBaseManager
	hooks    *Hooks
	registry *ContentRegistry
}

// Option represents a functional option for configuring the manager
type Option func(*PageManager)

// WithStore sets the page store
func WithStore(store Store) Option {
	return func(m *PageManager) {
		m.store = store
	}
}

// WithSiteResolver sets the current site resolver
func WithSiteResolver(sites SiteResolver) Option {
	return func(m *PageManager) {
		m.sites = sites
	}
}

// WithClock overrides the time source used for publication checks
func WithClock(clock Clock) Option {
	return func(m *PageManager) {
		m.clock = clock
	}
}

// WithRecorder sets the instrumentation recorder
func WithRecorder(recorder Recorder) Option {
	return func(m *PageManager) {
		m.recorder = recorder
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *PageManager) {
		m.logger = logger
	}
}

// WithHooks sets lifecycle hooks
func WithHooks(hooks *Hooks) Option {
	return func(m *PageManager) {
		m.hooks = hooks
	}
}

// WithContentRegistry sets the registry used to decode page content
func WithContentRegistry(registry *ContentRegistry) Option {
	return func(m *PageManager) {
		m.registry = registry
	}
}

// New creates a PageManager with the given options
func New(options ...Option) (*PageManager, error) {
	m := &PageManager{}
	for _, option := range options {
		option(m)
	}

	if m.store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if m.sites == nil {
		m.sites = StaticSite(DefaultSiteID)
	}
	if m.clock == nil {
		m.clock = time.Now
	}
	if m.recorder == nil {
		m.recorder = NewNoopRecorder()
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.hooks == nil {
		m.hooks = &Hooks{}
	}
	if m.registry == nil {
		m.registry = NewContentRegistry()
	}
	return m, nil
}

// Registry returns the content registry.
func (m *PageManager) Registry() *ContentRegistry {
	return m.registry
}

// unfiltered runs fn with publication filtering disabled when a session
// is present.
func (m *PageManager) unfiltered(ctx context.Context, fn func() error) error {
	s := SessionFrom(ctx)
	if s == nil {
		return fn()
	}
	return s.Publication.Scoped(false, fn)
}
