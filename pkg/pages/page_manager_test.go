package pages_test

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-pages/pkg/pages"
	"github.com/tendant/simple-pages/pkg/pages/repo/memory"
	"github.com/tendant/simple-pages/pkg/pages/repo/sqlite"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// countingStore records how often the manager reaches the store.
type countingStore struct {
	pages.Store
	mu    sync.Mutex
	finds int
}

func (s *countingStore) FindPages(ctx context.Context, q pages.Query) ([]*pages.Page, error) {
	s.mu.Lock()
	s.finds++
	s.mu.Unlock()
	return s.Store.FindPages(ctx, q)
}

func (s *countingStore) Finds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finds
}

func setupTestManager(t *testing.T, options ...pages.Option) (*pages.PageManager, *countingStore) {
	store := &countingStore{Store: memory.New()}
	opts := append([]pages.Option{
		pages.WithStore(store),
		pages.WithClock(func() time.Time { return testNow }),
	}, options...)

	m, err := pages.New(opts...)
	require.NoError(t, err)
	require.NotNil(t, m)
	return m, store
}

func newSessionContext() (context.Context, *pages.Session) {
	s := pages.NewSession(pages.SessionOptions{Clock: func() time.Time { return testNow }})
	return pages.WithSession(context.Background(), s), s
}

func mustSave(t *testing.T, m *pages.PageManager, page *pages.Page) *pages.Page {
	t.Helper()
	require.NoError(t, m.Save(context.Background(), page))
	require.NotZero(t, page.ID)
	return page
}

func childOf(parent *pages.Page, urlTitle string) *pages.Page {
	id := parent.ID
	return &pages.Page{
		ParentID:     &id,
		Title:        urlTitle,
		URLTitle:     urlTitle,
		IsOnline:     true,
		InNavigation: true,
	}
}

func root(t *testing.T, m *pages.PageManager) *pages.Page {
	return mustSave(t, m, &pages.Page{Title: "Home", IsOnline: true, InNavigation: true})
}

func TestManagerCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []pages.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []pages.Option{},
			expectError: true,
		},
		{
			name:        "with store should succeed",
			options:     []pages.Option{pages.WithStore(memory.New())},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := pages.New(tt.options...)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, m)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, m)
			}
		})
	}
}

func TestAbsoluteURLAndPermalinkCache(t *testing.T) {
	m, store := setupTestManager(t)
	home := root(t, m)
	about := childOf(home, "about")
	about.Permalink = "about-page"
	mustSave(t, m, about)

	ctx, _ := newSessionContext()

	url, err := m.AbsoluteURL(ctx, about)
	require.NoError(t, err)
	assert.Equal(t, "/about/", url)

	homeURL, err := m.AbsoluteURL(ctx, home)
	require.NoError(t, err)
	assert.Equal(t, "/", homeURL)

	first, err := m.GetByPermalink(ctx, "about-page")
	require.NoError(t, err)
	finds := store.Finds()

	second, err := m.GetByPermalink(ctx, "about-page")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, finds, store.Finds(), "second lookup must not reach the store")

	byID, err := m.GetByID(ctx, about.ID)
	require.NoError(t, err)
	assert.Same(t, first, byID)
	assert.Equal(t, finds, store.Finds())
}

func TestLoadedPagesAreCached(t *testing.T) {
	m, store := setupTestManager(t)
	home := root(t, m)
	mustSave(t, m, childOf(home, "a"))
	mustSave(t, m, childOf(home, "b"))

	ctx, session := newSessionContext()
	children, err := m.Children(ctx, home)
	require.NoError(t, err)
	require.Len(t, children, 2)

	finds := store.Finds()
	for _, child := range children {
		assert.True(t, session.Cache.ContainsID(child.ID))
		_, err := m.GetByID(ctx, child.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, finds, store.Finds())
}

func TestSessionsDoNotShareCache(t *testing.T) {
	m, store := setupTestManager(t)
	home := root(t, m)

	ctx1, _ := newSessionContext()
	_, err := m.GetByID(ctx1, home.ID)
	require.NoError(t, err)

	finds := store.Finds()
	ctx2, session2 := newSessionContext()
	assert.False(t, session2.Cache.ContainsID(home.ID))
	_, err = m.GetByID(ctx2, home.ID)
	require.NoError(t, err)
	assert.Equal(t, finds+1, store.Finds())
}

func TestPublicationFiltering(t *testing.T) {
	m, _ := setupTestManager(t)
	home := root(t, m)
	online := mustSave(t, m, childOf(home, "online"))
	offline := childOf(home, "offline")
	offline.IsOnline = false
	mustSave(t, m, offline)

	future := testNow.Add(time.Hour)
	scheduled := childOf(home, "scheduled")
	scheduled.PublicationDate = &future
	mustSave(t, m, scheduled)

	past := testNow.Add(-time.Hour)
	expired := childOf(home, "expired")
	expired.ExpiryDate = &past
	mustSave(t, m, expired)

	ctx, _ := newSessionContext()

	all, err := m.Children(ctx, home)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	err = pages.Scoped(ctx, true, func() error {
		q, err := m.QuerySet(ctx)
		require.NoError(t, err)
		assert.NotNil(t, q.PublishedAt)

		visible, err := m.Children(ctx, home)
		require.NoError(t, err)
		require.Len(t, visible, 1)
		assert.Equal(t, online.ID, visible[0].ID)
		return nil
	})
	require.NoError(t, err)

	q, err := m.QuerySet(ctx)
	require.NoError(t, err)
	assert.Nil(t, q.PublishedAt)
}

func TestScopedWithoutSession(t *testing.T) {
	err := pages.Scoped(context.Background(), true, func() error { return nil })
	assert.ErrorIs(t, err, pages.ErrNoSession)
}

func TestCacheHitRespectsFiltering(t *testing.T) {
	m, _ := setupTestManager(t)
	home := root(t, m)
	draft := childOf(home, "draft")
	draft.Permalink = "draft"
	draft.IsOnline = false
	mustSave(t, m, draft)

	ctx, session := newSessionContext()
	_, err := m.GetByPermalink(ctx, "draft")
	require.NoError(t, err)
	require.True(t, session.Cache.ContainsPermalink("draft"))

	err = pages.Scoped(ctx, true, func() error {
		_, err := m.GetByPermalink(ctx, "draft")
		assert.ErrorIs(t, err, pages.ErrPageNotFound)
		_, err = m.GetByID(ctx, draft.ID)
		assert.ErrorIs(t, err, pages.ErrPageNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestSiteScoping(t *testing.T) {
	m, _ := setupTestManager(t, pages.WithSiteResolver(pages.ContextSite{Default: 1}))

	site2 := pages.WithSite(context.Background(), 2)
	other := &pages.Page{Title: "Other home", Permalink: "other", IsOnline: true}
	require.NoError(t, m.Save(site2, other))
	assert.Equal(t, int64(2), other.SiteID)

	ctx, _ := newSessionContext()
	_, err := m.GetByPermalink(ctx, "other")
	assert.ErrorIs(t, err, pages.ErrPageNotFound)

	ctx2, _ := newSessionContext()
	ctx2 = pages.WithSite(ctx2, 2)
	got, err := m.GetByPermalink(ctx2, "other")
	require.NoError(t, err)
	assert.Equal(t, other.ID, got.ID)

	// A cached page from another site is not served.
	_, err = m.GetByID(pages.WithSite(ctx2, 1), other.ID)
	assert.ErrorIs(t, err, pages.ErrPageNotFound)

	published, err := m.IsPublished(ctx, other)
	require.NoError(t, err)
	assert.False(t, published)
}

func TestResolveURL(t *testing.T) {
	m, _ := setupTestManager(t)
	home := root(t, m)
	shop := mustSave(t, m, childOf(home, "shop"))

	ctx, _ := newSessionContext()

	url, err := m.ResolveURL(ctx, "products")
	require.NoError(t, err)
	assert.Equal(t, "products", url)

	products := childOf(shop, "products")
	products.Permalink = "products"
	mustSave(t, m, products)

	url, err = m.ResolveURL(ctx, "products")
	require.NoError(t, err)
	assert.Equal(t, "/shop/products/", url)

	url, err = m.ResolveURL(ctx, "/already/a/path/")
	require.NoError(t, err)
	assert.Equal(t, "/already/a/path/", url)

	url, err = m.ResolveURL(ctx, "http://example.com/x")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/x", url)

	url, err = m.ResolveURL(ctx, itoa(shop.ID))
	require.NoError(t, err)
	assert.Equal(t, "/shop/", url)

	url, err = m.ResolveURL(ctx, "99999")
	require.NoError(t, err)
	assert.Equal(t, "99999", url)
}

func TestEmptyPermalinkIsNotFound(t *testing.T) {
	backends := []struct {
		name  string
		store func(t *testing.T) pages.Store
	}{
		{name: "memory", store: func(t *testing.T) pages.Store { return memory.New() }},
		{name: "sqlite", store: func(t *testing.T) pages.Store {
			db, err := sqlite.Open(":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })
			repo := sqlite.New(db)
			require.NoError(t, repo.Migrate(context.Background()))
			return repo
		}},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			store := &countingStore{Store: b.store(t)}
			m, err := pages.New(pages.WithStore(store), pages.WithClock(func() time.Time { return testNow }))
			require.NoError(t, err)

			home := root(t, m)
			mustSave(t, m, childOf(home, "about"))

			ctx, _ := newSessionContext()
			before := store.Finds()

			_, err = m.GetByPermalink(ctx, "")
			assert.ErrorIs(t, err, pages.ErrPageNotFound)

			_, err = m.ResolveAny(ctx, "")
			assert.ErrorIs(t, err, pages.ErrPageNotFound)

			url, err := m.ResolveURL(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, "", url)

			assert.Equal(t, before, store.Finds())
		})
	}
}

func TestResolve(t *testing.T) {
	m, _ := setupTestManager(t)
	home := root(t, m)
	about := childOf(home, "about")
	about.Permalink = "about"
	mustSave(t, m, about)

	ctx, _ := newSessionContext()

	tests := []struct {
		name  string
		ident pages.Identifier
		want  int64
	}{
		{name: "page", ident: about, want: about.ID},
		{name: "id", ident: pages.ID(about.ID), want: about.ID},
		{name: "permalink", ident: pages.Permalink("about"), want: about.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Resolve(ctx, tt.ident)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ID)
		})
	}

	got, err := m.Resolve(ctx, about)
	require.NoError(t, err)
	assert.Same(t, about, got)
}

func TestResolveAny(t *testing.T) {
	m, _ := setupTestManager(t)
	home := root(t, m)

	ctx, _ := newSessionContext()

	for _, v := range []interface{}{home, *home, int(home.ID), home.ID, itoa(home.ID)} {
		got, err := m.ResolveAny(ctx, v)
		require.NoError(t, err, "%T", v)
		assert.Equal(t, home.ID, got.ID)
	}

	_, err := m.ResolveAny(ctx, 3.14)
	var typeErr *pages.IdentifierTypeError
	require.True(t, errors.As(err, &typeErr))
	assert.Contains(t, err.Error(), "float64")

	_, err = m.ResolveAny(ctx, (*pages.Page)(nil))
	assert.True(t, errors.As(err, &typeErr))
}

func TestIdentifierOfIntegerKinds(t *testing.T) {
	for _, v := range []interface{}{
		int(7), int8(7), int16(7), int32(7), int64(7),
		uint(7), uint8(7), uint16(7), uint32(7), uint64(7),
	} {
		ident, err := pages.IdentifierOf(v)
		require.NoError(t, err, "%T", v)
		assert.Equal(t, pages.ID(7), ident, "%T", v)
	}

	_, err := pages.IdentifierOf(uint64(math.MaxUint64))
	assert.ErrorIs(t, err, pages.ErrPageNotFound)

	m, _ := setupTestManager(t)
	ctx, _ := newSessionContext()
	_, err = m.ResolveAny(ctx, uint64(math.MaxInt64)+1)
	assert.ErrorIs(t, err, pages.ErrPageNotFound)
}

func TestParseIdentifier(t *testing.T) {
	assert.Equal(t, pages.ID(42), pages.ParseIdentifier("42"))
	assert.Equal(t, pages.ID(-1), pages.ParseIdentifier("-1"))
	assert.Equal(t, pages.Permalink("about"), pages.ParseIdentifier("about"))
	assert.Equal(t, pages.Permalink("42a"), pages.ParseIdentifier("42a"))
}

func TestHomepage(t *testing.T) {
	t.Run("no root", func(t *testing.T) {
		m, _ := setupTestManager(t)
		ctx, _ := newSessionContext()

		_, err := m.Homepage(ctx)
		var integrity *pages.IntegrityError
		require.True(t, errors.As(err, &integrity))
		assert.Equal(t, pages.DefaultSiteID, integrity.SiteID)
		assert.ErrorIs(t, err, pages.ErrPageNotFound)
	})

	t.Run("single root", func(t *testing.T) {
		m, _ := setupTestManager(t)
		home := root(t, m)
		mustSave(t, m, childOf(home, "about"))
		ctx, _ := newSessionContext()

		got, err := m.Homepage(ctx)
		require.NoError(t, err)
		assert.Equal(t, home.ID, got.ID)
	})

	t.Run("two roots", func(t *testing.T) {
		m, _ := setupTestManager(t)
		root(t, m)
		root(t, m)
		ctx, _ := newSessionContext()

		_, err := m.Homepage(ctx)
		var integrity *pages.IntegrityError
		require.True(t, errors.As(err, &integrity))
		assert.ErrorIs(t, err, pages.ErrMultiplePages)
	})
}

func TestSaveRefreshesCache(t *testing.T) {
	m, store := setupTestManager(t)
	home := root(t, m)
	about := childOf(home, "about")
	about.Permalink = "about"
	mustSave(t, m, about)

	ctx, _ := newSessionContext()
	cached, err := m.GetByPermalink(ctx, "about")
	require.NoError(t, err)
	assert.Equal(t, "about", cached.Title)

	updated := cached.Clone()
	updated.Title = "About us"
	updated.Permalink = "about-us"
	require.NoError(t, m.Save(ctx, updated))

	finds := store.Finds()
	got, err := m.GetByID(ctx, about.ID)
	require.NoError(t, err)
	assert.Equal(t, "About us", got.Title)
	assert.Equal(t, finds, store.Finds())

	got, err = m.GetByPermalink(ctx, "about-us")
	require.NoError(t, err)
	assert.Same(t, updated, got)

	_, err = m.GetByPermalink(ctx, "about")
	assert.ErrorIs(t, err, pages.ErrPageNotFound)
}

func TestSaveSetsLastModified(t *testing.T) {
	m, _ := setupTestManager(t)
	home := root(t, m)
	assert.Equal(t, testNow, home.LastModified)
	assert.Equal(t, pages.DefaultSiteID, home.SiteID)
}

func TestSaveValidation(t *testing.T) {
	m, _ := setupTestManager(t)
	home := root(t, m)
	before := testNow.Add(-time.Hour)
	missing := int64(999)

	tests := []struct {
		name string
		page *pages.Page
		want error
	}{
		{name: "missing title", page: &pages.Page{}, want: pages.ErrInvalidPage},
		{name: "missing url title", page: &pages.Page{Title: "X", ParentID: &home.ID}, want: pages.ErrInvalidPage},
		{name: "bad url title", page: &pages.Page{Title: "X", ParentID: &home.ID, URLTitle: "a b"}, want: pages.ErrInvalidPage},
		{name: "bad permalink", page: &pages.Page{Title: "X", Permalink: "a/b"}, want: pages.ErrInvalidPage},
		{name: "integer permalink", page: &pages.Page{Title: "X", Permalink: "12"}, want: pages.ErrInvalidPage},
		{name: "expiry before publication", page: &pages.Page{Title: "X", PublicationDate: &testNow, ExpiryDate: &before}, want: pages.ErrInvalidPage},
		{name: "missing parent", page: &pages.Page{Title: "X", ParentID: &missing, URLTitle: "x"}, want: pages.ErrInvalidPage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Save(context.Background(), tt.page)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, tt.page.ID)
		})
	}
}

func TestSaveRejectsCycles(t *testing.T) {
	m, _ := setupTestManager(t)
	a := root(t, m)
	b := mustSave(t, m, childOf(a, "b"))
	c := mustSave(t, m, childOf(b, "c"))

	a.ParentID = &c.ID
	a.URLTitle = "a"
	err := m.Save(context.Background(), a)
	assert.ErrorIs(t, err, pages.ErrCyclicHierarchy)

	b.ParentID = &b.ID
	err = m.Save(context.Background(), b)
	assert.ErrorIs(t, err, pages.ErrCyclicHierarchy)
}

func TestSaveDuplicate(t *testing.T) {
	m, _ := setupTestManager(t)
	home := root(t, m)
	mustSave(t, m, childOf(home, "about"))

	err := m.Save(context.Background(), childOf(home, "about"))
	assert.ErrorIs(t, err, pages.ErrDuplicatePage)
	var pageErr *pages.PageError
	require.True(t, errors.As(err, &pageErr))
	assert.Equal(t, "create", pageErr.Op)
}

func TestDeleteCascadesAndEvicts(t *testing.T) {
	var deleted []int64
	hooks := &pages.Hooks{AfterDelete: []pages.AfterDeleteHook{
		func(hctx *pages.HookContext, page *pages.Page) error {
			deleted = append(deleted, page.ID)
			return nil
		},
	}}
	m, _ := setupTestManager(t, pages.WithHooks(hooks))

	home := root(t, m)
	section := childOf(home, "section")
	section.Permalink = "section"
	mustSave(t, m, section)
	first := mustSave(t, m, childOf(section, "first"))
	hidden := childOf(section, "hidden")
	hidden.IsOnline = false
	mustSave(t, m, hidden)
	leaf := mustSave(t, m, childOf(first, "leaf"))

	ctx, session := newSessionContext()
	_, err := m.AllChildren(ctx, section)
	require.NoError(t, err)
	_, err = m.GetByPermalink(ctx, "section")
	require.NoError(t, err)

	// Descendants hidden by filtering are still deleted.
	err = pages.Scoped(ctx, true, func() error {
		return m.Delete(ctx, section)
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{hidden.ID, leaf.ID, first.ID, section.ID}, deleted)
	for _, id := range deleted {
		assert.False(t, session.Cache.ContainsID(id))
	}
	assert.False(t, session.Cache.ContainsPermalink("section"))

	children, err := m.Children(ctx, home)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestHierarchyTraversal(t *testing.T) {
	m, _ := setupTestManager(t)
	home := root(t, m)
	a := childOf(home, "a")
	a.SortOrder = 2
	mustSave(t, m, a)
	b := childOf(home, "b")
	b.SortOrder = 1
	b.InNavigation = false
	mustSave(t, m, b)
	a1 := mustSave(t, m, childOf(a, "a1"))

	ctx, _ := newSessionContext()

	all, err := m.AllChildren(ctx, home)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID, a.ID, a1.ID}, ids(all))

	parents, err := m.AllParents(ctx, a1)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, home.ID}, ids(parents))

	nav, err := m.Navigation(ctx, home)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID}, ids(nav))

	published, err := m.PublishedChildren(ctx, home)
	require.NoError(t, err)
	assert.Len(t, published, 2)

	filtered, err := m.Filter(ctx, func(q pages.Query) pages.Query { return q.WithURLTitle("a1") })
	require.NoError(t, err)
	assert.Equal(t, []int64{a1.ID}, ids(filtered))

	url, err := m.AbsoluteURL(ctx, a1)
	require.NoError(t, err)
	assert.Equal(t, "/a/a1/", url)
}

func TestHooks(t *testing.T) {
	veto := errors.New("veto")
	var saved []string
	var failures []string
	hooks := &pages.Hooks{
		BeforeSave: []pages.BeforeSaveHook{
			func(hctx *pages.HookContext, page *pages.Page) error {
				if page.Title == "forbidden" {
					return veto
				}
				return nil
			},
		},
		AfterSave: []pages.AfterSaveHook{
			func(hctx *pages.HookContext, page *pages.Page) error {
				saved = append(saved, page.Title)
				hctx.StopChain = true
				return nil
			},
			func(hctx *pages.HookContext, page *pages.Page) error {
				t.Fatal("chain should have stopped")
				return nil
			},
		},
		OnError: []pages.ErrorHook{
			func(hctx *pages.HookContext, operation string, err error) {
				failures = append(failures, operation)
			},
		},
	}
	m, _ := setupTestManager(t, pages.WithHooks(hooks))

	root(t, m)
	err := m.Save(context.Background(), &pages.Page{Title: "forbidden"})
	assert.ErrorIs(t, err, veto)
	err = m.Save(context.Background(), &pages.Page{})
	assert.ErrorIs(t, err, pages.ErrInvalidPage)

	assert.Equal(t, []string{"Home"}, saved)
	assert.Equal(t, []string{"save"}, failures)
}

func TestContent(t *testing.T) {
	m, _ := setupTestManager(t)
	page := &pages.Page{Title: "Home"}

	content, err := m.Content(page)
	require.NoError(t, err)
	assert.Nil(t, content)

	require.NoError(t, m.Registry().Encode(page, &pages.HTMLContent{Content: "<p>Hi</p>"}))
	assert.Equal(t, pages.HTMLContentType, page.ContentType)

	content, err = m.Content(page)
	require.NoError(t, err)
	html, ok := content.(*pages.HTMLContent)
	require.True(t, ok)
	assert.Equal(t, "<p>Hi</p>", html.Content)

	page.ContentType = "gallery"
	_, err = m.Content(page)
	assert.ErrorIs(t, err, pages.ErrUnknownContentType)
}

type galleryContent struct {
	Images []string `json:"images"`
}

func (*galleryContent) Type() string { return "gallery" }

func TestContentRegistry(t *testing.T) {
	r := pages.NewContentRegistry()
	assert.Equal(t, []string{"html"}, r.Types())

	page := &pages.Page{ID: 1}
	err := r.Encode(page, &galleryContent{Images: []string{"a.png"}})
	assert.ErrorIs(t, err, pages.ErrUnknownContentType)

	r.Register("gallery", pages.JSONFactory[*galleryContent]())
	assert.Equal(t, []string{"gallery", "html"}, r.Types())

	require.NoError(t, r.Encode(page, &galleryContent{Images: []string{"a.png", "b.png"}}))
	content, err := r.Decode(page)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png"}, content.(*galleryContent).Images)

	page.ContentData = "{not json"
	_, err = r.Decode(page)
	var pageErr *pages.PageError
	require.True(t, errors.As(err, &pageErr))
	assert.Equal(t, "decode_content", pageErr.Op)
}

func ids(list []*pages.Page) []int64 {
	out := make([]int64, 0, len(list))
	for _, p := range list {
		out = append(out, p.ID)
	}
	return out
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
