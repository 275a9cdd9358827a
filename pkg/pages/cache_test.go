package pages_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-pages/pkg/pages"
)

func TestPageCache_AddLookupRemove(t *testing.T) {
	c := pages.NewPageCache(pages.CachePolicy{}, nil)
	page := &pages.Page{ID: 7, Title: "About", Permalink: "about-page"}

	c.Add(page)

	got, err := c.ByID(7)
	require.NoError(t, err)
	assert.Same(t, page, got)

	got, err = c.ByPermalink("about-page")
	require.NoError(t, err)
	assert.Same(t, page, got)

	c.Remove(page)

	_, err = c.ByID(7)
	assert.True(t, errors.Is(err, pages.ErrCacheMiss))
	_, err = c.ByPermalink("about-page")
	assert.True(t, errors.Is(err, pages.ErrCacheMiss))
	assert.Equal(t, 0, c.Len())
}

func TestPageCache_RemoveIsIdempotent(t *testing.T) {
	c := pages.NewPageCache(pages.CachePolicy{}, nil)
	page := &pages.Page{ID: 1, Permalink: "home"}
	c.Add(page)

	assert.NotPanics(t, func() {
		c.Remove(page)
		c.Remove(page)
		c.Remove(&pages.Page{ID: 99})
		c.Remove(nil)
	})
	assert.False(t, c.ContainsID(1))
}

func TestPageCache_LastWriteWins(t *testing.T) {
	c := pages.NewPageCache(pages.CachePolicy{}, nil)
	c.Add(&pages.Page{ID: 3, Title: "Old", Permalink: "news"})
	c.Add(&pages.Page{ID: 3, Title: "New", Permalink: "news"})

	byID, err := c.ByID(3)
	require.NoError(t, err)
	assert.Equal(t, "New", byID.Title)

	byPermalink, err := c.ByPermalink("news")
	require.NoError(t, err)
	assert.Equal(t, "New", byPermalink.Title)
}

func TestPageCache_PermalinkChangeDropsOldKey(t *testing.T) {
	c := pages.NewPageCache(pages.CachePolicy{}, nil)
	c.Add(&pages.Page{ID: 3, Permalink: "old"})
	c.Add(&pages.Page{ID: 3, Permalink: "new"})

	assert.False(t, c.ContainsPermalink("old"))
	assert.True(t, c.ContainsPermalink("new"))
}

func TestPageCache_InPlaceEditInvalidatesPermalink(t *testing.T) {
	c := pages.NewPageCache(pages.CachePolicy{}, nil)
	page := &pages.Page{ID: 3, Permalink: "old"}
	c.Add(page)

	page.Permalink = "renamed"

	_, err := c.ByPermalink("old")
	assert.ErrorIs(t, err, pages.ErrCacheMiss)
}

func TestPageCache_ReassignedPermalinkSurvivesRemove(t *testing.T) {
	c := pages.NewPageCache(pages.CachePolicy{}, nil)
	first := &pages.Page{ID: 1, Permalink: "shared"}
	second := &pages.Page{ID: 2, Permalink: "shared"}
	c.Add(first)
	c.Add(second)

	c.Remove(first)

	got, err := c.ByPermalink("shared")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ID)
}

func TestPageCache_EmptyPermalinkNotIndexed(t *testing.T) {
	c := pages.NewPageCache(pages.CachePolicy{}, nil)
	c.Add(&pages.Page{ID: 4})

	assert.True(t, c.ContainsID(4))
	assert.False(t, c.ContainsPermalink(""))
}

func TestPageCache_MaxAge(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := pages.NewPageCache(pages.CachePolicy{MaxAge: time.Minute}, clock)

	c.Add(&pages.Page{ID: 5, Permalink: "contact"})

	now = now.Add(30 * time.Second)
	assert.True(t, c.ContainsID(5))

	now = now.Add(time.Minute)
	_, err := c.ByPermalink("contact")
	assert.ErrorIs(t, err, pages.ErrCacheMiss)
	assert.False(t, c.ContainsID(5))
	assert.Equal(t, 0, c.Len())
}

func TestPageCache_Clear(t *testing.T) {
	c := pages.NewPageCache(pages.CachePolicy{}, nil)
	c.Add(&pages.Page{ID: 1, Permalink: "a"})
	c.Add(&pages.Page{ID: 2, Permalink: "b"})

	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.False(t, c.ContainsPermalink("a"))
}
