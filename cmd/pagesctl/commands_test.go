package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-pages/pkg/pages"
	"github.com/tendant/simple-pages/pkg/pages/repo/memory"
)

const fixture = `
pages:
  - title: Home
    children:
      - title: About
        url_title: about
        permalink: about-page
      - title: Drafts
        url_title: drafts
        online: false
`

func setupGlobal(t *testing.T) (*Global, *bytes.Buffer) {
	t.Helper()

	m, err := pages.New(pages.WithStore(memory.New()))
	require.NoError(t, err)

	var out bytes.Buffer
	g := &Global{Manager: m, Out: &out}

	path := filepath.Join(t.TempDir(), "pages.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))
	require.NoError(t, (&SeedCmd{File: path}).Run(g))
	assert.Equal(t, "Created 3 pages\n", out.String())
	out.Reset()

	return g, &out
}

func TestTreeCmd(t *testing.T) {
	g, out := setupGlobal(t)

	require.NoError(t, (&TreeCmd{}).Run(g))
	text := out.String()
	assert.Contains(t, text, "Home")
	assert.Contains(t, text, "  About")
	assert.Contains(t, text, "/about/")
	assert.Contains(t, text, "/drafts/")
	assert.Contains(t, text, "hidden")
}

func TestTreeCmdPublishedOnly(t *testing.T) {
	g, out := setupGlobal(t)
	g.Published = true

	require.NoError(t, (&TreeCmd{}).Run(g))
	assert.Contains(t, out.String(), "/about/")
	assert.NotContains(t, out.String(), "Drafts")
}

func TestResolveCmd(t *testing.T) {
	g, out := setupGlobal(t)

	require.NoError(t, (&ResolveCmd{Ident: "about-page"}).Run(g))
	assert.Contains(t, out.String(), "URL:       /about/")
	assert.Contains(t, out.String(), "Permalink: about-page")

	out.Reset()
	require.NoError(t, (&ResolveCmd{Ident: "1", JSON: true}).Run(g))
	assert.Contains(t, out.String(), `"url": "/"`)
	assert.Contains(t, out.String(), `"title": "Home"`)

	err := (&ResolveCmd{Ident: "missing"}).Run(g)
	assert.ErrorIs(t, err, pages.ErrPageNotFound)
}

func TestURLCmd(t *testing.T) {
	g, out := setupGlobal(t)

	tests := []struct {
		slug string
		want string
	}{
		{"about-page", "/about/\n"},
		{"1", "/\n"},
		{"/literal/path/", "/literal/path/\n"},
		{"unknown", "unknown\n"},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			out.Reset()
			require.NoError(t, (&URLCmd{Slug: tt.slug}).Run(g))
			assert.Equal(t, tt.want, out.String())
		})
	}
}
