// Package fixtures loads page trees described in YAML into a PageManager.
//
// A fixture file lists root pages, each with nested children:
//
//	pages:
//	  - title: Home
//	    permalink: home
//	    children:
//	      - title: About
//	        url_title: about
//	        content:
//	          type: html
//	          data:
//	            content: "<p>About us</p>"
//
// Pages are online and shown in navigation unless online or in_navigation
// is set to false. Sort order defaults to the position among siblings.
package fixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tendant/simple-pages/pkg/pages"
	"gopkg.in/yaml.v3"
)

// Tree is a parsed fixture file
type Tree struct {
	Pages []Node `yaml:"pages"`
}

// Node is one page and its children
type Node struct {
	Title           string     `yaml:"title"`
	ShortTitle      string     `yaml:"short_title"`
	URLTitle        string     `yaml:"url_title"`
	Permalink       string     `yaml:"permalink"`
	Online          *bool      `yaml:"online"`
	InNavigation    *bool      `yaml:"in_navigation"`
	SortOrder       *int       `yaml:"sort_order"`
	PublicationDate *time.Time `yaml:"publication_date"`
	ExpiryDate      *time.Time `yaml:"expiry_date"`
	BrowserTitle    string     `yaml:"browser_title"`
	MetaKeywords    string     `yaml:"meta_keywords"`
	MetaDescription string     `yaml:"meta_description"`
	Content         *Content   `yaml:"content"`
	Children        []Node     `yaml:"children"`
}

// Content is the typed payload of a fixture page
type Content struct {
	Type string                 `yaml:"type"`
	Data map[string]interface{} `yaml:"data"`
}

// Parse decodes a fixture document
func Parse(data []byte) (*Tree, error) {
	var tree Tree
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return &tree, nil
}

// Load reads and decodes a fixture document
func Load(r io.Reader) (*Tree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return Parse(data)
}

// LoadFile reads a fixture file from disk
func LoadFile(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Seed saves every page of the tree, parents before children, and returns
// the saved pages in that order.
func Seed(ctx context.Context, m *pages.PageManager, tree *Tree) ([]*pages.Page, error) {
	var saved []*pages.Page
	var walk func(nodes []Node, parent *pages.Page) error
	walk = func(nodes []Node, parent *pages.Page) error {
		for i, node := range nodes {
			page, err := node.page(m.Registry(), i)
			if err != nil {
				return err
			}
			if parent != nil {
				id := parent.ID
				page.ParentID = &id
			}
			if err := m.Save(ctx, page); err != nil {
				return fmt.Errorf("failed to save %q: %w", node.Title, err)
			}
			saved = append(saved, page)
			if err := walk(node.Children, page); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(tree.Pages, nil); err != nil {
		return saved, err
	}
	return saved, nil
}

func (n Node) page(registry *pages.ContentRegistry, position int) (*pages.Page, error) {
	page := &pages.Page{
		Title:           n.Title,
		ShortTitle:      n.ShortTitle,
		URLTitle:        n.URLTitle,
		Permalink:       n.Permalink,
		IsOnline:        boolOr(n.Online, true),
		InNavigation:    boolOr(n.InNavigation, true),
		SortOrder:       position,
		PublicationDate: n.PublicationDate,
		ExpiryDate:      n.ExpiryDate,
		BrowserTitle:    n.BrowserTitle,
		MetaKeywords:    n.MetaKeywords,
		MetaDescription: n.MetaDescription,
	}
	if n.SortOrder != nil {
		page.SortOrder = *n.SortOrder
	}

	if n.Content != nil {
		data, err := json.Marshal(n.Content.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode content of %q: %w", n.Title, err)
		}
		content, err := registry.DecodeData(n.Content.Type, data)
		if err != nil {
			return nil, fmt.Errorf("content of %q: %w", n.Title, err)
		}
		if err := registry.Encode(page, content); err != nil {
			return nil, err
		}
	}
	return page, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
