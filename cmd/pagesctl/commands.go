package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/tendant/simple-pages/pkg/pages"
	"github.com/tendant/simple-pages/pkg/pages/fixtures"
)

// CLI is the pagesctl command line.
type CLI struct {
	DatabaseURL string `name:"database-url" help:"Database URL (memory, postgres://..., sqlite://path); overrides DATABASE_URL"`
	Site        int64  `help:"Site id; overrides SITE_ID"`
	Published   bool   `short:"p" help:"Only show published pages"`
	Verbose     bool   `short:"v" help:"Enable verbose logging"`

	Tree    TreeCmd    `cmd:"" help:"Print the page tree of the site"`
	Resolve ResolveCmd `cmd:"" help:"Show the page for an id or permalink"`
	URL     URLCmd     `cmd:"" name:"url" help:"Resolve a page shortcut to its URL"`
	Seed    SeedCmd    `cmd:"" help:"Create pages from a YAML fixture file"`
}

// AfterApply sets up logging once flags are parsed.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// Global is shared by every command.
type Global struct {
	Manager   *pages.PageManager
	Sessions  pages.SessionOptions
	Out       io.Writer
	Published bool
}

// run executes fn inside a fresh page session, with publication filtering
// when --published is set.
func (g *Global) run(fn func(ctx context.Context) error) error {
	ctx := pages.WithSession(context.Background(), pages.NewSession(g.Sessions))
	return pages.Scoped(ctx, g.Published, func() error {
		return fn(ctx)
	})
}

// TreeCmd prints every page of the site indented by depth.
type TreeCmd struct{}

func (c *TreeCmd) Run(g *Global) error {
	return g.run(func(ctx context.Context) error {
		roots, err := g.Manager.Filter(ctx, func(q pages.Query) pages.Query { return q.Roots() })
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID\tTITLE\tURL\tSTATUS\n")
		var walk func(list []*pages.Page, depth int) error
		walk = func(list []*pages.Page, depth int) error {
			for _, p := range list {
				url, err := g.Manager.AbsoluteURL(ctx, p)
				if err != nil {
					return err
				}
				published, err := g.Manager.IsPublished(ctx, p)
				if err != nil {
					return err
				}
				status := "published"
				if !published {
					status = "hidden"
				}
				fmt.Fprintf(w, "%d\t%s%s\t%s\t%s\n", p.ID, strings.Repeat("  ", depth), p.Title, url, status)

				children, err := g.Manager.Children(ctx, p)
				if err != nil {
					return err
				}
				if err := walk(children, depth+1); err != nil {
					return err
				}
			}
			return nil
		}
		if err := walk(roots, 0); err != nil {
			return err
		}
		return w.Flush()
	})
}

// ResolveCmd prints one page.
type ResolveCmd struct {
	Ident string `arg:"" help:"Page id or permalink"`
	JSON  bool   `name:"json" help:"Output as JSON"`
}

func (c *ResolveCmd) Run(g *Global) error {
	return g.run(func(ctx context.Context) error {
		page, err := g.Manager.Resolve(ctx, pages.ParseIdentifier(c.Ident))
		if err != nil {
			return err
		}
		url, err := g.Manager.AbsoluteURL(ctx, page)
		if err != nil {
			return err
		}

		if c.JSON {
			data, err := json.MarshalIndent(struct {
				*pages.Page
				URL string `json:"url"`
			}{page, url}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(g.Out, string(data))
			return nil
		}

		fmt.Fprintf(g.Out, "ID:        %d\n", page.ID)
		fmt.Fprintf(g.Out, "Title:     %s\n", page.DisplayTitle())
		fmt.Fprintf(g.Out, "URL:       %s\n", url)
		if page.Permalink != "" {
			fmt.Fprintf(g.Out, "Permalink: %s\n", page.Permalink)
		}
		if page.ContentType != "" {
			fmt.Fprintf(g.Out, "Content:   %s\n", page.ContentType)
		}
		return nil
	})
}

// URLCmd resolves a shortcut the way templates do.
type URLCmd struct {
	Slug string `arg:"" help:"Page id, permalink or literal path"`
}

func (c *URLCmd) Run(g *Global) error {
	return g.run(func(ctx context.Context) error {
		url, err := g.Manager.ResolveURL(ctx, c.Slug)
		if err != nil {
			return err
		}
		fmt.Fprintln(g.Out, url)
		return nil
	})
}

// SeedCmd loads a fixture file into the database.
type SeedCmd struct {
	File string `arg:"" type:"existingfile" help:"YAML fixture file"`
}

func (c *SeedCmd) Run(g *Global) error {
	tree, err := fixtures.LoadFile(c.File)
	if err != nil {
		return err
	}
	ctx := pages.WithSession(context.Background(), pages.NewSession(g.Sessions))
	saved, err := fixtures.Seed(ctx, g.Manager, tree)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.Out, "Created %d pages\n", len(saved))
	return nil
}
