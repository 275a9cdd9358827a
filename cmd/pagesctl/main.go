package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/tendant/simple-pages/pkg/pages/config"
)

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("pagesctl"),
		kong.Description("Inspect and seed the page tree of a Simple Pages database."),
		kong.UsageOnError(),
	)

	opts := []config.Option{config.WithEnv(), config.WithLogging(cli.Verbose)}
	if cli.DatabaseURL != "" {
		opts = append(opts, config.WithDatabaseURL(cli.DatabaseURL))
	}
	if cli.Site > 0 {
		opts = append(opts, config.WithSite(cli.Site))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	manager, err := cfg.BuildManager(context.Background())
	if err != nil {
		slog.Error("Failed to build page manager", "err", err)
		os.Exit(1)
	}

	global := &Global{
		Manager:   manager,
		Sessions:  cfg.SessionOptions(),
		Out:       os.Stdout,
		Published: cli.Published,
	}
	kctx.FatalIfErrorf(kctx.Run(global))
}
