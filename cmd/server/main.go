package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/chi-demo/middleware"
	"github.com/tendant/simple-pages/pkg/pages"
	"github.com/tendant/simple-pages/pkg/pages/api"
	"github.com/tendant/simple-pages/pkg/pages/config"
	"github.com/tendant/simple-pages/pkg/pages/metrics"
)

func main() {
	// .env is optional; real environment variables take precedence
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "err", err)
	}

	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}
	if cfg.Environment == "development" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	recorder, err := metrics.NewPrometheusRecorder(nil)
	if err != nil {
		slog.Error("Failed to register metrics", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	manager, err := cfg.BuildManager(ctx, pages.WithRecorder(recorder))
	if err != nil {
		slog.Error("Failed to build page manager", "err", err)
		os.Exit(1)
	}

	routerConfig := api.RouterConfig{Sessions: cfg.SessionOptions()}
	if cfg.JWTSecret != "" {
		routerConfig.JWTAuth = api.NewJWTAuth(cfg.JWTSecret)
	}
	if cfg.AdminAPIKeySHA256 != "" {
		apiKeyMiddleware, err := middleware.ApiKeyMiddleware(middleware.ApiKeyConfig{
			APIKeys: map[string]string{
				"key1": cfg.AdminAPIKeySHA256,
			},
		})
		if err != nil {
			slog.Error("Failed initialize API Key middleware", "err", err)
			os.Exit(1)
		}
		routerConfig.Admin = apiKeyMiddleware
	} else {
		slog.Warn("ADMIN_API_KEY_SHA256 is not set, admin routes are disabled")
	}

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	server.R.Handle("/metrics", promhttp.Handler())
	server.R.Mount("/api/v1", api.NewRouter(manager, routerConfig))

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           server.R,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Simple Pages server starting",
			"port", cfg.Port,
			"env", cfg.Environment,
			"database", cfg.DatabaseType,
			"site_id", cfg.SiteID,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}
	slog.Info("Server exiting")
}
