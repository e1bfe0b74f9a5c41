// Package main is the entry point of the rental API server.
//
// main only reads configuration, builds the logger, connects the optional
// integrations and starts the server. All behaviour lives under internal/.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sakif/rental-spots/internal/auth"
	"github.com/sakif/rental-spots/internal/cache"
	"github.com/sakif/rental-spots/internal/config"
	"github.com/sakif/rental-spots/internal/server"
	"github.com/sakif/rental-spots/internal/storage"
)

func main() {
	// === 1. CONFIGURATION ===
	// .env first, then the environment; see internal/config.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. LOGGING ===
	level, _ := config.ParseLevel(cfg.LogLevel) // Validate already checked it
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// === 3. DATABASE DIRECTORY ===
	// sqlite creates the file but not its directory.
	if !strings.HasPrefix(cfg.DBPath, ":memory:") {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. OPTIONAL INTEGRATIONS ===
	// Each one is skipped when unconfigured and downgraded to a warning when
	// it can't be reached; the API works without any of them.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var integrations server.Integrations

	if cfg.Redis.Enabled() {
		client, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, spot listings will not be cached",
				slog.String("error", err.Error()),
			)
		} else {
			defer client.Close()
			integrations.Cache = cache.NewListingCache(client, cfg.Redis.ListingTTL)
			logger.Info("listing cache enabled", slog.String("addr", cfg.Redis.Addr))
		}
	}

	if cfg.MinIO.Enabled() {
		store, err := storage.NewImageStore(ctx, cfg.MinIO)
		if err != nil {
			logger.Warn("object storage unavailable, image uploads are disabled",
				slog.String("error", err.Error()),
			)
		} else {
			integrations.Uploader = store
			logger.Info("image uploads enabled",
				slog.String("endpoint", cfg.MinIO.Endpoint),
				slog.String("bucket", cfg.MinIO.Bucket),
			)
		}
	}

	if cfg.GitHub.Enabled() {
		integrations.GitHub = auth.NewGitHubProvider(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, cfg.GitHub.CallbackURL)
		logger.Info("GitHub login enabled", slog.String("callback", cfg.GitHub.CallbackURL))
	}

	// === 5. START ===
	srv, err := server.New(cfg, logger, integrations)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
