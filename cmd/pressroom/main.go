// Package main is the entry point for the portfolio API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pressroom/internal/cache"
	"pressroom/internal/config"
	"pressroom/internal/database"
	"pressroom/internal/handlers"
	"pressroom/internal/router"
	"pressroom/internal/storage"
	"pressroom/internal/store"
	"pressroom/internal/token"
)

func main() {
	// Load a local .env file if present; real environment wins.
	if err := godotenv.Load(); err == nil {
		slog.Info(".env file loaded")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey for the public response cache. Optional: without a
	// configured host every read goes straight to PostgreSQL.
	var respCache *cache.ResponseCache
	if cfg.ValkeyHost != "" {
		valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()
		respCache = cache.NewResponseCache(valkeyClient, cache.DefaultResponseTTL)
	} else {
		slog.Warn("valkey not configured — response caching disabled")
	}

	// Pick the file backend: S3-compatible object storage when configured,
	// the local upload directory otherwise.
	var files storage.Store
	if cfg.S3Configured() {
		files, err = storage.NewS3(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey,
			cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		disk, err := storage.NewDisk(cfg.UploadDir)
		if err != nil {
			slog.Error("failed to initialize upload directory", "error", err)
			os.Exit(1)
		}
		slog.Info("disk storage ready", "dir", disk.Dir())
		files = disk
	}

	// Initialize data stores.
	articleStore := store.NewArticleStore(db)
	mediaStore := store.NewMediaStore(db)

	// Token manager for the admin bearer tokens.
	tokens := token.NewManager(cfg.JWTSecret, token.DefaultTTL)

	if !cfg.AdminConfigured() {
		slog.Warn("admin credentials not configured — login will fail until set")
	}

	// Create handler groups with their dependencies.
	articleHandlers := handlers.NewArticles(articleStore, respCache)
	mediaHandlers := handlers.NewMedia(mediaStore, files, cfg.MaxUploadBytes)
	authHandlers := handlers.NewAuth(cfg, tokens)

	// Set up the Chi router with all middleware and routes.
	r := router.New(db, tokens, articleHandlers, mediaHandlers, authHandlers)

	// Create the HTTP server with sensible timeouts. WriteTimeout must
	// accommodate large media uploads and downloads.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
