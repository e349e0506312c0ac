// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler
// integration tests. Tests are skipped when PostgreSQL is unavailable;
// the response cache is disabled so Valkey is never required here.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"pressroom/internal/config"
	"pressroom/internal/database"
	"pressroom/internal/storage"
	"pressroom/internal/store"
	"pressroom/internal/token"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "pressroom")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "pressroom")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB           *sql.DB
	Config       *config.Config
	Tokens       *token.Manager
	ArticleStore *store.ArticleStore
	MediaStore   *store.MediaStore
	Files        *storage.Disk
	Articles     *Articles
	Media        *Media
	Auth         *Auth
}

// newTestEnv creates a complete test environment. Files go to a temp
// directory; the response cache is disabled.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)

	files, err := storage.NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("storage.NewDisk: %v", err)
	}

	cfg := &config.Config{
		Env:            "testing",
		JWTSecret:      "test-secret",
		AdminUsername:  "admin",
		AdminPassword:  "hunter2",
		MaxUploadBytes: 100 << 20,
	}

	tokens := token.NewManager(cfg.JWTSecret, time.Hour)
	articleStore := store.NewArticleStore(db)
	mediaStore := store.NewMediaStore(db)

	env := &testEnv{
		DB:           db,
		Config:       cfg,
		Tokens:       tokens,
		ArticleStore: articleStore,
		MediaStore:   mediaStore,
		Files:        files,
		Articles:     NewArticles(articleStore, nil),
		Media:        NewMedia(mediaStore, files, cfg.MaxUploadBytes),
		Auth:         NewAuth(cfg, tokens),
	}

	t.Cleanup(func() {
		db.Exec("DELETE FROM articles WHERE slug LIKE 'hndl-%'")
		db.Exec("DELETE FROM media WHERE original_name LIKE 'hndl-%'")
	})

	return env
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
