// Package router sets up all HTTP routes and middleware chains for the
// portfolio API. Routes are organized into public reads and an admin group
// gated by the bearer-token middleware.
package router

import (
	"database/sql"
	"time"

	"github.com/go-chi/chi/v5"

	"pressroom/internal/handlers"
	"pressroom/internal/middleware"
	"pressroom/internal/token"
)

const (
	// loginRateLimit caps login attempts per IP per window.
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(db *sql.DB, tokens *token.Manager, articles *handlers.Articles, media *handlers.Media, auth *handlers.Auth) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS)

	requireAdmin := middleware.RequireAdmin(tokens)
	loginLimiter := middleware.NewRateLimiter(loginRateLimit, loginRateWindow)

	// Health check.
	r.Get("/health", handlers.Health(db))

	// Articles. The admin write routes share the {slug} wildcard name with
	// the public read route (chi requires one name per position); the
	// handlers parse it as a UUID.
	r.Route("/articles", func(r chi.Router) {
		r.Get("/", articles.ListPublished)
		r.Get("/{slug}", articles.GetBySlug)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/", articles.Create)
			r.Put("/{slug}", articles.Update)
			r.Delete("/{slug}", articles.Delete)
		})
	})

	// Media.
	r.Route("/media", func(r chi.Router) {
		r.Get("/", media.List)
		r.Get("/{id}", media.Serve)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Delete("/{id}", media.Delete)
		})
	})
	r.Get("/media-info/{id}", media.Info)

	// Upload requires the same admin gate as the other mutating routes.
	r.With(requireAdmin).Post("/upload", media.Upload)

	// Static passthrough for stored files by generated filename.
	r.Get("/uploads/{filename}", media.ServeUpload)

	// Admin auth.
	r.Route("/admin", func(r chi.Router) {
		r.With(loginLimiter.Middleware).Post("/login", auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/articles", articles.AdminList)
			r.Get("/totp-qr", auth.TOTPQR)
		})
	})

	return r
}
