// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access methods for the portfolio
// entities. Each store struct wraps a *sql.DB and exposes typed query methods.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"pressroom/internal/models"
)

// ErrDuplicateSlug is returned when an insert or update collides with an
// existing article slug. Callers translate it into a conflict response
// rather than a generic failure.
var ErrDuplicateSlug = errors.New("slug already in use")

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique-constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// ArticleStore handles all article-related database operations.
type ArticleStore struct {
	db *sql.DB
}

// NewArticleStore creates a new ArticleStore with the given database connection.
func NewArticleStore(db *sql.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// articleColumns lists the columns selected in article queries.
const articleColumns = `id, title, slug, excerpt, content, thumbnail_url,
	tags, media_kind, media_ids, published, published_at, created_at, updated_at`

// scanArticle scans an article row, decoding the jsonb tag and media
// reference columns.
func scanArticle(scanner interface{ Scan(...any) error }) (*models.Article, error) {
	var (
		a        models.Article
		tagsJSON []byte
		idsJSON  []byte
	)
	err := scanner.Scan(
		&a.ID, &a.Title, &a.Slug, &a.Excerpt, &a.Content, &a.ThumbnailURL,
		&tagsJSON, &a.MediaKind, &idsJSON, &a.Published, &a.PublishedAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tagsJSON, &a.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal(idsJSON, &a.MediaIDs); err != nil {
		return nil, fmt.Errorf("decode media ids: %w", err)
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	if a.MediaIDs == nil {
		a.MediaIDs = []uuid.UUID{}
	}
	return &a, nil
}

// encodeJSON marshals a slice for a jsonb column, mapping nil to an empty array.
func encodeJSON(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode jsonb: %w", err)
	}
	if string(b) == "null" {
		return []byte("[]"), nil
	}
	return b, nil
}

// Create inserts a new article and returns it with the generated ID.
// The first save with published = true stamps published_at.
func (s *ArticleStore) Create(a *models.Article) (*models.Article, error) {
	if a.Published && a.PublishedAt == nil {
		now := time.Now()
		a.PublishedAt = &now
	}

	tagsJSON, err := encodeJSON(a.Tags)
	if err != nil {
		return nil, err
	}
	idsJSON, err := encodeJSON(a.MediaIDs)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRow(`
		INSERT INTO articles (title, slug, excerpt, content, thumbnail_url,
		                      tags, media_kind, media_ids, published, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+articleColumns,
		a.Title, a.Slug, a.Excerpt, a.Content, a.ThumbnailURL,
		tagsJSON, a.MediaKind, idsJSON, a.Published, a.PublishedAt,
	)
	created, err := scanArticle(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("create article: %w", err)
	}
	return created, nil
}

// Update re-saves an existing article. published_at is written exactly
// once: an article that already carries a publish timestamp keeps it, no
// matter how often the published flag is toggled back on. updated_at is
// refreshed on every save.
func (s *ArticleStore) Update(a *models.Article) (*models.Article, error) {
	if a.Published && a.PublishedAt == nil {
		now := time.Now()
		a.PublishedAt = &now
	}

	tagsJSON, err := encodeJSON(a.Tags)
	if err != nil {
		return nil, err
	}
	idsJSON, err := encodeJSON(a.MediaIDs)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRow(`
		UPDATE articles SET
			title = $1, slug = $2, excerpt = $3, content = $4, thumbnail_url = $5,
			tags = $6, media_kind = $7, media_ids = $8, published = $9,
			published_at = COALESCE(published_at, $10),
			updated_at = NOW()
		WHERE id = $11
		RETURNING `+articleColumns,
		a.Title, a.Slug, a.Excerpt, a.Content, a.ThumbnailURL,
		tagsJSON, a.MediaKind, idsJSON, a.Published, a.PublishedAt, a.ID,
	)
	updated, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("update article: %w", err)
	}
	return updated, nil
}

// FindByID retrieves an article by its UUID regardless of publish state.
// Returns nil if not found.
func (s *ArticleStore) FindByID(id uuid.UUID) (*models.Article, error) {
	row := s.db.QueryRow(`SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find article by id: %w", err)
	}
	return a, nil
}

// FindPublishedBySlug retrieves a published article by its slug. Drafts are
// indistinguishable from missing articles: both return nil.
func (s *ArticleStore) FindPublishedBySlug(slug string) (*models.Article, error) {
	row := s.db.QueryRow(`
		SELECT `+articleColumns+` FROM articles
		WHERE slug = $1 AND published = TRUE
	`, slug)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find article by slug: %w", err)
	}
	return a, nil
}

// ListPublished returns all published articles, newest publication first,
// falling back to creation date for ties or missing publish timestamps.
func (s *ArticleStore) ListPublished() ([]models.Article, error) {
	rows, err := s.db.Query(`
		SELECT ` + articleColumns + ` FROM articles
		WHERE published = TRUE
		ORDER BY published_at DESC NULLS LAST, created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list published articles: %w", err)
	}
	defer rows.Close()

	var items []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

// ListAll returns every article regardless of publish state, newest first.
func (s *ArticleStore) ListAll() ([]models.Article, error) {
	rows, err := s.db.Query(`
		SELECT ` + articleColumns + ` FROM articles
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var items []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

// Delete removes an article by ID and returns the deleted row, or nil when
// the ID does not resolve.
func (s *ArticleStore) Delete(id uuid.UUID) (*models.Article, error) {
	row := s.db.QueryRow(`
		DELETE FROM articles WHERE id = $1
		RETURNING `+articleColumns, id)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete article: %w", err)
	}
	return a, nil
}
