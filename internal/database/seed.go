package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Seed populates the database with initial development data: one published
// article so the public listing renders something, and one draft to exercise
// the admin view. It is a no-op when any articles already exist.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM articles").Scan(&count); err != nil {
		return fmt.Errorf("seed check articles: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	_, err := db.Exec(`
		INSERT INTO articles (title, slug, excerpt, content, tags, media_kind, published, published_at)
		VALUES
			('Welcome', 'welcome', 'A first look at this portfolio.',
			 '# Welcome

This site collects articles, photo essays, and audio features.',
			 '["meta"]', 'image', TRUE, NOW()),
			('Draft in progress', 'draft-in-progress', 'Not public yet.',
			 'Work in progress.', '[]', 'image', FALSE, NULL)
	`)
	if err != nil {
		return fmt.Errorf("seed insert articles: %w", err)
	}

	slog.Info("database seeded with sample articles")
	return nil
}
