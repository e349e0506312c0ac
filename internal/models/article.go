// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Article is a single portfolio piece. Published articles are visible to
// everyone; drafts only appear in the admin listing.
type Article struct {
	ID           uuid.UUID   `json:"id"`
	Title        string      `json:"title"`
	Slug         string      `json:"slug"`
	Excerpt      string      `json:"excerpt"`
	Content      string      `json:"content"`
	ThumbnailURL string      `json:"thumbnailUrl"`
	Tags         []string    `json:"tags"`
	MediaKind    MediaKind   `json:"mediaType"`
	MediaIDs     []uuid.UUID `json:"mediaIds"`
	Published    bool        `json:"published"`
	PublishedAt  *time.Time  `json:"publishedAt,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// ArticleSummary is the public list projection of an article. It carries
// everything the listing page needs and deliberately omits the body.
type ArticleSummary struct {
	ID           uuid.UUID   `json:"id"`
	Title        string      `json:"title"`
	Slug         string      `json:"slug"`
	Excerpt      string      `json:"excerpt"`
	ThumbnailURL string      `json:"thumbnailUrl"`
	Tags         []string    `json:"tags"`
	MediaKind    MediaKind   `json:"mediaType"`
	MediaIDs     []uuid.UUID `json:"mediaIds"`
	PublishedAt  *time.Time  `json:"publishedAt,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// Summary returns the public list projection of the article.
func (a *Article) Summary() ArticleSummary {
	return ArticleSummary{
		ID:           a.ID,
		Title:        a.Title,
		Slug:         a.Slug,
		Excerpt:      a.Excerpt,
		ThumbnailURL: a.ThumbnailURL,
		Tags:         a.Tags,
		MediaKind:    a.MediaKind,
		MediaIDs:     a.MediaIDs,
		PublishedAt:  a.PublishedAt,
		CreatedAt:    a.CreatedAt,
	}
}
