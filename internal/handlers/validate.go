package handlers

import (
	"strings"
	"unicode/utf8"
)

// Validation limits for article and media fields.
const (
	maxTitleLen       = 300
	maxSlugLen        = 300
	maxContentLen     = 100_000
	maxExcerptLen     = 1_000
	maxDescriptionLen = 1_000
	maxTagCount       = 50
)

// validateArticle checks article inputs and returns the first error found,
// or "" when everything passes.
func validateArticle(title, slug, excerpt, content string, tags []string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(slug) > maxSlugLen {
		return "Slug is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(excerpt) > maxExcerptLen {
		return "Excerpt is too long (max 1,000 characters)."
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return "Content is too long (max 100,000 characters)."
	}
	if len(tags) > maxTagCount {
		return "Too many tags (max 50)."
	}
	return ""
}

// normalizeTags splits a comma-separated string into trimmed, non-empty tags.
func normalizeTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
