// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"pressroom/internal/cache"
	"pressroom/internal/markdown"
	"pressroom/internal/models"
	"pressroom/internal/slug"
	"pressroom/internal/store"
)

// Articles groups the article publishing handlers. The public read paths
// check the Valkey response cache before hitting PostgreSQL; every mutation
// invalidates the touched entries. respCache may be nil when caching is
// disabled.
type Articles struct {
	articles  *store.ArticleStore
	respCache *cache.ResponseCache
}

// NewArticles creates the article handler group.
func NewArticles(articles *store.ArticleStore, respCache *cache.ResponseCache) *Articles {
	return &Articles{articles: articles, respCache: respCache}
}

// articleDetail is the public single-article payload: the stored article
// plus its Markdown body rendered to HTML.
type articleDetail struct {
	models.Article
	ContentHTML string `json:"contentHtml"`
}

// flexTags accepts either a JSON array of strings or a single
// comma-separated string, normalizing both to trimmed tags.
type flexTags []string

func (t *flexTags) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		out := make([]string, 0, len(arr))
		for _, s := range arr {
			if v := strings.TrimSpace(s); v != "" {
				out = append(out, v)
			}
		}
		*t = out
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = normalizeTags(s)
		return nil
	}

	if string(data) == "null" {
		*t = nil
		return nil
	}
	return errors.New("tags must be an array of strings or a comma-separated string")
}

// flexBool accepts a JSON boolean, a string ("true"/"false"/"1"/"0"), or a
// number, coercing each to a boolean.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = flexBool(v)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			*b = false
			return nil
		}
		*b = flexBool(parsed)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*b = n != 0
		return nil
	}

	if string(data) == "null" {
		*b = false
		return nil
	}
	return errors.New("published must be a boolean")
}

// flexIDs accepts a JSON array of UUID strings. Anything malformed — the
// wrong shape or unparseable IDs — collapses to an empty list instead of
// failing the request.
type flexIDs []uuid.UUID

func (f *flexIDs) UnmarshalJSON(data []byte) error {
	var ids []uuid.UUID
	if err := json.Unmarshal(data, &ids); err != nil {
		*f = nil
		return nil
	}
	*f = ids
	return nil
}

// articleRequest is the write payload for create and re-save.
type articleRequest struct {
	Title        string           `json:"title"`
	Slug         string           `json:"slug"`
	Excerpt      string           `json:"excerpt"`
	Content      string           `json:"content"`
	ThumbnailURL string           `json:"thumbnailUrl"`
	Tags         flexTags         `json:"tags"`
	MediaKind    models.MediaKind `json:"mediaType"`
	MediaIDs     flexIDs          `json:"mediaIds"`
	Published    flexBool         `json:"published"`
}

// resolve validates the request and fills an article's fields. Returns a
// validation message, or "" on success.
func (req *articleRequest) resolve(a *models.Article) string {
	req.Title = strings.TrimSpace(req.Title)
	req.Slug = strings.TrimSpace(req.Slug)

	if req.Slug == "" {
		req.Slug = slug.Generate(req.Title)
		if req.Slug == "" {
			return "Title must contain letters or digits to derive a slug."
		}
	} else if !slug.Valid(req.Slug) {
		return "Slug may only contain lowercase letters, digits, and hyphens."
	}

	if msg := validateArticle(req.Title, req.Slug, req.Excerpt, req.Content, req.Tags); msg != "" {
		return msg
	}

	kind := req.MediaKind
	if kind == "" {
		kind = models.MediaKindImage
	}
	if kind != models.MediaKindImage && kind != models.MediaKindVideo && kind != models.MediaKindAudio {
		return "mediaType must be image, video, or audio."
	}

	a.Title = req.Title
	a.Slug = req.Slug
	a.Excerpt = req.Excerpt
	a.Content = req.Content
	a.ThumbnailURL = req.ThumbnailURL
	a.Tags = req.Tags
	a.MediaKind = kind
	a.MediaIDs = []uuid.UUID(req.MediaIDs)
	a.Published = bool(req.Published)
	return ""
}

// ListPublished returns published articles newest first, projected to the
// public summary fields.
func (h *Articles) ListPublished(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.respCache != nil {
		if cached, ok := h.respCache.Get(ctx, cache.ListKey()); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write(cached)
			return
		}
	}

	items, err := h.articles.ListPublished()
	if err != nil {
		slog.Error("list published articles failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to list articles.")
		return
	}

	summaries := make([]models.ArticleSummary, 0, len(items))
	for i := range items {
		summaries = append(summaries, items[i].Summary())
	}

	body, err := json.Marshal(summaries)
	if err != nil {
		slog.Error("encode article list failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to list articles.")
		return
	}

	if h.respCache != nil {
		h.respCache.Set(ctx, cache.ListKey(), body)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// GetBySlug returns a single published article. Drafts answer not-found so
// their existence never leaks to public callers.
func (h *Articles) GetBySlug(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slugParam := chi.URLParam(r, "slug")

	if h.respCache != nil {
		if cached, ok := h.respCache.Get(ctx, cache.SlugKey(slugParam)); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write(cached)
			return
		}
	}

	article, err := h.articles.FindPublishedBySlug(slugParam)
	if err != nil {
		slog.Error("find article by slug failed", "error", err, "slug", slugParam)
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to fetch article.")
		return
	}
	if article == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "Article not found.")
		return
	}

	detail := articleDetail{Article: *article}
	html, err := markdown.ToHTML(article.Content)
	if err != nil {
		slog.Warn("markdown render failed", "error", err, "slug", slugParam)
	} else {
		detail.ContentHTML = html
	}

	body, err := json.Marshal(detail)
	if err != nil {
		slog.Error("encode article failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to fetch article.")
		return
	}

	if h.respCache != nil {
		h.respCache.Set(ctx, cache.SlugKey(slugParam), body)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// Create inserts a new article. The first save with published=true stamps
// the publish timestamp.
func (h *Articles) Create(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "Invalid JSON body.")
		return
	}

	var article models.Article
	if msg := req.resolve(&article); msg != "" {
		writeError(w, http.StatusBadRequest, CodeValidation, msg)
		return
	}

	created, err := h.articles.Create(&article)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateSlug) {
			writeError(w, http.StatusConflict, CodeConflict, "An article with this slug already exists.")
			return
		}
		slog.Error("create article failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to create article.")
		return
	}

	h.invalidate(r, created.Slug)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "article": created})
}

// Update re-saves an existing article by ID. A publish timestamp already
// stamped is never overwritten, no matter how the published flag toggles.
func (h *Articles) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "Invalid article ID.")
		return
	}

	var req articleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "Invalid JSON body.")
		return
	}

	existing, err := h.articles.FindByID(id)
	if err != nil {
		slog.Error("find article failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to update article.")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "Article not found.")
		return
	}

	oldSlug := existing.Slug
	if msg := req.resolve(existing); msg != "" {
		writeError(w, http.StatusBadRequest, CodeValidation, msg)
		return
	}

	updated, err := h.articles.Update(existing)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateSlug) {
			writeError(w, http.StatusConflict, CodeConflict, "An article with this slug already exists.")
			return
		}
		slog.Error("update article failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to update article.")
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "Article not found.")
		return
	}

	h.invalidate(r, oldSlug, updated.Slug)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "article": updated})
}

// AdminList returns every article regardless of publish state, newest
// created first, with full bodies.
func (h *Articles) AdminList(w http.ResponseWriter, r *http.Request) {
	items, err := h.articles.ListAll()
	if err != nil {
		slog.Error("list all articles failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to list articles.")
		return
	}
	if items == nil {
		items = []models.Article{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Delete hard-deletes an article by ID.
func (h *Articles) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "Invalid article ID.")
		return
	}

	deleted, err := h.articles.Delete(id)
	if err != nil {
		slog.Error("delete article failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to delete article.")
		return
	}
	if deleted == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "Article not found.")
		return
	}

	h.invalidate(r, deleted.Slug)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// invalidate drops the cached list plus the given slug entries.
func (h *Articles) invalidate(r *http.Request, slugs ...string) {
	if h.respCache == nil {
		return
	}
	keys := []string{cache.ListKey()}
	for _, s := range slugs {
		keys = append(keys, cache.SlugKey(s))
	}
	h.respCache.Invalidate(r.Context(), keys...)
}
