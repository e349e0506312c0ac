// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder

	"pressroom/internal/models"
	"pressroom/internal/storage"
	"pressroom/internal/store"
)

const (
	// thumbMaxWidth is the maximum thumbnail width in pixels.
	thumbMaxWidth = 400

	// thumbQuality is the JPEG quality for generated thumbnails.
	thumbQuality = 80

	// maxImagePixels caps decoded image size to prevent memory bombs.
	maxImagePixels = 100_000_000
)

// allowedUploadTypes is the MIME allow-list for uploads.
var allowedUploadTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"video/mp4":  true,
	"video/webm": true,
	"audio/mpeg": true,
	"audio/wav":  true,
	"audio/webm": true,
}

// thumbableTypes are image types that support thumbnail generation.
// GIF is excluded to preserve animation.
var thumbableTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// sniffAliases maps content types the sniffer reports to their canonical
// allow-list entries.
var sniffAliases = map[string]string{
	"audio/wave":     "audio/wav",
	"audio/x-wav":    "audio/wav",
	"audio/vnd.wave": "audio/wav",
}

// resolveContentType reconciles the sniffed content type with the type the
// client declared. Sniffed bytes win in general; the declared type is used
// when sniffing is inconclusive, or when both name the same container and
// the sniffer cannot tell the variants apart (audio-only WebM sniffs as
// video/webm — both are EBML).
func resolveContentType(sniffed, declared string) string {
	if alias, ok := sniffAliases[sniffed]; ok {
		sniffed = alias
	}
	if sniffed == "application/octet-stream" || sniffed == "text/plain; charset=utf-8" {
		if declared != "" {
			return declared
		}
		return sniffed
	}
	if declared != sniffed && allowedUploadTypes[declared] && mediaSubtype(declared) == mediaSubtype(sniffed) {
		return declared
	}
	return sniffed
}

// mediaSubtype returns the part after the slash of a MIME type.
func mediaSubtype(contentType string) string {
	if i := strings.IndexByte(contentType, '/'); i != -1 {
		return contentType[i+1:]
	}
	return ""
}

// Media groups the media upload and retrieval handlers. File bytes live in
// the storage backend; metadata lives in PostgreSQL.
type Media struct {
	media    *store.MediaStore
	files    storage.Store
	maxBytes int64
}

// NewMedia creates the media handler group.
func NewMedia(media *store.MediaStore, files storage.Store, maxBytes int64) *Media {
	return &Media{media: media, files: files, maxBytes: maxBytes}
}

// Upload accepts a single multipart file plus optional description and
// comma-separated tags. The MIME type is sniffed from the content, falling
// back to the client-declared type when sniffing is inconclusive.
func (h *Media) Upload(w http.ResponseWriter, r *http.Request) {
	// Allow some overhead beyond the file ceiling for the form fields.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+4096)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "File too large. Maximum size is 100 MiB.")
			return
		}
		writeError(w, http.StatusBadRequest, CodeValidation, "Invalid multipart form.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "No file provided.")
		return
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "File too large. Maximum size is 100 MiB.")
		return
	}

	// Sniff the real content type from the first 512 bytes, then reconcile
	// it with the type the client declared for the part.
	sniffBuf := make([]byte, 512)
	n, err := file.Read(sniffBuf)
	if err != nil && err != io.EOF {
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to read file.")
		return
	}
	contentType := resolveContentType(http.DetectContentType(sniffBuf[:n]), header.Header.Get("Content-Type"))

	if !allowedUploadTypes[contentType] {
		writeError(w, http.StatusUnsupportedMediaType, CodeUnsupportedMedia,
			fmt.Sprintf("File type %q is not allowed.", contentType))
		return
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to process file.")
		return
	}

	// Collision-resistant name: millisecond timestamp plus random suffix,
	// original extension preserved.
	ext := filepath.Ext(header.Filename)
	if ext == "" {
		ext = extensionFromType(contentType)
	}
	fileID := uuid.New().String()[:8]
	filename := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), fileID, ext)

	// Read fully into memory: the bytes feed both the backend write and
	// thumbnail generation.
	fileBytes, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to read file.")
		return
	}

	ctx := r.Context()
	if err := h.files.Save(ctx, filename, contentType, bytes.NewReader(fileBytes), int64(len(fileBytes))); err != nil {
		slog.Error("file save failed", "error", err, "filename", filename)
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to store file.")
		return
	}

	// Thumbnail for supported image types. Failure is non-fatal.
	var thumbFilename *string
	if thumbableTypes[contentType] {
		thumbData, err := generateThumbnail(bytes.NewReader(fileBytes), thumbMaxWidth)
		if err != nil {
			slog.Warn("thumbnail generation failed", "error", err, "filename", filename)
		} else if thumbData != nil {
			tf := fmt.Sprintf("%s_thumb.jpg", filename[:len(filename)-len(ext)])
			if err := h.files.Save(ctx, tf, "image/jpeg", bytes.NewReader(thumbData), int64(len(thumbData))); err != nil {
				slog.Warn("thumbnail save failed", "error", err, "filename", tf)
			} else {
				thumbFilename = &tf
			}
		}
	}

	media := &models.Media{
		Filename:      filename,
		OriginalName:  header.Filename,
		ContentType:   contentType,
		SizeBytes:     int64(len(fileBytes)),
		Kind:          models.KindFromContentType(contentType),
		Description:   r.FormValue("description"),
		Tags:          normalizeTags(r.FormValue("tags")),
		ThumbFilename: thumbFilename,
	}

	created, err := h.media.Create(media)
	if err != nil {
		slog.Error("media db insert failed", "error", err, "filename", filename)
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to save file metadata.")
		return
	}

	slog.Info("media uploaded",
		"filename", created.Filename,
		"type", created.Kind,
		"size", created.HumanSize(),
	)

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"media": map[string]any{
			"id":           created.ID,
			"filename":     created.Filename,
			"originalName": created.OriginalName,
			"type":         created.Kind,
			"size":         created.SizeBytes,
			"url":          h.mediaURL(created),
		},
	})
}

// mediaURL returns the public URL for a media item: the backend's direct
// URL when it has one, otherwise the service's own streaming route.
func (h *Media) mediaURL(m *models.Media) string {
	if url := h.files.URL(m.Filename); url != "" {
		return url
	}
	return "/media/" + m.ID.String()
}

// List returns media metadata newest first, optionally filtered by the
// `type` query parameter.
func (h *Media) List(w http.ResponseWriter, r *http.Request) {
	kind := models.MediaKind(r.URL.Query().Get("type"))
	if kind != "" && !kind.Valid() {
		writeError(w, http.StatusBadRequest, CodeValidation, "type must be image, video, audio, or unknown.")
		return
	}

	items, err := h.media.List(kind)
	if err != nil {
		slog.Error("list media failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to list media.")
		return
	}
	if items == nil {
		items = []models.Media{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Serve returns the raw file bytes for a media item. Backends with direct
// public URLs answer with a redirect instead of streaming.
func (h *Media) Serve(w http.ResponseWriter, r *http.Request) {
	media, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if url := h.files.URL(media.Filename); url != "" {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	f, err := h.files.Open(r.Context(), media.Filename)
	if err != nil {
		slog.Warn("media file missing", "error", err, "filename", media.Filename)
		writeError(w, http.StatusNotFound, CodeNotFound, "File not found.")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", media.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(media.SizeBytes, 10))
	if _, err := io.Copy(w, f); err != nil {
		slog.Warn("media stream interrupted", "error", err, "filename", media.Filename)
	}
}

// Info returns the metadata record for a media item.
func (h *Media) Info(w http.ResponseWriter, r *http.Request) {
	media, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, media)
}

// Delete removes the metadata row, then best-effort removes the stored
// file and its thumbnail. The row removal is the authoritative outcome.
func (h *Media) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "Invalid media ID.")
		return
	}

	deleted, err := h.media.Delete(id)
	if err != nil {
		slog.Error("media db delete failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to delete media.")
		return
	}
	if deleted == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "Media not found.")
		return
	}

	ctx := r.Context()
	if err := h.files.Delete(ctx, deleted.Filename); err != nil {
		slog.Warn("file delete failed", "error", err, "filename", deleted.Filename)
	}
	if deleted.ThumbFilename != nil {
		if err := h.files.Delete(ctx, *deleted.ThumbFilename); err != nil {
			slog.Warn("thumbnail delete failed", "error", err, "filename", *deleted.ThumbFilename)
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ServeUpload streams a stored file by its generated filename, the static
// passthrough under /uploads. The content type comes from the extension.
func (h *Media) ServeUpload(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if !storage.ValidFilename(filename) {
		writeError(w, http.StatusBadRequest, CodeValidation, "Invalid filename.")
		return
	}

	if url := h.files.URL(filename); url != "" {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	f, err := h.files.Open(r.Context(), filename)
	if err != nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "File not found.")
		return
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if _, err := io.Copy(w, f); err != nil {
		slog.Warn("upload stream interrupted", "error", err, "filename", filename)
	}
}

// lookup parses the id route parameter and loads the media row, writing
// the error response itself on failure.
func (h *Media) lookup(w http.ResponseWriter, r *http.Request) (*models.Media, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "Invalid media ID.")
		return nil, false
	}

	media, err := h.media.FindByID(id)
	if err != nil {
		slog.Error("media lookup failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to fetch media.")
		return nil, false
	}
	if media == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "Media not found.")
		return nil, false
	}
	return media, true
}

// generateThumbnail creates a JPEG thumbnail constrained to maxWidth while
// preserving aspect ratio. Returns nil if the image is already small enough.
func generateThumbnail(src io.Reader, maxWidth int) ([]byte, error) {
	imgCfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if int64(imgCfg.Width)*int64(imgCfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("image too large: %dx%d exceeds %d pixels", imgCfg.Width, imgCfg.Height, maxImagePixels)
	}

	if imgCfg.Width <= maxWidth {
		return nil, nil
	}

	seeker, ok := src.(io.Seeker)
	if !ok {
		return nil, fmt.Errorf("source does not support seeking")
	}
	if _, err := seeker.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}

	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	ratio := float64(maxWidth) / float64(bounds.Dx())
	newWidth := maxWidth
	newHeight := int(float64(bounds.Dy()) * ratio)

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// extensionFromType returns a file extension for known MIME types.
func extensionFromType(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav":
		return ".wav"
	case "audio/webm":
		return ".weba"
	default:
		return ""
	}
}
