// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the persistent entities of the portfolio service.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MediaKind classifies an uploaded asset by its broad type.
type MediaKind string

const (
	MediaKindImage   MediaKind = "image"
	MediaKindVideo   MediaKind = "video"
	MediaKindAudio   MediaKind = "audio"
	MediaKindUnknown MediaKind = "unknown"
)

// KindFromContentType derives the media kind from a MIME type. The result
// is computed once at upload time and stored; it is never recomputed.
func KindFromContentType(contentType string) MediaKind {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return MediaKindImage
	case strings.HasPrefix(contentType, "video/"):
		return MediaKindVideo
	case strings.HasPrefix(contentType, "audio/"):
		return MediaKindAudio
	default:
		return MediaKindUnknown
	}
}

// Valid reports whether the kind is one of the known classifications.
func (k MediaKind) Valid() bool {
	switch k {
	case MediaKindImage, MediaKindVideo, MediaKindAudio, MediaKindUnknown:
		return true
	}
	return false
}

// Media is an uploaded binary asset. The file itself lives in the storage
// backend under Filename; this row is the authoritative record. Articles
// reference media by ID without ownership — deleting a media row never
// touches the articles pointing at it.
type Media struct {
	ID            uuid.UUID `json:"id"`
	Filename      string    `json:"filename"`
	OriginalName  string    `json:"originalName"`
	ContentType   string    `json:"mimetype"`
	SizeBytes     int64     `json:"size"`
	Kind          MediaKind `json:"type"`
	Description   string    `json:"description"`
	Tags          []string  `json:"tags"`
	ThumbFilename *string   `json:"thumbFilename,omitempty"`
	CreatedAt     time.Time `json:"uploadedAt"`
}

// HumanSize formats the byte size for display (e.g. "2.4 MB").
func (m *Media) HumanSize() string {
	const unit = 1024
	if m.SizeBytes < unit {
		return fmt.Sprintf("%d B", m.SizeBytes)
	}
	div, exp := int64(unit), 0
	for n := m.SizeBytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(m.SizeBytes)/float64(div), "KMGTPE"[exp])
}
