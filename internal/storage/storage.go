// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage abstracts where uploaded media bytes live. The default
// backend is the local upload directory; an S3-compatible backend can be
// configured instead. Metadata always stays in PostgreSQL — the backend
// only ever sees opaque filenames.
package storage

import (
	"context"
	"io"
)

// Store is a media file backend keyed by generated filename.
type Store interface {
	// Save persists the file under the given filename.
	Save(ctx context.Context, filename, contentType string, r io.Reader, size int64) error

	// Open returns a reader for the stored file. The caller closes it.
	Open(ctx context.Context, filename string) (io.ReadCloser, error)

	// Delete removes the stored file. Missing files are not an error:
	// the metadata row is the authoritative record and file cleanup is
	// best-effort.
	Delete(ctx context.Context, filename string) error

	// URL returns a direct public URL for the file, or "" when the file
	// must be streamed through this service.
	URL(filename string) string
}
