// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidFilename is returned for names that could escape the upload
// directory.
var ErrInvalidFilename = errors.New("invalid filename")

// Disk stores files in a single local directory. Filenames are generated
// by the upload handler and never contain path separators; ValidFilename
// is the defence in case a caller passes one through anyway.
type Disk struct {
	dir string
}

// NewDisk creates the upload directory if needed and returns a disk store.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Disk{dir: dir}, nil
}

// Dir returns the upload directory path.
func (d *Disk) Dir() string { return d.dir }

// ValidFilename reports whether name is safe to use inside the upload
// directory: non-empty, no path separators, no traversal.
func ValidFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return filepath.Base(name) == name
}

// Save writes the file to the upload directory.
func (d *Disk) Save(_ context.Context, filename, _ string, r io.Reader, _ int64) error {
	if !ValidFilename(filename) {
		return ErrInvalidFilename
	}

	dst, err := os.Create(filepath.Join(d.dir, filename))
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return fmt.Errorf("write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	return nil
}

// Open returns a reader for the stored file.
func (d *Disk) Open(_ context.Context, filename string) (io.ReadCloser, error) {
	if !ValidFilename(filename) {
		return nil, ErrInvalidFilename
	}
	f, err := os.Open(filepath.Join(d.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Delete removes the stored file. A file that is already gone is fine.
func (d *Disk) Delete(_ context.Context, filename string) error {
	if !ValidFilename(filename) {
		return ErrInvalidFilename
	}
	if err := os.Remove(filepath.Join(d.dir, filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// URL returns "" — disk files are streamed through the service.
func (d *Disk) URL(string) string { return "" }
