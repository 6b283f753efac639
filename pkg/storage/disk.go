// Package storage stores uploaded files on the local filesystem or on
// S3-compatible object storage (AWS S3, MinIO, R2, Spaces).
//
//	disk, err := storage.Open(ctx, settings.Storage)
//	err = disk.Put(ctx, "productos/abc.jpg", file, "image/jpeg")
//	url := disk.URL("productos/abc.jpg")
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidPath is returned for empty paths or paths escaping the disk root.
var ErrInvalidPath = errors.New("storage: invalid path")

// Disk is the driver interface.
type Disk interface {
	// Put writes r to path, creating parent directories as needed.
	Put(ctx context.Context, path string, r io.Reader, contentType string) error

	// Get returns a ReadCloser for the file. Caller must close it.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Delete removes a file. Returns nil if the file did not exist.
	Delete(ctx context.Context, path string) error

	// URL returns the public URL for path.
	URL(path string) string
}
