package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/retromusic/storefront/config"
)

// Open builds the disk named by STORAGE_DISK.
func Open(ctx context.Context, s config.StorageSettings) (Disk, error) {
	switch strings.ToLower(s.Disk) {
	case "", "local":
		return NewLocalDisk(s.LocalRoot, s.LocalURL)
	case "s3":
		return NewS3Disk(ctx, S3Options{
			Bucket:   s.S3Bucket,
			Region:   s.S3Region,
			Key:      s.S3Key,
			Secret:   s.S3Secret,
			Endpoint: s.S3Endpoint,
			BaseURL:  s.S3URL,
		})
	default:
		return nil, fmt.Errorf("storage: unsupported STORAGE_DISK %q (supported: local, s3)", s.Disk)
	}
}

// cleanKey normalises a slash-separated key. Cleaning against "/" means
// ".." segments can never climb above the disk root.
func cleanKey(p string) (string, error) {
	if strings.Contains(p, "\\") {
		return "", ErrInvalidPath
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+p), "/")
	if cleaned == "" {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}
