// Package storage keeps uploaded payment proofs in a local directory or an
// object store bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/growen-ao/growen-api/internal/config"
)

// Store holds opaque objects addressed by key
type Store interface {
	// Put writes body under key, replacing any existing object
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	// Get opens the object stored under key. The caller closes it.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Name identifies the backend in logs
	Name() string
}

// New creates the store selected by cfg.Driver
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(cfg.LocalPath)
	case "s3":
		return NewS3Store(ctx, cfg)
	case "gcs":
		return NewGCSStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// objectKey joins prefix and key, rejecting keys that escape the prefix
func objectKey(prefix, key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	clean = strings.TrimPrefix(clean, "/")
	if prefix == "" {
		return clean, nil
	}
	return strings.TrimSuffix(prefix, "/") + "/" + clean, nil
}
