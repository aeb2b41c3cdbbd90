package storage

import (
	"context"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/growen-ao/growen-api/internal/config"
)

// GCSStore keeps objects in a Google Cloud Storage bucket
type GCSStore struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewGCSStore uses the service account JSON when set, otherwise
// application default credentials
func NewGCSStore(ctx context.Context, cfg config.StorageConfig) (*GCSStore, error) {
	var opts []option.ClientOption
	if cfg.GCSCredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.GCSCredentialsJSON)))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *GCSStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	k, err := objectKey(s.prefix, key)
	if err != nil {
		return err
	}
	w := s.client.Bucket(s.bucket).Object(k).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, body); err != nil {
		w.Close()
		return fmt.Errorf("gcs write %s: %w", k, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs close %s: %w", k, err)
	}
	return nil
}

func (s *GCSStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	k, err := objectKey(s.prefix, key)
	if err != nil {
		return nil, err
	}
	r, err := s.client.Bucket(s.bucket).Object(k).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs read %s: %w", k, err)
	}
	return r, nil
}

func (s *GCSStore) Name() string { return "gcs" }

// Close releases the underlying client
func (s *GCSStore) Close() error {
	return s.client.Close()
}
