// Package blob fetches FAQ datasets from S3-compatible object storage
// (MinIO, Cloudflare R2, AWS S3, Azure Blob via gateway). Used when the CSV
// lives in a bucket instead of on local disk.
package blob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store reads objects from a single bucket over the S3 API.
type Store struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// Config holds the connection settings for the object store.
type Config struct {
	// Endpoint is the S3 API endpoint, with or without scheme.
	// HTTPS endpoints get TLS; anything else is plain HTTP.
	Endpoint string
	// AccessKey and SecretKey are the static credentials.
	AccessKey string
	SecretKey string
	// Bucket is the bucket holding FAQ datasets.
	Bucket string
	// Region is optional and may be empty for MinIO/R2.
	Region string
}

// ConfigFromEnv resolves a Config from the BLOB_* environment variables.
func ConfigFromEnv() *Config {
	return &Config{
		Endpoint:  os.Getenv("BLOB_ENDPOINT"),
		AccessKey: os.Getenv("BLOB_ACCESS_KEY"),
		SecretKey: os.Getenv("BLOB_SECRET_KEY"),
		Bucket:    os.Getenv("BLOB_BUCKET"),
		Region:    os.Getenv("BLOB_REGION"),
	}
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	switch {
	case c.Endpoint == "":
		return fmt.Errorf("blob: BLOB_ENDPOINT is required")
	case c.AccessKey == "":
		return fmt.Errorf("blob: BLOB_ACCESS_KEY is required")
	case c.SecretKey == "":
		return fmt.Errorf("blob: BLOB_SECRET_KEY is required")
	case c.Bucket == "":
		return fmt.Errorf("blob: BLOB_BUCKET is required")
	}
	return nil
}

// New constructs the storage adapter.
func New(cfg *Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	useSSL := strings.HasPrefix(strings.ToLower(cfg.Endpoint), "https")
	client, err := minio.New(sanitizeEndpoint(cfg.Endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       useSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("blob: init client: %w", err)
	}
	return &Store{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With("component", "blob"),
	}, nil
}

// Fetch returns a reader over the named object. The caller owns closing it.
func (s *Store) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("blob: get %s/%s: %w", s.bucket, key, err)
	}
	// GetObject is lazy; stat up front so a missing key fails here, not mid-read.
	info, statErr := obj.Stat()
	if statErr != nil {
		_ = obj.Close()
		return nil, fmt.Errorf("blob: stat %s/%s: %w", s.bucket, key, statErr)
	}
	s.logger.Debug("fetched object",
		slog.String("key", key),
		slog.Int64("size", info.Size))
	return obj, nil
}

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "https://")
	raw = strings.TrimPrefix(raw, "http://")
	if i := strings.IndexByte(raw, '/'); i >= 0 {
		raw = raw[:i]
	}
	return raw
}
