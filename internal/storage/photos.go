// Package storage puts property photos into an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stwalsh4118/brokerage/internal/config"
)

// PhotoStore writes photos to a bucket and returns their public URLs.
type PhotoStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewPhotoStore connects to the bucket described by cfg, creating the bucket
// when it does not exist yet.
func NewPhotoStore(ctx context.Context, cfg config.StorageConfig) (*PhotoStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &PhotoStore{client: client, bucket: cfg.Bucket, publicURL: cfg.PublicURL}, nil
}

// Put uploads size bytes from r under name and returns the public URL.
func (s *PhotoStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return PublicURL(s.publicURL, s.bucket, name), nil
}

// ObjectName builds a collision-free object key for an upload by owner.
func ObjectName(ownerID uuid.UUID, ext string, now time.Time) string {
	return path.Join("photos", ownerID.String(), now.UTC().Format("2006/01"), uuid.NewString()+ext)
}

// PublicURL is where a stored object can be fetched from.
func PublicURL(base, bucket, name string) string {
	return base + "/" + bucket + "/" + name
}
