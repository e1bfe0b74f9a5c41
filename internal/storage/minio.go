// Package storage uploads spot photos to S3-compatible object storage
// (MinIO) and returns the public URL that is saved as the spot image url.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sakif/rental-spots/internal/config"
)

// ImageStore puts objects into one bucket.
type ImageStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewImageStore connects to cfg.Endpoint and creates the bucket if needed.
func NewImageStore(ctx context.Context, cfg config.MinIO) (*ImageStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: creating minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("storage: checking bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("storage: creating bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &ImageStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicBase(cfg),
	}, nil
}

// publicBase is MINIO_PUBLIC_URL, or the endpoint itself, followed by the
// bucket, without a trailing slash.
func publicBase(cfg config.MinIO) string {
	base := strings.TrimSuffix(cfg.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}
	return base + "/" + cfg.Bucket
}

// ObjectName builds spots/<spotID>/<yyyy>/<mm>/<uuid><ext>. Unknown
// extensions fall back to .jpg.
func ObjectName(spotID int64, fileName string, now time.Time, id uuid.UUID) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("spots/%d/%d/%02d/%s%s", spotID, now.Year(), now.Month(), id.String(), ext)
}

// UploadSpotImage stores r under a fresh object name and returns its URL.
func (s *ImageStore) UploadSpotImage(ctx context.Context, spotID int64, fileName, contentType string, r io.Reader, size int64) (string, error) {
	now := time.Now()
	object := ObjectName(spotID, fileName, now, uuid.New())

	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(object))
	}

	_, err := s.client.PutObject(ctx, s.bucket, object, r, size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"original-filename": fileName,
			"spot-id":           fmt.Sprint(spotID),
			"uploaded-at":       now.Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("storage: uploading %s: %w", object, err)
	}

	return s.publicURL + "/" + object, nil
}
