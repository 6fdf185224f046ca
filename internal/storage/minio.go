package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tulisan/ocr-uploader/internal/models"
	"github.com/tulisan/ocr-uploader/internal/picker"
)

// MinIOStore uploads previews to a bucket and hands out presigned GET URLs
type MinIOStore struct {
	client *minio.Client
	bucket string
	expiry time.Duration
	now    func() time.Time
}

// NewMinIOStore connects to MinIO and verifies the bucket exists
func NewMinIOStore(ctx context.Context, cfg models.MinIOConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", cfg.Bucket)
	}

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}

	return &MinIOStore{
		client: client,
		bucket: cfg.Bucket,
		expiry: expiry,
		now:    time.Now,
	}, nil
}

// ObjectName builds the object path for a preview.
// Path format: previews/YYYY/MM/{key}{ext}
func ObjectName(now time.Time, key, contentType string) string {
	return fmt.Sprintf("previews/%d/%02d/%s%s",
		now.Year(),
		now.Month(),
		key,
		GetFileExtension(contentType),
	)
}

func (s *MinIOStore) Put(ctx context.Context, file models.ImageFile) (Preview, error) {
	contentType := picker.ExtensionContentType(file.Name)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectName := ObjectName(s.now(), uuid.New().String(), contentType)

	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(file.Data), file.Size(), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Preview{}, fmt.Errorf("failed to upload preview: %w", err)
	}

	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, s.expiry, nil)
	if err != nil {
		return Preview{}, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return Preview{Key: objectName, URL: url.String()}, nil
}

func (s *MinIOStore) Release(ctx context.Context, p Preview) error {
	if err := s.client.RemoveObject(ctx, s.bucket, p.Key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove preview: %w", err)
	}
	return nil
}

func (s *MinIOStore) Status() models.ServiceStatus {
	return models.ServiceStatus{Available: true, Version: "MinIO S3 (" + s.bucket + ")"}
}
