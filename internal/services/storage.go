package services

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/ngocminh/workpoint-api/internal/config"
)

// Storage is the external object-storage collaborator. The bytes behind
// attachments live here; the database stores only object keys.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Global storage instance; nil when unconfigured (attachment bytes
// disabled, metadata still works).
var Store Storage

type minioStorage struct {
	client *minio.Client
	bucket string
}

// InitStorage wires the MinIO-backed storage from config. Missing config
// leaves Store nil and logs, mirroring the push service's degrade-only
// behavior.
func InitStorage(cfg *config.Config) error {
	if cfg.MinioEndpoint == "" {
		log.Println("storage: no endpoint configured, attachments disabled")
		return nil
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return err
	}

	Store = &minioStorage{client: client, bucket: cfg.MinioBucket}
	log.Printf("storage: using bucket %q at %s", cfg.MinioBucket, cfg.MinioEndpoint)
	return nil
}

func (s *minioStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *minioStorage) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func (s *minioStorage) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// DeleteStoredObject removes an object best-effort: failures are logged
// and never propagate to the caller's mutation.
func DeleteStoredObject(ctx context.Context, key string) {
	if Store == nil || key == "" {
		return
	}
	if err := Store.Delete(ctx, key); err != nil {
		log.Printf("storage: delete %q failed: %v", key, err)
	}
}
