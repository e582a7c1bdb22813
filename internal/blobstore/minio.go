package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// MinIOConfig holds connection settings for an S3-compatible object store.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// Region skips the bucket location lookup when set.
	Region string
}

// MinIOStore stores blobs as objects in a single bucket.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

// NewMinIOStore connects to the object store and makes sure the bucket exists.
func NewMinIOStore(ctx context.Context, cfg MinIOConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for %s: %w", cfg.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
		log.Info().Str("bucket", cfg.Bucket).Msg("created photo bucket")
	}

	return &MinIOStore{client: client, bucket: cfg.Bucket}, nil
}

// Put uploads data as an object named key and returns "<bucket>/<key>".
func (s *MinIOStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: http.DetectContentType(data),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", key, s.bucket, err)
	}

	log.Debug().
		Str("bucket", info.Bucket).
		Str("key", info.Key).
		Str("etag", info.ETag).
		Int64("size", info.Size).
		Msg("uploaded blob")
	return fmt.Sprintf("%s/%s", s.bucket, key), nil
}
