package blob

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the externally reachable base for object URLs, e.g. a
	// CDN in front of the bucket. Defaults to the endpoint.
	PublicURL string
}

// MinIOStore uploads to an S3-compatible bucket.
//
// Image URLs are handed to every polling client as plain links, so the
// bucket must allow anonymous GetObject. NewMinIOStore applies that policy
// on every start; a bucket created by MakeBucket is private until then.
// Listing and writes stay authenticated.
type MinIOStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	logger    *zap.Logger
}

func NewMinIOStore(ctx context.Context, cfg MinIOConfig, logger *zap.Logger) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
		logger.Info("minio bucket created", zap.String("bucket", cfg.Bucket))
	}

	if err := client.SetBucketPolicy(ctx, cfg.Bucket, publicReadPolicy(cfg.Bucket)); err != nil {
		return nil, fmt.Errorf("set bucket policy: %w", err)
	}

	public := cfg.PublicURL
	if public == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		public = scheme + "://" + cfg.Endpoint
	}

	return &MinIOStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(public, "/"),
		logger:    logger,
	}, nil
}

func (m *MinIOStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		m.logger.Error("minio upload failed",
			zap.Error(err),
			zap.String("object_name", key),
			zap.Int64("size", size),
			zap.String("bucket", m.bucket),
		)
		return "", fmt.Errorf("put object: %w", err)
	}

	m.logger.Info("minio upload stored",
		zap.String("object_name", key),
		zap.Int64("size", size),
		zap.String("content_type", contentType),
		zap.String("bucket", m.bucket),
	)
	return objectURL(m.publicURL, m.bucket, key), nil
}

// publicReadPolicy grants anonymous s3:GetObject on every object in bucket.
func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{
	"Version": "2012-10-17",
	"Statement": [{
		"Effect": "Allow",
		"Principal": {"AWS": ["*"]},
		"Action": ["s3:GetObject"],
		"Resource": ["arn:aws:s3:::%s/*"]
	}]
}`, bucket)
}

func objectURL(base, bucket, key string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + strings.TrimLeft(key, "/")
}
