package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/couchcryptid/wind-power-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/wind-power-etl/internal/config"
	"github.com/couchcryptid/wind-power-etl/internal/domain"
)

// Store reads input tables from and writes the cleaned dataset to an
// S3-compatible bucket.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// New connects a Store using static credentials from cfg.
func New(cfg config.S3Config) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("s3 endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket, prefix: cfg.InputPrefix}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("s3 bucket exists: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("s3 make bucket: %w", err)
	}
	return nil
}

// Open returns the object for an input table, resolved under the input
// prefix. A missing object fails here rather than on first read.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := ObjectKey(s.prefix, name)
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("s3 get object %s: %w", key, err)
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, fmt.Errorf("s3 stat object %s: %w", key, err)
	}
	return obj, nil
}

// Uploader returns a loader that writes the cleaned dataset to key.
func (s *Store) Uploader(key string, logger *slog.Logger) *Uploader {
	return NewUploader(s.client, s.bucket, key, logger)
}

// ObjectKey joins a prefix and table name into an object key.
func ObjectKey(prefix, name string) string {
	return strings.TrimPrefix(path.Join(prefix, name), "/")
}

// Putter is the subset of *minio.Client used by Uploader.
type Putter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Uploader is a pipeline loader that stores the cleaned dataset as a single
// CSV object.
type Uploader struct {
	client Putter
	bucket string
	key    string
	logger *slog.Logger
}

// NewUploader creates an Uploader.
func NewUploader(client Putter, bucket, key string, logger *slog.Logger) *Uploader {
	return &Uploader{client: client, bucket: bucket, key: key, logger: logger}
}

// Name identifies the loader in logs and metrics.
func (u *Uploader) Name() string { return "s3" }

// Load encodes readings and uploads them, replacing any existing object.
func (u *Uploader) Load(ctx context.Context, readings []domain.Reading) error {
	var buf bytes.Buffer
	if err := csvfile.Encode(&buf, readings); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}

	size := int64(buf.Len())
	info, err := u.client.PutObject(ctx, u.bucket, u.key, &buf, size, minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}

	u.logger.Info("dataset uploaded",
		"bucket", u.bucket,
		"key", u.key,
		"rows", len(readings),
		"bytes", size,
		"etag", info.ETag,
	)
	return nil
}
