package upload

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioStore keeps uploads in an S3 compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects and creates the bucket if it does not exist yet.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			// Another replica may have created it in the meantime.
			if exists, errExists := client.BucketExists(ctx, cfg.Bucket); errExists != nil || !exists {
				return nil, fmt.Errorf("failed to create bucket: %w", err)
			}
		}
	}

	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinioStore) Save(ctx context.Context, data []byte, originalName string) (string, error) {
	name := newObjectName(originalName)

	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: http.DetectContentType(data),
	})
	if err != nil {
		return "", fmt.Errorf("%w: put %s: %v", ErrStorageIO, name, err)
	}
	return PathPrefix + name, nil
}

func (s *MinioStore) Open(ctx context.Context, name string) (*Object, error) {
	if !validName(name) {
		return nil, ErrNotFound
	}

	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrStorageIO, name, err)
	}

	// GetObject is lazy; Stat performs the request.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: stat %s: %v", ErrStorageIO, name, err)
	}

	return &Object{ReadSeekCloser: obj, Name: name, ModTime: info.LastModified}, nil
}

func (s *MinioStore) Remove(ctx context.Context, path string) error {
	name, ok := nameFromPath(path)
	if !ok {
		return ErrNotFound
	}
	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: remove %s: %v", ErrStorageIO, name, err)
	}
	return nil
}
