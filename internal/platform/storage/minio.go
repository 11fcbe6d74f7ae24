package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore issues presigned URLs for report images.
type ObjectStore interface {
	PresignPut(ctx context.Context, bucket, object string, expiry time.Duration) (*url.URL, error)
	EnsureBucket(ctx context.Context, bucket string) error
	ObjectURL(bucket, object string) string
}

type minioStore struct {
	client *minio.Client
}

func NewMinioStore(endpoint, accessKey, secretKey string, useSSL bool) (ObjectStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &minioStore{client: client}, nil
}

func (s *minioStore) PresignPut(ctx context.Context, bucket, object string, expiry time.Duration) (*url.URL, error) {
	u, err := s.client.PresignedPutObject(ctx, bucket, object, expiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign %s/%s: %w", bucket, object, err)
	}
	return u, nil
}

// EnsureBucket creates bucket when it does not exist yet.
func (s *minioStore) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

func (s *minioStore) ObjectURL(bucket, object string) string {
	u := *s.client.EndpointURL()
	u.Path = "/" + bucket + "/" + object
	return u.String()
}
