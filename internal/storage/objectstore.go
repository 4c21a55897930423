package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	gocache "github.com/patrickmn/go-cache"
)

// SignedURLTTL is how long a presigned download URL stays valid.
const SignedURLTTL = time.Hour

// Cached URLs expire before the URL itself does, so a hit is always usable.
const signedURLCacheTTL = SignedURLTTL - 5*time.Minute

// ObjectStoreConfig holds S3-compatible object storage settings.
type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ObjectStore stores raw model files in an S3-compatible bucket.
type ObjectStore struct {
	client *minio.Client
	bucket string
	urls   *gocache.Cache
}

// NewObjectStore connects to the object storage endpoint.
func NewObjectStore(cfg ObjectStoreConfig) (*ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object store client: %w", err)
	}
	return &ObjectStore{
		client: client,
		bucket: cfg.Bucket,
		urls:   gocache.New(signedURLCacheTTL, 10*time.Minute),
	}, nil
}

// Upload stores the file under "{ownerID}/{uuid}{ext}" and returns that
// path. The size ceiling is checked here, before any bytes leave the
// machine; the bucket policy enforces the same limit authoritatively.
func (s *ObjectStore) Upload(ctx context.Context, fileName string, data []byte, ownerID string) (string, error) {
	if int64(len(data)) > MaxUploadBytes {
		return "", &QuotaExceededError{SizeBytes: int64(len(data)), LimitBytes: MaxUploadBytes}
	}

	storagePath := fmt.Sprintf("%s/%s%s", ownerID, uuid.NewString(), path.Ext(fileName))

	_, err := s.client.PutObject(ctx, s.bucket, storagePath,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", storagePath, err)
	}
	return storagePath, nil
}

// SignedURL returns a presigned download URL valid for SignedURLTTL.
// Recently issued URLs are served from cache.
func (s *ObjectStore) SignedURL(ctx context.Context, storagePath string) (string, error) {
	if cached, ok := s.urls.Get(storagePath); ok {
		return cached.(string), nil
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, storagePath, SignedURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", storagePath, err)
	}

	signed := u.String()
	s.urls.SetDefault(storagePath, signed)
	return signed, nil
}
