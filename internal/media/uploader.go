// Package media stores product images in an S3-compatible bucket.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrUnsupportedType = errors.New("unsupported image type")

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// ObjectStore is the part of *minio.Client the uploader needs.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Uploader struct {
	store   ObjectStore
	bucket  string
	baseURL string
}

func NewMinioUploader(endpoint, accessKey, secretKey, bucket string, secure bool) (*Uploader, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	scheme := "http"
	if secure {
		scheme = "https"
	}
	return NewUploader(client, bucket, fmt.Sprintf("%s://%s", scheme, endpoint)), nil
}

func NewUploader(store ObjectStore, bucket, baseURL string) *Uploader {
	return &Uploader{
		store:   store,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// EnsureBucket creates the bucket on first start.
func (u *Uploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.store.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", u.bucket, err)
	}
	if exists {
		return nil
	}
	if err := u.store.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", u.bucket, err)
	}
	log.Printf("bucket %s created", u.bucket)
	return nil
}

// Upload stores one image under a fresh object name and returns its URL.
func (u *Uploader) Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	if !allowedTypes[contentType] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}

	object := fmt.Sprintf("products/%s-%s", uuid.NewString(), sanitize(name))
	if _, err := u.store.PutObject(ctx, u.bucket, object, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	return fmt.Sprintf("%s/%s/%s", u.baseURL, u.bucket, object), nil
}

func sanitize(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == "/" {
		return "image"
	}
	return base
}
