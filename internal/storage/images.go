// Package storage keeps image blobs in a MinIO (S3-compatible) bucket.
// Objects are addressed by deterministic keys derived from their owner:
// user_<id>.<ext> for profile images, film_<id>.<ext> for hero images.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

// ErrUnsupportedType is returned for any Content-Type outside the
// closed jpeg/png/gif set.
var ErrUnsupportedType = errors.New("unsupported image content type")

// Ext maps a declared Content-Type onto the stored file extension.
// The mapping is closed: anything unknown is rejected rather than
// guessed at.
func Ext(contentType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/jpg":
		return ".jpeg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	default:
		return "", ErrUnsupportedType
	}
}

// ContentType is the inverse of Ext, used when serving a stored image
// back to the client.
func ContentType(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".png"):
		return "image/png"
	case strings.HasSuffix(filename, ".gif"):
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

// UserImageKey returns the object key for a user's profile image.
func UserImageKey(userID uint64, ext string) string {
	return fmt.Sprintf("user_%d%s", userID, ext)
}

// FilmImageKey returns the object key for a film's hero image.
func FilmImageKey(filmID uint64, ext string) string {
	return fmt.Sprintf("film_%d%s", filmID, ext)
}

// ImageStore is the blob-side half of image handling. Implementations
// must tolerate Remove on a missing object.
type ImageStore interface {
	Put(ctx context.Context, key string, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
}

// MinioStore implements ImageStore on a single MinIO bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	log    *logrus.Logger
}

// MinioConfig carries the connection settings for the image bucket.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinioStore connects to MinIO and ensures the bucket exists.
func NewMinioStore(ctx context.Context, cfg MinioConfig, log *logrus.Logger) (*MinioStore, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	s := &MinioStore{client: client, bucket: cfg.Bucket, log: log}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
		log.WithField("bucket", cfg.Bucket).Info("created image bucket")
	}
	return s, nil
}

func (s *MinioStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		s.log.WithError(err).WithField("key", key).Error("image upload failed")
	}
	return err
}

func (s *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

func (s *MinioStore) Remove(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		s.log.WithError(err).WithField("key", key).Error("image delete failed")
	}
	return err
}
