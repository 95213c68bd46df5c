// Package s3storage implements storage.ObjectStore on MinIO or any S3
// compatible service.
package s3storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dharsanguruparan/careplanner/internal/config"
	"github.com/dharsanguruparan/careplanner/internal/storage"
)

// Storage wraps MinIO/S3 interactions for attachment blobs.
type Storage struct {
	client *minio.Client
	region string
}

// New creates a MinIO client from the Config.
func New(cfg *config.Config) (*Storage, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &Storage{client: client, region: cfg.S3Region}, nil
}

// EnsureBucket makes sure the bucket exists before use.
func (s *Storage) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", bucket, err)
		}
	}
	return nil
}

// Put uploads the blob. With NoOverwrite the key is stat'ed first; S3 has no
// portable create-only PUT, so two writers racing on the same key inside that
// window can still both succeed. Keys carry a millisecond timestamp, which
// keeps that window practically empty.
func (s *Storage) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, opts storage.PutOptions) error {
	if opts.NoOverwrite {
		_, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
		switch {
		case err == nil:
			return fmt.Errorf("put %s/%s: %w", bucket, key, storage.ErrObjectExists)
		case !isNotFound(err):
			return fmt.Errorf("stat object: %w", err)
		}
	}
	putOpts := minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		CacheControl: opts.CacheControl,
	}
	if _, err := s.client.PutObject(ctx, bucket, key, r, size, putOpts); err != nil {
		return fmt.Errorf("upload object: %w", err)
	}
	return nil
}

// Get streams a blob. The caller closes the reader.
func (s *Storage) Get(ctx context.Context, bucket, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, storage.ObjectInfo{}, fmt.Errorf("get object: %w", err)
	}
	// GetObject is lazy; Stat forces the request so a missing key surfaces here.
	st, err := obj.Stat()
	if err != nil {
		obj.Close()
		if isNotFound(err) {
			return nil, storage.ObjectInfo{}, fmt.Errorf("get %s/%s: %w", bucket, key, storage.ErrObjectNotFound)
		}
		return nil, storage.ObjectInfo{}, fmt.Errorf("stat object: %w", err)
	}
	return obj, infoFrom(st), nil
}

// SignedURL returns a presigned GET URL for exactly one key. Presigning is a
// local computation that never contacts the server, so the key is stat'ed
// first to refuse links to blobs that are gone.
func (s *Storage) SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if _, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("sign %s/%s: %w", bucket, key, storage.ErrObjectNotFound)
		}
		return "", fmt.Errorf("stat object: %w", err)
	}
	u, err := s.client.PresignedGetObject(ctx, bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign object: %w", err)
	}
	return u.String(), nil
}

func isNotFound(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
	}
	return false
}

func infoFrom(st minio.ObjectInfo) storage.ObjectInfo {
	return storage.ObjectInfo{
		Size:         st.Size,
		ContentType:  st.ContentType,
		CacheControl: st.Metadata.Get("Cache-Control"),
		LastModified: st.LastModified,
	}
}
