// Package storage defines the object-store contract the attachment service
// writes blobs through, plus an in-memory implementation. The MinIO/S3
// implementation lives in package s3storage.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrObjectExists is returned by Put with NoOverwrite when the key is
	// already taken.
	ErrObjectExists = errors.New("object already exists")
	// ErrObjectNotFound is returned when no blob is stored under the key.
	ErrObjectNotFound = errors.New("object not found")
)

// PutOptions controls how a blob is written.
type PutOptions struct {
	ContentType  string
	CacheControl string
	// NoOverwrite makes Put fail with ErrObjectExists instead of replacing an
	// existing blob.
	NoOverwrite bool
}

// ObjectInfo describes a stored blob.
type ObjectInfo struct {
	Size         int64
	ContentType  string
	CacheControl string
	LastModified time.Time
}

// ObjectStore is addressed by (bucket, key).
type ObjectStore interface {
	EnsureBucket(ctx context.Context, bucket string) error
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, opts PutOptions) error
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
	// SignedURL returns a link granting read access to exactly one blob for
	// ttl. It fails with ErrObjectNotFound when the blob is missing.
	SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}
