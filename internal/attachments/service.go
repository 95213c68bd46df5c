// Package attachments lists, uploads and resolves downloads for files attached
// to care records. A blob is always written before its metadata row, so a
// failure between the two leaves an invisible orphan blob rather than a row
// pointing at nothing.
package attachments

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dharsanguruparan/careplanner/internal/model"
	"github.com/dharsanguruparan/careplanner/internal/repository"
	"github.com/dharsanguruparan/careplanner/internal/storage"
)

// DefaultSignedURLTTL is how long a download link stays valid.
const DefaultSignedURLTTL = 60 * time.Second

// File is a blob selected for upload.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// PreviewQueue is notified after an attachment is registered.
type PreviewQueue interface {
	EnqueuePreview(ctx context.Context, rec model.AttachmentRecord) error
}

// Options configures a Service. Zero values pick the defaults.
type Options struct {
	Bucket            string
	CacheControl      string
	SignedURLTTL      time.Duration
	MaxFileSize       int64
	AllowedExtensions []string
	Queue             PreviewQueue
	Logger            logrus.FieldLogger
	Clock             func() time.Time
}

// Service ties the metadata index to the object store.
type Service struct {
	index        repository.Index
	store        storage.ObjectStore
	queue        PreviewQueue
	log          logrus.FieldLogger
	bucket       string
	cacheControl string
	ttl          time.Duration
	maxSize      int64
	allowed      map[string]struct{}
	now          func() time.Time
}

// NewService constructs a Service.
func NewService(index repository.Index, store storage.ObjectStore, opts Options) *Service {
	s := &Service{
		index:        index,
		store:        store,
		queue:        opts.Queue,
		log:          opts.Logger,
		bucket:       opts.Bucket,
		cacheControl: opts.CacheControl,
		ttl:          opts.SignedURLTTL,
		maxSize:      opts.MaxFileSize,
		now:          opts.Clock,
	}
	if s.bucket == "" {
		s.bucket = model.DefaultBucket
	}
	if s.cacheControl == "" {
		s.cacheControl = "max-age=3600"
	}
	if s.ttl <= 0 {
		s.ttl = DefaultSignedURLTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if len(opts.AllowedExtensions) > 0 {
		s.allowed = make(map[string]struct{}, len(opts.AllowedExtensions))
		for _, ext := range opts.AllowedExtensions {
			s.allowed[strings.ToLower(ext)] = struct{}{}
		}
	}
	return s
}

// Bucket is the namespace this service reads and writes.
func (s *Service) Bucket() string { return s.bucket }

// SignedURLTTL is the validity window of links returned by SignedURL.
func (s *Service) SignedURLTTL() time.Duration { return s.ttl }

// List returns the owner's attachments, most recent first.
func (s *Service) List(ctx context.Context, owner model.Owner) ([]model.AttachmentRecord, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.index.List(ctx, s.bucket, owner)
	if err != nil {
		return nil, fmt.Errorf("list attachments for %s: %w", owner, err)
	}
	return rows, nil
}

// Upload writes the blob with no overwrite, then registers it. If the insert
// fails the blob stays behind as an orphan and the error is returned; callers
// must not assume a record exists.
func (s *Service) Upload(ctx context.Context, owner model.Owner, f *File) (*model.AttachmentRecord, error) {
	if f == nil || f.Body == nil {
		return nil, ErrNoFile
	}
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkFile(f); err != nil {
		uploadsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	key := StorageKey(owner, f.Name, s.now())
	log := s.log.WithFields(logrus.Fields{"owner": owner.String(), "path": key})

	err := s.store.Put(ctx, s.bucket, key, f.Body, f.Size, storage.PutOptions{
		ContentType:  f.ContentType,
		CacheControl: s.cacheControl,
		NoOverwrite:  true,
	})
	if err != nil {
		uploadsTotal.WithLabelValues("store_failed").Inc()
		log.WithError(err).Warn("attachment upload failed")
		return nil, fmt.Errorf("upload %s: %w", f.Name, err)
	}

	size := f.Size
	rec := &model.AttachmentRecord{
		Bucket:   s.bucket,
		Path:     key,
		Title:    f.Name,
		FileType: optional(f.ContentType),
		FileSize: &size,
		Owner:    owner,
	}
	if err := s.index.Insert(ctx, rec); err != nil {
		uploadsTotal.WithLabelValues("index_failed").Inc()
		orphanedBlobsTotal.Inc()
		log.WithError(err).Error("attachment stored but not registered; blob is orphaned")
		return nil, fmt.Errorf("register %s: %w", f.Name, err)
	}
	uploadsTotal.WithLabelValues("ok").Inc()
	log.WithField("attachment_id", rec.ID).Info("attachment uploaded")

	if s.queue != nil {
		// The record exists at this point; a lost preview is not an upload failure.
		if err := s.queue.EnqueuePreview(ctx, *rec); err != nil {
			log.WithError(err).Warn("enqueue preview failed")
		}
	}
	return rec, nil
}

// SignedURL returns a short-lived link for exactly the record's (bucket, path).
// A missing blob and a permission error look the same to the caller: an error
// and no URL.
func (s *Service) SignedURL(ctx context.Context, rec model.AttachmentRecord) (string, error) {
	u, err := s.store.SignedURL(ctx, rec.Bucket, rec.Path, s.ttl)
	if err != nil {
		signedURLsTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("create download url for %s: %w", rec.DisplayTitle(), err)
	}
	signedURLsTotal.WithLabelValues("ok").Inc()
	return u, nil
}

// SignedURLByID looks the record up, then signs it.
func (s *Service) SignedURLByID(ctx context.Context, id string) (string, error) {
	rec, err := s.index.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.SignedURL(ctx, *rec)
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, id string) (*model.AttachmentRecord, error) {
	return s.index.Get(ctx, id)
}

func (s *Service) checkFile(f *File) error {
	if f.Name == "" || strings.ContainsAny(f.Name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, f.Name)
	}
	if s.maxSize > 0 && f.Size > s.maxSize {
		return fmt.Errorf("%w (%d bytes)", ErrTooLarge, s.maxSize)
	}
	if s.allowed != nil {
		ext := strings.ToLower(filepath.Ext(f.Name))
		if _, ok := s.allowed[ext]; !ok {
			return fmt.Errorf("%w: %q", ErrTypeNotAllowed, ext)
		}
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
