package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dharsanguruparan/careplanner/internal/signing"
)

type memoryObject struct {
	data []byte
	info ObjectInfo
}

// MemoryStore keeps blobs in a map guarded by an RWMutex. Its signed URLs
// point at baseURL + "/blobs/{bucket}/{key}" and carry an HMAC signature the
// API's blob route verifies with the same Signer.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string]*memoryObject
	signer  *signing.Signer
	baseURL string
	now     func() time.Time
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore(signer *signing.Signer, baseURL string) *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]map[string]*memoryObject),
		signer:  signer,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// Signer exposes the signer so the HTTP layer can validate links.
func (m *MemoryStore) Signer() *signing.Signer { return m.signer }

// EnsureBucket creates the bucket when missing.
func (m *MemoryStore) EnsureBucket(_ context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[bucket]; !ok {
		m.buckets[bucket] = make(map[string]*memoryObject)
	}
	return nil
}

// Put stores the blob. Unknown buckets are created on demand.
func (m *MemoryStore) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, opts PutOptions) error {
	// Read outside the lock so a slow reader cannot block other callers.
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read object: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("read object: got %d bytes, want %d", len(data), size)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	objects, ok := m.buckets[bucket]
	if !ok {
		objects = make(map[string]*memoryObject)
		m.buckets[bucket] = objects
	}
	if _, exists := objects[key]; exists && opts.NoOverwrite {
		return fmt.Errorf("put %s/%s: %w", bucket, key, ErrObjectExists)
	}
	objects[key] = &memoryObject{
		data: data,
		info: ObjectInfo{
			Size:         int64(len(data)),
			ContentType:  opts.ContentType,
			CacheControl: opts.CacheControl,
			LastModified: m.now().UTC(),
		},
	}
	return nil
}

// Get returns a reader over a copy of the blob.
func (m *MemoryStore) Get(_ context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.lookup(bucket, key)
	if !ok {
		return nil, ObjectInfo{}, fmt.Errorf("get %s/%s: %w", bucket, key, ErrObjectNotFound)
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return io.NopCloser(bytes.NewReader(data)), obj.info, nil
}

// SignedURL builds a link valid for ttl. Like a hosted object store it refuses
// to sign a key that holds no blob.
func (m *MemoryStore) SignedURL(_ context.Context, bucket, key string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	_, ok := m.lookup(bucket, key)
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("sign %s/%s: %w", bucket, key, ErrObjectNotFound)
	}
	q := m.signer.Query(bucket, key, ttl)
	return m.baseURL + BlobPath(bucket, key) + "?" + q.Encode(), nil
}

// Delete removes a blob. The attachment service never deletes; tests use this
// to simulate out-of-band removal.
func (m *MemoryStore) Delete(bucket, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if objects, ok := m.buckets[bucket]; ok {
		delete(objects, key)
	}
}

// Keys lists the keys stored in bucket.
func (m *MemoryStore) Keys(bucket string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.buckets[bucket]))
	for k := range m.buckets[bucket] {
		keys = append(keys, k)
	}
	return keys
}

func (m *MemoryStore) lookup(bucket, key string) (*memoryObject, bool) {
	objects, ok := m.buckets[bucket]
	if !ok {
		return nil, false
	}
	obj, ok := objects[key]
	return obj, ok
}

// BlobPath is the URL path a signed memory-store link points at. Each key
// segment is escaped so names with spaces or '?' survive the round trip.
func BlobPath(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return "/blobs/" + url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}
