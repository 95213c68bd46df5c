package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/careplanner/internal/model"
)

type memoryRow struct {
	rec model.AttachmentRecord
	seq uint64
}

// MemoryIndex is an in-process Index and PreviewStore guarded by an RWMutex.
type MemoryIndex struct {
	mu       sync.RWMutex
	rows     map[string]memoryRow
	previews map[string]model.Preview
	seq      uint64
	now      func() time.Time
}

// NewMemoryIndex constructs an empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		rows:     make(map[string]memoryRow),
		previews: make(map[string]model.Preview),
		now:      time.Now,
	}
}

// List filters on (bucket, owner) and sorts newest first. Rows inserted within
// the same clock tick keep insertion order reversed, matching what a serial
// created_at would give.
func (m *MemoryIndex) List(ctx context.Context, bucket string, owner model.Owner) ([]model.AttachmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	matched := make([]memoryRow, 0)
	for _, row := range m.rows {
		if row.rec.Bucket == bucket && row.rec.Owner == owner {
			matched = append(matched, row)
		}
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.rec.CreatedAt.Equal(b.rec.CreatedAt) {
			return a.rec.CreatedAt.After(b.rec.CreatedAt)
		}
		return a.seq > b.seq
	})
	out := make([]model.AttachmentRecord, len(matched))
	for i, row := range matched {
		out[i] = row.rec
	}
	return out, nil
}

// Insert assigns a UUID and timestamp. Like the unique (bucket, path)
// constraint in Postgres, a duplicate path is rejected.
func (m *MemoryIndex) Insert(ctx context.Context, rec *model.AttachmentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.rec.Bucket == rec.Bucket && row.rec.Path == rec.Path {
			return fmt.Errorf("insert attachment: duplicate path %s/%s", rec.Bucket, rec.Path)
		}
	}
	m.seq++
	rec.ID = uuid.NewString()
	rec.CreatedAt = m.now().UTC()
	m.rows[rec.ID] = memoryRow{rec: *rec, seq: m.seq}
	return nil
}

// Get returns a copy of the record.
func (m *MemoryIndex) Get(_ context.Context, id string) (*model.AttachmentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("attachment %s: %w", id, ErrNotFound)
	}
	rec := row.rec
	return &rec, nil
}

// SavePreview upserts a preview.
func (m *MemoryIndex) SavePreview(_ context.Context, p model.Preview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[p.AttachmentID]; !ok {
		return fmt.Errorf("save preview: attachment %s: %w", p.AttachmentID, ErrNotFound)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = m.now().UTC()
	}
	m.previews[p.AttachmentID] = p
	return nil
}

// GetPreview returns the preview for an attachment.
func (m *MemoryIndex) GetPreview(_ context.Context, attachmentID string) (*model.Preview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.previews[attachmentID]
	if !ok {
		return nil, fmt.Errorf("preview %s: %w", attachmentID, ErrNotFound)
	}
	return &p, nil
}
