package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/careplanner/internal/model"
)

func insert(t *testing.T, idx *MemoryIndex, bucket string, owner model.Owner, path string) model.AttachmentRecord {
	t.Helper()
	rec := model.AttachmentRecord{Bucket: bucket, Path: path, Title: path, Owner: owner}
	require.NoError(t, idx.Insert(context.Background(), &rec))
	return rec
}

func TestMemoryIndexListFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	clock := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	idx.now = func() time.Time { return clock }

	owner := model.ServiceUser("abc-123")
	first := insert(t, idx, "documents", owner, "service_user/abc-123/1_a.pdf")
	clock = clock.Add(time.Minute)
	second := insert(t, idx, "documents", owner, "service_user/abc-123/2_b.pdf")
	// Same timestamp as second: insertion order breaks the tie.
	third := insert(t, idx, "documents", owner, "service_user/abc-123/3_c.pdf")

	insert(t, idx, "documents", model.Staff("abc-123"), "staff/abc-123/1_a.pdf")
	insert(t, idx, "documents", model.ServiceUser("other"), "service_user/other/1_a.pdf")
	insert(t, idx, "archive", owner, "service_user/abc-123/1_a.pdf")

	rows, err := idx.List(ctx, "documents", owner)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{rows[0].ID, rows[1].ID, rows[2].ID})
}

func TestMemoryIndexListEmpty(t *testing.T) {
	rows, err := NewMemoryIndex().List(context.Background(), "documents", model.Shift("s1"))
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestMemoryIndexInsertAssignsIdentity(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	rec := insert(t, idx, "documents", model.DailyNote("n1"), "daily_note/n1/1_a.txt")

	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := idx.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, *got)

	dup := model.AttachmentRecord{Bucket: "documents", Path: "daily_note/n1/1_a.txt", Owner: model.DailyNote("n1")}
	assert.Error(t, idx.Insert(ctx, &dup))

	_, err = idx.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryIndexPreviews(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	rec := insert(t, idx, "documents", model.ServiceUser("u1"), "service_user/u1/1_a.txt")

	_, err := idx.GetPreview(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, idx.SavePreview(ctx, model.Preview{AttachmentID: rec.ID, Status: model.PreviewQueued}))
	require.NoError(t, idx.SavePreview(ctx, model.Preview{AttachmentID: rec.ID, Status: model.PreviewComplete, Content: "hi"}))

	p, err := idx.GetPreview(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PreviewComplete, p.Status)
	assert.Equal(t, "hi", p.Content)
	assert.False(t, p.UpdatedAt.IsZero())

	assert.ErrorIs(t, idx.SavePreview(ctx, model.Preview{AttachmentID: "nope"}), ErrNotFound)
}
