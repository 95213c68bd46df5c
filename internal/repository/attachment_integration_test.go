//go:build integration

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/careplanner/internal/database"
	"github.com/dharsanguruparan/careplanner/internal/model"
)

// TestAttachmentRepository_Integration runs the pgx queries against a real
// Postgres. Requires CAREPLANNER_TEST_DATABASE_URL.
//
// Run: go test -tags=integration -run Integration ./internal/repository/
func TestAttachmentRepository_Integration(t *testing.T) {
	dsn := os.Getenv("CAREPLANNER_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CAREPLANNER_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.EnsureSchema(ctx, pool))

	repo := NewAttachmentRepository(pool)
	run := uuid.NewString()
	owner := model.ServiceUser(run)

	add := func(bucket string, o model.Owner, name string) model.AttachmentRecord {
		t.Helper()
		size := int64(len(name))
		ft := "text/plain"
		rec := model.AttachmentRecord{
			Bucket:   bucket,
			Path:     string(o.Kind()) + "/" + o.ID() + "/" + name,
			Title:    name,
			FileType: &ft,
			FileSize: &size,
			Owner:    o,
		}
		require.NoError(t, repo.Insert(ctx, &rec))
		require.NotEmpty(t, rec.ID)
		require.False(t, rec.CreatedAt.IsZero())
		time.Sleep(5 * time.Millisecond)
		return rec
	}

	first := add("documents", owner, "1_a.txt")
	second := add("documents", owner, "2_b.txt")
	third := add("documents", owner, "3_c.txt")
	add("documents", model.Staff(run), "1_a.txt")
	add("documents", model.ServiceUser(run+"-other"), "1_a.txt")
	add("archive-"+run, owner, "1_a.txt")

	rows, err := repo.List(ctx, "documents", owner)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{rows[0].ID, rows[1].ID, rows[2].ID})
	assert.Equal(t, owner, rows[0].Owner)

	got, err := repo.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Path, got.Path)
	assert.Equal(t, "2_b.txt", got.Title)
	require.NotNil(t, got.FileType)
	assert.Equal(t, "text/plain", *got.FileType)
	require.NotNil(t, got.FileSize)
	assert.Equal(t, int64(7), *got.FileSize)
	assert.True(t, second.CreatedAt.Equal(got.CreatedAt))

	_, err = repo.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	dup := model.AttachmentRecord{Bucket: "documents", Path: first.Path, Title: "dup", Owner: owner}
	assert.Error(t, repo.Insert(ctx, &dup))

	require.NoError(t, repo.SavePreview(ctx, model.Preview{AttachmentID: first.ID, Status: model.PreviewComplete, Content: "hello"}))
	p, err := repo.GetPreview(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PreviewComplete, p.Status)
	assert.Equal(t, "hello", p.Content)
}
