package storage

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/careplanner/internal/signing"
)

func newTestStore() *MemoryStore {
	return NewMemoryStore(signing.NewSigner([]byte("secret")), "http://localhost:8080/")
}

func TestMemoryStorePutGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	err := store.Put(ctx, "documents", "staff/s1/1_cv.txt", strings.NewReader("hello"), 5, PutOptions{
		ContentType:  "text/plain",
		CacheControl: "max-age=3600",
	})
	require.NoError(t, err)

	rc, info, err := store.Get(ctx, "documents", "staff/s1/1_cv.txt")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, int64(5), info.Size)
	assert.Equal(t, "text/plain", info.ContentType)
	assert.Equal(t, "max-age=3600", info.CacheControl)

	_, _, err = store.Get(ctx, "documents", "missing")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestMemoryStoreNoOverwrite(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	key := "service_user/abc/1_a.pdf"

	require.NoError(t, store.Put(ctx, "documents", key, strings.NewReader("one"), 3, PutOptions{NoOverwrite: true}))
	err := store.Put(ctx, "documents", key, strings.NewReader("two"), 3, PutOptions{NoOverwrite: true})
	assert.ErrorIs(t, err, ErrObjectExists)

	rc, _, err := store.Get(ctx, "documents", key)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "one", string(data), "original blob must survive")

	// Without the flag the write replaces the blob.
	require.NoError(t, store.Put(ctx, "documents", key, strings.NewReader("two"), 3, PutOptions{}))
}

func TestMemoryStoreRejectsShortReads(t *testing.T) {
	err := newTestStore().Put(context.Background(), "documents", "k", strings.NewReader("abc"), 10, PutOptions{})
	assert.Error(t, err)
}

func TestMemoryStoreSignedURL(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	key := "service_user/abc-123/1700000000000_care-plan_review.pdf"
	require.NoError(t, store.Put(ctx, "documents", key, strings.NewReader("x"), 1, PutOptions{}))

	raw, err := store.SignedURL(ctx, "documents", key, 60*time.Second)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:8080", u.Host)
	assert.Equal(t, "/blobs/documents/"+key, u.Path)
	q := u.Query()
	assert.NoError(t, store.Signer().Validate("documents", key, q.Get("expires"), q.Get("signature")))

	store.Delete("documents", key)
	_, err = store.SignedURL(ctx, "documents", key, 60*time.Second)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestBlobPathEscapesSegments(t *testing.T) {
	assert.Equal(t, "/blobs/documents/staff/s%201/1_a%3F.pdf", BlobPath("documents", "staff/s 1/1_a?.pdf"))
}
