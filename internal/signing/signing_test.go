package signing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner(t *testing.T) {
	now := time.Unix(1700000000, 0)
	s := NewSigner([]byte("topsecret")).WithClock(func() time.Time { return now })

	q := s.Query("documents", "service_user/abc/1_a.pdf", time.Minute)
	require.Equal(t, "1700000060", q.Get("expires"))
	require.NotEmpty(t, q.Get("signature"))

	assert.NoError(t, s.Validate("documents", "service_user/abc/1_a.pdf", q.Get("expires"), q.Get("signature")))

	// Validation is strict about every parameter.
	assert.ErrorIs(t, s.Validate("documents", "service_user/abc/1_b.pdf", q.Get("expires"), q.Get("signature")), ErrBadSignature)
	assert.ErrorIs(t, s.Validate("other", "service_user/abc/1_a.pdf", q.Get("expires"), q.Get("signature")), ErrBadSignature)
	assert.ErrorIs(t, s.Validate("documents", "service_user/abc/1_a.pdf", "1700000061", q.Get("signature")), ErrBadSignature)
	assert.ErrorIs(t, s.Validate("documents", "service_user/abc/1_a.pdf", "soon", q.Get("signature")), ErrMalformed)
}

func TestSignerRejectsExpiredLinks(t *testing.T) {
	now := time.Unix(1700000000, 0)
	s := NewSigner([]byte("topsecret")).WithClock(func() time.Time { return now })
	q := s.Query("documents", "k", 60*time.Second)

	now = now.Add(59 * time.Second)
	assert.NoError(t, s.Validate("documents", "k", q.Get("expires"), q.Get("signature")))

	now = now.Add(time.Second)
	assert.ErrorIs(t, s.Validate("documents", "k", q.Get("expires"), q.Get("signature")), ErrExpired)
}

func TestSignerBucketKeyBoundary(t *testing.T) {
	s := NewSigner([]byte("topsecret"))
	assert.NotEqual(t, s.Sign("a", "b/c", 1), s.Sign("a/b", "c", 1))
}
