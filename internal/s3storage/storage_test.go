package s3storage

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/careplanner/internal/config"
)

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(fmt.Errorf("wrapped: %w", minio.ErrorResponse{StatusCode: http.StatusNotFound})))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}))
	assert.False(t, isNotFound(errors.New("connection refused")))
}

func TestInfoFrom(t *testing.T) {
	modified := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	info := infoFrom(minio.ObjectInfo{
		Size:         12,
		ContentType:  "text/plain",
		LastModified: modified,
		Metadata:     http.Header{"Cache-Control": []string{"max-age=3600"}},
	})
	assert.Equal(t, int64(12), info.Size)
	assert.Equal(t, "text/plain", info.ContentType)
	assert.Equal(t, "max-age=3600", info.CacheControl)
	assert.Equal(t, modified, info.LastModified)
}

func TestNewBuildsClient(t *testing.T) {
	s, err := New(&config.Config{
		S3Endpoint:  "localhost:9000",
		S3AccessKey: "minioadmin",
		S3SecretKey: "minioadmin",
		S3Region:    "us-east-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", s.region)
}
