package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"fitforge/server/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStorage(t *testing.T) FileStorage {
	t.Helper()
	fs, err := NewS3Storage(context.Background(), config.S3Config{
		Endpoint:        "http://minio.local:9000",
		Region:          "us-east-1",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio-secret",
		BucketName:      "covers",
	}, zap.NewNop())
	require.NoError(t, err)
	return fs
}

func TestNewS3Storage_RequiresBucket(t *testing.T) {
	_, err := NewS3Storage(context.Background(), config.S3Config{Region: "us-east-1"}, zap.NewNop())
	assert.Error(t, err)
}

func TestPresignedURLs(t *testing.T) {
	fs := newTestStorage(t)

	raw, err := fs.GeneratePresignedUploadURL(context.Background(), "programs/p1/cover.jpg", "image/jpeg", 5*time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "minio.local:9000", u.Host)
	assert.True(t, strings.HasPrefix(u.Path, "/covers/programs/p1/cover.jpg"), u.Path)
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))

	raw, err = fs.GeneratePresignedDownloadURL(context.Background(), "programs/p1/cover.jpg", 0)
	require.NoError(t, err)
	u, err = url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
}
