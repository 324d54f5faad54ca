package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewObjectKey(t *testing.T) {
	k := NewObjectKey("Beach.JPG")
	assert.True(t, IsObjectKey(k))
	assert.True(t, strings.HasPrefix(k, "media-"))
	assert.True(t, strings.HasSuffix(k, ".jpg"))
	assert.NotContains(t, k, "/")
	assert.NotEqual(t, k, NewObjectKey("Beach.JPG"))

	assert.NotContains(t, NewObjectKey("x.verylongextension"), "verylong")
	assert.False(t, IsObjectKey("https://example.com/photo.png"))
	assert.Equal(t, "u1/"+k, ObjectName("u1", k))
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage("bucket")
	require.NoError(t, m.Ping(ctx))

	ok, err := m.Exists(ctx, "u1/media-a.png")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = m.URL(ctx, "u1/media-a.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	require.NoError(t, m.Upload(ctx, "u1/media-a.png", strings.NewReader("png"), 3, "image/png"))
	ok, err = m.Exists(ctx, "u1/media-a.png")
	require.NoError(t, err)
	assert.True(t, ok)

	u, err := m.URL(ctx, "u1/media-a.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "memory://bucket/u1/media-a.png"))
}

func TestLoadMinIOConfig(t *testing.T) {
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_BUCKET", "")
	t.Setenv("MINIO_PRESIGN_TTL", "bogus")
	cfg := LoadMinIOConfig()
	assert.Equal(t, "localhost:9000", cfg.Endpoint)
	assert.Equal(t, "pinpoint-media", cfg.Bucket)
	assert.Equal(t, "15m0s", cfg.PresignTTL.String())

	_, err := NewMinIOStorage(&MinIOConfig{})
	assert.Error(t, err)
}
