package upload

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real MinIO when MINIO_TEST_ENDPOINT is set, e.g. the
// docker-compose service.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_TEST_ENDPOINT not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := NewMinioStore(ctx, MinioConfig{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("MINIO_TEST_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_TEST_SECRET_KEY"),
		Bucket:    "health-chatbot-test",
	})
	require.NoError(t, err)

	path, err := store.Save(ctx, []byte("image-bytes"), "rash.jpg")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, ".jpg"))

	obj, err := store.Open(ctx, strings.TrimPrefix(path, PathPrefix))
	require.NoError(t, err)
	data, err := io.ReadAll(obj)
	obj.Close()
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))

	require.NoError(t, store.Remove(ctx, path))
	_, err = store.Open(ctx, strings.TrimPrefix(path, PathPrefix))
	assert.ErrorIs(t, err, ErrNotFound)
}
