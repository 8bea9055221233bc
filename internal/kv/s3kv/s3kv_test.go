package s3kv

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/digivault/digivault/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests against a MinIO/S3 endpoint, e.g.
//
//	TEST_S3_ENDPOINT=http://127.0.0.1:9000/ TEST_S3_BUCKET=digivault-test \
//	TEST_S3_ACCESS_KEY=admin TEST_S3_SECRET_KEY=secretpassword go test ./...
func newTestStore(t *testing.T) *Store {
	t.Helper()

	endpoint := os.Getenv("TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("TEST_S3_ENDPOINT not set, skipping s3 kv tests")
	}

	s, err := New(context.Background(), Config{
		Bucket:       os.Getenv("TEST_S3_BUCKET"),
		Region:       "us-east-1",
		BaseEndpoint: endpoint,
		AccessKey:    os.Getenv("TEST_S3_ACCESS_KEY"),
		SecretKey:    os.Getenv("TEST_S3_SECRET_KEY"),
	})
	require.NoError(t, err)
	return s
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	key := "test/s3kv/" + t.Name()
	t.Cleanup(func() { _ = s.Delete(ctx, key) })

	_, err := s.Get(ctx, key)
	assert.True(t, errors.Is(err, kv.ErrNotFound))

	require.NoError(t, s.Set(ctx, key, []byte("v1")))
	v, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	require.NoError(t, s.Update(ctx, key, func(cur []byte) ([]byte, error) {
		assert.Equal(t, []byte("v1"), cur)
		return []byte("v2"), nil
	}))
	v, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)

	keys, err := s.ListKeys(ctx, "test/s3kv/")
	require.NoError(t, err)
	assert.Contains(t, keys, key)

	require.NoError(t, s.Update(ctx, key, func(cur []byte) ([]byte, error) {
		return nil, kv.ErrRemove
	}))
	_, err = s.Get(ctx, key)
	assert.True(t, errors.Is(err, kv.ErrNotFound))
}
