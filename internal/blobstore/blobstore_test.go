package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhotoKey(t *testing.T) {
	assert.Equal(t, "ad_abc/photo_0.jpg", PhotoKey("abc", 0))
	assert.Equal(t, "ad_abc/photo_4.jpg", PhotoKey("abc", 4))
}

func TestFileStore_Put(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "photos")
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	p, err := store.Put(context.Background(), PhotoKey("d1", 0), []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ad_d1", "photo_0.jpg"), p)

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)

	_, err = os.Stat(p + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_SeparateDraftNamespaces(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	a, err := store.Put(ctx, PhotoKey("a", 0), []byte("A"))
	require.NoError(t, err)
	b, err := store.Put(ctx, PhotoKey("b", 0), []byte("B"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	data, err := os.ReadFile(a)
	require.NoError(t, err)
	assert.Equal(t, []byte("A"), data)
}

func TestFileStore_RejectsEscapingKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "/etc/passwd", "../x.jpg", "ad_1/../../x.jpg", "ad_1//photo.jpg"} {
		_, err := store.Put(context.Background(), key, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestFileStore_CanceledContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Put(ctx, PhotoKey("a", 0), []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
