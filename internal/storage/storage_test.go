package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyHelpers(t *testing.T) {
	assert.Equal(t, "apitok", APIKey("apitok"))
	assert.Equal(t, "apitok/usertok", ProfileKey("apitok", "usertok"))
	assert.Equal(t, "apitok/usertok/images", ImagesKey("apitok", "usertok"))
	assert.Equal(t, "apitok/usertok/images/a.jpg", ImageKey("apitok", "usertok", "a.jpg"))
}

func TestFileStoreWriteAndOpen(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key := ImageKey("api", "user", "pic.png")
	require.NoError(t, store.Write(ctx, key, []byte("png bytes"), "image/png"))

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("png bytes"), data)
}

func TestFileStoreWriteCreatesDirectories(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileStore(root)
	require.NoError(t, err)

	// No EnsureDir beforehand; the write itself creates the tree.
	key := ImageKey("api", "user", "deep.jpg")
	require.NoError(t, store.Write(context.Background(), key, []byte{0xff}, "image/jpeg"))

	_, err = os.Stat(filepath.Join(root, "api", "user", "images", "deep.jpg"))
	assert.NoError(t, err)
}

func TestFileStoreEnsureDir(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileStore(root)
	require.NoError(t, err)

	require.NoError(t, store.EnsureDir(context.Background(), ProfileKey("api", "user")))

	info, err := os.Stat(filepath.Join(root, "api", "user"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Creating an existing directory is fine.
	assert.NoError(t, store.EnsureDir(context.Background(), ProfileKey("api", "user")))
}

func TestFileStoreRemoveIdempotent(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key := ImageKey("api", "user", "gone.png")
	require.NoError(t, store.Write(ctx, key, []byte("x"), "image/png"))
	require.NoError(t, store.Remove(ctx, key))

	_, err = store.Open(ctx, key)
	assert.Error(t, err)

	// Removing a missing key succeeds.
	assert.NoError(t, store.Remove(ctx, key))
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	tests := []string{
		"../outside",
		"api/../../outside",
		"..",
		"",
	}

	for _, key := range tests {
		t.Run("key "+key, func(t *testing.T) {
			err := store.Write(ctx, key, []byte("x"), "")
			assert.ErrorIs(t, err, ErrInvalidKey)

			_, err = store.Open(ctx, key)
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}
