package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	key, err := store.Save("event-routes/jakarta-marathon/2025/fm-1700000000-route.png", []byte("png-bytes"))
	require.NoError(t, err)

	body, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(body))

	require.NoError(t, store.Delete(key))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, store.Delete(key))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../outside.txt", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.ErrorIs(t, store.Delete("event-routes/../../etc/passwd"), ErrInvalidPath)
}

func TestLocalStorageCleanupOlderThanKeepsReferenced(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("event-routes/a.png", []byte("a"))
	require.NoError(t, err)
	_, err = store.Save("event-routes/b.png", []byte("b"))
	require.NoError(t, err)

	old := time.Now().Add(-2 * time.Hour)
	for _, key := range []string{"event-routes/a.png", "event-routes/b.png"} {
		require.NoError(t, os.Chtimes(filepath.Join(dir, filepath.FromSlash(key)), old, old))
	}

	deleted, err := store.CleanupOlderThan("event-routes", time.Hour, func(key string) bool {
		return key == "event-routes/a.png"
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"event-routes/b.png"}, deleted)

	_, err = os.Stat(filepath.Join(dir, "event-routes", "a.png"))
	assert.NoError(t, err)
}

func TestLocalStorageCleanupMissingPrefix(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	deleted, err := store.CleanupOlderThan("event-routes", time.Hour, nil)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}
