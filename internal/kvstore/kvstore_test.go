package kvstore

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestStore_SetGet(t *testing.T) {
	store := newTestStore(t)

	type prefs struct {
		Theme    string `json:"theme"`
		PageSize int    `json:"pageSize"`
	}
	require.NoError(t, store.Set("ui", prefs{Theme: "dark", PageSize: 50}))

	var got prefs
	found, err := store.Get("ui", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, prefs{Theme: "dark", PageSize: 50}, got)
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	var out map[string]any
	found, err := store.Get("nunca-gravado", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_SetOverwrites(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("lastDir", "/tmp/a"))
	require.NoError(t, store.Set("lastDir", "/tmp/b"))

	var got string
	found, err := store.Get("lastDir", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "/tmp/b", got)
}

func TestStore_Remove(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("k", 1))
	require.NoError(t, store.Remove("k"))

	var got int
	found, err := store.Get("k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	// Removing an absent key is not an error.
	require.NoError(t, store.Remove("k"))
}

func TestStore_Clear(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("a", 1))
	require.NoError(t, store.Set("b", 2))
	require.NoError(t, store.Clear())

	var got int
	for _, key := range []string{"a", "b"} {
		found, err := store.Get(key, &got)
		require.NoError(t, err)
		assert.False(t, found, "key %s should be gone", key)
	}
}

func TestStore_KeySanitization(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("../escape/attempt", "v"))

	// The hostile key must resolve to a file inside the store directory.
	entries, err := os.ReadDir(store.dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".._escape_attempt.json", entries[0].Name())

	var got string
	found, err := store.Get("../escape/attempt", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", got)
}
