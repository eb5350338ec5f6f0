// Copyright (c) 2026 Exvault. All rights reserved.

package imagestore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveReadDelete(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	payload := []byte("png bytes")

	relativePath, err := store.Save(payload)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(relativePath, "images/"))
	assert.True(t, strings.HasSuffix(relativePath, ".png"))

	data, err := store.Read(relativePath)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	require.NoError(t, store.Delete(relativePath))

	_, err = store.Read(relativePath)
	assert.Error(t, err)
}

func TestStore_DeleteMissingFile(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete("images/does-not-exist.png"))
}

/*
TestStore_RejectsEscapingPaths verifies stored paths cannot reach outside
the data directory.
*/
func TestStore_RejectsEscapingPaths(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	tests := []string{
		"../outside.png",
		"images/../../outside.png",
		"/etc/passwd",
		".",
	}

	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			_, err := store.Read(path)
			assert.Error(t, err)
		})
	}
}

func TestStore_UniquePaths(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	first, err := store.Save([]byte("a"))
	require.NoError(t, err)
	second, err := store.Save([]byte("a"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
