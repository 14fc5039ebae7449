package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFile_PreservesContentAndMode(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	src := filepath.Join(dir, "geph4-client")
	require.NoError(t, os.WriteFile(src, []byte("binary payload"), 0o755))

	dst := filepath.Join(dir, "out", "nested", "geph4-client-linux-amd64")

	// --- Act ---
	err := CopyFile(src, dst)

	// --- Assert ---
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "binary payload", string(data))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestCopyFile_OverwritesExistingDestination(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	src := filepath.Join(dir, "fresh")
	dst := filepath.Join(dir, "stale")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("old contents, longer than new"), 0o644))

	// --- Act ---
	err := CopyFile(src, dst)

	// --- Assert ---
	require.NoError(t, err)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()

	err := CopyFile(filepath.Join(dir, "does-not-exist"), filepath.Join(dir, "dst"))

	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestCopyFile_RejectsDirectorySource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a-directory")
	require.NoError(t, os.Mkdir(src, 0o755))

	err := CopyFile(src, filepath.Join(dir, "dst"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a regular file")
}
