package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExists(t *testing.T) {
	dir := t.TempDir()

	isDir, exists, err := Exists(dir)
	require.NoError(t, err)
	require.True(t, exists)
	require.True(t, isDir)

	_, exists, err = Exists(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	require.False(t, exists)
}

func TestEnsureParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "app.log")

	require.NoError(t, EnsureParentDir(path))
	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	require.True(t, info.IsDir())

	require.NoError(t, EnsureParentDir("app.log"))
}
