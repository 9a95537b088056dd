package gobridge_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nicogarcia/now-builders/pkg/gobridge"
	"github.com/stretchr/testify/require"
)

func TestPrepareWorkspace(t *testing.T) {
	root := t.TempDir()

	require.NoError(t, gobridge.PrepareWorkspace(root, "win32", "x64"))

	requireDir(t, filepath.Join(root, "bin"))
	requireDir(t, filepath.Join(root, "pkg", "windows_amd64"))

	// The tuple directory must use the resolved vendor names.
	_, err := os.Stat(filepath.Join(root, "pkg", "win32_x64"))
	require.True(t, os.IsNotExist(err), "raw host names leaked into the workspace tree")
}

func TestPrepareWorkspace_Idempotent(t *testing.T) {
	root := t.TempDir()

	require.NoError(t, gobridge.PrepareWorkspace(root, "linux", "amd64"))

	marker := filepath.Join(root, "pkg", "linux_amd64", "marker")
	require.NoError(t, os.WriteFile(marker, []byte("keep"), 0o644))

	require.NoError(t, gobridge.PrepareWorkspace(root, "linux", "amd64"))

	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	require.Equal(t, "keep", string(data))
}

func TestPrepareWorkspace_CreationFailure(t *testing.T) {
	root := t.TempDir()

	// A file where the bin directory should go makes MkdirAll fail.
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin"), nil, 0o644))

	require.Error(t, gobridge.PrepareWorkspace(root, "linux", "amd64"))
}

func requireDir(t *testing.T, path string) {
	t.Helper()

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.True(t, info.IsDir(), "%s is not a directory", path)
}
