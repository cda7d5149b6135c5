package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManager_EphemeralMode(t *testing.T) {
	mgr := NewManager(t.TempDir(), "sitebuilder-deploy")
	require.NoError(t, mgr.Create())

	wsPath := mgr.GetPath()
	require.NotEmpty(t, wsPath)
	require.True(t, strings.HasPrefix(filepath.Base(wsPath), "sitebuilder-deploy-"))
	require.DirExists(t, wsPath)
	require.False(t, mgr.IsPersistent())

	require.NoError(t, mgr.Cleanup())
	require.NoDirExists(t, wsPath)
	require.Empty(t, mgr.GetPath())
}

func TestManager_EphemeralDirectoriesAreUnique(t *testing.T) {
	base := t.TempDir()
	a := NewManager(base, "x")
	b := NewManager(base, "x")
	require.NoError(t, a.Create())
	require.NoError(t, b.Create())
	require.NotEqual(t, a.GetPath(), b.GetPath())
}

func TestManager_PersistentMode(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deploy")
	mgr := NewPersistentManager(dir)
	require.NoError(t, mgr.Create())
	require.Equal(t, dir, mgr.GetPath())

	marker := mgr.Join("marker.txt")
	require.NoError(t, os.WriteFile(marker, []byte("persistent"), 0o600))

	require.NoError(t, mgr.Cleanup())
	require.FileExists(t, marker)

	again := NewPersistentManager(dir)
	require.NoError(t, again.Create())
	require.FileExists(t, marker)
}
