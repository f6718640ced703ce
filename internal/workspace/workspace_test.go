package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManager_CreateAndCleanup(t *testing.T) {
	base := t.TempDir()
	mgr := NewManager(base)

	require.NoError(t, mgr.Create())
	ws := mgr.Path()
	require.True(t, strings.HasPrefix(filepath.Base(ws), ".staging-"))
	require.DirExists(t, ws)

	require.NoError(t, mgr.Cleanup())
	require.NoDirExists(t, ws)
	require.Empty(t, mgr.Path())
	require.NoError(t, mgr.Cleanup())
}

func TestManager_WriteAndCopy(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "maps", ".git"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(src, "maps", "cave.png"), []byte("png"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(src, "maps", ".git", "HEAD"), []byte("x"), 0o600))

	mgr := NewManager(t.TempDir())
	require.NoError(t, mgr.Create())
	t.Cleanup(func() { _ = mgr.Cleanup() })

	require.NoError(t, mgr.Write("module.xml", []byte("<module/>")))
	require.NoError(t, mgr.CopyFile("art/cover.png", filepath.Join(src, "maps", "cave.png")))
	require.NoError(t, mgr.CopyDir("handouts", filepath.Join(src, "maps")))

	require.FileExists(t, filepath.Join(mgr.Path(), "module.xml"))
	require.FileExists(t, filepath.Join(mgr.Path(), "art", "cover.png"))
	require.FileExists(t, filepath.Join(mgr.Path(), "handouts", "cave.png"))
	require.NoFileExists(t, filepath.Join(mgr.Path(), "handouts", ".git", "HEAD"))
}

func TestManager_RejectsEscapingPaths(t *testing.T) {
	mgr := NewManager(t.TempDir())
	require.NoError(t, mgr.Create())
	t.Cleanup(func() { _ = mgr.Cleanup() })

	require.Error(t, mgr.Write("../outside.txt", []byte("x")))
}

func TestManager_Promote(t *testing.T) {
	base := t.TempDir()
	dest := filepath.Join(base, "print")
	require.NoError(t, os.MkdirAll(dest, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "stale.html"), []byte("old"), 0o600))

	mgr := NewManager(base)
	require.NoError(t, mgr.Create())
	require.NoError(t, mgr.Write("print.html", []byte("new")))
	require.NoError(t, mgr.Promote(dest))

	require.FileExists(t, filepath.Join(dest, "print.html"))
	require.NoFileExists(t, filepath.Join(dest, "stale.html"))
	require.Empty(t, mgr.Path())

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	require.Len(t, entries, 1, "previous output removed after promote")
}

func TestManager_PromoteFailureKeepsPreviousOutput(t *testing.T) {
	base := t.TempDir()
	dest := filepath.Join(base, "print")
	require.NoError(t, os.MkdirAll(dest, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "print.html"), []byte("old"), 0o600))

	mgr := NewManager(base)
	require.NoError(t, mgr.Create())
	require.NoError(t, os.RemoveAll(mgr.Path()))

	require.Error(t, mgr.Promote(dest))

	data, err := os.ReadFile(filepath.Join(dest, "print.html"))
	require.NoError(t, err)
	require.Equal(t, "old", string(data))

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no backup directory left behind")
}
