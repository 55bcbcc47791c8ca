package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camlsync/camlsync/internal/fsscan"
)

func TestBackupWorkingTree_MirrorsFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.ml"), []byte("x\n"), 0o644))

	s := New(root)
	require.NoError(t, s.ClearSnapshot())
	require.NoError(t, s.BackupWorkingTree())

	data, err := os.ReadFile(filepath.Join(root, fsscan.HiddenDir, "a.ml"))
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(data))
}

func TestClearSnapshot_RecreatesEmptyHiddenDir(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	require.NoError(t, s.ClearSnapshot())
	require.NoError(t, os.WriteFile(filepath.Join(root, fsscan.HiddenDir, "stale.ml"), []byte("x"), 0o644))

	require.NoError(t, s.ClearSnapshot())

	entries, err := os.ReadDir(filepath.Join(root, fsscan.HiddenDir))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPaths_TranslatedShape(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	require.NoError(t, s.ClearSnapshot())
	require.NoError(t, os.WriteFile(filepath.Join(root, fsscan.HiddenDir, "a.ml"), []byte("x"), 0o644))

	paths, err := s.Paths()
	require.NoError(t, err)
	assert.True(t, paths.Contains("./a.ml"))
}

func TestCopyToWorking_RestoresSnapshotContent(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	require.NoError(t, s.ClearSnapshot())
	require.NoError(t, os.WriteFile(filepath.Join(root, fsscan.HiddenDir, "a.ml"), []byte("snapshot\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.ml"), []byte("edited\n"), 0o644))

	require.NoError(t, s.CopyToWorking("./a.ml"))

	data, err := os.ReadFile(filepath.Join(root, "a.ml"))
	require.NoError(t, err)
	assert.Equal(t, "snapshot\n", string(data))
}
