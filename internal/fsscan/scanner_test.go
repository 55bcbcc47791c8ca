package fsscan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camlsync/camlsync/internal/camlerrors"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o770))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestScan_FiltersAllowlistAndDenylist(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ml", "x")
	writeFile(t, root, "b.png", "binary") // not allowlisted
	writeFile(t, root, ".config", "cfg")
	writeFile(t, root, HiddenDir+"/a.ml", "snapshot copy")
	writeFile(t, root, HistoryDirPrefix+"3/a.ml", "history copy")

	set, err := Scan(root)
	require.NoError(t, err)

	assert.True(t, set.Contains("./a.ml"))
	assert.False(t, set.ContainsAny("./b.png"))
	set.Each(func(p string) bool {
		assert.NotContains(t, p, HiddenDir)
		assert.NotContains(t, p, HistoryDirPrefix)
		return false
	})
}

func TestScan_DotRoot_PrefixesPaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "x")

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	defer os.Chdir(cwd)

	set, err := Scan(".")
	require.NoError(t, err)
	assert.True(t, set.Contains("./a.txt"))
}

func TestScanHidden_MissingDir_NotInitialized(t *testing.T) {
	root := t.TempDir()
	_, err := ScanHidden(root)
	assert.ErrorIs(t, err, camlerrors.ErrNotInitialized)
}

func TestScanHidden_TranslatesToWorkingTreeShape(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, HiddenDir+"/a.ml", "x")

	set, err := ScanHidden(root)
	require.NoError(t, err)
	assert.True(t, set.Contains("./a.ml"))
}

func TestIsLocalConflict(t *testing.T) {
	assert.True(t, IsLocalConflict("c_local.md"))
	assert.False(t, IsLocalConflict("c.md"))
}

func TestQuarantinedName(t *testing.T) {
	assert.Equal(t, "c_local.md", QuarantinedName("c.md"))
	assert.Equal(t, "dir/c_local.md", QuarantinedName("dir/c.md"))
}
