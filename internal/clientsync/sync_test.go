package clientsync

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camlsync/camlsync/internal/clientconfig"
	"github.com/camlsync/camlsync/internal/server"
	"github.com/camlsync/camlsync/internal/serverstore"
)

func newTestServer(t *testing.T, token string) (*httptest.Server, *serverstore.Store) {
	t.Helper()
	dir := t.TempDir()
	store := serverstore.New(dir)
	require.NoError(t, store.Init(token))
	ts := httptest.NewServer(server.SetupRoutes(store))
	t.Cleanup(ts.Close)
	return ts, store
}

func newTestClient(t *testing.T, url, token string) (*Client, string) {
	t.Helper()
	root := t.TempDir()
	configPath := filepath.Join(root, clientconfig.FileName)
	cfg := clientconfig.New(configPath, url, token)
	require.NoError(t, cfg.Save())
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".caml_sync"), 0o770))

	c, err := Open(root, configPath)
	require.NoError(t, err)
	return c, root
}

// TestSync_FreshInitPlusOnePush mirrors spec scenario S1: a fresh client
// pushes a new file and advances both sides to version 1.
func TestSync_FreshInitPlusOnePush(t *testing.T) {
	ts, _ := newTestServer(t, "t")
	c, root := newTestClient(t, ts.URL, "t")

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.ml"), []byte("x\ny\n"), 0o644))

	result, err := c.Sync(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Conflicts)
	assert.Equal(t, 1, c.Config().Version)

	snapContent, err := os.ReadFile(filepath.Join(root, ".caml_sync", "a.ml"))
	require.NoError(t, err)
	assert.Equal(t, "x\ny\n", string(snapContent))
}

// TestSync_PullOnly mirrors S2: a second client with an empty tree syncs
// and materializes the first client's push.
func TestSync_PullOnly(t *testing.T) {
	ts, _ := newTestServer(t, "t")

	a, rootA := newTestClient(t, ts.URL, "t")
	require.NoError(t, os.WriteFile(filepath.Join(rootA, "b.txt"), []byte("1\n"), 0o644))
	_, err := a.Sync(context.Background())
	require.NoError(t, err)

	b, rootB := newTestClient(t, ts.URL, "t")
	result, err := b.Sync(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Conflicts)

	content, err := os.ReadFile(filepath.Join(rootB, "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1\n", string(content))
	assert.Equal(t, 1, b.Config().Version)
}

// TestSync_BothModified_Quarantines mirrors S3: both clients edit the same
// file; the second syncer keeps its edit under a _local name and does not
// push it.
func TestSync_BothModified_Quarantines(t *testing.T) {
	ts, _ := newTestServer(t, "t")

	a, rootA := newTestClient(t, ts.URL, "t")
	require.NoError(t, os.WriteFile(filepath.Join(rootA, "c.md"), []byte("hello\n"), 0o644))
	_, err := a.Sync(context.Background())
	require.NoError(t, err)

	b, rootB := newTestClient(t, ts.URL, "t")
	_, err = b.Sync(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(rootA, "c.md"), []byte("HELLO\n"), 0o644))
	_, err = a.Sync(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(rootB, "c.md"), []byte("hi\n"), 0o644))
	result, err := b.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"./c.md"}, result.Conflicts)

	local, err := os.ReadFile(filepath.Join(rootB, "c_local.md"))
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(local))

	serverVersion, err := os.ReadFile(filepath.Join(rootB, "c.md"))
	require.NoError(t, err)
	assert.Equal(t, "HELLO\n", string(serverVersion))
}

func TestMaterializeVersion_WritesHistoryDir(t *testing.T) {
	ts, _ := newTestServer(t, "t")
	a, rootA := newTestClient(t, ts.URL, "t")
	require.NoError(t, os.WriteFile(filepath.Join(rootA, "a.ml"), []byte("x\n"), 0o644))
	_, err := a.Sync(context.Background())
	require.NoError(t, err)

	dest, err := a.MaterializeVersion(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(rootA, "camlsync_history_version_1"), dest)

	content, err := os.ReadFile(filepath.Join(dest, "a.ml"))
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(content))
}
