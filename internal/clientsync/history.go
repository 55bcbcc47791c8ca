package clientsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/camlsync/camlsync/internal/diffengine"
	"github.com/camlsync/camlsync/internal/fsscan"
	"github.com/camlsync/camlsync/internal/linesio"
)

// HistoryDir returns the materialization directory name for version n, per
// §6.4's "./camlsync_history_version_<N>/" layout.
func HistoryDir(n int) string {
	return fmt.Sprintf("%s%d", fsscan.HistoryDirPrefix, n)
}

// MaterializeVersion downloads compose(0, n) and applies it to the empty
// tree under <root>/camlsync_history_version_<n>/, reusing the same
// apply_diff walk the reconciler uses rather than a bespoke materializer.
// The working tree is left untouched.
func (c *Client) MaterializeVersion(ctx context.Context, n int) (string, error) {
	vd, err := c.remote.GetVersionRange(ctx, 0, n)
	if err != nil {
		return "", fmt.Errorf("fetch version %d: %w", n, err)
	}

	dest := filepath.Join(c.root, HistoryDir(n))
	for _, fd := range vd.EditedFiles {
		if fd.IsDeleted {
			continue
		}
		lines, err := diffengine.Apply(nil, fd.ContentDiff)
		if err != nil {
			return "", fmt.Errorf("materialize %s: %w", fd.FileName, err)
		}
		path := filepath.Join(dest, fd.FileName)
		if err := os.MkdirAll(filepath.Dir(path), 0o770); err != nil {
			return "", fmt.Errorf("materialize %s: %w", fd.FileName, err)
		}
		if err := linesio.WriteFile(path, lines); err != nil {
			return "", fmt.Errorf("write %s: %w", fd.FileName, err)
		}
	}
	return dest, nil
}
