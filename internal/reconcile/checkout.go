package reconcile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/camlsync/camlsync/internal/fsscan"
	"github.com/camlsync/camlsync/internal/linesio"
)

// Checkout overwrites every working-tree file tracked in the snapshot with
// its snapshot content, and removes working-tree files that have no
// snapshot counterpart (allowlist/denylist respected, §6.2 `checkout`, S5).
// _local quarantine artifacts are left untouched.
func (r *Reconciler) Checkout() error {
	working, err := fsscan.Scan(r.root)
	if err != nil {
		return err
	}
	snap, err := r.snap.Paths()
	if err != nil {
		return err
	}

	var firstErr error
	snap.Each(func(rel string) bool {
		lines, err := r.snap.Read(rel)
		if err != nil {
			firstErr = err
			return true
		}
		if err := os.MkdirAll(filepath.Dir(r.workingPath(rel)), 0o770); err != nil {
			firstErr = fmt.Errorf("checkout %s: %w", rel, err)
			return true
		}
		if err := linesio.WriteFile(r.workingPath(rel), lines); err != nil {
			firstErr = fmt.Errorf("checkout %s: %w", rel, err)
			return true
		}
		return false
	})
	if firstErr != nil {
		return firstErr
	}

	onlyWorking := working.Difference(snap)
	onlyWorking.Each(func(rel string) bool {
		if fsscan.IsLocalConflict(rel) {
			return false
		}
		if err := os.Remove(r.workingPath(rel)); err != nil && !os.IsNotExist(err) {
			firstErr = err
			return true
		}
		return false
	})
	return firstErr
}
