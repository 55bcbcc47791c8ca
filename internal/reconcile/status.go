package reconcile

import (
	"sort"

	"github.com/camlsync/camlsync/internal/fsscan"
)

// FileStatus summarizes one locally changed file for `status` (§6.2).
type FileStatus struct {
	FileName string
	Deleted  bool
}

// Status runs compare_working_backup and discards it, returning a read-only
// summary. It mutates no state.
func (r *Reconciler) Status() ([]FileStatus, error) {
	localFiles, err := r.CompareWorkingBackup()
	if err != nil {
		return nil, err
	}

	out := make([]FileStatus, 0, len(localFiles))
	for _, fd := range localFiles {
		out = append(out, FileStatus{FileName: fd.FileName, Deleted: fd.IsDeleted})
	}
	return out, nil
}

// Conflicts lists working-tree paths currently quarantined with _local.
func (r *Reconciler) Conflicts() ([]string, error) {
	working, err := fsscan.Scan(r.root)
	if err != nil {
		return nil, err
	}

	var out []string
	working.Each(func(rel string) bool {
		if fsscan.IsLocalConflict(rel) {
			out = append(out, rel)
		}
		return false
	})
	sort.Strings(out)
	return out, nil
}

// CleanConflicts deletes every _local quarantine artifact in the working
// tree.
func (r *Reconciler) CleanConflicts() error {
	paths, err := r.Conflicts()
	if err != nil {
		return err
	}
	for _, rel := range paths {
		if err := removeIfExists(r.workingPath(rel)); err != nil {
			return err
		}
	}
	return nil
}
