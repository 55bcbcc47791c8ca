// Package reconcile implements the three-way reconciliation between the
// client's working tree, its last-synced snapshot, and the server's latest
// version diff.
package reconcile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/camlsync/camlsync/internal/camlerrors"
	"github.com/camlsync/camlsync/internal/diffengine"
	"github.com/camlsync/camlsync/internal/fsscan"
	"github.com/camlsync/camlsync/internal/linesio"
	"github.com/camlsync/camlsync/internal/snapshot"
	"github.com/camlsync/camlsync/internal/versiondiff"
)

// Reconciler operates against a single project root.
type Reconciler struct {
	root string
	snap *snapshot.Store
}

// New returns a Reconciler rooted at root.
func New(root string) *Reconciler {
	return &Reconciler{root: root, snap: snapshot.New(root)}
}

func (r *Reconciler) workingPath(rel string) string {
	return filepath.Join(r.root, strings.TrimPrefix(rel, "./"))
}

// PreSyncGuard aborts the sync, with no state changes, if any working-tree
// file matches the *_local.<ext> quarantine pattern.
func (r *Reconciler) PreSyncGuard() error {
	working, err := fsscan.Scan(r.root)
	if err != nil {
		return err
	}

	var pending []string
	working.Each(func(rel string) bool {
		if fsscan.IsLocalConflict(rel) {
			pending = append(pending, rel)
		}
		return false
	})
	if len(pending) > 0 {
		sort.Strings(pending)
		return fmt.Errorf("%w: unresolved conflict artifacts present: %s", camlerrors.ErrInvalidArgument, strings.Join(pending, ", "))
	}
	return nil
}

// CompareWorkingBackup derives the client's local_files_diff per §4.4.1:
// working tree vs snapshot tree.
func (r *Reconciler) CompareWorkingBackup() ([]versiondiff.FileDiff, error) {
	working, err := fsscan.Scan(r.root)
	if err != nil {
		return nil, err
	}
	snap, err := r.snap.Paths()
	if err != nil {
		return nil, err
	}

	var out []versiondiff.FileDiff

	both := working.Intersect(snap)
	both.Each(func(rel string) bool {
		if err != nil {
			return true
		}
		var snapLines, workLines []string
		snapLines, err = r.snap.Read(rel)
		if err != nil {
			return true
		}
		workLines, err = linesio.ReadLines(r.workingPath(rel))
		if err != nil {
			return true
		}
		cd := diffengine.CalcDiff(snapLines, workLines)
		if !cd.IsEmpty() {
			out = append(out, versiondiff.FileDiff{FileName: rel, ContentDiff: cd})
		}
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("compare working/backup: %w", err)
	}

	onlySnap := snap.Difference(working)
	onlySnap.Each(func(rel string) bool {
		out = append(out, versiondiff.FileDiff{FileName: rel, IsDeleted: true, ContentDiff: diffengine.Empty})
		return false
	})

	onlyWorking := working.Difference(snap)
	onlyWorking.Each(func(rel string) bool {
		if err != nil {
			return true
		}
		var workLines []string
		workLines, err = linesio.ReadLines(r.workingPath(rel))
		if err != nil {
			return true
		}
		out = append(out, versiondiff.FileDiff{FileName: rel, ContentDiff: diffengine.CalcDiff(nil, workLines)})
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("compare working/backup: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].FileName < out[j].FileName })
	return out, nil
}

// Result is the outcome of a full reconciliation pass.
type Result struct {
	// Outgoing is the version diff to push: every local change that is not
	// both-modified with the server.
	Outgoing versiondiff.VersionDiff
	// Conflicts lists the file names quarantined as both-modified.
	Conflicts []string
}

// Reconcile runs the full §4.4 algorithm: detects both-modified files,
// quarantines them, applies the server's diff, refreshes the snapshot, and
// returns the non-conflicting outgoing diff.
func (r *Reconciler) Reconcile(serverDiff versiondiff.VersionDiff, clientVersion int) (Result, error) {
	if err := r.PreSyncGuard(); err != nil {
		return Result{}, err
	}

	localFiles, err := r.CompareWorkingBackup()
	if err != nil {
		return Result{}, err
	}

	conflictSet := mapset.NewThreadUnsafeSet[string]()
	for _, lf := range localFiles {
		if _, ok := serverDiff.Find(lf.FileName); ok {
			conflictSet.Add(lf.FileName)
		}
	}

	// 4.4.3 quarantine both-modified files before the server's diff is applied.
	for _, lf := range localFiles {
		if !conflictSet.Contains(lf.FileName) {
			continue
		}
		if err := r.quarantine(lf); err != nil {
			return Result{}, fmt.Errorf("quarantine %s: %w", lf.FileName, err)
		}
	}

	// 4.4.4 apply server diff and refresh snapshot.
	if err := r.snap.ClearSnapshot(); err != nil {
		return Result{}, err
	}
	for _, fd := range serverDiff.EditedFiles {
		if err := r.applyFileDiff(fd); err != nil {
			return Result{}, fmt.Errorf("apply %s: %w", fd.FileName, err)
		}
	}
	if err := r.snap.BackupWorkingTree(); err != nil {
		return Result{}, err
	}

	// 4.4.5 outgoing diff: everything local, minus both-modified files.
	var outgoing []versiondiff.FileDiff
	for _, lf := range localFiles {
		if !conflictSet.Contains(lf.FileName) {
			outgoing = append(outgoing, lf)
		}
	}

	conflicts := conflictSet.ToSlice()
	sort.Strings(conflicts)

	return Result{
		Outgoing: versiondiff.VersionDiff{
			PrevVersion: clientVersion,
			CurVersion:  clientVersion,
			EditedFiles: outgoing,
		},
		Conflicts: conflicts,
	}, nil
}

// quarantine implements §4.4.3 for a single both-modified local file.
func (r *Reconciler) quarantine(lf versiondiff.FileDiff) error {
	if lf.IsDeleted {
		if err := os.Remove(r.workingPath(lf.FileName)); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	quarantined := fsscan.QuarantinedName(lf.FileName)
	if err := os.Rename(r.workingPath(lf.FileName), r.workingPath(quarantined)); err != nil {
		return err
	}
	return r.snap.CopyToWorking(lf.FileName)
}

// applyFileDiff implements one step of §4.4.4's apply loop.
func (r *Reconciler) applyFileDiff(fd versiondiff.FileDiff) error {
	path := r.workingPath(fd.FileName)
	if fd.IsDeleted {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	base, err := linesio.ReadLines(path)
	if err != nil {
		return err
	}
	next, err := diffengine.Apply(base, fd.ContentDiff)
	if err != nil {
		return err
	}
	return linesio.WriteFile(path, next)
}
