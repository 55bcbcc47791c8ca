// Package composer replays the server's version history to reconstruct
// state and derive a combined version diff between any two versions.
package composer

import (
	"fmt"
	"sort"

	"github.com/camlsync/camlsync/internal/camlerrors"
	"github.com/camlsync/camlsync/internal/diffengine"
	"github.com/camlsync/camlsync/internal/serverstore"
	"github.com/camlsync/camlsync/internal/versiondiff"
)

// state maps file name to its current line sequence; a missing key means
// the file does not exist at this point in the replay.
type state map[string][]string

// Compose returns the version diff that moves the server's state from
// version `from` to version `to`, by replaying the stored per-version
// diffs 1..to against the empty tree.
func Compose(store *serverstore.Store, from, to int) (versiondiff.VersionDiff, error) {
	if from < 0 || to < from {
		return versiondiff.VersionDiff{}, fmt.Errorf("%w: invalid range [%d,%d]", camlerrors.ErrBadRequest, from, to)
	}

	pre := state{}
	if err := replay(store, pre, 1, from); err != nil {
		return versiondiff.VersionDiff{}, err
	}

	post := cloneState(pre)
	if err := replay(store, post, from+1, to); err != nil {
		return versiondiff.VersionDiff{}, err
	}

	return diffStates(pre, post, from, to), nil
}

// replay applies version diffs lo..hi (inclusive) in order onto s.
func replay(store *serverstore.Store, s state, lo, hi int) error {
	for n := lo; n <= hi; n++ {
		vd, err := store.ReadVersionDiff(n)
		if err != nil {
			return fmt.Errorf("replay version %d: %w", n, err)
		}
		for _, fd := range vd.EditedFiles {
			if fd.IsDeleted {
				delete(s, fd.FileName)
				continue
			}
			base := s[fd.FileName]
			next, err := diffengine.Apply(base, fd.ContentDiff)
			if err != nil {
				return fmt.Errorf("replay version %d file %s: %w", n, fd.FileName, err)
			}
			s[fd.FileName] = next
		}
	}
	return nil
}

func cloneState(s state) state {
	out := make(state, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// diffStates derives the §4.7 step-3 combined diff between pre and post.
func diffStates(pre, post state, from, to int) versiondiff.VersionDiff {
	names := make(map[string]bool)
	for k := range pre {
		names[k] = true
	}
	for k := range post {
		names[k] = true
	}

	var files []versiondiff.FileDiff
	for name := range names {
		preLines, inPre := pre[name]
		postLines, inPost := post[name]

		switch {
		case inPre && !inPost:
			files = append(files, versiondiff.FileDiff{FileName: name, IsDeleted: true, ContentDiff: diffengine.Empty})
		case !inPre && inPost:
			files = append(files, versiondiff.FileDiff{FileName: name, ContentDiff: diffengine.CalcDiff(nil, postLines)})
		case inPre && inPost:
			cd := diffengine.CalcDiff(preLines, postLines)
			if !cd.IsEmpty() {
				files = append(files, versiondiff.FileDiff{FileName: name, ContentDiff: cd})
			}
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].FileName < files[j].FileName })
	if files == nil {
		files = []versiondiff.FileDiff{}
	}

	return versiondiff.VersionDiff{PrevVersion: from, CurVersion: to, EditedFiles: files}
}
