// Package versiondiff defines the per-file and per-version delta types
// moved between client and server, and their JSON wire form.
package versiondiff

import "github.com/camlsync/camlsync/internal/diffengine"

// FileDiff is the delta for a single file within a version. When IsDeleted
// is true, ContentDiff is ignored by consumers; producers emit an empty
// diff there.
type FileDiff struct {
	FileName    string        `json:"file_name"`
	IsDeleted   bool          `json:"is_deleted"`
	ContentDiff diffengine.Diff `json:"content_diff"`
}

// VersionDiff is the delta that moves project state from PrevVersion to
// CurVersion. PrevVersion <= CurVersion; a VersionDiff with Prev == Cur and
// no edited files is the identity.
type VersionDiff struct {
	PrevVersion  int        `json:"prev_version"`
	CurVersion   int        `json:"cur_version"`
	EditedFiles  []FileDiff `json:"edited_files"`
}

// IsIdentity reports whether vd changes nothing: prev == cur and no files.
func (vd VersionDiff) IsIdentity() bool {
	return vd.PrevVersion == vd.CurVersion && len(vd.EditedFiles) == 0
}

// Identity returns the identity version diff at version n.
func Identity(n int) VersionDiff {
	return VersionDiff{PrevVersion: n, CurVersion: n, EditedFiles: []FileDiff{}}
}

// Find returns the FileDiff for name, if present.
func (vd VersionDiff) Find(name string) (FileDiff, bool) {
	for _, fd := range vd.EditedFiles {
		if fd.FileName == name {
			return fd, true
		}
	}
	return FileDiff{}, false
}
