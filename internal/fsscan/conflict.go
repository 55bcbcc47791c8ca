package fsscan

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IsLocalConflict reports whether rel's base name matches the glob
// "*_local.*" ("_local" followed by a dot, e.g. c_local.md) — the
// quarantine marker for a both-modified file that was never auto-merged.
// A name such as a_local.b.md also matches.
func IsLocalConflict(rel string) bool {
	ok, _ := doublestar.Match("*_local.*", filepath.Base(rel))
	return ok
}

// QuarantinedName renames the given relative path to its quarantined form:
// <stem>_local<ext>.
func QuarantinedName(rel string) string {
	ext := filepath.Ext(rel)
	stem := strings.TrimSuffix(rel, ext)
	return stem + "_local" + ext
}
