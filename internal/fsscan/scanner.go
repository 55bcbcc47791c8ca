// Package fsscan enumerates project files under a root, filtered by an
// extension allowlist and a path denylist.
package fsscan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/camlsync/camlsync/internal/camlerrors"
)

// HiddenDir is the client's hidden snapshot mirror directory name.
const HiddenDir = ".caml_sync"

// ConfigFile is the client's config file name.
const ConfigFile = ".config"

// HistoryDirPrefix is the prefix of a materialized history directory name.
const HistoryDirPrefix = "camlsync_history_version_"

// Allowlist is the final set of synced file extensions.
var Allowlist = mapset.NewThreadUnsafeSet(
	".ml", ".mli", ".txt", ".sh", ".java", ".c", ".h", ".md",
	".cpp", ".py", ".jl", ".m", ".csv", ".json",
)

// denylistPrefixes returns the path prefixes (relative to root, "./"-joined)
// that scan never descends meaningfully into or returns.
func denylistPrefixes() []string {
	return []string{
		"./" + HiddenDir + "/",
		"./" + ConfigFile,
		"./" + HistoryDirPrefix,
	}
}

// isDenylisted reports whether rel (a "/"-separated path relative to root,
// with no leading "./") matches a denylist prefix. The check is independent
// of whether the caller's root happens to be "." — Scan may be called with
// an absolute root (e.g. in tests), and the hidden directory must still be
// filtered out of its own working tree.
func isDenylisted(rel string) bool {
	canonical := "./" + strings.TrimPrefix(rel, "./")
	for _, p := range denylistPrefixes() {
		if strings.HasPrefix(canonical, p) {
			return true
		}
	}
	return false
}

// Scan walks root recursively and returns the set of relative paths whose
// extension is allowlisted and whose path is not denylisted. Paths use "/"
// separators and always carry a "./" prefix, regardless of whether root
// itself is "." or absolute — callers compare these sets against each other
// (working tree vs snapshot vs server diff) and need one consistent shape.
func Scan(root string) (mapset.Set[string], error) {
	result := mapset.NewThreadUnsafeSet[string]()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if isDenylisted(rel) {
			return nil
		}
		if !Allowlist.Contains(strings.ToLower(filepath.Ext(rel))) {
			return nil
		}

		result.Add(relPath(root, rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	return result, nil
}

// ScanHidden scans the hidden snapshot directory under root, failing with
// camlerrors.ErrNotInitialized if it is absent. Paths come back in the same
// "./"-prefixed shape Scan uses for the working tree, since Scan already
// produces that shape unconditionally.
func ScanHidden(root string) (mapset.Set[string], error) {
	hidden := filepath.Join(root, HiddenDir)
	if _, err := os.Stat(hidden); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s missing", camlerrors.ErrNotInitialized, HiddenDir)
		}
		return nil, err
	}

	return Scan(hidden)
}

func relPath(root, rel string) string {
	return "./" + filepath.ToSlash(rel)
}
