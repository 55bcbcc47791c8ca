// Package snapshot maintains the client's hidden-directory mirror of the
// working tree as it existed immediately after the last successful sync.
package snapshot

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/camlsync/camlsync/internal/fsscan"
	"github.com/camlsync/camlsync/internal/linesio"
)

// Store operates on the hidden mirror tree rooted at root/.caml_sync.
type Store struct {
	root string
}

// New returns a Store rooted at root (the project working directory).
func New(root string) *Store {
	return &Store{root: root}
}

func (s *Store) hiddenDir() string {
	return filepath.Join(s.root, fsscan.HiddenDir)
}

// BackupWorkingTree copies every non-denylisted working-tree file into the
// hidden mirror at the same relative path, overwriting existing copies and
// creating intermediate directories as needed.
func (s *Store) BackupWorkingTree() error {
	working, err := fsscan.Scan(s.root)
	if err != nil {
		return fmt.Errorf("backup working tree: %w", err)
	}

	var copyErr error
	working.Each(func(rel string) bool {
		src := filepath.Join(s.root, strings.TrimPrefix(rel, "./"))
		dst := filepath.Join(s.hiddenDir(), strings.TrimPrefix(rel, "./"))
		if err := copyFile(src, dst); err != nil {
			copyErr = fmt.Errorf("backup %s: %w", rel, err)
			return true
		}
		return false
	})
	return copyErr
}

// ClearSnapshot recursively removes the hidden tree and recreates it empty,
// under mode 0770.
func (s *Store) ClearSnapshot() error {
	if err := os.RemoveAll(s.hiddenDir()); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	if err := os.MkdirAll(s.hiddenDir(), 0o770); err != nil {
		return fmt.Errorf("recreate hidden dir: %w", err)
	}
	return nil
}

// Paths returns the snapshot tree's paths translated to the same "./"-
// prefixed shape as working-tree paths.
func (s *Store) Paths() (mapset.Set[string], error) {
	return fsscan.ScanHidden(s.root)
}

// Read returns the snapshot content of rel (a "./"-prefixed working-tree
// style path), split into lines. Returns an empty slice if the file is
// absent.
func (s *Store) Read(rel string) ([]string, error) {
	path := filepath.Join(s.hiddenDir(), strings.TrimPrefix(rel, "./"))
	lines, err := linesio.ReadLines(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", rel, err)
	}
	return lines, nil
}

// CopyToWorking copies the snapshot copy of rel back to its working-tree
// path, overwriting whatever is there.
func (s *Store) CopyToWorking(rel string) error {
	src := filepath.Join(s.hiddenDir(), strings.TrimPrefix(rel, "./"))
	dst := filepath.Join(s.root, strings.TrimPrefix(rel, "./"))
	return copyFile(src, dst)
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o770); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
