// Package serverstore persists the server's version history: a config.json
// counter plus one version_<N>.diff file per version. POST /diff appends
// are serialized with an in-process mutex plus a file lock so concurrent
// pushes never skip or duplicate a version number.
package serverstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/gofrs/flock"

	"github.com/camlsync/camlsync/internal/camlerrors"
	"github.com/camlsync/camlsync/internal/serverconfig"
	"github.com/camlsync/camlsync/internal/versiondiff"
)

const lockFileName = ".camlsync.lock"

// Store operates on the server's data directory.
type Store struct {
	dir string
	// mu serializes appends within this process; lock alone does not, since
	// a Flock that is already held returns from Lock immediately.
	mu   sync.Mutex
	lock *flock.Flock
}

// New returns a Store rooted at dir.
func New(dir string) *Store {
	return &Store{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, lockFileName)),
	}
}

func (s *Store) versionPath(n int) string {
	return filepath.Join(s.dir, fmt.Sprintf("version_%d.diff", n))
}

// Init writes a default config (port 8080, version 0) with the given token
// and emits version_0.diff as the identity diff.
func (s *Store) Init(token string) error {
	if err := os.MkdirAll(s.dir, 0o770); err != nil {
		return err
	}

	cfg := serverconfig.New(token)
	if err := writeDiffFile(s.versionPath(0), versiondiff.Identity(0)); err != nil {
		return fmt.Errorf("init: write version_0.diff: %w", err)
	}
	if err := cfg.Save(s.dir); err != nil {
		return fmt.Errorf("init: save config: %w", err)
	}
	return nil
}

// Config loads the current server config.
func (s *Store) Config() (*serverconfig.Config, error) {
	cfg, err := serverconfig.Load(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %v", camlerrors.ErrNotInitialized, err)
		}
		return nil, err
	}
	return cfg, nil
}

// ReadVersionDiff reads version_<n>.diff. Readers must not observe a diff
// file beyond the config's current version even if the file happens to be
// present on disk (a crash between write and config update can leave one
// behind); callers should check n against Config().Version first.
func (s *Store) ReadVersionDiff(n int) (versiondiff.VersionDiff, error) {
	data, err := os.ReadFile(s.versionPath(n))
	if err != nil {
		if os.IsNotExist(err) {
			return versiondiff.VersionDiff{}, fmt.Errorf("%w: version %d", camlerrors.ErrFileNotFound, n)
		}
		return versiondiff.VersionDiff{}, err
	}
	var vd versiondiff.VersionDiff
	if err := json.Unmarshal(data, &vd); err != nil {
		return versiondiff.VersionDiff{}, fmt.Errorf("%w: version %d: %v", camlerrors.ErrMalformedDiff, n, err)
	}
	return vd, nil
}

// Append persists vd as the next version: it is rewritten with
// prev_version = current, cur_version = current+1, the diff file is
// fsynced, and only then is config.Version advanced. A failure at any step
// leaves config.Version unchanged and no stray version_<N+1>.diff reachable.
func (s *Store) Append(vd versiondiff.VersionDiff) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return 0, fmt.Errorf("acquire append lock: %w", err)
	}
	defer s.lock.Unlock()

	cfg, err := s.Config()
	if err != nil {
		return 0, err
	}

	next := cfg.Version + 1
	vd.PrevVersion = cfg.Version
	vd.CurVersion = next

	if err := writeDiffFile(s.versionPath(next), vd); err != nil {
		return 0, fmt.Errorf("append: write version_%d.diff: %w", next, err)
	}

	cfg.Version = next
	if err := cfg.Save(s.dir); err != nil {
		// the diff file is now orphaned past the config's observed version;
		// remove it so it can never be read as live state.
		_ = os.Remove(s.versionPath(next))
		return 0, fmt.Errorf("append: save config: %w", err)
	}

	return next, nil
}

// writeDiffFile writes vd to path via a temp-file-then-rename so a crash
// mid-write never leaves a partially written version file, fsyncing before
// the rename is visible.
func writeDiffFile(path string, vd versiondiff.VersionDiff) error {
	data, err := json.Marshal(vd)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
