package serverstore

import "os"

// HistoryEntry is one row of the server's version history.
type HistoryEntry struct {
	Version   int
	Timestamp float64 // unix seconds, from the version_<N>.diff file's mtime
}

// History lists {version, timestamp} for every version_<N>.diff up to the
// current config version, in ascending order. The history endpoint is not
// specified in depth by spec.md §4; timestamps come from each diff file's
// modification time per §4.8's implementer guidance.
func (s *Store) History() ([]HistoryEntry, error) {
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, cfg.Version+1)
	for n := 0; n <= cfg.Version; n++ {
		info, err := os.Stat(s.versionPath(n))
		if err != nil {
			continue
		}
		entries = append(entries, HistoryEntry{
			Version:   n,
			Timestamp: float64(info.ModTime().Unix()),
		})
	}
	return entries, nil
}
