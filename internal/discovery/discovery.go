// Package discovery lists candidate spool files under the raw root and
// applies the settle-window filter.
package discovery

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FoundFile is the fingerprint of a discovered, settled JSONL file.
type FoundFile struct {
	Path  string
	Size  int64
	Mtime time.Time
}

// Discover returns settled *.jsonl files under rawRoot in lexicographic path
// order, so repeated runs over the same input process files in the same
// sequence. A file is settled when now - mtime >= settle; younger files are
// skipped silently and picked up on a later run. A missing rawRoot yields an
// empty result, not an error: the spool may simply not exist yet.
func Discover(rawRoot string, now time.Time, settle time.Duration) ([]FoundFile, error) {
	cutoff := now.Add(-settle)

	var found []FoundFile
	err := filepath.WalkDir(rawRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// A file vanishing mid-walk is normal on a live spool.
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".jsonl") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		found = append(found, FoundFile{
			Path:  path,
			Size:  info.Size(),
			Mtime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })
	return found, nil
}
