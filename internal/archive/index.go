package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SnapshotPrefix is the filename prefix that identifies a snapshot archive
// within an archive directory.
const SnapshotPrefix = "fsarc_"

// snapshotTimeLayout is the fixed-width, lexicographically-sortable local
// time layout used for snapshot filenames.
const snapshotTimeLayout = "20060102-150405"

// DirIndex lists the snapshot files in a single archive directory. Filename
// order equals creation-time order thanks to the fixed-width timestamp
// naming, so "latest" is simply the lexicographically greatest name.
type DirIndex struct {
	dir   string
	names []string
}

// NewDirIndex scans dir and builds the sorted set of snapshot basenames.
// Only regular files whose name begins with SnapshotPrefix are included.
func NewDirIndex(dir string) (*DirIndex, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("archive directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrFormat, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing archive directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasPrefix(e.Name(), SnapshotPrefix) {
			continue
		}
		fi, err := e.Info()
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	return &DirIndex{dir: dir, names: names}, nil
}

// Dir returns the archive directory this index was built from.
func (idx *DirIndex) Dir() string { return idx.dir }

// All returns every snapshot basename, oldest first.
func (idx *DirIndex) All() []string {
	out := make([]string, len(idx.names))
	copy(out, idx.names)
	return out
}

// Latest returns the lexicographically greatest snapshot basename, or ""
// if the directory holds no snapshots.
func (idx *DirIndex) Latest() string {
	if len(idx.names) == 0 {
		return ""
	}
	return idx.names[len(idx.names)-1]
}

// Empty reports whether the archive directory holds no snapshots.
func (idx *DirIndex) Empty() bool { return len(idx.names) == 0 }

// Path joins the archive directory with a snapshot basename.
func (idx *DirIndex) Path(name string) string {
	return filepath.Join(idx.dir, name)
}

// NextSnapshotName formats the next snapshot's filename from now, local
// time, per the fixed-width "fsarc_YYYYMMDD-HHMMSS.zip" naming.
func NextSnapshotName(now time.Time) string {
	return SnapshotPrefix + now.Format(snapshotTimeLayout) + ".zip"
}
