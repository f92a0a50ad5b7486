package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Restorer implements the chain-following restore algorithm: it rebuilds
// every entry in a snapshot and writes it to disk, then applies metadata in
// a second pass so writing bytes never refreshes an mtime after it was set.
type Restorer struct {
	Opener Opener
	Differ Differ
	Logger Logger
}

// RestoreResult summarizes one restore run.
type RestoreResult struct {
	Written []string
	Warnings []string
}

// Restore rebuilds every entry of the snapshot at archivePath and writes it
// under outDir (outDir == "" means "use member names as-is"). If applyMeta
// is false, mode/atime/mtime/uid/gid are left at whatever the freshly
// created files got from the OS. If dryRun is true, no bytes are written
// and no metadata is applied, but rebuild and path computation still run in
// full.
func (r *Restorer) Restore(archivePath string, outDir string, applyMeta bool, dryRun bool) (*RestoreResult, error) {
	archiveDir := filepath.Dir(archivePath)

	a, err := r.Opener.OpenRead(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", archivePath, err)
	}
	defer a.Close()

	cache := NewCache(archiveDir, r.Opener)
	defer cache.Close()

	entries := a.Entries()

	type planned struct {
		name string
		meta Record
		out  string
	}
	var dirs, files []planned

	for name, meta := range entries {
		out := outputPath(name, outDir)
		p := planned{name: name, meta: meta, out: out}
		if meta.IsDir() {
			dirs = append(dirs, p)
		} else {
			files = append(files, p)
		}
	}

	res := &RestoreResult{}

	for _, p := range dirs {
		if dryRun {
			continue
		}
		if err := MkdirAll(p.out); err != nil {
			return nil, err
		}
	}

	for _, p := range files {
		if !dryRun {
			if err := MkdirAll(filepath.Dir(p.out)); err != nil {
				return nil, err
			}
		}

		data, err := Rebuild(a, p.name, cache, r.Differ)
		if err != nil {
			return nil, fmt.Errorf("restoring %s: %w", p.name, err)
		}

		if !dryRun {
			if err := WriteFileExact(p.out, data); err != nil {
				return nil, fmt.Errorf("writing %s: %w", p.out, err)
			}
		}
		res.Written = append(res.Written, p.out)
		r.Logger.Info("restored", "path", p.out)
	}

	if applyMeta && !dryRun {
		all := append(append([]planned{}, dirs...), files...)
		for _, p := range all {
			if err := applyMetadata(p.out, p.meta); err != nil {
				msg := fmt.Sprintf("%s: %v", p.out, err)
				res.Warnings = append(res.Warnings, msg)
				r.Logger.Warn("metadata restore failed", "path", p.out, "error", err)
			}
		}
	}

	return res, nil
}

// outputPath computes the destination for a member name, per §4.6:
// absolute names redirect under outDir (dropping the leading slash),
// relative names join outDir, and with no outDir the name is used as-is.
func outputPath(name, outDir string) string {
	if outDir == "" {
		return name
	}
	return filepath.FromSlash(JoinPath(outDir, strings.TrimPrefix(name, "/")))
}

// applyMetadata sets mode, timestamps, and ownership on an already-written
// path. Failures are reported to the caller, which WARN-logs and continues
// rather than aborting the restore.
func applyMetadata(path string, meta Record) error {
	if err := os.Chmod(path, os.FileMode(meta.Mode&0o7777)); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	atime := time.Unix(meta.Atime, 0)
	mtime := time.Unix(meta.Mtime, 0)
	if err := os.Chtimes(path, atime, mtime); err != nil {
		return fmt.Errorf("chtimes: %w", err)
	}
	if err := chown(path, int(meta.UID), int(meta.GID)); err != nil {
		return fmt.Errorf("chown: %w", err)
	}
	return nil
}
