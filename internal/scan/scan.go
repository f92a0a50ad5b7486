// Package scan implements the recursive filesystem walk the classifier
// drives: pre-order traversal, name-pattern exclusion, and a size cutoff,
// grounded on the teacher's internal/fs.OSFilesystemManager.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"fsarc-go/internal/archive"
)

// OSScanner is the real filesystem implementation of archive.Scanner.
type OSScanner struct{}

// New returns a scanner that walks the real filesystem.
func New() *OSScanner { return &OSScanner{} }

var _ archive.Scanner = (*OSScanner)(nil)

// Walk recursively visits root depth-first, in directory-entry order as
// returned by the platform. Directories are yielded before their children.
// Only regular files and directories are yielded; other types are silently
// skipped. A pattern match at any depth prunes that subtree, and the
// pruned entry itself is never visited. Opening a directory that fails due
// to permissions aborts the whole walk — partial scans are not allowed.
func (s *OSScanner) Walk(root string, opts archive.ScanOptions, visit archive.ScanVisitor) error {
	return s.walk(root, opts, visit)
}

func (s *OSScanner) walk(path string, opts archive.ScanOptions, visit archive.ScanVisitor) error {
	if archive.MatchAny(opts.Exclude, path) {
		return nil
	}

	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() {
		entry, err := statEntry(path, info, true)
		if err != nil {
			return err
		}
		if err := visit(entry); err != nil {
			return err
		}

		children, err := os.ReadDir(path)
		if err != nil {
			return fmt.Errorf("reading directory %s: %w", path, err)
		}
		for _, c := range children {
			childPath := filepath.Join(path, c.Name())
			if err := s.walk(childPath, opts, visit); err != nil {
				return err
			}
		}
		return nil
	}

	if !info.Mode().IsRegular() {
		return nil
	}

	if opts.SizeFilter > 0 && info.Size() > opts.SizeFilter {
		return nil
	}

	entry, err := statEntry(path, info, false)
	if err != nil {
		return err
	}
	return visit(entry)
}

func statEntry(path string, info fs.FileInfo, isDir bool) (archive.ScanEntry, error) {
	stat, err := extractStat(info)
	if err != nil {
		return archive.ScanEntry{}, fmt.Errorf("extracting stat for %s: %w", path, err)
	}
	return archive.ScanEntry{Path: path, IsDir: isDir, Stat: stat}, nil
}
