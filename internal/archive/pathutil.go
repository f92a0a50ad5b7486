package archive

import (
	"fmt"
	"os"
	"strings"
)

// JoinPath joins base and rel with a single '/', normalizing away any
// duplicate slash at the seam. Both base and rel are used as-is otherwise
// (no cleaning of '..' segments — archive member names are trusted, having
// been produced by the scanner or read back from a snapshot written by this
// same program).
func JoinPath(base, rel string) string {
	if base == "" {
		return rel
	}
	if rel == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(rel, "/")
}

// MkdirAll recursively creates dir and any missing ancestors with mode 0755.
func MkdirAll(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}

// ReadFileExact reads the entirety of path into memory.
func ReadFileExact(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// WriteFileExact truncates (or creates) path and writes data byte-exact.
func WriteFileExact(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
