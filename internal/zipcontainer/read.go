package zipcontainer

import (
	"fmt"
	"io"

	stdzip "archive/zip"

	"fsarc-go/internal/archive"
)

// readContainer implements archive.Container over an already-opened,
// read-only zip file.
type readContainer struct {
	zr      *stdzip.ReadCloser
	byName  map[string]*stdzip.File
	entries map[string]archive.Record
}

var _ archive.Container = (*readContainer)(nil)

func (c *readContainer) AddFileNew(string, string, archive.Record) error {
	return fmt.Errorf("%w: container is read-only", archive.ErrContainer)
}

func (c *readContainer) AddFileBsdiff(string, archive.Record, []byte, string) error {
	return fmt.Errorf("%w: container is read-only", archive.ErrContainer)
}

func (c *readContainer) AddFileUnchanged(string, archive.Record, string) error {
	return fmt.Errorf("%w: container is read-only", archive.ErrContainer)
}

func (c *readContainer) AddDirectory(string, archive.Record) error {
	return fmt.Errorf("%w: container is read-only", archive.ErrContainer)
}

// ExtractFile retrieves the stored bytes and metadata record for a member.
func (c *readContainer) ExtractFile(name string) ([]byte, archive.Record, error) {
	meta, ok := c.entries[name]
	if !ok {
		return nil, archive.Record{}, archive.ErrNotFound
	}

	f, ok := c.byName[name]
	if !ok {
		return nil, archive.Record{}, archive.ErrNotFound
	}

	rc, err := f.Open()
	if err != nil {
		return nil, archive.Record{}, fmt.Errorf("%w: opening %s: %v", archive.ErrContainer, name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, archive.Record{}, fmt.Errorf("%w: reading %s: %v", archive.ErrContainer, name, err)
	}

	return data, meta, nil
}

// Entries returns a copy of the in-memory name→metadata index.
func (c *readContainer) Entries() map[string]archive.Record {
	out := make(map[string]archive.Record, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

func (c *readContainer) Close() error {
	return c.zr.Close()
}
