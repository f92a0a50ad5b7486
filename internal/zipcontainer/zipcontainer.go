// Package zipcontainer implements archive.Container over the standard
// library's archive/zip, carrying the 80-byte metadata record in a
// per-entry extra field tagged 0xE0E0. It is the concrete adapter behind
// the interface the core (internal/archive) consumes, grounded on the role
// internal/vault/filesystem.go plays for the teacher's bt.Vault interface:
// a filesystem-backed implementation of a small storage contract.
package zipcontainer

import (
	"compress/flate"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	stdzip "archive/zip"

	"fsarc-go/internal/archive"
)

// Opener implements archive.Opener over the filesystem.
type Opener struct{}

// New returns a ready-to-use Opener.
func New() Opener { return Opener{} }

var _ archive.Opener = Opener{}

// OpenRead opens an existing zip container read-only, decoding every
// entry's metadata extra field eagerly and building the in-memory index.
func (Opener) OpenRead(path string) (archive.Container, error) {
	zr, err := stdzip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", errNotContainer(err), path, err)
	}

	c := &readContainer{
		zr:      zr,
		byName:  make(map[string]*stdzip.File, len(zr.File)),
		entries: make(map[string]archive.Record, len(zr.File)),
	}

	for _, f := range zr.File {
		buf, ok := findExtraField(f.Extra, archive.ExtraFieldTag)
		if !ok {
			zr.Close()
			return nil, fmt.Errorf("%w: %s: missing 0xE0E0 metadata field", archive.ErrFormat, f.Name)
		}
		rec, err := archive.DecodeRecord(buf)
		if err != nil {
			zr.Close()
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		c.byName[f.Name] = f
		c.entries[f.Name] = rec
	}

	return c, nil
}

// errNotContainer maps an open failure that looks like "missing file" vs.
// "not a zip" to the right sentinel: IOError is left as the raw os error,
// ContainerError covers a corrupt/non-zip file.
func errNotContainer(err error) error {
	if os.IsNotExist(err) {
		return err
	}
	return archive.ErrContainer
}

// Create creates a new zip container exclusively; it fails if path exists.
func (Opener) Create(path string, opts archive.Options) (archive.Container, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", archive.ErrContainer, path, err)
	}

	return &writeContainer{
		path:  path,
		file:  f,
		opts:  opts,
		index: make(map[string]archive.Record),
	}, nil
}

// buildExtra packs rec into a single TLV extra-field record tagged
// archive.ExtraFieldTag.
func buildExtra(rec archive.Record) []byte {
	data := rec.Encode()
	buf := make([]byte, 4+len(data))
	binary.LittleEndian.PutUint16(buf[0:2], archive.ExtraFieldTag)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(data)))
	copy(buf[4:], data)
	return buf
}

// findExtraField scans a zip extra-field TLV blob for the first record with
// the given id and returns its data.
func findExtraField(extra []byte, id uint16) ([]byte, bool) {
	for len(extra) >= 4 {
		gotID := binary.LittleEndian.Uint16(extra[0:2])
		size := binary.LittleEndian.Uint16(extra[2:4])
		if int(size) > len(extra)-4 {
			return nil, false
		}
		data := extra[4 : 4+size]
		if gotID == id {
			return data, true
		}
		extra = extra[4+size:]
	}
	return nil, false
}

// registerLevel installs a custom deflate compressor honoring opts.CompLevel
// when it's a real level (not 0, "library default"). Level 0 leaves the
// standard library's own default Deflate compressor in place.
func registerLevel(zw *stdzip.Writer, level int) {
	if level == 0 {
		return
	}
	zw.RegisterCompressor(stdzip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})
}
