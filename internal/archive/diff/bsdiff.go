// Package diff wraps the go-bsdiff library behind the archive.Differ
// interface, keeping the binary diff/patch primitive an external
// collaborator the core consumes only through an interface (§4.3).
package diff

import (
	"fmt"

	"github.com/gabstv/go-bsdiff/pkg/bsdiff"
	"github.com/gabstv/go-bsdiff/pkg/bspatch"
)

// Bsdiff implements archive.Differ using github.com/gabstv/go-bsdiff, a
// pure-Go bsdiff/bspatch implementation. Not grounded in the retrieved
// example corpus — see DESIGN.md — since binary diffing has no analogue in
// any of the seven example repos.
type Bsdiff struct{}

// New returns a ready-to-use Bsdiff differ.
func New() Bsdiff { return Bsdiff{} }

// Diff produces a bsdiff patch turning old into new.
func (Bsdiff) Diff(old, new []byte) ([]byte, error) {
	patch, err := bsdiff.Bytes(old, new)
	if err != nil {
		return nil, fmt.Errorf("bsdiff: %w", err)
	}
	return patch, nil
}

// Patch reconstructs new content from old and a patch produced by Diff,
// verifying the result is exactly expectedSize bytes.
func (Bsdiff) Patch(old, patch []byte, expectedSize int64) ([]byte, error) {
	out, err := bspatch.Bytes(old, patch)
	if err != nil {
		return nil, fmt.Errorf("bspatch: %w", err)
	}
	if int64(len(out)) != expectedSize {
		return nil, fmt.Errorf("bspatch: reconstructed %d bytes, expected %d", len(out), expectedSize)
	}
	return out, nil
}
