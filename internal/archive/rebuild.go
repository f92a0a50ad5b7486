package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// maxChainDepth defensively bounds rebuild recursion. The chain invariants
// (every predecessor is lexicographically earlier, no cycles) already
// preclude runaway recursion for a valid archive; this only guards against
// a corrupt one.
const maxChainDepth = 10000

// Cache owns a batch's worth of opened predecessor archives, keyed by
// snapshot basename. It is never shared across batches: archive handles
// returned by a Container implementation are not guaranteed thread-safe,
// and each batch (one classify pass, or one restore) has its own lifetime.
type Cache struct {
	dir     string
	opener  Opener
	handles map[string]Container
}

// NewCache creates a predecessor cache rooted at dir, opening archives
// on demand via opener.
func NewCache(dir string, opener Opener) *Cache {
	return &Cache{
		dir:     dir,
		opener:  opener,
		handles: make(map[string]Container),
	}
}

// Get returns the open Container for basename name, opening and caching it
// on first use.
func (c *Cache) Get(name string) (Container, error) {
	if h, ok := c.handles[name]; ok {
		return h, nil
	}
	h, err := c.opener.OpenRead(filepath.Join(c.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: predecessor %s does not exist: %v", ErrChainBroken, name, err)
		}
		return nil, fmt.Errorf("%w: opening predecessor %s: %v", ErrFormat, name, err)
	}
	c.handles[name] = h
	return h, nil
}

// Close releases every archive handle opened during the batch. It reports
// the first error encountered, if any, having still attempted to close the
// rest.
func (c *Cache) Close() error {
	var firstErr error
	for name, h := range c.handles {
		if err := h.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing predecessor %s: %w", name, err)
		}
	}
	c.handles = make(map[string]Container)
	return firstErr
}

// Rebuild materializes path's current bytes in archive a by following the
// Prev pointer chain: a NEW entry returns its stored bytes directly, an UNC
// entry recurses into its predecessor, and a MOD entry recurses into its
// predecessor and applies patch bytes with differ.
//
// The recursion is bounded by maxChainDepth rather than rewritten
// iteratively; a valid chain is never longer than the number of snapshots
// in the archive directory, far below the bound, so the extra stack frames
// are not a practical concern here.
func Rebuild(a Container, path string, cache *Cache, differ Differ) ([]byte, error) {
	return rebuildDepth(a, path, cache, differ, 0)
}

func rebuildDepth(a Container, path string, cache *Cache, differ Differ, depth int) ([]byte, error) {
	if depth > maxChainDepth {
		return nil, fmt.Errorf("%w: %s", ErrChainTooDeep, path)
	}

	data, meta, err := a.ExtractFile(path)
	if err != nil {
		if depth > 0 && errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s: predecessor no longer has this member: %v", ErrChainBroken, path, err)
		}
		return nil, fmt.Errorf("rebuilding %s: %w", path, err)
	}

	switch meta.Type {
	case TypeNew:
		return data, nil

	case TypeUnc:
		prev, err := cache.Get(meta.Prev)
		if err != nil {
			return nil, err
		}
		return rebuildDepth(prev, path, cache, differ, depth+1)

	case TypeMod:
		prev, err := cache.Get(meta.Prev)
		if err != nil {
			return nil, err
		}
		old, err := rebuildDepth(prev, path, cache, differ, depth+1)
		if err != nil {
			return nil, err
		}
		out, err := differ.Patch(old, data, meta.Size)
		if err != nil {
			return nil, fmt.Errorf("%w: applying patch to %s: %v", ErrPatch, path, err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: unknown entry type %v for %s", ErrFormat, meta.Type, path)
	}
}
