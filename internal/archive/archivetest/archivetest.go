// Package archivetest provides in-memory fakes for archive.Container,
// archive.Opener, and archive.Clock, grounded on the teacher's
// internal/testutil in-memory fakes (MockFilesystemManager, StubClock):
// the same style of hand-rolled test double, adapted to the container and
// clock interfaces this domain actually depends on.
package archivetest

import (
	"os"
	"sync"
	"time"

	"fsarc-go/internal/archive"
)

// Member is one stored entry: its metadata plus the bytes given to whichever
// AddFile* method created it (nil for AddFileUnchanged).
type Member struct {
	Meta archive.Record
	Data []byte
}

// Container is an in-memory implementation of archive.Container.
type Container struct {
	members map[string]Member
	closed  bool
}

// NewContainer returns an empty in-memory container.
func NewContainer() *Container {
	return &Container{members: make(map[string]Member)}
}

var _ archive.Container = (*Container)(nil)

func (c *Container) AddFileNew(name, srcPath string, meta archive.Record) error {
	if _, exists := c.members[name]; exists {
		return archive.ErrAlreadyExists
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return err
	}
	meta.Type = archive.TypeNew
	meta.Prev = ""
	c.members[name] = Member{Meta: meta, Data: data}
	return nil
}

func (c *Container) AddFileBsdiff(name string, meta archive.Record, patch []byte, prevName string) error {
	if _, exists := c.members[name]; exists {
		return archive.ErrAlreadyExists
	}
	meta.Type = archive.TypeMod
	meta.Prev = prevName
	c.members[name] = Member{Meta: meta, Data: append([]byte(nil), patch...)}
	return nil
}

func (c *Container) AddFileUnchanged(name string, meta archive.Record, prevName string) error {
	if _, exists := c.members[name]; exists {
		return archive.ErrAlreadyExists
	}
	meta.Type = archive.TypeUnc
	meta.Prev = prevName
	c.members[name] = Member{Meta: meta}
	return nil
}

func (c *Container) AddDirectory(name string, meta archive.Record) error {
	if _, exists := c.members[name]; exists {
		return archive.ErrAlreadyExists
	}
	c.members[name] = Member{Meta: meta}
	return nil
}

func (c *Container) ExtractFile(name string) ([]byte, archive.Record, error) {
	m, ok := c.members[name]
	if !ok {
		return nil, archive.Record{}, archive.ErrNotFound
	}
	return m.Data, m.Meta, nil
}

func (c *Container) Entries() map[string]archive.Record {
	out := make(map[string]archive.Record, len(c.members))
	for k, v := range c.members {
		out[k] = v.Meta
	}
	return out
}

func (c *Container) Close() error {
	c.closed = true
	return nil
}

// PutRaw seeds an already-classified entry directly, bypassing the
// AddFile*/duplicate-check path, for building a fixed predecessor fixture.
func (c *Container) PutRaw(name string, meta archive.Record, data []byte) {
	c.members[name] = Member{Meta: meta, Data: data}
}

// Opener is an in-memory implementation of archive.Opener backed by a fixed
// map of path -> already-built Container. Create returns a fresh Container
// and records it under path so a later OpenRead sees what was written; it
// also leaves an empty placeholder file at path, so a DirIndex built from
// the archive directory lists the snapshot as it would a real one.
type Opener struct {
	mu         sync.Mutex
	containers map[string]*Container
}

// NewOpener returns an Opener with no containers registered.
func NewOpener() *Opener {
	return &Opener{containers: make(map[string]*Container)}
}

var _ archive.Opener = (*Opener)(nil)

// Seed registers an already-built container to be returned by OpenRead(path).
func (o *Opener) Seed(path string, c *Container) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.containers[path] = c
}

func (o *Opener) OpenRead(path string) (archive.Container, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := o.containers[path]
	if !ok {
		return nil, archive.ErrNotFound
	}
	return c, nil
}

func (o *Opener) Create(path string, opts archive.Options) (archive.Container, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.containers[path]; exists {
		return nil, archive.ErrAlreadyExists
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	f.Close()
	c := NewContainer()
	o.containers[path] = c
	return c, nil
}

// FakeScanner replays a fixed list of entries regardless of the requested
// root, letting classify tests drive the walk without touching a real
// filesystem.
type FakeScanner struct {
	Entries []archive.ScanEntry
}

var _ archive.Scanner = (*FakeScanner)(nil)

func (s *FakeScanner) Walk(root string, opts archive.ScanOptions, visit archive.ScanVisitor) error {
	for _, e := range s.Entries {
		if archive.MatchAny(opts.Exclude, e.Path) {
			continue
		}
		if !e.IsDir && opts.SizeFilter > 0 && e.Stat.Size > opts.SizeFilter {
			continue
		}
		if err := visit(e); err != nil {
			return err
		}
	}
	return nil
}

// FakeDiffer is a deterministic stand-in for a binary diff algorithm: Diff
// returns new verbatim as the "patch", and Patch ignores old and returns the
// patch bytes, after checking they match expectedSize. This exercises every
// classify/rebuild code path that depends only on Differ's contract, without
// pulling in the real bsdiff/bspatch algorithm.
type FakeDiffer struct{}

var _ archive.Differ = FakeDiffer{}

func (FakeDiffer) Diff(old, new []byte) ([]byte, error) {
	return append([]byte(nil), new...), nil
}

func (FakeDiffer) Patch(old, patch []byte, expectedSize int64) ([]byte, error) {
	if int64(len(patch)) != expectedSize {
		return nil, archive.ErrPatch
	}
	return append([]byte(nil), patch...), nil
}

// StubClock returns a fixed, advanceable time. Safe for concurrent use.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewStubClock creates a StubClock set to the given time.
func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

var _ archive.Clock = (*StubClock)(nil)

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
