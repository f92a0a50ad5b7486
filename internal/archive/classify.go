package archive

import (
	"errors"
	"fmt"
)

// Config holds the settings recognized by the classifier and restorer,
// threaded in explicitly rather than kept as process-wide state (per the
// design notes), so the same engine can run concurrently in tests or be
// reused across CLI invocations in a long-lived process.
type Config struct {
	// CompLevel and NoComp control the write container's compression.
	CompLevel int
	NoComp    bool
	// CompFilter names paths excluded from both compression and diffing.
	CompFilter []Pattern
	// ForceNewArc, when set, makes the classifier skip chaining entirely
	// and emit a full NEW-only snapshot.
	ForceNewArc bool
	// UseBsdiff enables MOD entries; when false, changed files are stored
	// as NEW instead of diffed.
	UseBsdiff bool
	// Exclude names scanner exclusion patterns.
	Exclude []Pattern
	// SizeFilter, if > 0, skips regular files larger than this many bytes.
	SizeFilter int64
}

// Classifier implements the scan-and-classify algorithm: for each scanned
// path it decides NEW, MOD, or UNC relative to the newest existing
// snapshot, and writes the result into a freshly created snapshot archive.
type Classifier struct {
	Opener  Opener
	Scanner Scanner
	Differ  Differ
	Logger  Logger
	Clock   Clock
}

// Result summarizes one archive-mode run.
type Result struct {
	// SnapshotPath is the full path to the snapshot archive that was
	// created (or would have been created, for a dry run).
	SnapshotPath string
	NewCount     int
	ModCount     int
	UncCount     int
	DirCount     int
}

// Run executes the classify-and-write algorithm against the given input
// roots inside dir (the archive directory). If dryRun is true, the scanner
// and classifier still run in full (so exclusions and size filters are
// exercised and logged) but no bytes are written to disk: the write
// container is discarded rather than committed.
func (c *Classifier) Run(dir string, roots []string, cfg Config, dryRun bool) (*Result, error) {
	idx, err := NewDirIndex(dir)
	if err != nil {
		return nil, err
	}

	nextName := NextSnapshotName(c.Clock.Now())
	nextPath := idx.Path(nextName)

	opts := Options{
		CompLevel:  cfg.CompLevel,
		NoComp:     cfg.NoComp,
		CompFilter: cfg.CompFilter,
	}

	if idx.Empty() || cfg.ForceNewArc {
		return c.runFresh(idx, nextPath, roots, cfg, opts, dryRun)
	}
	return c.runChained(idx, nextPath, roots, cfg, opts, dryRun)
}

// runFresh emits a full NEW-only snapshot: no predecessor exists, or
// --force-new-arc asked us to ignore any that do.
func (c *Classifier) runFresh(idx *DirIndex, nextPath string, roots []string, cfg Config, opts Options, dryRun bool) (*Result, error) {
	next, err := c.openWriteTarget(nextPath, opts, dryRun)
	if err != nil {
		return nil, err
	}
	defer next.Close()

	res := &Result{SnapshotPath: nextPath}

	visit := func(e ScanEntry) error {
		meta := metaFromStat(e, TypeNew)
		if e.IsDir {
			if err := c.addDirectory(next, e.Path, meta); err != nil {
				return err
			}
			res.DirCount++
			return nil
		}
		if err := next.AddFileNew(e.Path, e.Path, meta); err != nil {
			return c.reportAddErr(e.Path, err)
		}
		res.NewCount++
		c.Logger.Info("archived", "path", e.Path, "type", "NEW")
		return nil
	}

	for _, root := range roots {
		if err := c.Scanner.Walk(root, scanOpts(cfg), visit); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
	}

	return res, nil
}

// runChained diffs the scan against the latest existing snapshot.
func (c *Classifier) runChained(idx *DirIndex, nextPath string, roots []string, cfg Config, opts Options, dryRun bool) (*Result, error) {
	latestName := idx.Latest()
	latest, err := c.Opener.OpenRead(idx.Path(latestName))
	if err != nil {
		return nil, fmt.Errorf("opening latest snapshot %s: %w", latestName, err)
	}
	defer latest.Close()

	next, err := c.openWriteTarget(nextPath, opts, dryRun)
	if err != nil {
		return nil, err
	}
	defer next.Close()

	cache := NewCache(idx.Dir(), c.Opener)
	defer cache.Close()

	latestEntries := latest.Entries()
	res := &Result{SnapshotPath: nextPath}

	var scanErr error
	visit := func(e ScanEntry) error {
		if e.IsDir {
			meta := metaFromStat(e, TypeNew)
			if err := c.addDirectory(next, e.Path, meta); err != nil {
				scanErr = err
				return err
			}
			res.DirCount++
			return nil
		}

		prevMeta, existed := latestEntries[e.Path]
		if !existed {
			meta := metaFromStat(e, TypeNew)
			if err := next.AddFileNew(e.Path, e.Path, meta); err != nil {
				return c.reportAddErr(e.Path, err)
			}
			res.NewCount++
			c.Logger.Info("archived", "path", e.Path, "type", "NEW")
			return nil
		}

		if prevMeta.Mtime != e.Stat.Mtime || prevMeta.Size != e.Stat.Size {
			return c.classifyChanged(next, latest, latestName, cache, e, cfg, res)
		}

		return c.classifyUnchanged(next, latestName, prevMeta, e, res)
	}

	for _, root := range roots {
		if err := c.Scanner.Walk(root, scanOpts(cfg), visit); err != nil {
			if scanErr != nil {
				return nil, scanErr
			}
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
	}

	return res, nil
}

// classifyChanged handles a path whose mtime or size differs from the
// predecessor's recorded values.
func (c *Classifier) classifyChanged(next, latest Container, latestName string, cache *Cache, e ScanEntry, cfg Config, res *Result) error {
	if !cfg.UseBsdiff || MatchAny(cfg.CompFilter, e.Path) {
		meta := metaFromStat(e, TypeNew)
		if err := next.AddFileNew(e.Path, e.Path, meta); err != nil {
			return c.reportAddErr(e.Path, err)
		}
		res.NewCount++
		c.Logger.Info("archived", "path", e.Path, "type", "NEW")
		return nil
	}

	old, err := Rebuild(latest, e.Path, cache, c.Differ)
	if err != nil {
		return fmt.Errorf("rebuilding predecessor of %s: %w", e.Path, err)
	}

	cur, err := ReadFileExact(e.Path)
	if err != nil {
		return err
	}

	patch, err := c.Differ.Diff(old, cur)
	if err != nil {
		return fmt.Errorf("%w: diffing %s: %v", ErrPatch, e.Path, err)
	}

	meta := metaFromStat(e, TypeMod)
	if err := next.AddFileBsdiff(e.Path, meta, patch, latestName); err != nil {
		return c.reportAddErr(e.Path, err)
	}
	res.ModCount++
	c.Logger.Info("archived", "path", e.Path, "type", "MOD")
	return nil
}

// classifyUnchanged handles a path whose mtime and size match the
// predecessor exactly: emit an UNC pointer, shortening the chain when the
// predecessor was itself an UNC pointer so lookups don't grow linearly with
// snapshot count.
func (c *Classifier) classifyUnchanged(next Container, latestName string, prevMeta Record, e ScanEntry, res *Result) error {
	prevName := latestName
	if prevMeta.Type == TypeUnc {
		prevName = prevMeta.Prev
	}

	meta := metaFromStat(e, TypeUnc)
	if err := next.AddFileUnchanged(e.Path, meta, prevName); err != nil {
		return c.reportAddErr(e.Path, err)
	}
	res.UncCount++
	c.Logger.Info("archived", "path", e.Path, "type", "UNC")
	return nil
}

func (c *Classifier) addDirectory(next Container, path string, meta Record) error {
	if err := next.AddDirectory(path, meta); err != nil {
		return c.reportAddErr(path, err)
	}
	return nil
}

// reportAddErr logs and swallows a duplicate-member error (§7:
// AlreadyExists is WARN-and-continue) and returns any other error as fatal.
func (c *Classifier) reportAddErr(path string, err error) error {
	if isAlreadyExists(err) {
		c.Logger.Warn("duplicate entry skipped", "path", path)
		return nil
	}
	return fmt.Errorf("adding %s: %w", path, err)
}

func isAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func metaFromStat(e ScanEntry, t EntryType) Record {
	return Record{
		Mode:  e.Stat.Mode,
		UID:   e.Stat.UID,
		GID:   e.Stat.GID,
		Type:  t,
		Atime: e.Stat.Atime,
		Mtime: e.Stat.Mtime,
		Ctime: e.Stat.Ctime,
		Size:  e.Stat.Size,
	}
}

func scanOpts(cfg Config) ScanOptions {
	return ScanOptions{Exclude: cfg.Exclude, SizeFilter: cfg.SizeFilter}
}

// openWriteTarget creates the next snapshot container, or a discard-on-close
// stand-in when dryRun is set so the algorithm still runs to completion
// without touching disk (§8's dry-run purity property).
func (c *Classifier) openWriteTarget(path string, opts Options, dryRun bool) (Container, error) {
	if dryRun {
		return newDiscardContainer(), nil
	}
	next, err := c.Opener.Create(path, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", ErrContainer, path, err)
	}
	return next, nil
}
