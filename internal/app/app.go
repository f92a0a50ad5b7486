// Package app is the wiring layer between the CLI and the archive engine.
// It constructs the concrete Opener/Scanner/Differ/Logger from config,
// exposes high-level operations that accept raw string paths, and manages
// the run log's lifecycle on Close, the same shape the teacher's BTApp uses
// to sit between cobra commands and BTService.
package app

import (
	"fmt"
	"os"

	"fsarc-go/internal/archive"
	"fsarc-go/internal/archive/diff"
	"fsarc-go/internal/config"
	"fsarc-go/internal/encryption"
	"fsarc-go/internal/observ"
	"fsarc-go/internal/scan"
	"fsarc-go/internal/zipcontainer"
)

// App is the application layer between the CLI and the archive engine.
type App struct {
	cfg       *config.Config
	opener    archive.Opener
	scanner   *scan.OSScanner
	differ    diff.Bsdiff
	logger    *observ.Adapter
	run       *Run
	logFile   *os.File
	encryptor *encryption.AgeEncryptor
}

// NewOptions configures how New wires the encrypting opener. Encrypt asks
// newly created snapshots to be written age-encrypted; Passphrase, when
// non-empty, unlocks the stored private key so predecessors encrypted by an
// earlier run can still be opened for chaining.
type NewOptions struct {
	Encrypt    bool
	Passphrase string
}

// New creates a fully wired App from the given config. operation identifies
// the CLI command being run (e.g. "archive", "restore"), used only for the
// run log's identifying attribute. The caller must call Close when done.
func New(cfg *config.Config, operation string, opts NewOptions) (*App, error) {
	runID := UUIDGenerator{}.New()

	logger, logFile, err := observ.New(cfg.LogDir, runID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	enc := encryption.NewAgeEncryptor(cfg.Encryption)
	var opener archive.Opener = zipcontainer.New()
	if enc.IsConfigured() {
		wrapped := &encryption.Opener{Inner: zipcontainer.New(), Encryptor: enc, Enabled: opts.Encrypt}
		if opts.Passphrase != "" {
			dec, err := enc.Unlock(opts.Passphrase)
			if err != nil {
				return nil, fmt.Errorf("unlocking encryption key: %w", err)
			}
			wrapped.Unlocked = dec
		}
		opener = wrapped
	} else if opts.Encrypt {
		return nil, fmt.Errorf("--encrypt requires encryption keys; run with --encrypt-init first")
	}

	return &App{
		cfg:       cfg,
		opener:    opener,
		scanner:   scan.New(),
		differ:    diff.New(),
		logger:    &observ.Adapter{L: logger},
		run:       NewRun(operation, runID),
		logFile:   logFile,
		encryptor: enc,
	}, nil
}

// SetupEncryption generates a fresh key pair protected by passphrase,
// overwriting any previously configured keys, for the --encrypt-init flow.
func (a *App) SetupEncryption(passphrase string) error {
	return a.encryptor.Setup(passphrase)
}

// buildEngineConfig translates the flags/config values shared by archive
// and restore into an archive.Config.
func (a *App) buildEngineConfig(useBsdiff bool, compLevel int, noComp bool, compFilter, exclude []string, builtinExcl, forceNewArc bool, sizeFilter int64) archive.Config {
	patterns := func(raw []string) []archive.Pattern {
		out := make([]archive.Pattern, len(raw))
		for i, r := range raw {
			out[i] = archive.NewPattern(r)
		}
		return out
	}

	excl := patterns(exclude)
	if builtinExcl {
		excl = append(excl, archive.BuiltinExclusions()...)
	}

	return archive.Config{
		CompLevel:   compLevel,
		NoComp:      noComp,
		CompFilter:  patterns(compFilter),
		ForceNewArc: forceNewArc,
		UseBsdiff:   useBsdiff,
		Exclude:     excl,
		SizeFilter:  sizeFilter,
	}
}

// Archive scans roots and writes a new snapshot chained off the archive
// directory's latest snapshot (or a fresh NEW-only snapshot if none exists
// or forceNewArc is set).
func (a *App) Archive(archiveDir string, roots []string, useBsdiff bool, compLevel int, noComp bool, compFilter, exclude []string, builtinExcl, forceNewArc bool, sizeFilter int64, dryRun bool) (*archive.Result, error) {
	cfg := a.buildEngineConfig(useBsdiff, compLevel, noComp, compFilter, exclude, builtinExcl, forceNewArc, sizeFilter)

	c := &archive.Classifier{
		Opener:  a.opener,
		Scanner: a.scanner,
		Differ:  a.differ,
		Logger:  a.logger,
		Clock:   archive.RealClock{},
	}

	return c.Run(archiveDir, roots, cfg, dryRun)
}

// Restore rebuilds every entry of the snapshot at archivePath into outDir.
func (a *App) Restore(archivePath, outDir string, applyMeta, dryRun bool) (*archive.RestoreResult, error) {
	r := &archive.Restorer{
		Opener: a.opener,
		Differ: a.differ,
		Logger: a.logger,
	}

	return r.Restore(archivePath, outDir, applyMeta, dryRun)
}

// List returns the snapshot names present in an archive directory, oldest
// first, along with each snapshot's own entry count.
func (a *App) List(archiveDir string) ([]SnapshotSummary, error) {
	idx, err := archive.NewDirIndex(archiveDir)
	if err != nil {
		return nil, err
	}

	out := make([]SnapshotSummary, 0, len(idx.All()))
	for _, name := range idx.All() {
		c, err := a.opener.OpenRead(idx.Path(name))
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", name, err)
		}
		entries := c.Entries()
		c.Close()

		var totalSize int64
		for _, rec := range entries {
			totalSize += rec.Size
		}
		out = append(out, SnapshotSummary{Name: name, EntryCount: len(entries), TotalSize: totalSize})
	}
	return out, nil
}

// Verify walks every snapshot in an archive directory and confirms that
// every MOD/UNC entry's fs_prev chain resolves without ever hitting
// ErrChainTooDeep or ErrChainBroken, without writing anything to disk.
func (a *App) Verify(archiveDir string) (*VerifyResult, error) {
	idx, err := archive.NewDirIndex(archiveDir)
	if err != nil {
		return nil, err
	}

	res := &VerifyResult{}
	cache := archive.NewCache(archiveDir, a.opener)
	defer cache.Close()

	for _, name := range idx.All() {
		c, err := a.opener.OpenRead(idx.Path(name))
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", name, err)
		}

		for member := range c.Entries() {
			res.Checked++
			if _, err := archive.Rebuild(c, member, cache, a.differ); err != nil {
				res.Failures = append(res.Failures, VerifyFailure{Snapshot: name, Member: member, Err: err})
			}
		}
		c.Close()
	}

	return res, nil
}

// SnapshotSummary describes one snapshot for --list.
type SnapshotSummary struct {
	Name       string
	EntryCount int
	TotalSize  int64
}

// VerifyResult summarizes a --verify run.
type VerifyResult struct {
	Checked  int
	Failures []VerifyFailure
}

// VerifyFailure names a single member whose chain failed to resolve.
type VerifyFailure struct {
	Snapshot string
	Member   string
	Err      error
}

// Close closes the run log file.
func (a *App) Close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}
