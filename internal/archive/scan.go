package archive

// StatInfo carries the platform stat fields the metadata record needs,
// abstracted away from any particular syscall struct.
type StatInfo struct {
	Mode  uint32
	UID   uint32
	GID   uint32
	Atime int64
	Mtime int64
	Ctime int64
	Size  int64
}

// ScanEntry is what the filesystem scanner yields for each path it visits:
// a single tagged record rather than two callback variants, per the design
// notes' "capability abstraction" guidance.
type ScanEntry struct {
	Path  string
	IsDir bool
	Stat  StatInfo
}

// ScanVisitor receives one ScanEntry per path the scanner yields, in
// pre-order (directories before their children), in whatever order the
// platform returns directory entries.
type ScanVisitor func(ScanEntry) error

// ScanOptions configures a single scan.
type ScanOptions struct {
	// Exclude lists name-match patterns; a match at any depth prunes that
	// subtree (the entry itself is skipped too).
	Exclude []Pattern
	// SizeFilter, if > 0, skips regular files whose size exceeds it.
	// Never applied to directories.
	SizeFilter int64
}

// Scanner walks one or more input roots, yielding directories and regular
// files. Other file types are silently skipped. Opening a directory that
// fails due to permissions aborts the whole walk with an IOError — partial
// scans are not allowed.
type Scanner interface {
	Walk(root string, opts ScanOptions, visit ScanVisitor) error
}
