package archive

import "time"

// Container is the archive adapter's public contract: an ordered
// key→(bytes, metadata) map with append-only add operations while it is
// open for writing. Concrete implementations (internal/zipcontainer) hide
// the underlying container library.
type Container interface {
	// AddFileNew adds a member whose bytes are read from the local
	// filesystem path srcPath at commit time. meta.Type is forced to
	// TypeNew and meta.Prev is cleared.
	AddFileNew(name string, srcPath string, meta Record) error

	// AddFileBsdiff adds a member whose bytes are patch. meta.Type is
	// forced to TypeMod and meta.Prev is set to prevName (truncated per
	// the wire format).
	AddFileBsdiff(name string, meta Record, patch []byte, prevName string) error

	// AddFileUnchanged adds a zero-byte member. meta.Type is forced to
	// TypeUnc and meta.Prev is set to prevName.
	AddFileUnchanged(name string, meta Record, prevName string) error

	// AddDirectory adds a directory member, storing meta unchanged.
	AddDirectory(name string, meta Record) error

	// ExtractFile retrieves the stored bytes and metadata record for a
	// member. Returns ErrNotFound if name is not present.
	ExtractFile(name string) ([]byte, Record, error)

	// Entries returns a snapshot of the in-memory name→metadata index.
	Entries() map[string]Record

	// Close commits all deferred adds (for a write container) or releases
	// held resources (for a read container).
	Close() error
}

// ProgressFunc receives a fraction in [0,1] as a write container commits its
// entries during Close. Rendering is left to the caller.
type ProgressFunc func(fraction float64)

// Options configures a Container opened for writing.
type Options struct {
	// CompLevel is the zip deflate level, 0..9. 0 means "library default".
	// Ignored when NoComp is set.
	CompLevel int
	// NoComp stores entries uncompressed (deflate level -1 equivalent).
	NoComp bool
	// CompFilter lists patterns for member names that are stored
	// uncompressed regardless of NoComp/CompLevel, and are also excluded
	// from bsdiff consideration by the classifier.
	CompFilter []Pattern
	// Progress is invoked during Close as entries are written out.
	Progress ProgressFunc
}

// Pattern is a compiled scanner/compression exclusion pattern supporting
// exactly two wildcards: '*' matches any run of characters including '/';
// '?' matches one or more characters excluding '/'.
type Pattern interface {
	Match(path string) bool
	String() string
}

// Opener creates and opens Containers backed by files in the archive
// directory.
type Opener interface {
	// OpenRead opens an existing container read-only, building its
	// in-memory index eagerly.
	OpenRead(path string) (Container, error)
	// Create creates a new container exclusively; it fails if path exists.
	Create(path string, opts Options) (Container, error)
}

// Logger is the external log/progress reporter the core consumes only
// through this interface; concrete formatting is out of scope for the core.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger discards all output. Useful as a default and in tests.
type NopLogger struct{}

func NewNopLogger() *NopLogger { return &NopLogger{} }

func (*NopLogger) Debug(string, ...any) {}
func (*NopLogger) Info(string, ...any)  {}
func (*NopLogger) Warn(string, ...any)  {}
func (*NopLogger) Error(string, ...any) {}

// Clock abstracts wall-clock time so the classifier's snapshot naming is
// deterministic under test.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current local time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Differ is the binary diff/patch primitive (§4.3), an external
// collaborator the core consumes only through this interface.
type Differ interface {
	// Diff produces a patch byte stream turning old into new.
	Diff(old, new []byte) ([]byte, error)
	// Patch reconstructs the new content from old and patch, verifying the
	// result is exactly expectedSize bytes.
	Patch(old, patch []byte, expectedSize int64) ([]byte, error)
}
