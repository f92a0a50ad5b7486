package archive

import "errors"

// Sentinel errors for the behavioral categories in the format's error
// handling design. Callers use errors.Is; wrapping with fmt.Errorf("...: %w")
// is the norm throughout this package, following the same discipline the
// teacher codebase applies to os/io errors.
var (
	// ErrFormat covers a missing or wrong-sized extra field, or an unknown
	// fs_type value.
	ErrFormat = errors.New("archive: format error")

	// ErrPatch is returned when the bsdiff/bspatch primitive fails.
	ErrPatch = errors.New("archive: patch error")

	// ErrContainer wraps failures reported by the underlying container
	// implementation during open, add, or close.
	ErrContainer = errors.New("archive: container error")

	// ErrAlreadyExists is returned (and only WARN-logged, never fatal) when
	// a caller attempts to add a second member with the same name to one
	// snapshot.
	ErrAlreadyExists = errors.New("archive: entry already exists")

	// ErrNotFound is returned when a requested member does not exist in an
	// archive.
	ErrNotFound = errors.New("archive: entry not found")

	// ErrChainTooDeep is a defensive bound on rebuild recursion; the chain
	// invariants preclude cycles, but a corrupt archive could still produce
	// unbounded recursion, so rebuild refuses to go past maxChainDepth.
	ErrChainTooDeep = errors.New("archive: predecessor chain too deep")

	// ErrChainBroken is returned when a fs_prev pointer cannot be resolved:
	// the named predecessor archive is missing from the archive directory,
	// or a predecessor archive was opened but no longer contains the member
	// being rebuilt.
	ErrChainBroken = errors.New("archive: predecessor chain broken")
)
