package app

import "github.com/google/uuid"

// IDGenerator abstracts unique ID generation so run correlation IDs are
// deterministic in tests, grounded on the teacher's bt.IDGenerator.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs, mirroring bt.UUIDGenerator.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }

// Run tracks one CLI invocation for the run log: which operation it was
// (archive, restore, list, verify) and the run ID used to key its log
// records, mirroring the shape the teacher's BackupOperation gave a
// database-persisted operation, minus the persistence.
type Run struct {
	Operation string
	ID        string
	Status    string // "success" or "error"
}

// NewRun creates a new in-memory run record.
func NewRun(operation, id string) *Run {
	return &Run{
		Operation: operation,
		ID:        id,
		Status:    "success",
	}
}
