package runnerdb

import "errors"

// Sentinel errors returned by store mutations. Reads never return them; a
// missing key is reported through an ok flag or an empty slice.
var (
	// ErrNotFound indicates the runner, club, or alias does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidRecord indicates a record failed validation at the store boundary.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInvalidReference indicates a ClubID that names no existing club.
	ErrInvalidReference = errors.New("invalid club reference")

	// ErrConflict indicates a uniqueness violation (club name, alias target) or
	// a club deletion that would leave dangling references.
	ErrConflict = errors.New("conflicting record")

	// ErrLocked indicates another process owns the data directory.
	ErrLocked = errors.New("data directory is locked by another process")

	// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
)
