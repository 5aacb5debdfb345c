package domain

import (
	"context"
	"errors"
	"time"
)

// ErrLockTimeout is returned when a mutual-exclusion lock could not be
// acquired within its bounded wait.
var ErrLockTimeout = errors.New("lock wait timed out")

// KVStore defines the shared key-value store used for rate counters.
// This abstracts away the specific implementation (e.g. Redis, in-memory).
type KVStore interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes the value for key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error
}

// Locker provides named mutual-exclusion locks with a bounded wait.
type Locker interface {
	// Acquire blocks until the named lock is held or wait elapses.
	// On success it returns a release function that must be called on
	// every exit path. On timeout it returns ErrLockTimeout.
	Acquire(ctx context.Context, name string, wait time.Duration) (release func(), err error)
}

// SubmissionStore defines the append-only tabular store for submissions.
// Implementations must create the destination table (with its header) lazily
// on first write and serialize concurrent writers.
type SubmissionStore interface {
	AppendRow(ctx context.Context, row StoredRow) error
}
