// Package ports defines the abstract interfaces between the workspace core and
// its infrastructure implementations.
package ports

import "context"

// LockManager serializes workspace access across processes.
type LockManager interface {
	// WithLock runs fn while holding the cross-process workspace lock and
	// releases the lock afterwards. The context passed to fn carries the lock
	// handle: calling WithLock again with that context re-enters the held lock
	// instead of acquiring a new one, so locked code can call other locked code.
	//
	// Acquisition retries with backoff; when the retry budget is exhausted the
	// returned error is retryable (the workspace is busy). If the sentinel is
	// found missing or foreign at release time the returned error is fatal: the
	// lock was compromised and fn's effects may have raced another process.
	WithLock(ctx context.Context, fn func(ctx context.Context) error) error
}

// DocumentStore persists whole collection documents as generic maps.
// Implementations guard every call with the workspace lock, quarantine
// unreadable files, and migrate old schema versions on read.
type DocumentStore interface {
	// Read loads the named collection document, migrating it to the current
	// schema version if necessary. A missing or quarantined file yields the
	// collection's default document.
	Read(ctx context.Context, name string) (map[string]interface{}, error)

	// Write validates the document against the collection's current schema and
	// persists it atomically. Nothing is written if validation fails.
	Write(ctx context.Context, name string, doc map[string]interface{}) error

	// Update performs a read-mutate-validate-write cycle within a single lock
	// span and returns the persisted document. The context passed to mutator
	// carries the lock handle, so the mutator may perform nested reads. A nil
	// document returned by the mutator skips the write and returns the
	// document as read.
	Update(ctx context.Context, name string, mutator func(ctx context.Context, doc map[string]interface{}) (map[string]interface{}, error)) (map[string]interface{}, error)
}
