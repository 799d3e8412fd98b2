// Package metrics defines the metrics collection abstractions of the
// workspace. Implementations live under infrastructure; a no-op implementation
// is provided for when metrics collection is disabled.
package metrics

import (
	"context"
	"time"
)

// Outcome label values shared by the recorder methods.
const (
	// OutcomeSuccess indicates the recorded operation succeeded.
	OutcomeSuccess = "success"
	// OutcomeFailure indicates the recorded operation failed.
	OutcomeFailure = "failure"
	// OutcomeBusy indicates lock acquisition exhausted its retry budget.
	OutcomeBusy = "busy"
	// OutcomeCompromised indicates the lock sentinel was found missing or foreign at release.
	OutcomeCompromised = "compromised"
	// OutcomeReentrant indicates the lock was re-entered within an existing hold.
	OutcomeReentrant = "reentrant"
	// OutcomeQuarantined indicates an unreadable document was quarantined.
	OutcomeQuarantined = "quarantined"
	// OutcomeCached indicates a claim returned previously recorded results.
	OutcomeCached = "cached"
	// OutcomeConflict indicates a claim lost to a concurrent executor.
	OutcomeConflict = "conflict"
	// OutcomeClaimed indicates a claim won and execution may proceed.
	OutcomeClaimed = "claimed"
)

// MetricRecorder is an abstract interface for recording workspace metrics.
// This interface allows the core logic to remain independent of specific
// monitoring backends (e.g., Prometheus).
type MetricRecorder interface {
	// RecordLockAcquire records one lock acquisition attempt cycle.
	// outcome: One of OutcomeSuccess, OutcomeBusy, OutcomeCompromised, OutcomeReentrant.
	// wait: The total time spent waiting for the lock.
	// attempts: The number of acquisition attempts made.
	RecordLockAcquire(ctx context.Context, outcome string, wait time.Duration, attempts int)

	// RecordDocumentRead records one collection document read.
	// collection: The collection name.
	// outcome: One of OutcomeSuccess, OutcomeFailure, OutcomeQuarantined.
	RecordDocumentRead(ctx context.Context, collection string, outcome string)

	// RecordDocumentWrite records one collection document write.
	// collection: The collection name.
	// outcome: One of OutcomeSuccess, OutcomeFailure.
	RecordDocumentWrite(ctx context.Context, collection string, outcome string)

	// RecordMigration records one completed document migration.
	// collection: The collection name.
	// fromVersion: The stored schema version before migration.
	// toVersion: The schema version after migration.
	RecordMigration(ctx context.Context, collection string, fromVersion, toVersion int)

	// RecordQuarantine records one document quarantined as unreadable.
	// collection: The collection name.
	RecordQuarantine(ctx context.Context, collection string)

	// RecordClaim records one execution claim attempt.
	// outcome: One of OutcomeClaimed, OutcomeCached, OutcomeConflict, OutcomeFailure.
	RecordClaim(ctx context.Context, outcome string)

	// RecordOperation records one executed workspace operation.
	// kind: The operation kind.
	// success: Whether the operation succeeded.
	RecordOperation(ctx context.Context, kind string, success bool)

	// RecordDuration records the duration of a named step with optional tags.
	RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string)
}
