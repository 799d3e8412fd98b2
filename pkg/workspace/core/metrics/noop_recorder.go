package metrics

import (
	"context"
	"time"
)

// NoOpMetricRecorder is a MetricRecorder implementation that does nothing.
// It is used when metrics collection is disabled.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder creates a new instance of NoOpMetricRecorder.
func NewNoOpMetricRecorder() *NoOpMetricRecorder {
	return &NoOpMetricRecorder{}
}

var _ MetricRecorder = (*NoOpMetricRecorder)(nil)

// RecordLockAcquire does nothing.
func (r *NoOpMetricRecorder) RecordLockAcquire(ctx context.Context, outcome string, wait time.Duration, attempts int) {
}

// RecordDocumentRead does nothing.
func (r *NoOpMetricRecorder) RecordDocumentRead(ctx context.Context, collection string, outcome string) {
}

// RecordDocumentWrite does nothing.
func (r *NoOpMetricRecorder) RecordDocumentWrite(ctx context.Context, collection string, outcome string) {
}

// RecordMigration does nothing.
func (r *NoOpMetricRecorder) RecordMigration(ctx context.Context, collection string, fromVersion, toVersion int) {
}

// RecordQuarantine does nothing.
func (r *NoOpMetricRecorder) RecordQuarantine(ctx context.Context, collection string) {}

// RecordClaim does nothing.
func (r *NoOpMetricRecorder) RecordClaim(ctx context.Context, outcome string) {}

// RecordOperation does nothing.
func (r *NoOpMetricRecorder) RecordOperation(ctx context.Context, kind string, success bool) {}

// RecordDuration does nothing.
func (r *NoOpMetricRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
}
