package metrics

import "context"

// Tracer is an abstract interface for tracing workspace operations.
// It allows the core logic to remain independent of specific tracing backends.
type Tracer interface {
	// StartSpan starts a new span with the given name and returns the derived
	// context together with a function that ends the span.
	StartSpan(ctx context.Context, name string) (context.Context, func())

	// RecordError records an error on the current span.
	RecordError(ctx context.Context, err error)

	// RecordEvent records a point-in-time event on the current span.
	RecordEvent(ctx context.Context, name string)
}

// NoOpTracer is a Tracer implementation that does nothing.
type NoOpTracer struct{}

// NewNoOpTracer creates a new instance of NoOpTracer.
func NewNoOpTracer() *NoOpTracer {
	return &NoOpTracer{}
}

var _ Tracer = (*NoOpTracer)(nil)

// StartSpan returns the context unchanged and a no-op end function.
func (t *NoOpTracer) StartSpan(ctx context.Context, name string) (context.Context, func()) {
	return ctx, func() {}
}

// RecordError does nothing.
func (t *NoOpTracer) RecordError(ctx context.Context, err error) {}

// RecordEvent does nothing.
func (t *NoOpTracer) RecordEvent(ctx context.Context, name string) {}
