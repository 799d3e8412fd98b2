package metrics

import (
	"context"

	metrics "github.com/harborlight/daybook/pkg/workspace/core/metrics"
	logger "github.com/harborlight/daybook/pkg/workspace/support/util/logger"
)

// LoggingTracer is an implementation of metrics.Tracer that writes span
// boundaries and events to the debug log. It stands in for a real tracing
// backend while keeping the spans visible during development.
type LoggingTracer struct{}

// NewLoggingTracer creates a new instance of LoggingTracer.
func NewLoggingTracer() metrics.Tracer {
	return &LoggingTracer{}
}

// StartSpan logs the start of a span and returns a function logging its end.
func (t *LoggingTracer) StartSpan(ctx context.Context, name string) (context.Context, func()) {
	logger.Debugf("Tracer: span '%s' started.", name)
	return ctx, func() {
		logger.Debugf("Tracer: span '%s' ended.", name)
	}
}

// RecordError logs an error against the current span.
func (t *LoggingTracer) RecordError(ctx context.Context, err error) {
	logger.Debugf("Tracer: error recorded: %v", err)
}

// RecordEvent logs a point-in-time event against the current span.
func (t *LoggingTracer) RecordEvent(ctx context.Context, name string) {
	logger.Debugf("Tracer: event '%s' recorded.", name)
}

var _ metrics.Tracer = (*LoggingTracer)(nil)
