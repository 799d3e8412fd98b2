package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	metrics "github.com/harborlight/daybook/pkg/workspace/core/metrics"
	logger "github.com/harborlight/daybook/pkg/workspace/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of the metrics.MetricRecorder interface.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	// Lock metrics
	lockWaitSeconds  *prometheus.HistogramVec
	lockAttempts     *prometheus.HistogramVec
	lockAcquisitions *prometheus.CounterVec

	// Document metrics
	documentReads  *prometheus.CounterVec
	documentWrites *prometheus.CounterVec
	migrations     *prometheus.CounterVec
	quarantines    *prometheus.CounterVec

	// Execution metrics
	claims          *prometheus.CounterVec
	operations      *prometheus.CounterVec
	durationSeconds *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a new instance of PrometheusRecorder.
func NewPrometheusRecorder() metrics.MetricRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		lockWaitSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "daybook_lock_wait_seconds",
			Help:    "Time spent waiting for the workspace lock.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		lockAttempts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "daybook_lock_attempts",
			Help:    "Acquisition attempts per workspace lock hold.",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}, []string{"outcome"}),
		lockAcquisitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "daybook_lock_acquisitions_total",
			Help: "Total workspace lock acquisition cycles by outcome.",
		}, []string{"outcome"}),
		documentReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "daybook_document_reads_total",
			Help: "Total collection document reads by outcome.",
		}, []string{"collection", "outcome"}),
		documentWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "daybook_document_writes_total",
			Help: "Total collection document writes by outcome.",
		}, []string{"collection", "outcome"}),
		migrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "daybook_document_migrations_total",
			Help: "Total document schema migrations by version pair.",
		}, []string{"collection", "from_version", "to_version"}),
		quarantines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "daybook_document_quarantines_total",
			Help: "Total unreadable documents quarantined.",
		}, []string{"collection"}),
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "daybook_execution_claims_total",
			Help: "Total execution claim attempts by outcome.",
		}, []string{"outcome"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "daybook_operations_total",
			Help: "Total executed workspace operations by kind and success.",
		}, []string{"kind", "success"}),
		durationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "daybook_step_duration_seconds",
			Help:    "Duration of named workspace steps.",
			Buckets: prometheus.DefBuckets,
		}, []string{"name"}),
	}

	// Register all metrics with the registry.
	registry.MustRegister(r.lockWaitSeconds)
	registry.MustRegister(r.lockAttempts)
	registry.MustRegister(r.lockAcquisitions)
	registry.MustRegister(r.documentReads)
	registry.MustRegister(r.documentWrites)
	registry.MustRegister(r.migrations)
	registry.MustRegister(r.quarantines)
	registry.MustRegister(r.claims)
	registry.MustRegister(r.operations)
	registry.MustRegister(r.durationSeconds)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// RecordLockAcquire records one lock acquisition cycle.
func (r *PrometheusRecorder) RecordLockAcquire(ctx context.Context, outcome string, wait time.Duration, attempts int) {
	r.lockAcquisitions.WithLabelValues(outcome).Inc()
	r.lockWaitSeconds.WithLabelValues(outcome).Observe(wait.Seconds())
	if attempts > 0 {
		r.lockAttempts.WithLabelValues(outcome).Observe(float64(attempts))
	}
}

// RecordDocumentRead records one collection document read.
func (r *PrometheusRecorder) RecordDocumentRead(ctx context.Context, collection string, outcome string) {
	r.documentReads.WithLabelValues(collection, outcome).Inc()
}

// RecordDocumentWrite records one collection document write.
func (r *PrometheusRecorder) RecordDocumentWrite(ctx context.Context, collection string, outcome string) {
	r.documentWrites.WithLabelValues(collection, outcome).Inc()
}

// RecordMigration records one completed document migration.
func (r *PrometheusRecorder) RecordMigration(ctx context.Context, collection string, fromVersion, toVersion int) {
	r.migrations.WithLabelValues(collection, strconv.Itoa(fromVersion), strconv.Itoa(toVersion)).Inc()
	logger.Debugf("Metrics: migrated '%s' from version %d to %d.", collection, fromVersion, toVersion)
}

// RecordQuarantine records one document quarantined as unreadable.
func (r *PrometheusRecorder) RecordQuarantine(ctx context.Context, collection string) {
	r.quarantines.WithLabelValues(collection).Inc()
	logger.Debugf("Metrics: quarantined a '%s' document.", collection)
}

// RecordClaim records one execution claim attempt.
func (r *PrometheusRecorder) RecordClaim(ctx context.Context, outcome string) {
	r.claims.WithLabelValues(outcome).Inc()
}

// RecordOperation records one executed workspace operation.
func (r *PrometheusRecorder) RecordOperation(ctx context.Context, kind string, success bool) {
	r.operations.WithLabelValues(kind, strconv.FormatBool(success)).Inc()
}

// RecordDuration records the execution time of a named step.
// Tags are not mapped to labels: their values (message IDs and the like) are
// unbounded and would blow up series cardinality.
func (r *PrometheusRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	r.durationSeconds.WithLabelValues(name).Observe(duration.Seconds())
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)
