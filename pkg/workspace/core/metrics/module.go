package metrics

import "go.uber.org/fx"

// Module provides the no-op metrics implementations to the Fx dependency
// graph. The application swaps in the Prometheus-backed recorder module when
// metrics collection is enabled.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(NewNoOpMetricRecorder, fx.As(new(MetricRecorder))),
		fx.Annotate(NewNoOpTracer, fx.As(new(Tracer))),
	),
)
