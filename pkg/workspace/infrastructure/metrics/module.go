package metrics

import (
	"go.uber.org/fx"

	metrics "github.com/harborlight/daybook/pkg/workspace/core/metrics"
)

// Module is an Fx module that provides the Prometheus-backed recorder and the
// logging tracer. The application includes either this module or the core
// no-op module, depending on whether metrics collection is enabled.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewPrometheusRecorder,
		fx.As(new(metrics.MetricRecorder)),
	)),
	fx.Provide(fx.Annotate(
		NewLoggingTracer,
		fx.As(new(metrics.Tracer)),
	)),
)
