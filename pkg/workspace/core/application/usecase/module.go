package usecase

import "go.uber.org/fx"

// Module provides the application usecases to the Fx dependency graph.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(NewDefaultOperationExecutor, fx.As(new(OperationExecutor))),
		fx.Annotate(NewDefaultExecutionCoordinator, fx.As(new(ExecutionCoordinator))),
	),
)
