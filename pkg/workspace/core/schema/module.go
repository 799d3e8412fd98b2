package schema

import "go.uber.org/fx"

// Module provides the workspace schema registry to the Fx dependency graph.
var Module = fx.Options(
	fx.Provide(
		NewWorkspaceRegistry,
	),
)
