package docstore

import (
	"go.uber.org/fx"

	"github.com/harborlight/daybook/pkg/workspace/core/ports"
)

// Module provides the JSON file document store to the Fx dependency graph.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(NewStore, fx.As(new(ports.DocumentStore))),
	),
)
