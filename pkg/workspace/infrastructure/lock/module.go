package lock

import (
	"go.uber.org/fx"

	"github.com/harborlight/daybook/pkg/workspace/core/ports"
)

// Module provides the sentinel-file lock manager to the Fx dependency graph.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(NewManager, fx.As(new(ports.LockManager))),
	),
)
