package jsonfile

import (
	"go.uber.org/fx"

	"github.com/harborlight/daybook/pkg/workspace/core/domain/repository"
)

// Module provides the JSON file workspace repository to the Fx dependency graph.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(NewJSONFileRepository, fx.As(new(repository.WorkspaceRepository))),
	),
)
