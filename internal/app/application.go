package app

import (
	"context"

	"go.uber.org/fx"

	usecase "github.com/harborlight/daybook/pkg/workspace/core/application/usecase"
	config "github.com/harborlight/daybook/pkg/workspace/core/config"
	model "github.com/harborlight/daybook/pkg/workspace/core/domain/model"
	repository "github.com/harborlight/daybook/pkg/workspace/core/domain/repository"
	coremetrics "github.com/harborlight/daybook/pkg/workspace/core/metrics"
	schema "github.com/harborlight/daybook/pkg/workspace/core/schema"
	docstore "github.com/harborlight/daybook/pkg/workspace/infrastructure/docstore"
	lock "github.com/harborlight/daybook/pkg/workspace/infrastructure/lock"
	inframetrics "github.com/harborlight/daybook/pkg/workspace/infrastructure/metrics"
	jsonfile "github.com/harborlight/daybook/pkg/workspace/infrastructure/repository/jsonfile"
	"github.com/harborlight/daybook/pkg/workspace/support/util/logger"
)

// RunApplication sets up and runs the workspace daemon using uber-fx.
func RunApplication(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig) {
	// Context setting and signal handling moved to main.go

	cfg, err := config.LoadConfig(embeddedConfig, envFilePath)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level based on loaded configuration
	logger.SetLogLevel(cfg.Daybook.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Daybook.System.Logging.Level)

	// The no-op recorder is the default; the Prometheus-backed module replaces
	// it when metrics collection is enabled.
	metricsModule := coremetrics.Module
	if cfg.Daybook.Metrics.Enabled {
		metricsModule = inframetrics.Module
	}

	app := fx.New(
		fx.Supply(
			embeddedConfig,
			fx.Annotate(envFilePath, fx.ResultTags(`name:"envFilePath"`)),
			cfg,
			fx.Annotate(
				appCtx,
				fx.As(new(context.Context)),
				fx.ResultTags(`name:"appCtx"`),
			),
		),

		logger.Module,
		config.Module,
		metricsModule,

		schema.Module,
		lock.Module,
		docstore.Module,
		jsonfile.Module,
		usecase.Module,

		// Start the main application logic
		fx.Invoke(fx.Annotate(startWorkspace, fx.ParamTags(
			"",              // lc fx.Lifecycle
			"",              // repo repository.WorkspaceRepository
			"",              // coordinator usecase.ExecutionCoordinator
			"",              // cfg *config.Config
			`name:"appCtx"`, // appCtx context.Context
		))),
	)

	// Execute the application
	app.Run()

	if app.Err() != nil {
		logger.Fatalf("Application run failed: %v", app.Err())
	}
}

// startWorkspace is invoked by Fx to open the workspace when the daemon starts.
func startWorkspace(
	lc fx.Lifecycle,
	repo repository.WorkspaceRepository,
	coordinator usecase.ExecutionCoordinator,
	cfg *config.Config,
	appCtx context.Context,
) {
	lc.Append(fx.Hook{
		OnStart: onStartWorkspace(repo, coordinator, cfg, appCtx),
		OnStop:  onStopWorkspace(repo),
	})
}

// onStartWorkspace is an Fx Hook helper function that opens the workspace on
// startup. It reads every collection once, which settles any pending schema
// migrations and quarantines unreadable files, and returns interrupted
// executions to pending so their proposals can be confirmed again.
func onStartWorkspace(
	repo repository.WorkspaceRepository,
	coordinator usecase.ExecutionCoordinator,
	cfg *config.Config,
	appCtx context.Context,
) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		tasks, err := repo.ListTasks(appCtx)
		if err != nil {
			return err
		}
		entries, err := repo.ListEntries(appCtx)
		if err != nil {
			return err
		}
		messages, err := repo.ListMessages(appCtx)
		if err != nil {
			return err
		}

		for _, msg := range messages {
			if msg.ExecutionStatus != model.ExecutionStatusExecuting {
				continue
			}
			logger.Warnf("Message %s was left mid-execution by a previous run; resetting it.", msg.ID)
			if err := coordinator.Reset(appCtx, msg.ID, "execution was interrupted by a process restart"); err != nil {
				logger.Errorf("Failed to reset interrupted message %s: %v", msg.ID, err)
			}
		}

		logger.Infof("Workspace opened at '%s': %d tasks, %d journal entries, %d chat messages.",
			cfg.Daybook.Workspace.DataDir, len(tasks), len(entries), len(messages))
		return nil
	}
}

// onStopWorkspace is an Fx Hook helper function that closes the repository on shutdown.
func onStopWorkspace(repo repository.WorkspaceRepository) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		logger.Infof("Application is shutting down.")
		return repo.Close(ctx)
	}
}
