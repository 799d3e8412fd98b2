package repository

import (
	"context"
	"errors"

	"github.com/harborlight/daybook/pkg/workspace/core/domain/model"
	"github.com/harborlight/daybook/pkg/workspace/support/util/exception"
)

// ErrTaskNotFound indicates that no task with the requested ID exists.
var ErrTaskNotFound = errors.New("task not found")

// TaskRepository manages the persistence of tasks.
type TaskRepository interface {
	// CreateTask persists a new task.
	// ctx: Context for cancellation.
	// task: The task to persist.
	// Returns: An error if persistence fails.
	CreateTask(ctx context.Context, task *model.Task) error

	// FindTaskByID retrieves a task by its ID.
	// Returns ErrTaskNotFound if no matching task exists.
	FindTaskByID(ctx context.Context, id string) (*model.Task, error)

	// ListTasks retrieves all tasks in the workspace.
	ListTasks(ctx context.Context) ([]model.Task, error)

	// MutateTask loads the task, applies fn to it, and persists the result,
	// all within a single workspace lock span. If fn returns ErrNoMutation the
	// task is returned unchanged and nothing is written; any other error from
	// fn aborts the mutation.
	// Returns ErrTaskNotFound if no matching task exists.
	MutateTask(ctx context.Context, id string, fn func(*model.Task) error) (*model.Task, error)

	// DeleteTask removes a task by its ID.
	// Returns ErrTaskNotFound if no matching task exists.
	DeleteTask(ctx context.Context, id string) error
}

func init() {
	exception.RegisterErrorType("ErrTaskNotFound", ErrTaskNotFound)
}
