package jsonfile

import (
	"context"
	"errors"

	"github.com/harborlight/daybook/pkg/workspace/core/domain/model"
	"github.com/harborlight/daybook/pkg/workspace/core/domain/repository"
	"github.com/harborlight/daybook/pkg/workspace/core/schema"
	"github.com/harborlight/daybook/pkg/workspace/support/util/exception"
)

// CreateTask persists a new task.
func (r *JSONFileRepository) CreateTask(ctx context.Context, task *model.Task) error {
	const op = "JSONFileRepository.CreateTask"
	_, err := r.store.Update(ctx, schema.CollectionTasks, func(_ context.Context, doc map[string]interface{}) (map[string]interface{}, error) {
		typed, err := decodeTasksDocument(doc)
		if err != nil {
			return nil, err
		}
		for i := range typed.Tasks {
			if typed.Tasks[i].ID == task.ID {
				return nil, exception.NewWorkspaceErrorf(moduleName, "%s: task %s already exists", op, task.ID)
			}
		}
		typed.Tasks = append(typed.Tasks, *task)
		return encodeTasksDocument(typed)
	})
	return err
}

// FindTaskByID retrieves a task by its ID.
func (r *JSONFileRepository) FindTaskByID(ctx context.Context, id string) (*model.Task, error) {
	doc, err := r.store.Read(ctx, schema.CollectionTasks)
	if err != nil {
		return nil, err
	}
	typed, err := decodeTasksDocument(doc)
	if err != nil {
		return nil, err
	}
	for i := range typed.Tasks {
		if typed.Tasks[i].ID == id {
			task := typed.Tasks[i]
			return &task, nil
		}
	}
	return nil, repository.ErrTaskNotFound
}

// ListTasks retrieves all tasks in the workspace.
func (r *JSONFileRepository) ListTasks(ctx context.Context) ([]model.Task, error) {
	doc, err := r.store.Read(ctx, schema.CollectionTasks)
	if err != nil {
		return nil, err
	}
	typed, err := decodeTasksDocument(doc)
	if err != nil {
		return nil, err
	}
	if typed.Tasks == nil {
		return []model.Task{}, nil
	}
	return typed.Tasks, nil
}

// MutateTask loads the task, applies fn, and persists the result within a
// single lock span. fn returning repository.ErrNoMutation skips the write.
func (r *JSONFileRepository) MutateTask(ctx context.Context, id string, fn func(*model.Task) error) (*model.Task, error) {
	var mutated *model.Task
	_, err := r.store.Update(ctx, schema.CollectionTasks, func(_ context.Context, doc map[string]interface{}) (map[string]interface{}, error) {
		typed, err := decodeTasksDocument(doc)
		if err != nil {
			return nil, err
		}
		idx := -1
		for i := range typed.Tasks {
			if typed.Tasks[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, repository.ErrTaskNotFound
		}

		task := typed.Tasks[idx]
		if err := fn(&task); err != nil {
			if errors.Is(err, repository.ErrNoMutation) {
				mutated = &task
				return nil, nil
			}
			return nil, err
		}
		typed.Tasks[idx] = task
		mutated = &task
		return encodeTasksDocument(typed)
	})
	if err != nil {
		return nil, err
	}
	return mutated, nil
}

// DeleteTask removes a task by its ID.
func (r *JSONFileRepository) DeleteTask(ctx context.Context, id string) error {
	_, err := r.store.Update(ctx, schema.CollectionTasks, func(_ context.Context, doc map[string]interface{}) (map[string]interface{}, error) {
		typed, err := decodeTasksDocument(doc)
		if err != nil {
			return nil, err
		}
		kept := make([]model.Task, 0, len(typed.Tasks))
		found := false
		for i := range typed.Tasks {
			if typed.Tasks[i].ID == id {
				found = true
				continue
			}
			kept = append(kept, typed.Tasks[i])
		}
		if !found {
			return nil, repository.ErrTaskNotFound
		}
		typed.Tasks = kept
		return encodeTasksDocument(typed)
	})
	return err
}
