package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harborlight/daybook/pkg/workspace/core/domain/model"
	"github.com/harborlight/daybook/pkg/workspace/core/domain/repository"
	"github.com/harborlight/daybook/pkg/workspace/core/metrics"
	"github.com/harborlight/daybook/pkg/workspace/support/util/configbinder"
	"github.com/harborlight/daybook/pkg/workspace/support/util/exception"
	"github.com/harborlight/daybook/pkg/workspace/support/util/logger"
)

// DefaultOperationExecutor is the default implementation of OperationExecutor.
type DefaultOperationExecutor struct {
	repo     repository.WorkspaceRepository
	recorder metrics.MetricRecorder
}

var _ OperationExecutor = (*DefaultOperationExecutor)(nil)

// NewDefaultOperationExecutor creates a new DefaultOperationExecutor.
// repo: The workspace repository the operations are applied to.
// recorder: The metric recorder for per-operation metrics.
func NewDefaultOperationExecutor(repo repository.WorkspaceRepository, recorder metrics.MetricRecorder) *DefaultOperationExecutor {
	return &DefaultOperationExecutor{
		repo:     repo,
		recorder: recorder,
	}
}

// ExecuteBatch runs the operations in order, stopping at the first failure.
// Placeholder IDs minted by create_task operations are tracked across the
// batch so later operations can reference tasks created earlier in it.
func (e *DefaultOperationExecutor) ExecuteBatch(ctx context.Context, operations []model.Operation, defaultDate string) (*model.ExecutionSummary, error) {
	if defaultDate == "" {
		defaultDate = model.Today(nil)
	} else if !model.IsValidDate(defaultDate) {
		return nil, exception.NewWorkspaceErrorf(moduleName, "default date %q is not a valid calendar date", defaultDate)
	}

	tempIDs := make(map[string]string)
	results := make([]model.OperationResult, 0, len(operations))

	for i, op := range operations {
		result, err := e.executeOne(ctx, op, defaultDate, tempIDs)
		if err != nil {
			// The workspace itself failed before this operation could produce
			// an outcome; the batch has no trustworthy result to record.
			return nil, err
		}
		e.recorder.RecordOperation(ctx, string(op.Kind), result.Success)
		results = append(results, result)
		if !result.Success {
			logger.Warnf("Operation %d/%d (%s) failed: %s. Skipping the remaining operations.",
				i+1, len(operations), op.Kind, result.Error)
			break
		}
	}
	return model.NewExecutionSummary(results), nil
}

// executeOne dispatches a single operation to its handler. Every executable
// kind is matched here; an unknown kind fails the operation rather than the
// batch, so documents written by newer builds degrade to a readable failure.
func (e *DefaultOperationExecutor) executeOne(ctx context.Context, op model.Operation, defaultDate string, tempIDs map[string]string) (model.OperationResult, error) {
	start := time.Now()
	defer e.recordTiming(ctx, op.Kind, start)

	switch op.Kind {
	case model.OperationKindCreateTask:
		return e.executeCreateTask(ctx, op, tempIDs)
	case model.OperationKindUpdateTask:
		return e.executeUpdateTask(ctx, op, tempIDs)
	case model.OperationKindCompleteTask:
		return e.executeCompleteTask(ctx, op, tempIDs)
	case model.OperationKindDeleteTask:
		return e.executeDeleteTask(ctx, op, tempIDs)
	case model.OperationKindUpsertJournal:
		return e.executeUpsertJournal(ctx, op, defaultDate)
	case model.OperationKindPatchJournal:
		return e.executePatchJournal(ctx, op, defaultDate)
	default:
		return model.NewFailureResult(op, fmt.Errorf("unknown operation kind %q", op.Kind)), nil
	}
}

// executeCreateTask creates a new task and, when the payload carries a
// placeholder ID, maps it to the real ID for the rest of the batch.
func (e *DefaultOperationExecutor) executeCreateTask(ctx context.Context, op model.Operation, tempIDs map[string]string) (model.OperationResult, error) {
	var data model.CreateTaskData
	if err := configbinder.BindProperties(op.Data, &data); err != nil {
		return model.NewFailureResult(op, err), nil
	}
	if data.Title == "" {
		return model.NewFailureResult(op, fmt.Errorf("create_task requires a title")), nil
	}
	if err := validateDueFields(data.DueDate, data.DueTime); err != nil {
		return model.NewFailureResult(op, err), nil
	}

	task := model.NewTask(data.Title)
	task.Notes = data.Notes
	task.DueDate = data.DueDate
	task.DueTime = data.DueTime

	if err := e.repo.CreateTask(ctx, task); err != nil {
		return e.classifyFailure(op, err)
	}
	if data.TempID != "" {
		tempIDs[data.TempID] = task.ID
		logger.Debugf("Mapped placeholder '%s' to task %s.", data.TempID, task.ID)
	}
	return model.NewSuccessResult(op, task.ID), nil
}

// executeUpdateTask patches the non-empty payload fields onto an existing task.
func (e *DefaultOperationExecutor) executeUpdateTask(ctx context.Context, op model.Operation, tempIDs map[string]string) (model.OperationResult, error) {
	var data model.UpdateTaskData
	if err := configbinder.BindProperties(op.Data, &data); err != nil {
		return model.NewFailureResult(op, err), nil
	}
	if data.ID == "" {
		return model.NewFailureResult(op, fmt.Errorf("update_task requires an id")), nil
	}
	if data.Status != "" && !model.IsValidTaskStatus(data.Status) {
		return model.NewFailureResult(op, fmt.Errorf("invalid task status %q", data.Status)), nil
	}
	if data.DueDate != "" && !model.IsValidDate(data.DueDate) {
		return model.NewFailureResult(op, fmt.Errorf("malformed dueDate %q", data.DueDate)), nil
	}
	if data.DueTime != "" && !model.IsValidTimeOfDay(data.DueTime) {
		return model.NewFailureResult(op, fmt.Errorf("malformed dueTime %q", data.DueTime)), nil
	}

	id := resolveTaskID(data.ID, tempIDs)
	task, err := e.repo.MutateTask(ctx, id, func(t *model.Task) error {
		if data.Title != "" {
			t.Title = data.Title
		}
		if data.Notes != "" {
			t.Notes = data.Notes
		}
		if data.DueDate != "" {
			t.DueDate = data.DueDate
		}
		if data.DueTime != "" {
			t.DueTime = data.DueTime
		}
		switch model.TaskStatus(data.Status) {
		case model.TaskStatusDone:
			t.MarkAsCompleted()
		case model.TaskStatusOpen:
			t.Reopen()
		default:
			t.Touch()
		}
		return nil
	})
	if err != nil {
		return e.classifyFailure(op, err)
	}
	return model.NewSuccessResult(op, task.ID), nil
}

// executeCompleteTask marks an existing task as done. Completing an
// already-done task succeeds without changing its completion time.
func (e *DefaultOperationExecutor) executeCompleteTask(ctx context.Context, op model.Operation, tempIDs map[string]string) (model.OperationResult, error) {
	var data model.CompleteTaskData
	if err := configbinder.BindProperties(op.Data, &data); err != nil {
		return model.NewFailureResult(op, err), nil
	}
	if data.ID == "" {
		return model.NewFailureResult(op, fmt.Errorf("complete_task requires an id")), nil
	}

	id := resolveTaskID(data.ID, tempIDs)
	task, err := e.repo.MutateTask(ctx, id, func(t *model.Task) error {
		t.MarkAsCompleted()
		return nil
	})
	if err != nil {
		return e.classifyFailure(op, err)
	}
	return model.NewSuccessResult(op, task.ID), nil
}

// executeDeleteTask removes an existing task.
func (e *DefaultOperationExecutor) executeDeleteTask(ctx context.Context, op model.Operation, tempIDs map[string]string) (model.OperationResult, error) {
	var data model.DeleteTaskData
	if err := configbinder.BindProperties(op.Data, &data); err != nil {
		return model.NewFailureResult(op, err), nil
	}
	if data.ID == "" {
		return model.NewFailureResult(op, fmt.Errorf("delete_task requires an id")), nil
	}

	id := resolveTaskID(data.ID, tempIDs)
	if err := e.repo.DeleteTask(ctx, id); err != nil {
		return e.classifyFailure(op, err)
	}
	return model.NewSuccessResult(op, id), nil
}

// executeUpsertJournal creates or wholesale-replaces the journal entry for the
// payload's date, defaulting to the batch's default date when absent.
// The entry's date serves as the entity ID in the result.
func (e *DefaultOperationExecutor) executeUpsertJournal(ctx context.Context, op model.Operation, defaultDate string) (model.OperationResult, error) {
	var data model.UpsertJournalData
	if err := configbinder.BindProperties(op.Data, &data); err != nil {
		return model.NewFailureResult(op, err), nil
	}
	date, err := resolveJournalDate(data.Date, defaultDate)
	if err != nil {
		return model.NewFailureResult(op, err), nil
	}

	entry := model.NewJournalEntry(date, data.Content, data.Mood)
	if err := e.repo.UpsertEntry(ctx, entry); err != nil {
		return e.classifyFailure(op, err)
	}
	return model.NewSuccessResult(op, date), nil
}

// executePatchJournal merges the payload fields into the existing journal
// entry for the date, defaulting to the batch's default date when absent.
func (e *DefaultOperationExecutor) executePatchJournal(ctx context.Context, op model.Operation, defaultDate string) (model.OperationResult, error) {
	var data model.PatchJournalData
	if err := configbinder.BindProperties(op.Data, &data); err != nil {
		return model.NewFailureResult(op, err), nil
	}
	if data.Content == "" && data.Mood == "" {
		return model.NewFailureResult(op, fmt.Errorf("patch_journal requires content or mood")), nil
	}
	date, err := resolveJournalDate(data.Date, defaultDate)
	if err != nil {
		return model.NewFailureResult(op, err), nil
	}

	entry, err := e.repo.PatchEntry(ctx, date, data.Content, data.Mood)
	if err != nil {
		return e.classifyFailure(op, err)
	}
	return model.NewSuccessResult(op, entry.Date), nil
}

// classifyFailure decides whether a repository error fails this one operation
// or aborts the whole batch. Lock and version-skew failures mean the workspace
// itself is unusable and nothing further should be attempted; everything else
// (not found, validation, domain conflicts) is the outcome of this operation.
func (e *DefaultOperationExecutor) classifyFailure(op model.Operation, err error) (model.OperationResult, error) {
	if exception.IsLockUnavailable(err) || exception.IsLockCompromised(err) || exception.IsUnsupportedFutureVersion(err) {
		return model.OperationResult{}, err
	}
	return model.NewFailureResult(op, err), nil
}

// resolveTaskID maps a placeholder reference minted by an earlier create_task
// in the same batch to the real ID it produced. References that are neither a
// known placeholder nor shaped like a real ID are passed through with a
// warning; the repository lookup then reports them as not found.
func resolveTaskID(ref string, tempIDs map[string]string) string {
	if real, ok := tempIDs[ref]; ok {
		logger.Debugf("Resolved placeholder '%s' to task %s.", ref, real)
		return real
	}
	if _, err := uuid.Parse(ref); err != nil {
		logger.Warnf("Task reference '%s' is neither a known placeholder nor a task ID; passing it through.", ref)
	}
	return ref
}

// validateDueFields checks the shape of a task's due date and time. A due
// time without a due date is rejected because it cannot be scheduled.
func validateDueFields(dueDate, dueTime string) error {
	if dueDate != "" && !model.IsValidDate(dueDate) {
		return fmt.Errorf("malformed dueDate %q", dueDate)
	}
	if dueTime != "" && !model.IsValidTimeOfDay(dueTime) {
		return fmt.Errorf("malformed dueTime %q", dueTime)
	}
	if dueTime != "" && dueDate == "" {
		return fmt.Errorf("dueTime requires a dueDate")
	}
	return nil
}

// resolveJournalDate picks the operation's date, falling back to the batch
// default, and checks its form.
func resolveJournalDate(date, defaultDate string) (string, error) {
	if date == "" {
		logger.Debugf("Journal operation has no date; defaulting to %s.", defaultDate)
		return defaultDate, nil
	}
	if !model.IsValidDate(date) {
		return "", fmt.Errorf("malformed journal date %q", date)
	}
	return date, nil
}

// recordTiming records how long a single operation took.
func (e *DefaultOperationExecutor) recordTiming(ctx context.Context, kind model.OperationKind, start time.Time) {
	e.recorder.RecordDuration(ctx, "operation", time.Since(start), map[string]string{"kind": string(kind)})
}
