package model

import "github.com/harborlight/daybook/pkg/workspace/support/util/exception"

// OperationKind identifies the type of a proposed workspace operation.
type OperationKind string

const (
	// OperationKindCreateTask creates a new task.
	OperationKindCreateTask OperationKind = "create_task"
	// OperationKindUpdateTask patches fields of an existing task.
	OperationKindUpdateTask OperationKind = "update_task"
	// OperationKindCompleteTask marks an existing task as done.
	OperationKindCompleteTask OperationKind = "complete_task"
	// OperationKindDeleteTask removes an existing task.
	OperationKindDeleteTask OperationKind = "delete_task"
	// OperationKindUpsertJournal creates or wholesale-replaces the journal entry for a date.
	OperationKindUpsertJournal OperationKind = "upsert_journal"
	// OperationKindPatchJournal merges fields into the journal entry for a date.
	OperationKindPatchJournal OperationKind = "patch_journal"

	// OperationKindReset is not an executable operation; it appears only in
	// execution results as the synthetic failure attached when an interrupted
	// execution is reset.
	OperationKindReset OperationKind = "reset"
)

// IsValidOperationKind reports whether kind names an executable operation.
func IsValidOperationKind(kind OperationKind) bool {
	switch kind {
	case OperationKindCreateTask, OperationKindUpdateTask, OperationKindCompleteTask,
		OperationKindDeleteTask, OperationKindUpsertJournal, OperationKindPatchJournal:
		return true
	}
	return false
}

// Operation is one proposed mutation of the workspace. Kind selects the payload
// schema carried in Data; Data stays a generic map because operations arrive
// from and are persisted as plain JSON.
type Operation struct {
	Kind        OperationKind          `json:"op"`
	Description string                 `json:"description,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// CreateTaskData is the payload for OperationKindCreateTask.
// TempID is a placeholder identifier (e.g., "t1") that later operations in the
// same batch may use to reference the task before its real ID exists.
type CreateTaskData struct {
	TempID  string `yaml:"tempId"`
	Title   string `yaml:"title"`
	Notes   string `yaml:"notes"`
	DueDate string `yaml:"dueDate"`
	DueTime string `yaml:"dueTime"`
}

// UpdateTaskData is the payload for OperationKindUpdateTask. Empty fields are
// left untouched on the task.
type UpdateTaskData struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title"`
	Notes   string `yaml:"notes"`
	Status  string `yaml:"status"`
	DueDate string `yaml:"dueDate"`
	DueTime string `yaml:"dueTime"`
}

// CompleteTaskData is the payload for OperationKindCompleteTask.
type CompleteTaskData struct {
	ID string `yaml:"id"`
}

// DeleteTaskData is the payload for OperationKindDeleteTask.
type DeleteTaskData struct {
	ID string `yaml:"id"`
}

// UpsertJournalData is the payload for OperationKindUpsertJournal. Date may be
// empty, in which case the executor fills in its default date.
type UpsertJournalData struct {
	Date    string `yaml:"date"`
	Content string `yaml:"content"`
	Mood    string `yaml:"mood"`
}

// PatchJournalData is the payload for OperationKindPatchJournal. Date may be
// empty, in which case the executor fills in its default date.
type PatchJournalData struct {
	Date    string `yaml:"date"`
	Content string `yaml:"content"`
	Mood    string `yaml:"mood"`
}

// OperationResult is the uniform per-operation outcome record. Every executed
// operation produces exactly one, success or failure.
type OperationResult struct {
	Kind        OperationKind `json:"op"`
	Description string        `json:"description,omitempty"`
	Success     bool          `json:"success"`
	Error       string        `json:"error,omitempty"`
	EntityID    string        `json:"entityId,omitempty"`
}

// NewSuccessResult builds the result record for a successfully executed operation.
// op: The executed operation.
// entityID: The ID of the entity the operation touched. May be empty for journal operations keyed by date.
func NewSuccessResult(op Operation, entityID string) OperationResult {
	return OperationResult{
		Kind:        op.Kind,
		Description: op.Description,
		Success:     true,
		EntityID:    entityID,
	}
}

// NewFailureResult builds the result record for a failed operation.
// op: The operation that failed.
// failure: The error describing the failure.
func NewFailureResult(op Operation, failure error) OperationResult {
	return OperationResult{
		Kind:        op.Kind,
		Description: op.Description,
		Success:     false,
		Error:       exception.ExtractErrorMessage(failure),
	}
}

// ExecutionSummary aggregates the results of one operation batch.
type ExecutionSummary struct {
	Results      []OperationResult `json:"results"`
	AllSucceeded bool              `json:"allSucceeded"`
}

// NewExecutionSummary builds a summary from per-operation results.
// AllSucceeded is true only when every result succeeded.
func NewExecutionSummary(results []OperationResult) *ExecutionSummary {
	all := true
	for _, r := range results {
		if !r.Success {
			all = false
			break
		}
	}
	return &ExecutionSummary{Results: results, AllSucceeded: all}
}
