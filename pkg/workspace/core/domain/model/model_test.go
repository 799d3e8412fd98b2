package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	model "github.com/harborlight/daybook/pkg/workspace/core/domain/model"
)

// Helper function to create a proposal message in a given execution state
func newTestProposal(status model.ExecutionStatus) *model.ChatMessage {
	msg := model.NewProposalMessage("proposed changes", []model.Operation{
		{Kind: model.OperationKindCreateTask, Data: map[string]interface{}{"title": "X"}},
	})
	msg.ExecutionStatus = status
	return msg
}

func TestChatMessage_TransitionTo(t *testing.T) {
	// Test valid transitions
	msg := newTestProposal(model.ExecutionStatusPending)
	assert.NoError(t, msg.TransitionTo(model.ExecutionStatusExecuting))
	assert.Equal(t, model.ExecutionStatusExecuting, msg.ExecutionStatus)

	// EXECUTING -> EXECUTED (Normal completion)
	msg = newTestProposal(model.ExecutionStatusExecuting)
	assert.NoError(t, msg.TransitionTo(model.ExecutionStatusExecuted))
	assert.Equal(t, model.ExecutionStatusExecuted, msg.ExecutionStatus)

	// EXECUTING -> PENDING (Reset after interruption)
	msg = newTestProposal(model.ExecutionStatusExecuting)
	assert.NoError(t, msg.TransitionTo(model.ExecutionStatusPending))
	assert.Equal(t, model.ExecutionStatusPending, msg.ExecutionStatus)

	// --- Invalid Transitions ---

	// PENDING -> EXECUTED (Must claim first)
	msg = newTestProposal(model.ExecutionStatusPending)
	err := msg.TransitionTo(model.ExecutionStatusExecuted)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid execution status transition")

	// PENDING -> PENDING (Self-transition is invalid; a losing claimant must see an error)
	msg = newTestProposal(model.ExecutionStatusPending)
	assert.Error(t, msg.TransitionTo(model.ExecutionStatusPending))

	// EXECUTED -> EXECUTING (Executed is terminal)
	msg = newTestProposal(model.ExecutionStatusExecuted)
	assert.Error(t, msg.TransitionTo(model.ExecutionStatusExecuting))

	// EXECUTED -> PENDING (Executed is terminal)
	msg = newTestProposal(model.ExecutionStatusExecuted)
	assert.Error(t, msg.TransitionTo(model.ExecutionStatusPending))
}

func TestChatMessage_MarkAsExecuted(t *testing.T) {
	msg := newTestProposal(model.ExecutionStatusExecuting)
	results := []model.OperationResult{
		{Kind: model.OperationKindCreateTask, Success: true, EntityID: "abc"},
	}

	assert.NoError(t, msg.MarkAsExecuted(results, true))
	assert.Equal(t, model.ExecutionStatusExecuted, msg.ExecutionStatus)
	assert.Equal(t, results, msg.ExecutionResults)
	assert.True(t, msg.ExecutionSucceeded)

	// Marking a pending message as executed is invalid and records nothing.
	pending := newTestProposal(model.ExecutionStatusPending)
	assert.Error(t, pending.MarkAsExecuted(results, true))
	assert.Empty(t, pending.ExecutionResults)
}

func TestChatMessage_ResetExecution(t *testing.T) {
	msg := newTestProposal(model.ExecutionStatusExecuting)

	assert.NoError(t, msg.ResetExecution("process crashed"))
	assert.Equal(t, model.ExecutionStatusPending, msg.ExecutionStatus)
	assert.False(t, msg.ExecutionSucceeded)

	// A synthetic failed result explains the interruption.
	assert.Len(t, msg.ExecutionResults, 1)
	synthetic := msg.ExecutionResults[0]
	assert.Equal(t, model.OperationKindReset, synthetic.Kind)
	assert.False(t, synthetic.Success)
	assert.Equal(t, "process crashed", synthetic.Error)

	// Resetting a message that is not executing is invalid.
	executed := newTestProposal(model.ExecutionStatusExecuted)
	assert.Error(t, executed.ResetExecution("late reset"))
	assert.Equal(t, model.ExecutionStatusExecuted, executed.ExecutionStatus)
}

func TestNewProposalMessage(t *testing.T) {
	ops := []model.Operation{{Kind: model.OperationKindUpsertJournal}}
	msg := model.NewProposalMessage("plan for today", ops)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, model.MessageRoleAssistant, msg.Role)
	assert.True(t, msg.IsProposal())
	assert.True(t, msg.HasOperations())
	assert.Equal(t, model.ExecutionStatusPending, msg.ExecutionStatus)

	text := model.NewUserMessage("hello")
	assert.False(t, text.IsProposal())
	assert.False(t, text.HasOperations())
	assert.Equal(t, model.ExecutionStatus(""), text.ExecutionStatus)
}

func TestTask_MarkAsCompleted(t *testing.T) {
	task := model.NewTask("Water the plants")
	assert.Equal(t, model.TaskStatusOpen, task.Status)
	assert.Nil(t, task.CompletedAt)

	task.MarkAsCompleted()
	assert.Equal(t, model.TaskStatusDone, task.Status)
	assert.NotNil(t, task.CompletedAt)
	firstCompletion := *task.CompletedAt

	// Completing again keeps the original completion time.
	time.Sleep(5 * time.Millisecond)
	task.MarkAsCompleted()
	assert.True(t, firstCompletion.Equal(*task.CompletedAt))

	task.Reopen()
	assert.Equal(t, model.TaskStatusOpen, task.Status)
	assert.Nil(t, task.CompletedAt)
}

func TestJournalEntry_ApplyPatch(t *testing.T) {
	entry := model.NewJournalEntry("2026-03-01", "Went hiking", "happy")

	// Patch only content; mood is preserved.
	entry.ApplyPatch("Went hiking in the rain", "")
	assert.Equal(t, "Went hiking in the rain", entry.Content)
	assert.Equal(t, "happy", entry.Mood)

	// Patch only mood; content is preserved.
	entry.ApplyPatch("", "tired")
	assert.Equal(t, "Went hiking in the rain", entry.Content)
	assert.Equal(t, "tired", entry.Mood)

	// Replace overwrites wholesale, clearing the mood.
	entry.Replace("Short note", "")
	assert.Equal(t, "Short note", entry.Content)
	assert.Equal(t, "", entry.Mood)
}

func TestNewExecutionSummary(t *testing.T) {
	allGood := model.NewExecutionSummary([]model.OperationResult{
		{Kind: model.OperationKindCreateTask, Success: true},
		{Kind: model.OperationKindUpsertJournal, Success: true},
	})
	assert.True(t, allGood.AllSucceeded)

	oneFailed := model.NewExecutionSummary([]model.OperationResult{
		{Kind: model.OperationKindCreateTask, Success: true},
		{Kind: model.OperationKindUpdateTask, Success: false, Error: "task not found"},
	})
	assert.False(t, oneFailed.AllSucceeded)
	assert.Len(t, oneFailed.Results, 2)

	empty := model.NewExecutionSummary(nil)
	assert.True(t, empty.AllSucceeded)
}

func TestIsValidOperationKind(t *testing.T) {
	valid := []model.OperationKind{
		model.OperationKindCreateTask,
		model.OperationKindUpdateTask,
		model.OperationKindCompleteTask,
		model.OperationKindDeleteTask,
		model.OperationKindUpsertJournal,
		model.OperationKindPatchJournal,
	}
	for _, kind := range valid {
		assert.True(t, model.IsValidOperationKind(kind), "kind %s should be executable", kind)
	}

	// The synthetic reset marker appears in results but is never executable.
	assert.False(t, model.IsValidOperationKind(model.OperationKindReset))
	assert.False(t, model.IsValidOperationKind("archive_task"))
}

func TestDateHelpers(t *testing.T) {
	assert.True(t, model.IsValidDate("2026-02-28"))
	assert.False(t, model.IsValidDate("2026-2-28"))
	assert.False(t, model.IsValidDate("2026-02-30"))
	assert.False(t, model.IsValidDate("tomorrow"))

	assert.True(t, model.IsValidTimeOfDay("09:30"))
	assert.True(t, model.IsValidTimeOfDay("23:59"))
	assert.False(t, model.IsValidTimeOfDay("9:30"))
	assert.False(t, model.IsValidTimeOfDay("24:00"))

	today := model.Today(nil)
	assert.True(t, model.IsValidDate(today))
}
