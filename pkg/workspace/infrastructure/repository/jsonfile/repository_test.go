package jsonfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	config "github.com/harborlight/daybook/pkg/workspace/core/config"
	model "github.com/harborlight/daybook/pkg/workspace/core/domain/model"
	repository "github.com/harborlight/daybook/pkg/workspace/core/domain/repository"
	metrics "github.com/harborlight/daybook/pkg/workspace/core/metrics"
	schema "github.com/harborlight/daybook/pkg/workspace/core/schema"
	docstore "github.com/harborlight/daybook/pkg/workspace/infrastructure/docstore"
	lock "github.com/harborlight/daybook/pkg/workspace/infrastructure/lock"
	jsonfile "github.com/harborlight/daybook/pkg/workspace/infrastructure/repository/jsonfile"
)

// newTestRepository builds a repository over a fresh temp workspace.
func newTestRepository(t *testing.T, dir string) *jsonfile.JSONFileRepository {
	cfg := config.NewConfig()
	cfg.Daybook.Workspace.DataDir = dir
	cfg.Daybook.Workspace.Lock = config.LockConfig{
		MaxAttempts:     50,
		InitialInterval: 5,
		MaxInterval:     40,
		Factor:          1.5,
		StaleThreshold:  60,
	}

	registry, err := schema.NewWorkspaceRegistry()
	assert.NoError(t, err)
	recorder := metrics.NewNoOpMetricRecorder()
	manager, err := lock.NewManager(cfg, recorder)
	assert.NoError(t, err)
	store, err := docstore.NewStore(cfg, manager, registry, recorder)
	assert.NoError(t, err)
	return jsonfile.NewJSONFileRepository(store)
}

func TestJSONFileRepository_TaskLifecycle(t *testing.T) {
	repo := newTestRepository(t, t.TempDir())
	ctx := context.Background()

	// 1. Create and find
	task := model.NewTask("Water the plants")
	task.Notes = "The ficus first"
	assert.NoError(t, repo.CreateTask(ctx, task))

	found, err := repo.FindTaskByID(ctx, task.ID)
	assert.NoError(t, err)
	assert.Equal(t, task.Title, found.Title)
	assert.Equal(t, task.Notes, found.Notes)
	assert.Equal(t, model.TaskStatusOpen, found.Status)
	assert.WithinDuration(t, task.CreatedAt, found.CreatedAt, time.Second)

	// 2. Duplicate creation is rejected
	err = repo.CreateTask(ctx, task)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	// 3. Mutate persists the change
	updated, err := repo.MutateTask(ctx, task.ID, func(tsk *model.Task) error {
		tsk.Title = "Water all the plants"
		tsk.MarkAsCompleted()
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "Water all the plants", updated.Title)

	reloaded, err := repo.FindTaskByID(ctx, task.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Water all the plants", reloaded.Title)
	assert.Equal(t, model.TaskStatusDone, reloaded.Status)
	assert.NotNil(t, reloaded.CompletedAt)

	// 4. List and delete
	tasks, err := repo.ListTasks(ctx)
	assert.NoError(t, err)
	assert.Len(t, tasks, 1)

	assert.NoError(t, repo.DeleteTask(ctx, task.ID))
	_, err = repo.FindTaskByID(ctx, task.ID)
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	assert.ErrorIs(t, repo.DeleteTask(ctx, task.ID), repository.ErrTaskNotFound)
}

func TestJSONFileRepository_MutateTask_NoMutationSkipsWrite(t *testing.T) {
	dir := t.TempDir()
	repo := newTestRepository(t, dir)
	ctx := context.Background()

	task := model.NewTask("Water the plants")
	assert.NoError(t, repo.CreateTask(ctx, task))
	before, err := os.ReadFile(filepath.Join(dir, "tasks.json"))
	assert.NoError(t, err)

	inspected, err := repo.MutateTask(ctx, task.ID, func(tsk *model.Task) error {
		return repository.ErrNoMutation
	})
	assert.NoError(t, err)
	assert.Equal(t, task.ID, inspected.ID)

	after, err := os.ReadFile(filepath.Join(dir, "tasks.json"))
	assert.NoError(t, err)
	assert.Equal(t, before, after, "declining the mutation must not rewrite the document")
}

func TestJSONFileRepository_MutateTask_NotFound(t *testing.T) {
	repo := newTestRepository(t, t.TempDir())

	called := false
	_, err := repo.MutateTask(context.Background(), "missing", func(tsk *model.Task) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	assert.False(t, called)
}

func TestJSONFileRepository_JournalLifecycle(t *testing.T) {
	repo := newTestRepository(t, t.TempDir())
	ctx := context.Background()

	// 1. Upserts keep entries sorted by date regardless of insertion order
	assert.NoError(t, repo.UpsertEntry(ctx, model.NewJournalEntry("2026-03-02", "Rainy day", "")))
	assert.NoError(t, repo.UpsertEntry(ctx, model.NewJournalEntry("2026-03-01", "Went hiking", "happy")))

	entries, err := repo.ListEntries(ctx)
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "2026-03-01", entries[0].Date)
	assert.Equal(t, "2026-03-02", entries[1].Date)

	// 2. Upserting an existing date replaces the entry wholesale
	assert.NoError(t, repo.UpsertEntry(ctx, model.NewJournalEntry("2026-03-01", "Rewritten", "")))
	entry, err := repo.FindEntryByDate(ctx, "2026-03-01")
	assert.NoError(t, err)
	assert.Equal(t, "Rewritten", entry.Content)
	assert.Equal(t, "", entry.Mood, "upsert replaces the mood too")

	entries, _ = repo.ListEntries(ctx)
	assert.Len(t, entries, 2)

	// 3. Patch merges only the provided fields
	patched, err := repo.PatchEntry(ctx, "2026-03-02", "", "tired")
	assert.NoError(t, err)
	assert.Equal(t, "Rainy day", patched.Content)
	assert.Equal(t, "tired", patched.Mood)

	// 4. Patching an absent date fails instead of creating
	_, err = repo.PatchEntry(ctx, "2026-03-03", "new content", "")
	assert.ErrorIs(t, err, repository.ErrJournalEntryNotFound)

	_, err = repo.FindEntryByDate(ctx, "2026-03-03")
	assert.ErrorIs(t, err, repository.ErrJournalEntryNotFound)
}

func TestJSONFileRepository_ChatLifecycle(t *testing.T) {
	repo := newTestRepository(t, t.TempDir())
	ctx := context.Background()

	// 1. Append text and proposal messages
	text := model.NewUserMessage("add a task for watering")
	assert.NoError(t, repo.AppendMessage(ctx, text))

	proposal := model.NewProposalMessage("I will create that task", []model.Operation{
		{Kind: model.OperationKindCreateTask, Data: map[string]interface{}{"title": "Water the plants"}},
	})
	assert.NoError(t, repo.AppendMessage(ctx, proposal))

	messages, err := repo.ListMessages(ctx)
	assert.NoError(t, err)
	assert.Len(t, messages, 2)
	assert.Equal(t, text.ID, messages[0].ID)

	// 2. Duplicate append is rejected
	err = repo.AppendMessage(ctx, text)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	// 3. Mutations persist through the status transition helpers
	claimed, err := repo.MutateMessage(ctx, proposal.ID, func(msg *model.ChatMessage) error {
		return msg.TransitionTo(model.ExecutionStatusExecuting)
	})
	assert.NoError(t, err)
	assert.Equal(t, model.ExecutionStatusExecuting, claimed.ExecutionStatus)

	reloaded, err := repo.FindMessageByID(ctx, proposal.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.ExecutionStatusExecuting, reloaded.ExecutionStatus)
	assert.Len(t, reloaded.StoredOperations, 1)

	// 4. Unknown message
	_, err = repo.FindMessageByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrMessageNotFound)
}

// TestJSONFileRepository_PersistsAcrossInstances verifies that one repository
// instance sees what another wrote, through the document files alone.
func TestJSONFileRepository_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := newTestRepository(t, dir)
	task := model.NewTask("Water the plants")
	assert.NoError(t, first.CreateTask(ctx, task))
	assert.NoError(t, first.UpsertEntry(ctx, model.NewJournalEntry("2026-03-01", "Went hiking", "")))
	assert.NoError(t, first.Close(ctx))

	second := newTestRepository(t, dir)
	tasks, err := second.ListTasks(ctx)
	assert.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, task.ID, tasks[0].ID)

	entries, err := second.ListEntries(ctx)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
}
