package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	schema "github.com/harborlight/daybook/pkg/workspace/core/schema"
	"github.com/harborlight/daybook/pkg/workspace/support/util/exception"
)

// TestNewWorkspaceRegistry verifies that the built-in collections register
// cleanly and can be looked up by name.
func TestNewWorkspaceRegistry(t *testing.T) {
	registry, err := schema.NewWorkspaceRegistry()
	assert.NoError(t, err)

	assert.Equal(t, []string{schema.CollectionChat, schema.CollectionJournal, schema.CollectionTasks}, registry.Names())

	ft, err := registry.Lookup(schema.CollectionTasks)
	assert.NoError(t, err)
	assert.Equal(t, "tasks.json", ft.FileName)
	assert.Equal(t, schema.CurrentTasksVersion, ft.CurrentVersion)

	_, err = registry.Lookup("calendar")
	assert.Error(t, err)
}

// TestRegistry_Register_Incomplete verifies that a file type with holes in its
// version tables is rejected at registration time rather than stranding a
// document mid-migration later.
func TestRegistry_Register_Incomplete(t *testing.T) {
	registry := schema.NewRegistry()

	ft := &schema.FileType{
		Name:           "notes",
		FileName:       "notes.json",
		CurrentVersion: 3,
		DefaultFactory: func() map[string]interface{} {
			return map[string]interface{}{"version": 3, "notes": []interface{}{}}
		},
		Validators: map[int]schema.Validator{
			1: func(doc map[string]interface{}) error { return nil },
			3: func(doc map[string]interface{}) error { return nil },
		},
		Steps: map[int]schema.MigrationStep{
			1: func(doc map[string]interface{}) map[string]interface{} { return doc },
		},
	}

	err := registry.Register(ft)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing validator for version 2")
	assert.Contains(t, err.Error(), "missing migration step from version 2")
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	registry := schema.NewRegistry()
	assert.NoError(t, registry.Register(schema.TasksFileType()))

	err := registry.Register(schema.TasksFileType())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

// TestDocumentVersion verifies version extraction across the numeric types a
// decoded JSON document can carry.
func TestDocumentVersion(t *testing.T) {
	// JSON decoding yields float64
	v, err := schema.DocumentVersion(map[string]interface{}{"version": float64(2)})
	assert.NoError(t, err)
	assert.Equal(t, 2, v)

	// In-memory documents carry int
	v, err = schema.DocumentVersion(map[string]interface{}{"version": 3})
	assert.NoError(t, err)
	assert.Equal(t, 3, v)

	// Fractional version is corruption, not a version
	_, err = schema.DocumentVersion(map[string]interface{}{"version": 2.5})
	assert.Error(t, err)

	// Missing version
	_, err = schema.DocumentVersion(map[string]interface{}{"tasks": []interface{}{}})
	assert.Error(t, err)

	// Non-numeric version
	_, err = schema.DocumentVersion(map[string]interface{}{"version": "2"})
	assert.Error(t, err)
}

// TestTasksFileType_MigrateV1ToCurrent walks a v1 document through every
// migration step and checks the final shape against the current validator.
func TestTasksFileType_MigrateV1ToCurrent(t *testing.T) {
	ft := schema.TasksFileType()

	doc := map[string]interface{}{
		"version": 1,
		"tasks": []interface{}{
			map[string]interface{}{"id": "a", "title": "Water the plants", "done": true, "createdAt": "2024-05-01T09:00:00Z"},
			map[string]interface{}{"id": "b", "title": "Book dentist", "done": false},
			map[string]interface{}{"title": "No id yet", "done": false},
			"not-an-object",
		},
	}

	migrated, err := ft.Migrate(doc, 1)
	assert.NoError(t, err)
	assert.Equal(t, ft.CurrentVersion, migrated["version"])

	tasks := migrated["tasks"].([]interface{})
	// The non-object entry is dropped, everything else survives.
	assert.Len(t, tasks, 3)

	first := tasks[0].(map[string]interface{})
	assert.Equal(t, "done", first["status"])
	assert.NotContains(t, first, "done")
	// v2->v3 copies updatedAt from createdAt when available.
	assert.Equal(t, "2024-05-01T09:00:00Z", first["updatedAt"])
	assert.Equal(t, "", first["notes"])

	second := tasks[1].(map[string]interface{})
	assert.Equal(t, "open", second["status"])
	assert.NotEmpty(t, second["updatedAt"])

	third := tasks[2].(map[string]interface{})
	assert.NotEmpty(t, third["id"], "missing id should be assigned during migration")

	// The migrated document satisfies the current-version validator.
	assert.NoError(t, ft.Validate(ft.CurrentVersion, migrated))
}

// TestTasksFileType_MigrateIdempotent verifies that a document already at the
// current version passes through migration untouched.
func TestTasksFileType_MigrateIdempotent(t *testing.T) {
	ft := schema.TasksFileType()

	doc := map[string]interface{}{
		"version": 1,
		"tasks": []interface{}{
			map[string]interface{}{"id": "a", "title": "Water the plants", "done": true},
		},
	}
	once, err := ft.Migrate(doc, 1)
	assert.NoError(t, err)

	again, err := ft.Migrate(once, ft.CurrentVersion)
	assert.NoError(t, err)
	assert.Equal(t, once, again)
}

// TestTasksFileType_RefusesFutureVersion verifies that a document written by a
// newer build is never migrated downward.
func TestTasksFileType_RefusesFutureVersion(t *testing.T) {
	ft := schema.TasksFileType()

	doc := map[string]interface{}{"version": ft.CurrentVersion + 1, "tasks": []interface{}{}}
	_, err := ft.Migrate(doc, ft.CurrentVersion+1)
	assert.Error(t, err)
	assert.True(t, exception.IsUnsupportedFutureVersion(err))
	assert.True(t, exception.IsFatal(err))
}

// TestTasksFileType_ValidateV3 exercises the strict current-version rules.
func TestTasksFileType_ValidateV3(t *testing.T) {
	ft := schema.TasksFileType()

	valid := map[string]interface{}{
		"version": 3,
		"tasks": []interface{}{
			map[string]interface{}{"id": "a", "title": "Water the plants", "status": "open", "notes": "", "dueDate": "2026-09-01", "dueTime": "09:30"},
		},
	}
	assert.NoError(t, ft.Validate(3, valid))

	cases := map[string]map[string]interface{}{
		"duplicate id": {
			"version": 3,
			"tasks": []interface{}{
				map[string]interface{}{"id": "a", "title": "One", "status": "open"},
				map[string]interface{}{"id": "a", "title": "Two", "status": "open"},
			},
		},
		"missing title": {
			"version": 3,
			"tasks":   []interface{}{map[string]interface{}{"id": "a", "status": "open"}},
		},
		"invalid status": {
			"version": 3,
			"tasks":   []interface{}{map[string]interface{}{"id": "a", "title": "One", "status": "paused"}},
		},
		"malformed dueDate": {
			"version": 3,
			"tasks":   []interface{}{map[string]interface{}{"id": "a", "title": "One", "status": "open", "dueDate": "tomorrow"}},
		},
		"dueTime without dueDate": {
			"version": 3,
			"tasks":   []interface{}{map[string]interface{}{"id": "a", "title": "One", "status": "open", "dueTime": "09:30"}},
		},
	}
	for name, doc := range cases {
		err := ft.Validate(3, doc)
		assert.Error(t, err, "expected %s to fail validation", name)
		assert.True(t, exception.IsValidationFailure(err), "expected %s to be a validation failure", name)
	}
}

// TestJournalFileType_MigrateV1ToV2 verifies the map-to-array conversion.
func TestJournalFileType_MigrateV1ToV2(t *testing.T) {
	ft := schema.JournalFileType()

	doc := map[string]interface{}{
		"version": 1,
		"entries": map[string]interface{}{
			"2024-03-02": "Rainy day",
			"2024-03-01": "Went hiking",
			"yesterday":  "malformed date is dropped",
			"2024-03-03": 42,
		},
	}

	migrated, err := ft.Migrate(doc, 1)
	assert.NoError(t, err)
	assert.Equal(t, 2, migrated["version"])

	entries := migrated["entries"].([]interface{})
	assert.Len(t, entries, 3)

	// Entries come out sorted by date.
	first := entries[0].(map[string]interface{})
	assert.Equal(t, "2024-03-01", first["date"])
	assert.Equal(t, "Went hiking", first["content"])
	assert.NotEmpty(t, first["updatedAt"])

	// Non-string content is defaulted, not dropped.
	third := entries[2].(map[string]interface{})
	assert.Equal(t, "2024-03-03", third["date"])
	assert.Equal(t, "", third["content"])

	assert.NoError(t, ft.Validate(2, migrated))
}

// TestJournalFileType_MigrateUnexpectedShape verifies the total-migration rule:
// a structurally alien entries field becomes an empty collection instead of
// failing the migration.
func TestJournalFileType_MigrateUnexpectedShape(t *testing.T) {
	ft := schema.JournalFileType()

	doc := map[string]interface{}{"version": 1, "entries": "oops"}
	migrated, err := ft.Migrate(doc, 1)
	assert.NoError(t, err)
	assert.Equal(t, []interface{}{}, migrated["entries"])
	assert.NoError(t, ft.Validate(2, migrated))
}

func TestJournalFileType_ValidateV2(t *testing.T) {
	ft := schema.JournalFileType()

	duplicate := map[string]interface{}{
		"version": 2,
		"entries": []interface{}{
			map[string]interface{}{"date": "2024-03-01", "content": "a"},
			map[string]interface{}{"date": "2024-03-01", "content": "b"},
		},
	}
	err := ft.Validate(2, duplicate)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate date")

	malformed := map[string]interface{}{
		"version": 2,
		"entries": []interface{}{map[string]interface{}{"date": "03/01/2024", "content": "a"}},
	}
	assert.Error(t, ft.Validate(2, malformed))
}

// TestChatFileType_MigrateV1ToV2 verifies kind and execution status backfill.
func TestChatFileType_MigrateV1ToV2(t *testing.T) {
	ft := schema.ChatFileType()

	doc := map[string]interface{}{
		"version": 1,
		"messages": []interface{}{
			// Plain text message with a stray execution field left by an old bug.
			map[string]interface{}{"id": "m1", "role": "user", "content": "hello", "executionStatus": "pending"},
			// Proposal that was never executed.
			map[string]interface{}{"id": "m2", "role": "assistant", "content": "plan", "operations": []interface{}{
				map[string]interface{}{"op": "create_task", "data": map[string]interface{}{"title": "X"}},
			}},
			// Proposal with recorded results, one of them failed.
			map[string]interface{}{"id": "m3", "role": "assistant", "content": "done", "operations": []interface{}{
				map[string]interface{}{"op": "create_task"},
			}, "executionResults": []interface{}{
				map[string]interface{}{"op": "create_task", "success": true},
				map[string]interface{}{"op": "update_task", "success": false},
			}},
			// Message missing an id.
			map[string]interface{}{"role": "user", "content": "no id"},
		},
	}

	migrated, err := ft.Migrate(doc, 1)
	assert.NoError(t, err)
	assert.Equal(t, 2, migrated["version"])

	messages := migrated["messages"].([]interface{})
	assert.Len(t, messages, 4)

	text := messages[0].(map[string]interface{})
	assert.Equal(t, "text", text["kind"])
	assert.NotContains(t, text, "executionStatus")

	pending := messages[1].(map[string]interface{})
	assert.Equal(t, "proposal", pending["kind"])
	assert.Equal(t, "pending", pending["executionStatus"])

	executed := messages[2].(map[string]interface{})
	assert.Equal(t, "executed", executed["executionStatus"])
	assert.Equal(t, false, executed["executionSucceeded"])

	noID := messages[3].(map[string]interface{})
	assert.NotEmpty(t, noID["id"])

	assert.NoError(t, ft.Validate(2, migrated))
}

// TestChatFileType_ValidateV2 exercises the proposal/text split rules.
func TestChatFileType_ValidateV2(t *testing.T) {
	ft := schema.ChatFileType()

	// 1. Text messages must not carry execution fields.
	textWithOps := map[string]interface{}{
		"version": 2,
		"messages": []interface{}{
			map[string]interface{}{"id": "m1", "role": "user", "kind": "text", "content": "hi",
				"operations": []interface{}{map[string]interface{}{"op": "create_task"}}},
		},
	}
	assert.Error(t, ft.Validate(2, textWithOps))

	// 2. Proposals must carry at least one operation.
	emptyProposal := map[string]interface{}{
		"version": 2,
		"messages": []interface{}{
			map[string]interface{}{"id": "m1", "role": "assistant", "kind": "proposal", "content": "plan",
				"executionStatus": "pending", "operations": []interface{}{}},
		},
	}
	assert.Error(t, ft.Validate(2, emptyProposal))

	// 3. Operation kinds are not restricted: a newer build may write kinds this
	// build does not execute.
	unknownKind := map[string]interface{}{
		"version": 2,
		"messages": []interface{}{
			map[string]interface{}{"id": "m1", "role": "assistant", "kind": "proposal", "content": "plan",
				"executionStatus": "pending", "operations": []interface{}{map[string]interface{}{"op": "archive_task"}}},
		},
	}
	assert.NoError(t, ft.Validate(2, unknownKind))

	// 4. Execution status must be one of the known states.
	badStatus := map[string]interface{}{
		"version": 2,
		"messages": []interface{}{
			map[string]interface{}{"id": "m1", "role": "assistant", "kind": "proposal", "content": "plan",
				"executionStatus": "paused", "operations": []interface{}{map[string]interface{}{"op": "create_task"}}},
		},
	}
	assert.Error(t, ft.Validate(2, badStatus))

	// 5. Recorded results need an op kind and a success flag.
	badResults := map[string]interface{}{
		"version": 2,
		"messages": []interface{}{
			map[string]interface{}{"id": "m1", "role": "assistant", "kind": "proposal", "content": "plan",
				"executionStatus": "executed", "operations": []interface{}{map[string]interface{}{"op": "create_task"}},
				"executionResults": []interface{}{map[string]interface{}{"op": "create_task"}}},
		},
	}
	assert.Error(t, ft.Validate(2, badResults))

	// 6. An executed message must carry results.
	executedNoResults := map[string]interface{}{
		"version": 2,
		"messages": []interface{}{
			map[string]interface{}{"id": "m1", "role": "assistant", "kind": "proposal", "content": "plan",
				"executionStatus": "executed", "operations": []interface{}{map[string]interface{}{"op": "create_task"}}},
		},
	}
	err := ft.Validate(2, executedNoResults)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "carries no results")
}
