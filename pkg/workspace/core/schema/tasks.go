package schema

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/harborlight/daybook/pkg/workspace/core/domain/model"
	"github.com/harborlight/daybook/pkg/workspace/support/util/logger"
)

// CollectionTasks is the name of the tasks collection.
const CollectionTasks = "tasks"

// CurrentTasksVersion is the tasks schema version this build reads and writes.
//
// Version history:
//
//	v1: tasks carry a boolean "done" flag.
//	v2: "done" replaced by a "status" string (open/done); missing IDs assigned.
//	v3: adds "notes" and "updatedAt" fields.
const CurrentTasksVersion = 3

// TasksFileType builds the file type describing the tasks collection.
func TasksFileType() *FileType {
	return &FileType{
		Name:           CollectionTasks,
		FileName:       "tasks.json",
		CurrentVersion: CurrentTasksVersion,
		DefaultFactory: func() map[string]interface{} {
			return map[string]interface{}{
				"version": CurrentTasksVersion,
				"tasks":   []interface{}{},
			}
		},
		Validators: map[int]Validator{
			1: validateTasksStructure,
			2: validateTasksStructure,
			3: validateTasksV3,
		},
		Steps: map[int]MigrationStep{
			1: migrateTasksV1toV2,
			2: migrateTasksV2toV3,
		},
	}
}

// validateTasksStructure is the lenient structural check applied to historical
// versions: the migration steps are total, so anything structurally sound can
// still be migrated regardless of per-entry oddities.
func validateTasksStructure(doc map[string]interface{}) error {
	_, err := documentArray(doc, "tasks")
	return err
}

// validateTasksV3 is the strict current-version check applied before every
// write and after migration.
func validateTasksV3(doc map[string]interface{}) error {
	entries, err := documentArray(doc, "tasks")
	if err != nil {
		return err
	}

	var result *multierror.Error
	seen := make(map[string]bool, len(entries))
	for i, raw := range entries {
		task, ok := raw.(map[string]interface{})
		if !ok {
			result = multierror.Append(result, fmt.Errorf("tasks[%d]: not an object", i))
			continue
		}
		id := stringField(task, "id")
		if id == "" {
			result = multierror.Append(result, fmt.Errorf("tasks[%d]: missing id", i))
		} else if seen[id] {
			result = multierror.Append(result, fmt.Errorf("tasks[%d]: duplicate id %q", i, id))
		} else {
			seen[id] = true
		}
		if stringField(task, "title") == "" {
			result = multierror.Append(result, fmt.Errorf("tasks[%d]: missing title", i))
		}
		if status := stringField(task, "status"); !model.IsValidTaskStatus(status) {
			result = multierror.Append(result, fmt.Errorf("tasks[%d]: invalid status %q", i, status))
		}
		dueDate := stringField(task, "dueDate")
		dueTime := stringField(task, "dueTime")
		if dueDate != "" && !model.IsValidDate(dueDate) {
			result = multierror.Append(result, fmt.Errorf("tasks[%d]: malformed dueDate %q", i, dueDate))
		}
		if dueTime != "" {
			if !model.IsValidTimeOfDay(dueTime) {
				result = multierror.Append(result, fmt.Errorf("tasks[%d]: malformed dueTime %q", i, dueTime))
			}
			// A clock time is meaningless without the date it belongs to.
			if dueDate == "" {
				result = multierror.Append(result, fmt.Errorf("tasks[%d]: dueTime without dueDate", i))
			}
		}
	}
	return result.ErrorOrNil()
}

// migrateTasksV1toV2 replaces the boolean "done" flag with a "status" string
// and assigns IDs to tasks missing one.
func migrateTasksV1toV2(doc map[string]interface{}) map[string]interface{} {
	entries, _ := doc["tasks"].([]interface{})
	migrated := make([]interface{}, 0, len(entries))
	for i, raw := range entries {
		task, ok := raw.(map[string]interface{})
		if !ok {
			logger.Warnf("Dropping tasks[%d] during v1->v2 migration: entry is %T, not an object.", i, raw)
			continue
		}

		status := string(model.TaskStatusOpen)
		if done, ok := task["done"].(bool); ok {
			if done {
				status = string(model.TaskStatusDone)
			}
		} else if _, present := task["done"]; present {
			logger.Warnf("tasks[%d]: unexpected done flag %v during v1->v2 migration; defaulting status to open.", i, task["done"])
		}
		task["status"] = status
		delete(task, "done")

		if stringField(task, "id") == "" {
			id := model.NewID()
			task["id"] = id
			logger.Warnf("tasks[%d]: missing id during v1->v2 migration; assigned %s.", i, id)
		}
		migrated = append(migrated, task)
	}
	doc["tasks"] = migrated
	return doc
}

// migrateTasksV2toV3 backfills the fields added in v3: empty notes and an
// updatedAt timestamp copied from createdAt where available.
func migrateTasksV2toV3(doc map[string]interface{}) map[string]interface{} {
	entries, _ := doc["tasks"].([]interface{})
	for _, raw := range entries {
		task, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if _, present := task["notes"]; !present {
			task["notes"] = ""
		}
		if stringField(task, "updatedAt") == "" {
			if created := stringField(task, "createdAt"); created != "" {
				task["updatedAt"] = created
			} else {
				task["updatedAt"] = nowTimestamp()
			}
		}
	}
	return doc
}
