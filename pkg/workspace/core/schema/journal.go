package schema

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/harborlight/daybook/pkg/workspace/core/domain/model"
	"github.com/harborlight/daybook/pkg/workspace/support/util/logger"
)

// CollectionJournal is the name of the journal collection.
const CollectionJournal = "journal"

// CurrentJournalVersion is the journal schema version this build reads and writes.
//
// Version history:
//
//	v1: entries stored as a date-to-content map of plain strings.
//	v2: entries stored as a date-sorted array of objects with mood and updatedAt.
const CurrentJournalVersion = 2

// JournalFileType builds the file type describing the journal collection.
func JournalFileType() *FileType {
	return &FileType{
		Name:           CollectionJournal,
		FileName:       "journal.json",
		CurrentVersion: CurrentJournalVersion,
		DefaultFactory: func() map[string]interface{} {
			return map[string]interface{}{
				"version": CurrentJournalVersion,
				"entries": []interface{}{},
			}
		},
		Validators: map[int]Validator{
			1: validateJournalV1,
			2: validateJournalV2,
		},
		Steps: map[int]MigrationStep{
			1: migrateJournalV1toV2,
		},
	}
}

// validateJournalV1 checks the historical date-to-content map shape.
func validateJournalV1(doc map[string]interface{}) error {
	raw, ok := doc["entries"]
	if !ok {
		return fmt.Errorf("missing \"entries\" map")
	}
	if _, ok := raw.(map[string]interface{}); !ok {
		return fmt.Errorf("\"entries\" is not a map")
	}
	return nil
}

// validateJournalV2 is the strict current-version check applied before every
// write and after migration. Dates must be well-formed and unique; a document
// with two entries for one date is ambiguous and treated as invalid.
func validateJournalV2(doc map[string]interface{}) error {
	entries, err := documentArray(doc, "entries")
	if err != nil {
		return err
	}

	var result *multierror.Error
	seen := make(map[string]bool, len(entries))
	for i, raw := range entries {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			result = multierror.Append(result, fmt.Errorf("entries[%d]: not an object", i))
			continue
		}
		date := stringField(entry, "date")
		if date == "" || !model.IsValidDate(date) {
			result = multierror.Append(result, fmt.Errorf("entries[%d]: malformed date %q", i, date))
			continue
		}
		if seen[date] {
			result = multierror.Append(result, fmt.Errorf("entries[%d]: duplicate date %q", i, date))
		}
		seen[date] = true
		if _, ok := entry["content"].(string); !ok {
			result = multierror.Append(result, fmt.Errorf("entries[%d]: missing content", i))
		}
	}
	return result.ErrorOrNil()
}

// migrateJournalV1toV2 converts the date-to-content map into a date-sorted
// array of entry objects. Non-string contents are defaulted to empty with a
// logged warning rather than aborting the migration.
func migrateJournalV1toV2(doc map[string]interface{}) map[string]interface{} {
	byDate, ok := doc["entries"].(map[string]interface{})
	if !ok {
		if raw, present := doc["entries"]; present {
			logger.Warnf("Journal entries have unexpected shape %T during v1->v2 migration; starting empty.", raw)
		}
		doc["entries"] = []interface{}{}
		return doc
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	entries := make([]interface{}, 0, len(dates))
	for _, date := range dates {
		if !model.IsValidDate(date) {
			logger.Warnf("Dropping journal entry with malformed date %q during v1->v2 migration.", date)
			continue
		}
		content, ok := byDate[date].(string)
		if !ok {
			logger.Warnf("journal[%s]: non-string content during v1->v2 migration; defaulting to empty.", date)
			content = ""
		}
		entries = append(entries, map[string]interface{}{
			"date":      date,
			"content":   content,
			"updatedAt": nowTimestamp(),
		})
	}
	doc["entries"] = entries
	return doc
}
