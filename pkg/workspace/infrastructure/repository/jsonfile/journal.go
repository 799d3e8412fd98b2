package jsonfile

import (
	"context"
	"sort"

	"github.com/harborlight/daybook/pkg/workspace/core/domain/model"
	"github.com/harborlight/daybook/pkg/workspace/core/domain/repository"
	"github.com/harborlight/daybook/pkg/workspace/core/schema"
)

// UpsertEntry creates the journal entry for the entry's date, or wholesale-replaces
// an existing one. Entries are kept sorted by date.
func (r *JSONFileRepository) UpsertEntry(ctx context.Context, entry *model.JournalEntry) error {
	_, err := r.store.Update(ctx, schema.CollectionJournal, func(_ context.Context, doc map[string]interface{}) (map[string]interface{}, error) {
		typed, err := decodeJournalDocument(doc)
		if err != nil {
			return nil, err
		}
		replaced := false
		for i := range typed.Entries {
			if typed.Entries[i].Date == entry.Date {
				typed.Entries[i] = *entry
				replaced = true
				break
			}
		}
		if !replaced {
			typed.Entries = append(typed.Entries, *entry)
			sort.Slice(typed.Entries, func(i, j int) bool {
				return typed.Entries[i].Date < typed.Entries[j].Date
			})
		}
		return encodeJournalDocument(typed)
	})
	return err
}

// PatchEntry merges the non-empty fields into the existing entry for the date.
func (r *JSONFileRepository) PatchEntry(ctx context.Context, date, content, mood string) (*model.JournalEntry, error) {
	var patched *model.JournalEntry
	_, err := r.store.Update(ctx, schema.CollectionJournal, func(_ context.Context, doc map[string]interface{}) (map[string]interface{}, error) {
		typed, err := decodeJournalDocument(doc)
		if err != nil {
			return nil, err
		}
		for i := range typed.Entries {
			if typed.Entries[i].Date == date {
				typed.Entries[i].ApplyPatch(content, mood)
				entry := typed.Entries[i]
				patched = &entry
				return encodeJournalDocument(typed)
			}
		}
		return nil, repository.ErrJournalEntryNotFound
	})
	if err != nil {
		return nil, err
	}
	return patched, nil
}

// FindEntryByDate retrieves the journal entry for a date.
func (r *JSONFileRepository) FindEntryByDate(ctx context.Context, date string) (*model.JournalEntry, error) {
	doc, err := r.store.Read(ctx, schema.CollectionJournal)
	if err != nil {
		return nil, err
	}
	typed, err := decodeJournalDocument(doc)
	if err != nil {
		return nil, err
	}
	for i := range typed.Entries {
		if typed.Entries[i].Date == date {
			entry := typed.Entries[i]
			return &entry, nil
		}
	}
	return nil, repository.ErrJournalEntryNotFound
}

// ListEntries retrieves all journal entries ordered by date.
func (r *JSONFileRepository) ListEntries(ctx context.Context) ([]model.JournalEntry, error) {
	doc, err := r.store.Read(ctx, schema.CollectionJournal)
	if err != nil {
		return nil, err
	}
	typed, err := decodeJournalDocument(doc)
	if err != nil {
		return nil, err
	}
	if typed.Entries == nil {
		return []model.JournalEntry{}, nil
	}
	return typed.Entries, nil
}
