package repository

import (
	"context"
	"errors"

	"github.com/harborlight/daybook/pkg/workspace/core/domain/model"
	"github.com/harborlight/daybook/pkg/workspace/support/util/exception"
)

// ErrJournalEntryNotFound indicates that no journal entry exists for the requested date.
var ErrJournalEntryNotFound = errors.New("journal entry not found")

// JournalRepository manages the persistence of journal entries. Entries are
// keyed by calendar date; there is at most one entry per date.
type JournalRepository interface {
	// UpsertEntry creates the entry for the given date, or wholesale-replaces
	// it if one already exists.
	UpsertEntry(ctx context.Context, entry *model.JournalEntry) error

	// PatchEntry merges the non-empty fields into the existing entry for the
	// date. Returns ErrJournalEntryNotFound if no entry exists for the date.
	PatchEntry(ctx context.Context, date, content, mood string) (*model.JournalEntry, error)

	// FindEntryByDate retrieves the entry for a date.
	// Returns ErrJournalEntryNotFound if no entry exists for the date.
	FindEntryByDate(ctx context.Context, date string) (*model.JournalEntry, error)

	// ListEntries retrieves all journal entries ordered by date.
	ListEntries(ctx context.Context) ([]model.JournalEntry, error)
}

func init() {
	exception.RegisterErrorType("ErrJournalEntryNotFound", ErrJournalEntryNotFound)
}
