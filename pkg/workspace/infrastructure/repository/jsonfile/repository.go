// Package jsonfile implements the workspace repositories on top of the JSON
// document store. Each repository method is a single Read or Update against
// one collection document, so every mutation inherits the store's lock span,
// schema validation, and atomic write.
package jsonfile

import (
	"context"

	"github.com/harborlight/daybook/pkg/workspace/core/domain/model"
	"github.com/harborlight/daybook/pkg/workspace/core/domain/repository"
	"github.com/harborlight/daybook/pkg/workspace/core/ports"
	"github.com/harborlight/daybook/pkg/workspace/core/schema"
	"github.com/harborlight/daybook/pkg/workspace/support/util/logger"
	"github.com/harborlight/daybook/pkg/workspace/support/util/serialization"
)

// moduleName is the module name used for error reporting in this package.
const moduleName = "jsonfile"

// JSONFileRepository implements repository.WorkspaceRepository over the
// document store.
type JSONFileRepository struct {
	store ports.DocumentStore
}

var _ repository.WorkspaceRepository = (*JSONFileRepository)(nil)

// NewJSONFileRepository creates a new JSONFileRepository.
// store: The document store holding the collection documents.
func NewJSONFileRepository(store ports.DocumentStore) *JSONFileRepository {
	return &JSONFileRepository{store: store}
}

// Close releases resources held by the repository. The repository keeps no
// open handles between calls, so there is nothing to release.
func (r *JSONFileRepository) Close(ctx context.Context) error {
	logger.Debugf("Closing workspace repository.")
	return nil
}

// decodeTasksDocument converts a stored document into its typed shape.
func decodeTasksDocument(doc map[string]interface{}) (*model.TasksDocument, error) {
	var typed model.TasksDocument
	if err := serialization.DecodeFromMap(doc, &typed); err != nil {
		return nil, err
	}
	return &typed, nil
}

// encodeTasksDocument converts a typed tasks document back into its stored
// form, stamping the current schema version.
func encodeTasksDocument(typed *model.TasksDocument) (map[string]interface{}, error) {
	typed.Version = schema.CurrentTasksVersion
	if typed.Tasks == nil {
		typed.Tasks = []model.Task{}
	}
	return serialization.EncodeToMap(typed)
}

// decodeJournalDocument converts a stored document into its typed shape.
func decodeJournalDocument(doc map[string]interface{}) (*model.JournalDocument, error) {
	var typed model.JournalDocument
	if err := serialization.DecodeFromMap(doc, &typed); err != nil {
		return nil, err
	}
	return &typed, nil
}

// encodeJournalDocument converts a typed journal document back into its stored
// form, stamping the current schema version.
func encodeJournalDocument(typed *model.JournalDocument) (map[string]interface{}, error) {
	typed.Version = schema.CurrentJournalVersion
	if typed.Entries == nil {
		typed.Entries = []model.JournalEntry{}
	}
	return serialization.EncodeToMap(typed)
}

// decodeChatDocument converts a stored document into its typed shape.
func decodeChatDocument(doc map[string]interface{}) (*model.ChatDocument, error) {
	var typed model.ChatDocument
	if err := serialization.DecodeFromMap(doc, &typed); err != nil {
		return nil, err
	}
	return &typed, nil
}

// encodeChatDocument converts a typed chat document back into its stored form,
// stamping the current schema version.
func encodeChatDocument(typed *model.ChatDocument) (map[string]interface{}, error) {
	typed.Version = schema.CurrentChatVersion
	if typed.Messages == nil {
		typed.Messages = []model.ChatMessage{}
	}
	return serialization.EncodeToMap(typed)
}
