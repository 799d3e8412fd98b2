package jsonfile

import (
	"context"
	"errors"

	"github.com/harborlight/daybook/pkg/workspace/core/domain/model"
	"github.com/harborlight/daybook/pkg/workspace/core/domain/repository"
	"github.com/harborlight/daybook/pkg/workspace/core/schema"
	"github.com/harborlight/daybook/pkg/workspace/support/util/exception"
)

// AppendMessage persists a new message at the end of the conversation log.
func (r *JSONFileRepository) AppendMessage(ctx context.Context, message *model.ChatMessage) error {
	const op = "JSONFileRepository.AppendMessage"
	_, err := r.store.Update(ctx, schema.CollectionChat, func(_ context.Context, doc map[string]interface{}) (map[string]interface{}, error) {
		typed, err := decodeChatDocument(doc)
		if err != nil {
			return nil, err
		}
		for i := range typed.Messages {
			if typed.Messages[i].ID == message.ID {
				return nil, exception.NewWorkspaceErrorf(moduleName, "%s: message %s already exists", op, message.ID)
			}
		}
		typed.Messages = append(typed.Messages, *message)
		return encodeChatDocument(typed)
	})
	return err
}

// FindMessageByID retrieves a chat message by its ID.
func (r *JSONFileRepository) FindMessageByID(ctx context.Context, id string) (*model.ChatMessage, error) {
	doc, err := r.store.Read(ctx, schema.CollectionChat)
	if err != nil {
		return nil, err
	}
	typed, err := decodeChatDocument(doc)
	if err != nil {
		return nil, err
	}
	for i := range typed.Messages {
		if typed.Messages[i].ID == id {
			message := typed.Messages[i]
			return &message, nil
		}
	}
	return nil, repository.ErrMessageNotFound
}

// ListMessages retrieves all chat messages in conversation order.
func (r *JSONFileRepository) ListMessages(ctx context.Context) ([]model.ChatMessage, error) {
	doc, err := r.store.Read(ctx, schema.CollectionChat)
	if err != nil {
		return nil, err
	}
	typed, err := decodeChatDocument(doc)
	if err != nil {
		return nil, err
	}
	if typed.Messages == nil {
		return []model.ChatMessage{}, nil
	}
	return typed.Messages, nil
}

// MutateMessage loads the message, applies fn, and persists the result within
// a single lock span. The read-check-write sequence runs under the workspace
// lock, so concurrent mutations of the same message serialize; this is the
// primitive the execution claim protocol is built on. fn returning
// repository.ErrNoMutation skips the write.
func (r *JSONFileRepository) MutateMessage(ctx context.Context, id string, fn func(*model.ChatMessage) error) (*model.ChatMessage, error) {
	var mutated *model.ChatMessage
	_, err := r.store.Update(ctx, schema.CollectionChat, func(_ context.Context, doc map[string]interface{}) (map[string]interface{}, error) {
		typed, err := decodeChatDocument(doc)
		if err != nil {
			return nil, err
		}
		idx := -1
		for i := range typed.Messages {
			if typed.Messages[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, repository.ErrMessageNotFound
		}

		message := typed.Messages[idx]
		if err := fn(&message); err != nil {
			if errors.Is(err, repository.ErrNoMutation) {
				mutated = &message
				return nil, nil
			}
			return nil, err
		}
		typed.Messages[idx] = message
		mutated = &message
		return encodeChatDocument(typed)
	})
	if err != nil {
		return nil, err
	}
	return mutated, nil
}
