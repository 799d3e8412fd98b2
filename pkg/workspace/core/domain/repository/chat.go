package repository

import (
	"context"
	"errors"

	"github.com/harborlight/daybook/pkg/workspace/core/domain/model"
	"github.com/harborlight/daybook/pkg/workspace/support/util/exception"
)

// ErrMessageNotFound indicates that no chat message with the requested ID exists.
var ErrMessageNotFound = errors.New("chat message not found")

// ChatRepository manages the persistence of chat messages.
type ChatRepository interface {
	// AppendMessage persists a new message at the end of the conversation log.
	AppendMessage(ctx context.Context, message *model.ChatMessage) error

	// FindMessageByID retrieves a message by its ID.
	// Returns ErrMessageNotFound if no matching message exists.
	FindMessageByID(ctx context.Context, id string) (*model.ChatMessage, error)

	// ListMessages retrieves all messages in conversation order.
	ListMessages(ctx context.Context) ([]model.ChatMessage, error)

	// MutateMessage loads the message, applies fn to it, and persists the
	// result, all within a single workspace lock span. The read-check-write
	// sequence is atomic with respect to other workspace processes, which is
	// what makes claim handoffs race-free. If fn returns ErrNoMutation the
	// message is returned unchanged and nothing is written; any other error
	// from fn aborts the mutation.
	// Returns ErrMessageNotFound if no matching message exists.
	MutateMessage(ctx context.Context, id string, fn func(*model.ChatMessage) error) (*model.ChatMessage, error)
}

func init() {
	exception.RegisterErrorType("ErrMessageNotFound", ErrMessageNotFound)
}
