// Package repository defines the persistence interfaces for the workspace
// domain entities. Implementations live under infrastructure.
package repository

import (
	"context"
	"errors"

	"github.com/harborlight/daybook/pkg/workspace/support/util/exception"
)

// ErrNoMutation can be returned by a mutate callback to indicate the entity
// should not be rewritten. The repository skips persisting and returns the
// entity unchanged, without treating the call as failed.
var ErrNoMutation = errors.New("no mutation")

// WorkspaceRepository aggregates all collection repositories behind a single handle.
type WorkspaceRepository interface {
	TaskRepository
	JournalRepository
	ChatRepository

	// Close releases any resources held by the repository.
	// ctx: Context for cancellation.
	Close(ctx context.Context) error
}

func init() {
	exception.RegisterErrorType("ErrNoMutation", ErrNoMutation)
}
