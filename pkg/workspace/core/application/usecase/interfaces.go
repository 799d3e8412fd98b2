// Package usecase implements the application services of the workspace: the
// execution claim protocol that hands a proposal's operation batch to exactly
// one executor, and the executor that applies the batch to the workspace.
package usecase

import (
	"context"
	"errors"

	"github.com/harborlight/daybook/pkg/workspace/core/domain/model"
	"github.com/harborlight/daybook/pkg/workspace/support/util/exception"
)

// moduleName is the module name used for error reporting in this package.
const moduleName = "usecase"

// ErrMessageNotExecutable indicates the message is not a proposal and so
// carries nothing to execute.
var ErrMessageNotExecutable = errors.New("message is not an executable proposal")

// ErrMessageHasNoOperations indicates the proposal carries an empty operation batch.
var ErrMessageHasNoOperations = errors.New("message has no operations")

// ExecutionCoordinator drives the execution claim protocol for proposal
// messages: pending -> executing -> executed, with executing -> pending as the
// recovery path. The protocol guarantees a batch's effects are applied at most
// once even when several processes confirm the same proposal concurrently.
type ExecutionCoordinator interface {
	// Validate checks that the message exists and carries an executable batch.
	// Returns ErrMessageNotExecutable or ErrMessageHasNoOperations when it does not.
	Validate(ctx context.Context, messageID string) error

	// Claim attempts to take ownership of the message's operation batch. The
	// status check and the flip to executing happen in one lock span, so of
	// any number of concurrent claimants exactly one receives CanExecute.
	// An already-executed message yields a Cached outcome carrying the
	// recorded results; a message being executed elsewhere yields Conflict.
	Claim(ctx context.Context, messageID string) (*model.ClaimOutcome, error)

	// MarkExecuted records the batch results on the message and finishes the
	// claim by transitioning it to executed.
	MarkExecuted(ctx context.Context, messageID string, results []model.OperationResult, succeeded bool) error

	// Reset returns an interrupted execution to pending and attaches a
	// synthetic failed result explaining why. A message that is not currently
	// executing is left untouched.
	Reset(ctx context.Context, messageID string, reason string) error

	// ConfirmExecution runs the whole protocol end to end: validate, claim,
	// execute, record. A cached outcome returns the recorded results without
	// re-executing anything; a conflict returns a claim conflict error.
	// defaultDate is the calendar date substituted into date-less journal
	// operations; empty means today.
	ConfirmExecution(ctx context.Context, messageID string, defaultDate string) (*model.ExecutionSummary, error)
}

// OperationExecutor applies a batch of proposed operations to the workspace.
type OperationExecutor interface {
	// ExecuteBatch runs the operations in order, stopping at the first failed
	// operation. Each attempted operation contributes one result to the
	// summary; operations after a failure are never attempted and there is no
	// rollback of the ones already applied. The returned error is non-nil only
	// when the workspace itself failed (lock, version skew) before a result
	// could be produced, in which case the summary is nil.
	ExecuteBatch(ctx context.Context, operations []model.Operation, defaultDate string) (*model.ExecutionSummary, error)
}

func init() {
	exception.RegisterErrorType("ErrMessageNotExecutable", ErrMessageNotExecutable)
	exception.RegisterErrorType("ErrMessageHasNoOperations", ErrMessageHasNoOperations)
}
