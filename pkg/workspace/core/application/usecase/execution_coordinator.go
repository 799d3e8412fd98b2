package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/harborlight/daybook/pkg/workspace/core/domain/model"
	"github.com/harborlight/daybook/pkg/workspace/core/domain/repository"
	"github.com/harborlight/daybook/pkg/workspace/core/metrics"
	"github.com/harborlight/daybook/pkg/workspace/support/util/exception"
	"github.com/harborlight/daybook/pkg/workspace/support/util/logger"
)

// DefaultExecutionCoordinator is the default implementation of ExecutionCoordinator.
// Every state transition goes through MutateMessage, so the status check and
// the status change of each protocol step share one workspace lock span.
type DefaultExecutionCoordinator struct {
	repo     repository.WorkspaceRepository
	executor OperationExecutor
	recorder metrics.MetricRecorder
	tracer   metrics.Tracer
}

var _ ExecutionCoordinator = (*DefaultExecutionCoordinator)(nil)

// NewDefaultExecutionCoordinator creates a new DefaultExecutionCoordinator.
// repo: The workspace repository.
// executor: The operation executor applying claimed batches.
// recorder: The metric recorder for claim metrics.
// tracer: The tracer for execution spans.
func NewDefaultExecutionCoordinator(repo repository.WorkspaceRepository, executor OperationExecutor, recorder metrics.MetricRecorder, tracer metrics.Tracer) *DefaultExecutionCoordinator {
	return &DefaultExecutionCoordinator{
		repo:     repo,
		executor: executor,
		recorder: recorder,
		tracer:   tracer,
	}
}

// Validate checks that the message exists and carries an executable batch.
func (c *DefaultExecutionCoordinator) Validate(ctx context.Context, messageID string) error {
	msg, err := c.repo.FindMessageByID(ctx, messageID)
	if err != nil {
		return err
	}
	if !msg.IsProposal() {
		return ErrMessageNotExecutable
	}
	if !msg.HasOperations() {
		return ErrMessageHasNoOperations
	}
	return nil
}

// Claim attempts to take ownership of the message's operation batch.
// The check and the pending -> executing flip run inside a single
// MutateMessage call: whichever concurrent claimant mutates first wins, and
// every later one observes the executing status it left behind.
func (c *DefaultExecutionCoordinator) Claim(ctx context.Context, messageID string) (*model.ClaimOutcome, error) {
	outcome := &model.ClaimOutcome{}
	_, err := c.repo.MutateMessage(ctx, messageID, func(msg *model.ChatMessage) error {
		if !msg.IsProposal() {
			return ErrMessageNotExecutable
		}
		if !msg.HasOperations() {
			return ErrMessageHasNoOperations
		}
		switch msg.ExecutionStatus {
		case model.ExecutionStatusExecuted:
			outcome.Cached = true
			outcome.Results = msg.ExecutionResults
			outcome.Succeeded = msg.ExecutionSucceeded
			return repository.ErrNoMutation
		case model.ExecutionStatusExecuting:
			outcome.Conflict = true
			return repository.ErrNoMutation
		}
		if err := msg.TransitionTo(model.ExecutionStatusExecuting); err != nil {
			return err
		}
		outcome.CanExecute = true
		outcome.Operations = msg.StoredOperations
		return nil
	})
	if err != nil {
		c.recorder.RecordClaim(ctx, metrics.OutcomeFailure)
		return nil, err
	}

	switch {
	case outcome.Cached:
		c.recorder.RecordClaim(ctx, metrics.OutcomeCached)
	case outcome.Conflict:
		c.recorder.RecordClaim(ctx, metrics.OutcomeConflict)
	default:
		c.recorder.RecordClaim(ctx, metrics.OutcomeClaimed)
	}
	return outcome, nil
}

// MarkExecuted records the batch results on the message and transitions it to executed.
func (c *DefaultExecutionCoordinator) MarkExecuted(ctx context.Context, messageID string, results []model.OperationResult, succeeded bool) error {
	_, err := c.repo.MutateMessage(ctx, messageID, func(msg *model.ChatMessage) error {
		return msg.MarkAsExecuted(results, succeeded)
	})
	return err
}

// Reset returns an interrupted execution to pending so the batch can be
// claimed again. A message that is not currently executing is left untouched;
// resetting is only meaningful for a claim that never completed.
func (c *DefaultExecutionCoordinator) Reset(ctx context.Context, messageID string, reason string) error {
	_, err := c.repo.MutateMessage(ctx, messageID, func(msg *model.ChatMessage) error {
		if msg.ExecutionStatus != model.ExecutionStatusExecuting {
			logger.Debugf("Message %s is '%s', not executing; nothing to reset.", messageID, msg.ExecutionStatus)
			return repository.ErrNoMutation
		}
		logger.Warnf("Resetting interrupted execution of message %s: %s", messageID, reason)
		return msg.ResetExecution(reason)
	})
	return err
}

// ConfirmExecution runs the whole claim protocol end to end.
func (c *DefaultExecutionCoordinator) ConfirmExecution(ctx context.Context, messageID string, defaultDate string) (*model.ExecutionSummary, error) {
	ctx, endSpan := c.tracer.StartSpan(ctx, "workspace.confirm_execution")
	defer endSpan()
	start := time.Now()
	defer func() {
		c.recorder.RecordDuration(ctx, "confirm_execution", time.Since(start), map[string]string{"message_id": messageID})
	}()

	if err := c.Validate(ctx, messageID); err != nil {
		c.tracer.RecordError(ctx, err)
		return nil, err
	}

	claim, err := c.Claim(ctx, messageID)
	if err != nil {
		c.tracer.RecordError(ctx, err)
		return nil, err
	}
	if claim.Cached {
		logger.Infof("Message %s was already executed; returning its recorded results.", messageID)
		c.tracer.RecordEvent(ctx, "execution.cached")
		return &model.ExecutionSummary{Results: claim.Results, AllSucceeded: claim.Succeeded}, nil
	}
	if claim.Conflict {
		conflictErr := exception.NewClaimConflictError(moduleName,
			fmt.Sprintf("message %s is already being executed", messageID), nil)
		c.tracer.RecordError(ctx, conflictErr)
		return nil, conflictErr
	}

	summary, err := c.executor.ExecuteBatch(ctx, claim.Operations, defaultDate)
	if err != nil {
		c.tracer.RecordError(ctx, err)
		c.resetAfterFailure(ctx, messageID, err)
		return nil, err
	}

	if err := c.MarkExecuted(ctx, messageID, summary.Results, summary.AllSucceeded); err != nil {
		c.tracer.RecordError(ctx, err)
		c.resetAfterFailure(ctx, messageID, err)
		return nil, err
	}
	logger.Infof("Executed message %s: %d result(s), allSucceeded=%t.", messageID, len(summary.Results), summary.AllSucceeded)
	return summary, nil
}

// resetAfterFailure makes a best-effort attempt to return an interrupted claim
// to pending. A compromised lock is the one condition under which no further
// writing may happen; the claim is then left executing and a later caller
// recovers it through the reset path.
func (c *DefaultExecutionCoordinator) resetAfterFailure(ctx context.Context, messageID string, cause error) {
	if exception.IsLockCompromised(cause) {
		logger.Errorf("Not resetting message %s after failure: the workspace lock was compromised.", messageID)
		return
	}
	if err := c.Reset(ctx, messageID, exception.ExtractErrorMessage(cause)); err != nil {
		logger.Warnf("Failed to reset message %s after execution failure: %v", messageID, err)
	}
}
