package model

import (
	"fmt"
	"time"
)

// MessageRole identifies who authored a chat message.
type MessageRole string

const (
	// MessageRoleUser indicates a message written by the user.
	MessageRoleUser MessageRole = "user"
	// MessageRoleAssistant indicates a message written by the assistant.
	MessageRoleAssistant MessageRole = "assistant"
)

// MessageKind identifies the shape of a chat message.
type MessageKind string

const (
	// MessageKindText is a plain conversational message.
	MessageKindText MessageKind = "text"
	// MessageKindProposal is an assistant message carrying proposed operations
	// awaiting user confirmation.
	MessageKindProposal MessageKind = "proposal"
)

// ExecutionStatus represents the lifecycle state of a proposal message's
// operation batch. Plain text messages carry no execution status.
type ExecutionStatus string

const (
	// ExecutionStatusPending indicates the proposal is awaiting confirmation.
	ExecutionStatusPending ExecutionStatus = "pending"
	// ExecutionStatusExecuting indicates a caller has claimed the batch and is running it.
	ExecutionStatusExecuting ExecutionStatus = "executing"
	// ExecutionStatusExecuted indicates the batch ran to completion and its results are recorded.
	ExecutionStatusExecuted ExecutionStatus = "executed"
)

// isValidExecutionTransition checks if a transition from one ExecutionStatus to
// another is valid. Executed is terminal; the only way back from executing is a
// reset to pending.
func isValidExecutionTransition(from, to ExecutionStatus) bool {
	switch from {
	case ExecutionStatusPending:
		return to == ExecutionStatusExecuting
	case ExecutionStatusExecuting:
		return to == ExecutionStatusExecuted || to == ExecutionStatusPending
	case ExecutionStatusExecuted:
		return false
	default:
		return false
	}
}

// ChatMessage represents one message in the workspace conversation log.
// Proposal messages additionally carry the operations the assistant proposed
// and, once executed, the recorded results.
type ChatMessage struct {
	ID                 string            `json:"id"`
	Role               MessageRole       `json:"role"`
	Kind               MessageKind       `json:"kind"`
	Content            string            `json:"content"`
	CreatedAt          time.Time         `json:"createdAt"`
	ExecutionStatus    ExecutionStatus   `json:"executionStatus,omitempty"`
	StoredOperations   []Operation       `json:"operations,omitempty"`
	ExecutionResults   []OperationResult `json:"executionResults,omitempty"`
	ExecutionSucceeded bool              `json:"executionSucceeded,omitempty"`
}

// NewUserMessage creates a new plain text message from the user.
func NewUserMessage(content string) *ChatMessage {
	return &ChatMessage{
		ID:        NewID(),
		Role:      MessageRoleUser,
		Kind:      MessageKindText,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewAssistantMessage creates a new plain text message from the assistant.
func NewAssistantMessage(content string) *ChatMessage {
	return &ChatMessage{
		ID:        NewID(),
		Role:      MessageRoleAssistant,
		Kind:      MessageKindText,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewProposalMessage creates a new assistant proposal message carrying
// operations in pending state.
// content: The assistant's explanation of the proposal.
// operations: The operations awaiting confirmation.
// Returns: A pointer to the new ChatMessage instance.
func NewProposalMessage(content string, operations []Operation) *ChatMessage {
	return &ChatMessage{
		ID:               NewID(),
		Role:             MessageRoleAssistant,
		Kind:             MessageKindProposal,
		Content:          content,
		CreatedAt:        time.Now(),
		ExecutionStatus:  ExecutionStatusPending,
		StoredOperations: operations,
	}
}

// IsProposal reports whether the message carries an operation batch.
func (m *ChatMessage) IsProposal() bool {
	return m.Kind == MessageKindProposal
}

// HasOperations reports whether the message carries at least one operation.
func (m *ChatMessage) HasOperations() bool {
	return len(m.StoredOperations) > 0
}

// TransitionTo transitions the message's execution status.
// It returns an error if the transition is invalid. The transition is strict:
// callers rely on a failed pending->executing transition to lose a concurrent
// claim race, so invalid transitions are never forced.
func (m *ChatMessage) TransitionTo(next ExecutionStatus) error {
	if !isValidExecutionTransition(m.ExecutionStatus, next) {
		return fmt.Errorf("Invalid execution status transition: %s -> %s", m.ExecutionStatus, next)
	}
	m.ExecutionStatus = next
	return nil
}

// MarkAsExecuted records the batch's results and transitions the message to executed.
// results: The per-operation outcome records.
// succeeded: Whether every operation succeeded.
// Returns: An error if the message is not currently executing.
func (m *ChatMessage) MarkAsExecuted(results []OperationResult, succeeded bool) error {
	if err := m.TransitionTo(ExecutionStatusExecuted); err != nil {
		return err
	}
	m.ExecutionResults = results
	m.ExecutionSucceeded = succeeded
	return nil
}

// ResetExecution returns an executing message to pending so the batch can be
// claimed again, and attaches a synthetic failed result explaining the reset.
// reason: A human-readable explanation of why execution was abandoned.
// Returns: An error if the message is not currently executing.
func (m *ChatMessage) ResetExecution(reason string) error {
	if err := m.TransitionTo(ExecutionStatusPending); err != nil {
		return err
	}
	m.ExecutionResults = append(m.ExecutionResults, OperationResult{
		Kind:        OperationKindReset,
		Description: "Execution was interrupted and reset",
		Success:     false,
		Error:       reason,
	})
	m.ExecutionSucceeded = false
	return nil
}

// ClaimOutcome describes the result of attempting to claim a proposal message
// for execution. Exactly one of CanExecute, Cached, or Conflict is set.
type ClaimOutcome struct {
	// CanExecute indicates the claim won and the caller must now execute Operations.
	CanExecute bool
	// Cached indicates the batch was already executed; Results and Succeeded
	// carry the recorded outcome.
	Cached bool
	// Conflict indicates another caller is currently executing the batch.
	Conflict bool
	// Operations is the batch to execute when CanExecute is set.
	Operations []Operation
	// Results is the recorded outcome when Cached is set.
	Results []OperationResult
	// Succeeded is the recorded overall outcome when Cached is set.
	Succeeded bool
}
