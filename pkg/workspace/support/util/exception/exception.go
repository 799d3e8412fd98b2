// Package exception provides custom error types and error handling utilities for the Daybook workspace.
// It standardizes errors raised by the persistence core, allowing them to be categorized
// by retry policy and by whether they are fatal to the surrounding call chain.
package exception

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"
)

// errorRegistry maps error type names to concrete Go error instances.
// It holds error instances (singletons) for comparison using errors.Is.
var errorRegistry = make(map[string]error)

// registryMutex protects access to errorRegistry.
var registryMutex sync.RWMutex

// RegisterErrorType registers an error type in the registry.
// Registered error types are referenced by the IsErrorOfType function and are
// used for error classification.
//
// name: A unique identifier for the error type.
// prototype: An instance of the error to be registered. Used for comparison with errors.Is.
//
// If prototype is nil or name is empty, this function will panic.
func RegisterErrorType(name string, prototype error) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if name == "" {
		panic("Error type name cannot be empty")
	}
	if prototype == nil {
		panic(fmt.Sprintf("Cannot register nil prototype for name: %s", name))
	}

	errorRegistry[name] = prototype
}

// IsErrorTypeRegistered checks if the specified error type name is registered in the registry.
// name: The error type name to check.
// Returns: true if registered, false otherwise.
func IsErrorTypeRegistered(name string) bool {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	_, ok := errorRegistry[name]
	return ok
}

// WorkspaceError is a custom error type raised by the workspace persistence core.
// It holds the module where the error occurred, a message, the wrapped original error,
// and flags indicating whether it is retryable or fatal.
type WorkspaceError struct {
	// Module indicates the module where the error occurred (e.g., "lock", "docstore", "executor").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error.
	OriginalErr error
	// isRetryable indicates whether the caller may retry the failed call later.
	isRetryable bool
	// isFatal indicates that the surrounding call chain must abort and no further
	// transacting should be attempted on this path.
	isFatal bool
	// StackTrace is the stack trace at the time of the error (for debugging).
	StackTrace string
}

// NewWorkspaceError creates a new WorkspaceError instance.
// module: The module where the error occurred.
// message: The error message.
// originalErr: The original error to wrap.
// isRetryable: Whether the caller may retry.
// isFatal: Whether the call chain must abort.
// Returns: A new WorkspaceError instance.
func NewWorkspaceError(module, message string, originalErr error, isRetryable, isFatal bool) *WorkspaceError {
	// Capture stack trace (for debugging purposes)
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	stackTrace := string(buf[:n])

	return &WorkspaceError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		isFatal:     isFatal,
		StackTrace:  stackTrace,
	}
}

// NewWorkspaceErrorf creates a new WorkspaceError instance using a format string.
// Optional flags and an error are extracted from the end of the variadic arguments 'a'
// in the order: [isRetryable bool], [isFatal bool], [originalErr error].
// The remaining arguments are used for fmt.Sprintf.
//
// Order of optional arguments (from the end):
// 1. [originalErr error]
// 2. [isFatal bool]
// 3. [isRetryable bool]
//
// Example:
// NewWorkspaceErrorf("docstore", "failed to persist %q", "tasks", false, io.ErrShortWrite)
// -> message: `failed to persist "tasks"`, isRetryable: false, isFatal: false, originalErr: io.ErrShortWrite
func NewWorkspaceErrorf(module, format string, a ...interface{}) *WorkspaceError {
	var originalErr error
	isRetryable := false
	isFatal := false
	args := a

	// Check arguments from the end and extract error, isFatal, isRetryable in order
	// 1. originalErr (last)
	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			originalErr = err
			args = args[:len(args)-1]
		}
	}

	// 2. isFatal (second to last)
	if len(args) > 0 {
		if b, ok := args[len(args)-1].(bool); ok {
			isFatal = b
			args = args[:len(args)-1]
		}
	}

	// 3. isRetryable (third to last)
	if len(args) > 0 {
		if b, ok := args[len(args)-1].(bool); ok {
			isRetryable = b
			args = args[:len(args)-1]
		}
	}

	message := fmt.Sprintf(format, args...)

	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	stackTrace := string(buf[:n])

	return &WorkspaceError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		isFatal:     isFatal,
		StackTrace:  stackTrace,
	}
}

// Exception type names referenced by the registry and by configuration.
const (
	// LockUnavailableException indicates the cross-process lock could not be
	// acquired within the retry budget. The system is busy; callers may retry.
	LockUnavailableException = "LockUnavailableException"
	// LockCompromisedException indicates the sentinel lock was deleted or
	// rewritten by another party while this process believed it held the lock.
	LockCompromisedException = "LockCompromisedException"
	// ValidationFailureException indicates a document was rejected by its schema
	// before persisting; nothing was written.
	ValidationFailureException = "ValidationFailureException"
	// CorruptedFileException indicates a document file could not be parsed or
	// validated and has been quarantined.
	CorruptedFileException = "CorruptedFileException"
	// UnsupportedFutureVersionException indicates a document declares a schema
	// version newer than this build understands.
	UnsupportedFutureVersionException = "UnsupportedFutureVersionException"
	// ClaimConflictException indicates another caller is already executing the
	// record's operation batch.
	ClaimConflictException = "ClaimConflictException"
)

// Sentinel errors for the workspace error taxonomy.
var (
	// ErrLockUnavailable is a sentinel error indicating lock acquisition exhausted its retry budget.
	ErrLockUnavailable = errors.New(LockUnavailableException)
	// ErrLockCompromised is a sentinel error indicating the held lock was externally compromised.
	ErrLockCompromised = errors.New(LockCompromisedException)
	// ErrValidationFailure is a sentinel error indicating a schema-rejected write.
	ErrValidationFailure = errors.New(ValidationFailureException)
	// ErrCorruptedFile is a sentinel error indicating a quarantined document file.
	ErrCorruptedFile = errors.New(CorruptedFileException)
	// ErrUnsupportedFutureVersion is a sentinel error indicating a document from a newer build.
	ErrUnsupportedFutureVersion = errors.New(UnsupportedFutureVersionException)
	// ErrClaimConflict is a sentinel error indicating a losing concurrent claim.
	ErrClaimConflict = errors.New(ClaimConflictException)
)

// joinSentinel wraps originalErr together with the taxonomy sentinel so that
// errors.Is matches both.
func joinSentinel(sentinel, originalErr error) error {
	if originalErr != nil {
		return errors.Join(sentinel, originalErr)
	}
	return sentinel
}

// NewLockUnavailableError creates a WorkspaceError indicating the lock retry budget
// was exhausted. The error is retryable: the caller should surface it as
// "system busy, try again later".
// module: The module where the error occurred.
// message: The error message.
// originalErr: The original error to wrap.
// Returns: A new WorkspaceError instance.
func NewLockUnavailableError(module, message string, originalErr error) *WorkspaceError {
	return NewWorkspaceError(module, message, joinSentinel(ErrLockUnavailable, originalErr), true, false)
}

// NewLockCompromisedError creates a WorkspaceError indicating the sentinel lock was
// externally deleted or rewritten while held. This is fatal: correctness can no
// longer be guaranteed on this call chain and no further transacting may happen.
// module: The module where the error occurred.
// message: The error message.
// originalErr: The original error to wrap.
// Returns: A new WorkspaceError instance.
func NewLockCompromisedError(module, message string, originalErr error) *WorkspaceError {
	return NewWorkspaceError(module, message, joinSentinel(ErrLockCompromised, originalErr), false, true)
}

// NewValidationError creates a WorkspaceError indicating a document was rejected by
// its schema before persisting. Nothing was written.
// module: The module where the error occurred.
// message: The error message.
// originalErr: The original error to wrap.
// Returns: A new WorkspaceError instance.
func NewValidationError(module, message string, originalErr error) *WorkspaceError {
	return NewWorkspaceError(module, message, joinSentinel(ErrValidationFailure, originalErr), false, false)
}

// NewCorruptedFileError creates a WorkspaceError describing a document file that
// could not be parsed or validated. The store quarantines the file and continues
// with a default document, so this error is logged rather than returned to callers.
// module: The module where the error occurred.
// message: The error message.
// originalErr: The original error to wrap.
// Returns: A new WorkspaceError instance.
func NewCorruptedFileError(module, message string, originalErr error) *WorkspaceError {
	return NewWorkspaceError(module, message, joinSentinel(ErrCorruptedFile, originalErr), false, false)
}

// NewUnsupportedFutureVersionError creates a WorkspaceError indicating a document
// declares a schema version newer than this build understands. This is fatal and
// never retried: reading would silently misinterpret data from a newer build.
// module: The module where the error occurred.
// message: The error message.
// originalErr: The original error to wrap.
// Returns: A new WorkspaceError instance.
func NewUnsupportedFutureVersionError(module, message string, originalErr error) *WorkspaceError {
	return NewWorkspaceError(module, message, joinSentinel(ErrUnsupportedFutureVersion, originalErr), false, true)
}

// NewClaimConflictError creates a WorkspaceError for the losing side of a
// concurrent claim. Not a protocol failure; surfaced as "already being processed".
// module: The module where the error occurred.
// message: The error message.
// originalErr: The original error to wrap.
// Returns: A new WorkspaceError instance.
func NewClaimConflictError(module, message string, originalErr error) *WorkspaceError {
	return NewWorkspaceError(module, message, joinSentinel(ErrClaimConflict, originalErr), false, false)
}

// Error implements the error interface.
// It returns the error's module, message, and the string representation of the original error.
func (e *WorkspaceError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *WorkspaceError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns whether this error is retryable.
func (e *WorkspaceError) IsRetryable() bool {
	return e.isRetryable
}

// IsFatal returns whether this error is fatal to the surrounding call chain.
func (e *WorkspaceError) IsFatal() bool {
	return e.isFatal
}

// IsWorkspaceError determines if the given error is of type WorkspaceError.
// err: The error to check.
// Returns: true if it is a WorkspaceError, false otherwise.
func IsWorkspaceError(err error) bool {
	if err == nil {
		return false
	}
	var we *WorkspaceError
	return errors.As(err, &we)
}

// IsTemporary determines if an error is temporary and worth retrying later.
// If it's a WorkspaceError, its IsRetryable flag takes precedence.
// err: The error to check.
// Returns: true if it's a temporary error, false otherwise.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	// Prioritize the IsRetryable flag of WorkspaceError.
	var we *WorkspaceError
	if errors.As(err, &we) {
		return we.IsRetryable()
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "temporarily unavailable") ||
		strings.Contains(errStr, "busy")
}

// IsFatal determines if an error must abort the surrounding call chain.
// If it's a WorkspaceError, its flag takes precedence.
// err: The error to check.
// Returns: true if it's a fatal error, false otherwise.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var we *WorkspaceError
	if errors.As(err, &we) {
		return we.IsFatal()
	}
	errStr := err.Error()
	return strings.Contains(errStr, "permission denied") ||
		strings.Contains(errStr, "data corruption")
}

// IsErrorOfType checks if an error matches a specified type name (string).
// errorTypeName can be a registered sentinel name (e.g., "LockUnavailableException"),
// a Go error type name, or a substring of an error message.
// It checks in order: registered sentinel errors (errors.Is), substring of error message,
// and type name comparison using reflection.
// err: The error to check.
// errorTypeName: The error type name or substring to compare against.
// Returns: true if it matches, false otherwise.
func IsErrorOfType(err error, errorTypeName string) bool {
	if err == nil {
		return false
	}

	// 1. Comparison with registered sentinel errors using errors.Is
	registryMutex.RLock()
	targetError, ok := errorRegistry[errorTypeName]
	registryMutex.RUnlock()

	if ok {
		if errors.Is(err, targetError) {
			return true
		}
	}

	// 2. Traverse the error chain and compare by substring of error message or type name
	currentErr := err
	for currentErr != nil {
		// 2-1. Comparison by substring of error message
		if strings.Contains(currentErr.Error(), errorTypeName) {
			return true
		}

		// 2-2. Comparison by type name (using reflection)
		errType := reflect.TypeOf(currentErr)
		if errType != nil {
			if errType.String() == errorTypeName || (errType.Kind() == reflect.Ptr && errType.Elem().String() == errorTypeName) {
				return true
			}
		}

		currentErr = errors.Unwrap(currentErr)
	}

	return false
}

// IsLockUnavailable determines if an error indicates an exhausted lock retry budget.
func IsLockUnavailable(err error) bool {
	return err != nil && errors.Is(err, ErrLockUnavailable)
}

// IsLockCompromised determines if an error indicates an externally compromised lock.
func IsLockCompromised(err error) bool {
	return err != nil && errors.Is(err, ErrLockCompromised)
}

// IsValidationFailure determines if an error indicates a schema-rejected write.
func IsValidationFailure(err error) bool {
	return err != nil && errors.Is(err, ErrValidationFailure)
}

// IsCorruptedFile determines if an error describes a quarantined document file.
func IsCorruptedFile(err error) bool {
	return err != nil && errors.Is(err, ErrCorruptedFile)
}

// IsUnsupportedFutureVersion determines if an error indicates a document from a newer build.
func IsUnsupportedFutureVersion(err error) bool {
	return err != nil && errors.Is(err, ErrUnsupportedFutureVersion)
}

// IsClaimConflict determines if an error indicates a losing concurrent claim.
func IsClaimConflict(err error) bool {
	return err != nil && errors.Is(err, ErrClaimConflict)
}

func init() {
	// Register sentinel errors so that errors.Is can detect them by constant name.
	RegisterErrorType(LockUnavailableException, ErrLockUnavailable)
	RegisterErrorType(LockCompromisedException, ErrLockCompromised)
	RegisterErrorType(ValidationFailureException, ErrValidationFailure)
	RegisterErrorType(CorruptedFileException, ErrCorruptedFile)
	RegisterErrorType(UnsupportedFutureVersionException, ErrUnsupportedFutureVersion)
	RegisterErrorType(ClaimConflictException, ErrClaimConflict)

	// Common context error names.
	RegisterErrorType("context.DeadlineExceeded", context.DeadlineExceeded)
	RegisterErrorType("context.Canceled", context.Canceled)
}

// ExtractErrorMessage extracts the error message string from an error.
// For WorkspaceError, it returns the cleaner Message field.
// Otherwise, it returns the standard Error() string.
// err: The error from which to extract the message.
// Returns: The error message string.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var we *WorkspaceError
	if errors.As(err, &we) {
		return we.Message
	}
	return err.Error()
}
