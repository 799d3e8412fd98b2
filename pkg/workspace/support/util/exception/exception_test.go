package exception_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	exception "github.com/harborlight/daybook/pkg/workspace/support/util/exception"
)

// Custom error type for testing reflection and type matching
type CustomError struct {
	Msg string
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("CustomError: %s", e.Msg)
}

func TestNewWorkspaceError(t *testing.T) {
	originalErr := errors.New("disk full")
	// NewWorkspaceError signature is (module, message, originalErr, isRetryable, isFatal)
	we := exception.NewWorkspaceError("docstore", "failed to persist", originalErr, true, false)

	assert.Equal(t, "docstore", we.Module)
	assert.Equal(t, "failed to persist", we.Message)
	assert.Equal(t, originalErr, we.Unwrap())
	assert.True(t, we.IsRetryable())
	assert.False(t, we.IsFatal())
	assert.Contains(t, we.Error(), "[docstore] failed to persist: disk full")
	assert.NotEmpty(t, we.StackTrace)
}

func TestNewWorkspaceErrorf(t *testing.T) {
	// Case 1: Only message args
	we1 := exception.NewWorkspaceErrorf("executor", "operation %d not found", 10)
	assert.False(t, we1.IsRetryable())
	assert.False(t, we1.IsFatal())
	assert.Nil(t, we1.Unwrap())
	assert.Contains(t, we1.Error(), "[executor] operation 10 not found")

	// Case 2: Message args + isFatal (a single bool argument is interpreted as isFatal)
	we2 := exception.NewWorkspaceErrorf("lock", "sentinel vanished", true)
	assert.False(t, we2.IsRetryable())
	assert.True(t, we2.IsFatal())
	assert.Nil(t, we2.Unwrap())

	// Case 3: Message args + isRetryable + isFatal
	// Input order: (..., isRetryable, isFatal)
	we3 := exception.NewWorkspaceErrorf("lock", "workspace busy after %d attempts", 20, true, false) // R=true, F=false
	assert.True(t, we3.IsRetryable())
	assert.False(t, we3.IsFatal())
	assert.Nil(t, we3.Unwrap())
	assert.Contains(t, we3.Error(), "workspace busy after 20 attempts")

	// Case 4: Message args + originalErr
	originalErr4 := errors.New("io error")
	we4 := exception.NewWorkspaceErrorf("docstore", "read failed", originalErr4)
	assert.False(t, we4.IsRetryable())
	assert.False(t, we4.IsFatal())
	assert.Equal(t, originalErr4, we4.Unwrap())

	// Case 5: Message args + isFatal + originalErr
	originalErr5 := errors.New("version skew")
	we5 := exception.NewWorkspaceErrorf("schema", "document from a newer build", true, originalErr5)
	assert.False(t, we5.IsRetryable())
	assert.True(t, we5.IsFatal())
	assert.Equal(t, originalErr5, we5.Unwrap())

	// Case 6: Message args + isRetryable + isFatal + originalErr (full set)
	originalErr6 := errors.New("contention")
	we6 := exception.NewWorkspaceErrorf("lock", "still held", true, false, originalErr6) // R=true, F=false
	assert.True(t, we6.IsRetryable())
	assert.False(t, we6.IsFatal())
	assert.Equal(t, originalErr6, we6.Unwrap())
}

// TestTaxonomyConstructors verifies the flag and sentinel combination each
// taxonomy constructor produces.
func TestTaxonomyConstructors(t *testing.T) {
	testCases := map[string]struct {
		err       *exception.WorkspaceError
		predicate func(error) bool
		retryable bool
		fatal     bool
	}{
		"lock unavailable is retryable": {
			err:       exception.NewLockUnavailableError("lock", "gave up after 20 attempts", nil),
			predicate: exception.IsLockUnavailable,
			retryable: true,
			fatal:     false,
		},
		"lock compromised is fatal": {
			err:       exception.NewLockCompromisedError("lock", "sentinel was taken over", nil),
			predicate: exception.IsLockCompromised,
			retryable: false,
			fatal:     true,
		},
		"validation failure is neither": {
			err:       exception.NewValidationError("docstore", "document rejected", nil),
			predicate: exception.IsValidationFailure,
			retryable: false,
			fatal:     false,
		},
		"corrupted file is neither": {
			err:       exception.NewCorruptedFileError("docstore", "tasks.json quarantined", nil),
			predicate: exception.IsCorruptedFile,
			retryable: false,
			fatal:     false,
		},
		"future version is fatal": {
			err:       exception.NewUnsupportedFutureVersionError("schema", "tasks.json is at version 99", nil),
			predicate: exception.IsUnsupportedFutureVersion,
			retryable: false,
			fatal:     true,
		},
		"claim conflict is neither": {
			err:       exception.NewClaimConflictError("coordinator", "already being executed", nil),
			predicate: exception.IsClaimConflict,
			retryable: false,
			fatal:     false,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.True(t, tc.predicate(tc.err))
			assert.Equal(t, tc.retryable, tc.err.IsRetryable())
			assert.Equal(t, tc.fatal, tc.err.IsFatal())
			assert.Equal(t, tc.retryable, exception.IsTemporary(tc.err))
			assert.Equal(t, tc.fatal, exception.IsFatal(tc.err))
		})
	}
}

// TestTaxonomyConstructors_PreserveOriginalError verifies that wrapping an
// original error keeps both the sentinel and the original reachable for
// errors.Is.
func TestTaxonomyConstructors_PreserveOriginalError(t *testing.T) {
	cause := errors.New("unexpected token")
	we := exception.NewCorruptedFileError("docstore", "cannot parse tasks.json", cause)

	assert.True(t, exception.IsCorruptedFile(we))
	assert.True(t, errors.Is(we, cause))
	assert.Contains(t, we.Error(), "unexpected token")
}

func TestIsTemporaryAndIsFatal(t *testing.T) {
	// The WorkspaceError flags take precedence over any message heuristics.
	retryableErr := exception.NewWorkspaceError("lock", "busy", errors.New("busy"), true, false)
	assert.True(t, exception.IsTemporary(retryableErr))
	assert.False(t, exception.IsFatal(retryableErr))

	fatalErr := exception.NewWorkspaceError("schema", "permission denied", errors.New("permission denied"), false, true)
	assert.False(t, exception.IsTemporary(fatalErr))
	assert.True(t, exception.IsFatal(fatalErr))

	// General errors fall back to keyword matching.
	timeoutErr := errors.New("connection timeout")
	assert.True(t, exception.IsTemporary(timeoutErr))
	assert.False(t, exception.IsFatal(timeoutErr))

	permErr := errors.New("permission denied")
	assert.False(t, exception.IsTemporary(permErr))
	assert.True(t, exception.IsFatal(permErr))

	assert.False(t, exception.IsTemporary(nil))
	assert.False(t, exception.IsFatal(nil))
}

func TestIsErrorOfType(t *testing.T) {
	// Register custom error for testing
	exception.RegisterErrorType("CustomErrorType", &CustomError{})

	// 1. Sentinel error match by registered name
	unavailable := exception.NewLockUnavailableError("lock", "gave up", nil)
	assert.True(t, exception.IsErrorOfType(unavailable, exception.LockUnavailableException))
	assert.False(t, exception.IsErrorOfType(unavailable, exception.LockCompromisedException))

	// 2. Wrapped error match by type name
	customErr := &CustomError{Msg: "test"}
	wrappedErr := exception.NewWorkspaceError("executor", "custom failure", customErr, false, false)
	assert.True(t, exception.IsErrorOfType(wrappedErr, "*exception_test.CustomError"))

	// 3. Wrapped error match by message substring
	assert.True(t, exception.IsErrorOfType(wrappedErr, "custom failure"))
	assert.True(t, exception.IsErrorOfType(wrappedErr, "CustomError: test"))

	// 4. Deeply wrapped error match
	deeplyWrapped := fmt.Errorf("level 2: %w", wrappedErr)
	assert.True(t, exception.IsErrorOfType(deeplyWrapped, "*exception_test.CustomError"))
	assert.False(t, exception.IsErrorOfType(deeplyWrapped, "NonExistentError"))

	// 5. Context errors are registered by name
	assert.True(t, exception.IsErrorOfType(context.DeadlineExceeded, "context.DeadlineExceeded"))

	// 6. Nil check
	assert.False(t, exception.IsErrorOfType(nil, "any"))
}

func TestIsWorkspaceError(t *testing.T) {
	assert.True(t, exception.IsWorkspaceError(exception.NewWorkspaceErrorf("lock", "busy")))
	assert.True(t, exception.IsWorkspaceError(fmt.Errorf("outer: %w", exception.NewWorkspaceErrorf("lock", "busy"))))
	assert.False(t, exception.IsWorkspaceError(errors.New("plain")))
	assert.False(t, exception.IsWorkspaceError(nil))
}

func TestExtractErrorMessage(t *testing.T) {
	we := exception.NewWorkspaceError("docstore", "failed to persist", errors.New("disk full"), false, false)
	assert.Equal(t, "failed to persist", exception.ExtractErrorMessage(we))
	assert.Equal(t, "plain error", exception.ExtractErrorMessage(errors.New("plain error")))
	assert.Equal(t, "", exception.ExtractErrorMessage(nil))
}
