package core

import (
	"fmt"
)

// ErrorCategory classifies why an action failed.
type ErrorCategory int

// Error categories
const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategorySelection                       // No element matched, no editable or scrollable node
	ErrCategoryCapability                      // Required fallback disabled or unsupported by host
	ErrCategoryExecution                       // Every applicable strategy was tried and failed
	ErrCategoryTimeout                         // A privileged command exceeded its timeout
	ErrCategoryMalformed                       // Missing required field or unsupported action
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategorySelection:
		return "selection"
	case ErrCategoryCapability:
		return "capability"
	case ErrCategoryExecution:
		return "execution"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// ExecutionError represents a structured error with category and code
type ExecutionError struct {
	Category ErrorCategory
	Code     string // Machine-readable code: no_match, root_required, etc.
	Message  string // Human-readable message
	Cause    error  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Cause:    e.Cause,
	}
}

// Predefined errors. Messages are the defaults reported to clients; the
// engine narrows them per action with WithMessage.
var (
	// Selection errors
	ErrNoMatch = &ExecutionError{
		Category: ErrCategorySelection,
		Code:     "no_match",
		Message:  "No tappable node matched selector",
	}
	ErrNoInputNode = &ExecutionError{
		Category: ErrCategorySelection,
		Code:     "no_input_node",
		Message:  "No input node found",
	}
	ErrNoScrollable = &ExecutionError{
		Category: ErrCategorySelection,
		Code:     "no_scrollable_node",
		Message:  "No scrollable node found",
	}

	// Capability errors
	ErrRootRequired = &ExecutionError{
		Category: ErrCategoryCapability,
		Code:     "root_required",
		Message:  "This action requires root-enabled build",
	}
	ErrNoRootFallback = &ExecutionError{
		Category: ErrCategoryCapability,
		Code:     "root_fallback_disabled",
		Message:  "action failed and root fallback disabled",
	}

	// Execution errors
	ErrActionFailed = &ExecutionError{
		Category: ErrCategoryExecution,
		Code:     "action_failed",
		Message:  "action failed",
	}
	ErrGlobalActionFailed = &ExecutionError{
		Category: ErrCategoryExecution,
		Code:     "global_action_failed",
		Message:  "Global action failed",
	}

	// Timeout errors
	ErrCommandTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "command_timeout",
		Message:  "timeout",
	}

	// Malformed request errors
	ErrMissingField = &ExecutionError{
		Category: ErrCategoryMalformed,
		Code:     "missing_field",
		Message:  "missing required field",
	}
	ErrUnsupportedAction = &ExecutionError{
		Category: ErrCategoryMalformed,
		Code:     "unsupported_action",
		Message:  "Unsupported action",
	}
)
