package core

import (
	"errors"
	"strings"
	"testing"
)

func TestExecutionError_Error(t *testing.T) {
	err := &ExecutionError{
		Category: ErrCategorySelection,
		Code:     "test_error",
		Message:  "test message",
	}

	if got := err.Error(); got != "test message" {
		t.Errorf("Error() = %q, want %q", got, "test message")
	}
}

func TestExecutionError_ErrorWithCause(t *testing.T) {
	cause := errors.New("exit status 1")
	err := ErrActionFailed.WithCause(cause)

	got := err.Error()
	if !strings.Contains(got, "action failed") {
		t.Errorf("Error() = %q, should contain 'action failed'", got)
	}
	if !strings.Contains(got, "exit status 1") {
		t.Errorf("Error() = %q, should contain 'exit status 1'", got)
	}
}

func TestExecutionError_WithMessage(t *testing.T) {
	original := ErrNoRootFallback
	newErr := original.WithMessage("Scroll action failed and root fallback disabled")

	if newErr.Message != "Scroll action failed and root fallback disabled" {
		t.Errorf("Message = %q", newErr.Message)
	}
	if newErr.Code != original.Code {
		t.Error("WithMessage() changed code")
	}
	if original.Message == newErr.Message {
		t.Error("WithMessage() modified original error")
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err      *ExecutionError
		category ErrorCategory
		code     string
	}{
		{ErrNoMatch, ErrCategorySelection, "no_match"},
		{ErrNoInputNode, ErrCategorySelection, "no_input_node"},
		{ErrNoScrollable, ErrCategorySelection, "no_scrollable_node"},
		{ErrRootRequired, ErrCategoryCapability, "root_required"},
		{ErrNoRootFallback, ErrCategoryCapability, "root_fallback_disabled"},
		{ErrActionFailed, ErrCategoryExecution, "action_failed"},
		{ErrGlobalActionFailed, ErrCategoryExecution, "global_action_failed"},
		{ErrCommandTimeout, ErrCategoryTimeout, "command_timeout"},
		{ErrMissingField, ErrCategoryMalformed, "missing_field"},
		{ErrUnsupportedAction, ErrCategoryMalformed, "unsupported_action"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Category != tt.category {
				t.Errorf("Category = %s, want %s", tt.err.Category, tt.category)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}

func TestErrorCategory_String(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		want     string
	}{
		{ErrCategoryNone, "none"},
		{ErrCategorySelection, "selection"},
		{ErrCategoryCapability, "capability"},
		{ErrCategoryExecution, "execution"},
		{ErrCategoryTimeout, "timeout"},
		{ErrCategoryMalformed, "malformed"},
		{ErrorCategory(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.category.String(); got != tt.want {
			t.Errorf("ErrorCategory(%d).String() = %q, want %q", tt.category, got, tt.want)
		}
	}
}

func TestExecutionError_ErrorsIs(t *testing.T) {
	cause := errors.New("root cause")
	err := ErrCommandTimeout.WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() should find the cause")
	}
	if !errors.Is(err.WithMessage("other"), ErrCommandTimeout) {
		t.Error("errors.Is() should match on code")
	}
	if errors.Is(err, ErrActionFailed) {
		t.Error("errors.Is() matched a different code")
	}
}
