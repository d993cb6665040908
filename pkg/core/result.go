package core

import (
	"strings"
)

// Strategy names the tier that completed an action.
type Strategy string

// Strategies, most precise first.
const (
	StrategySemantic   Strategy = "semantic"
	StrategyGesture    Strategy = "gesture"
	StrategyPrivileged Strategy = "privileged"
)

// ActionOutcome is the single result produced for every ActionRequest.
// A successful outcome never carries Error or Code.
type ActionOutcome struct {
	Success        bool     `json:"ok"`
	Error          string   `json:"error,omitempty"`
	Code           string   `json:"code,omitempty"`
	Strategy       Strategy `json:"strategy,omitempty"`
	MatchedElement *Element `json:"matched_element,omitempty"`
	ElapsedMs      int64    `json:"elapsed_ms"`
}

// Succeeded builds a success outcome. Strategy may be empty for actions
// that do not touch the UI.
func Succeeded(strategy Strategy, matched *Element) ActionOutcome {
	return ActionOutcome{
		Success:        true,
		Strategy:       strategy,
		MatchedElement: matched,
	}
}

// Failed builds a failure outcome from a structured error.
func Failed(err *ExecutionError) ActionOutcome {
	return ActionOutcome{
		Success: false,
		Error:   err.Message,
		Code:    err.Code,
	}
}

// CommandOutcome is the result of one privileged shell invocation.
// Stdout and Stderr are trimmed.
type CommandOutcome struct {
	OK     bool   `json:"ok"`
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

// TimedOut reports whether the command was killed on timeout.
func (c CommandOutcome) TimedOut() bool {
	return !c.OK && c.Stdout == "" && c.Stderr == "timeout"
}

// Detail returns Stderr when it is not blank, otherwise fallback.
func (c CommandOutcome) Detail(fallback string) string {
	if strings.TrimSpace(c.Stderr) != "" {
		return c.Stderr
	}
	return fallback
}

// Failure converts a failed command into an ExecutionError, preferring
// stderr over the fallback message.
func (c CommandOutcome) Failure(fallback string) *ExecutionError {
	if c.TimedOut() {
		return ErrCommandTimeout
	}
	return ErrActionFailed.WithMessage(c.Detail(fallback))
}
