package core

import (
	"strings"
)

// ActionKind identifies what an ActionRequest asks for.
type ActionKind string

// Action kinds
const (
	ActionTap       ActionKind = "tap"
	ActionType      ActionKind = "type"
	ActionScroll    ActionKind = "scroll"
	ActionBack      ActionKind = "back"
	ActionHome      ActionKind = "home"
	ActionLaunchApp ActionKind = "launch_app"
	ActionKeyEvent  ActionKind = "keyevent"
	ActionSwipe     ActionKind = "swipe"
	ActionWait      ActionKind = "wait"
	ActionDone      ActionKind = "done"
)

// BaseActions work without a privileged shell.
var BaseActions = []ActionKind{
	ActionTap, ActionType, ActionScroll, ActionBack, ActionHome, ActionWait, ActionDone,
}

// PrivilegedActions need a privileged shell.
var PrivilegedActions = []ActionKind{
	ActionLaunchApp, ActionKeyEvent, ActionSwipe,
}

// Scroll directions
const (
	DirectionForward  = "forward"
	DirectionBackward = "backward"
)

// ExpectedAfter describes a check run against the screen after a
// successful action.
type ExpectedAfter struct {
	TextExists string `json:"text_exists,omitempty"`
	Script     string `json:"script,omitempty"`
}

// IsEmpty reports whether there is nothing to check.
func (e *ExpectedAfter) IsEmpty() bool {
	return e == nil || (strings.TrimSpace(e.TextExists) == "" && strings.TrimSpace(e.Script) == "")
}

// ActionRequest is one intent. Fields irrelevant to the action are ignored.
type ActionRequest struct {
	Action              string         `json:"action"`
	Selector            *Selector      `json:"selector,omitempty"`
	Text                *string        `json:"text,omitempty"`
	Direction           string         `json:"direction,omitempty"`
	Coordinates         []int          `json:"coordinates,omitempty"`
	FallbackCoordinates []int          `json:"fallback_coordinates,omitempty"`
	From                []int          `json:"from,omitempty"`
	To                  []int          `json:"to,omitempty"`
	DurationMs          *int64         `json:"duration_ms,omitempty"`
	TimeoutMs           *int64         `json:"timeout_ms,omitempty"`
	PackageName         string         `json:"packageName,omitempty"`
	Keycode             *int           `json:"keycode,omitempty"`
	ExpectedAfter       *ExpectedAfter `json:"expected_after,omitempty"`
}

// Kind returns the lowercased action.
func (r ActionRequest) Kind() ActionKind {
	return ActionKind(strings.ToLower(strings.TrimSpace(r.Action)))
}

// TapPoint returns the coordinates a tap falls back to. FallbackCoordinates
// win over Coordinates. The result is false unless exactly two components
// are present.
func (r ActionRequest) TapPoint() (Point, bool) {
	coords := r.FallbackCoordinates
	if coords == nil {
		coords = r.Coordinates
	}
	return pointFrom(coords)
}

// SwipePoints returns From and To as points.
func (r ActionRequest) SwipePoints() (Point, Point, bool) {
	from, ok := pointFrom(r.From)
	if !ok {
		return Point{}, Point{}, false
	}
	to, ok := pointFrom(r.To)
	if !ok {
		return Point{}, Point{}, false
	}
	return from, to, true
}

// IsBackward reports whether a scroll asks for the backward direction.
func (r ActionRequest) IsBackward() bool {
	return strings.EqualFold(strings.TrimSpace(r.Direction), DirectionBackward)
}

func pointFrom(coords []int) (Point, bool) {
	if len(coords) != 2 {
		return Point{}, false
	}
	return Point{X: coords[0], Y: coords[1]}, true
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}

// Int64Ptr returns a pointer to n.
func Int64Ptr(n int64) *int64 {
	return &n
}

// GlobalAction is a system-wide navigation action.
type GlobalAction string

// Global actions
const (
	GlobalBack GlobalAction = "back"
	GlobalHome GlobalAction = "home"
)
