// Package executor turns action requests into outcomes by cascading
// through semantic, gesture and privileged strategies.
package executor

import (
	"fmt"
	"time"

	"github.com/openclaw/a11y-kernel/pkg/core"
	"github.com/openclaw/a11y-kernel/pkg/logger"
	"github.com/openclaw/a11y-kernel/pkg/tree"
)

// Defaults
const (
	DefaultWait          = 350 * time.Millisecond
	MinWait              = 50 * time.Millisecond
	MaxWait              = 3000 * time.Millisecond
	DefaultSwipeDuration = 220
	scrollSwipeDuration  = 220
)

// Host performs semantic actions on live elements. Every method reports
// whether the platform accepted the action.
type Host interface {
	Click(e core.Element) bool
	Focus(e core.Element) bool
	SetText(e core.Element, text string) bool
	Scroll(e core.Element, backward bool) bool
	GlobalAction(a core.GlobalAction) bool
}

// Gestures taps by synthetic gesture. *gesture.Bridge implements it.
type Gestures interface {
	TapByGesture(x, y float64) bool
	Supported() bool
}

// Privileged is the last-resort input injector. *root.Runner implements it.
type Privileged interface {
	Tap(x, y int) core.CommandOutcome
	Swipe(x1, y1, x2, y2, durationMs int) core.CommandOutcome
	KeyEvent(code int) core.CommandOutcome
	InputText(text string) core.CommandOutcome
	LaunchApp(pkg string) core.CommandOutcome
	IsAvailable() bool
}

// Engine executes action requests. It holds no state between calls; the
// caller serialises access to the live UI.
type Engine struct {
	host       Host
	gestures   Gestures
	privileged Privileged

	sleep func(time.Duration)
	now   func() time.Time
}

// New creates an engine. gestures and privileged may be nil: a nil
// privileged runner means root fallback is disabled.
func New(host Host, gestures Gestures, privileged Privileged) *Engine {
	return &Engine{
		host:       host,
		gestures:   gestures,
		privileged: privileged,
		sleep:      time.Sleep,
		now:        time.Now,
	}
}

// RootFallback reports whether a privileged runner is configured.
func (e *Engine) RootFallback() bool {
	return e.privileged != nil
}

// IsRootAvailable probes the privileged shell. False when disabled.
func (e *Engine) IsRootAvailable() bool {
	return e.privileged != nil && e.privileged.IsAvailable()
}

// Capabilities describes what this engine can do.
type Capabilities struct {
	RootFallback    bool              `json:"root_fallback"`
	GestureDispatch bool              `json:"gesture_dispatch"`
	Actions         []core.ActionKind `json:"actions"`
}

// Capabilities lists supported actions. Privileged-only actions are listed
// only when root fallback is enabled.
func (e *Engine) Capabilities() Capabilities {
	actions := append([]core.ActionKind(nil), core.BaseActions...)
	if e.RootFallback() {
		actions = append(actions, core.PrivilegedActions...)
	}
	return Capabilities{
		RootFallback:    e.RootFallback(),
		GestureDispatch: e.gestures != nil && e.gestures.Supported(),
		Actions:         actions,
	}
}

// Execute runs one request against the given screen and always returns a
// well-formed outcome. ElapsedMs covers the whole cascade.
func (e *Engine) Execute(req core.ActionRequest, screen *tree.Snapshot) (result core.ActionOutcome) {
	start := e.now()
	kind := req.Kind()

	defer func() {
		if r := recover(); r != nil {
			failure := core.ErrActionFailed.WithMessage(fmt.Sprintf("%s failed: %v", kind, r)).WithCause(fmt.Errorf("panic: %v", r))
			logger.Error("action %s: %v", kind, failure)
			result = core.Failed(failure)
		}
		result.ElapsedMs = e.now().Sub(start).Milliseconds()
	}()

	if screen == nil {
		screen = &tree.Snapshot{}
	}

	switch kind {
	case core.ActionTap:
		result = e.tap(req, screen)
	case core.ActionType:
		result = e.typeText(req, screen)
	case core.ActionScroll:
		result = e.scroll(req, screen)
	case core.ActionBack:
		result = e.global(core.GlobalBack)
	case core.ActionHome:
		result = e.global(core.GlobalHome)
	case core.ActionLaunchApp:
		result = e.launchApp(req)
	case core.ActionKeyEvent:
		result = e.keyEvent(req)
	case core.ActionSwipe:
		result = e.swipe(req)
	case core.ActionWait:
		result = e.wait(req)
	case core.ActionDone:
		result = core.Succeeded("", nil)
	default:
		result = core.Failed(core.ErrUnsupportedAction.WithMessage("Unsupported action: " + string(kind)))
	}

	logger.Debug("action %s: ok=%v strategy=%s error=%q", kind, result.Success, result.Strategy, result.Error)
	return result
}

// tap clicks the clickable ancestor of the selector match, then falls
// back to a gesture and a privileged tap at the request coordinates.
func (e *Engine) tap(req core.ActionRequest, screen *tree.Snapshot) core.ActionOutcome {
	var tiers []strategy
	if idx := tree.MatchIndex(screen.Elements, req.Selector); idx >= 0 {
		target := tree.FindEnabledClickableAncestor(screen.Elements[idx], screen.AncestorChain(idx))
		tiers = append(tiers, semanticClick{host: e.host, target: target})
	}

	point, ok := req.TapPoint()
	if !ok {
		return runCascade(tiers, fixedFailure(core.ErrNoMatch))
	}

	tiers = append(tiers, gestureTap{gestures: e.gestures, point: point})
	if e.privileged == nil {
		return runCascade(tiers, fixedFailure(
			core.ErrNoRootFallback.WithMessage("Fallback tap failed and root fallback disabled")))
	}

	tiers = append(tiers, privilegedTap{runner: e.privileged, point: point})
	return runCascade(tiers, commandFailure("Fallback tap failed"))
}

// typeText sets text on the selector match or the first editable element,
// falling back to privileged text input into the focused field.
func (e *Engine) typeText(req core.ActionRequest, screen *tree.Snapshot) core.ActionOutcome {
	if req.Text == nil {
		return core.Failed(core.ErrMissingField.WithMessage("Missing text for type action"))
	}

	idx := tree.MatchIndex(screen.Elements, req.Selector)
	if idx < 0 {
		idx = tree.FirstEditable(screen.Elements)
	}
	if idx < 0 {
		return core.Failed(core.ErrNoInputNode)
	}

	tiers := []strategy{semanticSetText{host: e.host, target: screen.Elements[idx], text: *req.Text}}
	if e.privileged == nil {
		return runCascade(tiers, fixedFailure(
			core.ErrNoRootFallback.WithMessage("Set text failed and root fallback disabled")))
	}

	tiers = append(tiers, privilegedText{runner: e.privileged, text: *req.Text})
	return runCascade(tiers, commandFailure("Set text failed"))
}

// scroll scrolls the first scrollable element, falling back to a
// privileged swipe across its center.
func (e *Engine) scroll(req core.ActionRequest, screen *tree.Snapshot) core.ActionOutcome {
	idx := tree.FirstScrollable(screen.Elements)
	if idx < 0 {
		return core.Failed(core.ErrNoScrollable)
	}
	target := screen.Elements[idx]
	backward := req.IsBackward()

	tiers := []strategy{semanticScroll{host: e.host, target: target, backward: backward}}
	if e.privileged == nil {
		return runCascade(tiers, fixedFailure(
			core.ErrNoRootFallback.WithMessage("Scroll action failed and root fallback disabled")))
	}

	tiers = append(tiers, privilegedScroll{runner: e.privileged, target: target, backward: backward})
	return runCascade(tiers, commandFailure("Scroll action failed"))
}

func (e *Engine) global(action core.GlobalAction) core.ActionOutcome {
	if e.host == nil || !e.host.GlobalAction(action) {
		return core.Failed(core.ErrGlobalActionFailed)
	}
	return core.Succeeded(core.StrategySemantic, nil)
}

func (e *Engine) launchApp(req core.ActionRequest) core.ActionOutcome {
	if e.privileged == nil {
		return core.Failed(core.ErrRootRequired)
	}
	pkg := req.PackageName
	if isBlank(pkg) {
		return core.Failed(core.ErrMissingField.WithMessage("Missing packageName"))
	}
	return privilegedOutcome(e.privileged.LaunchApp(pkg), "launch_app failed")
}

func (e *Engine) keyEvent(req core.ActionRequest) core.ActionOutcome {
	if e.privileged == nil {
		return core.Failed(core.ErrRootRequired)
	}
	if req.Keycode == nil {
		return core.Failed(core.ErrMissingField.WithMessage("Missing keycode"))
	}
	return privilegedOutcome(e.privileged.KeyEvent(*req.Keycode), "keyevent failed")
}

func (e *Engine) swipe(req core.ActionRequest) core.ActionOutcome {
	if e.privileged == nil {
		return core.Failed(core.ErrRootRequired)
	}
	from, to, ok := req.SwipePoints()
	if !ok {
		return core.Failed(core.ErrMissingField.WithMessage("Missing from/to coordinates"))
	}
	duration := DefaultSwipeDuration
	if req.DurationMs != nil {
		duration = int(*req.DurationMs)
	}
	return privilegedOutcome(e.privileged.Swipe(from.X, from.Y, to.X, to.Y, duration), "swipe failed")
}

// wait sleeps for timeout_ms clamped to [MinWait, MaxWait]. The clamp runs
// on milliseconds so huge values cannot overflow a Duration.
func (e *Engine) wait(req core.ActionRequest) core.ActionOutcome {
	d := DefaultWait
	if req.TimeoutMs != nil {
		ms := clampMillis(*req.TimeoutMs, MinWait.Milliseconds(), MaxWait.Milliseconds())
		d = time.Duration(ms) * time.Millisecond
	}
	e.sleep(d)
	return core.Succeeded("", nil)
}

func privilegedOutcome(out core.CommandOutcome, fallback string) core.ActionOutcome {
	if out.OK {
		return core.Succeeded(core.StrategyPrivileged, nil)
	}
	return core.Failed(out.Failure(fallback))
}

func clampMillis(ms, lo, hi int64) int64 {
	if ms < lo {
		return lo
	}
	if ms > hi {
		return hi
	}
	return ms
}
