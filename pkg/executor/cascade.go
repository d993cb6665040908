package executor

import (
	"strings"

	"github.com/openclaw/a11y-kernel/pkg/core"
	"github.com/openclaw/a11y-kernel/pkg/logger"
)

// attempt is the result of one strategy.
type attempt struct {
	ok      bool
	matched *core.Element
	// command is set by privileged strategies so failures can report stderr.
	command *core.CommandOutcome
}

// strategy is one tier of a cascade.
type strategy interface {
	kind() core.Strategy
	try() attempt
}

// failureFunc builds the error once every tier failed. last is the final
// attempt made, or nil when there were no tiers.
type failureFunc func(last *attempt) *core.ExecutionError

// runCascade tries tiers in order and stops at the first success.
func runCascade(tiers []strategy, failure failureFunc) core.ActionOutcome {
	var last *attempt
	for _, t := range tiers {
		a := tryTier(t)
		logger.Debug("  %s tier: ok=%v", t.kind(), a.ok)
		if a.ok {
			return core.Succeeded(t.kind(), a.matched)
		}
		last = &a
	}
	return core.Failed(failure(last))
}

// tryTier runs one tier. A panic counts as a failed attempt so the next
// tier still runs.
func tryTier(t strategy) (a attempt) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("%s tier panicked: %v", t.kind(), r)
			a = attempt{}
		}
	}()
	return t.try()
}

func fixedFailure(err *core.ExecutionError) failureFunc {
	return func(*attempt) *core.ExecutionError { return err }
}

// commandFailure prefers the stderr of a failed privileged command.
func commandFailure(fallback string) failureFunc {
	return func(last *attempt) *core.ExecutionError {
		if last != nil && last.command != nil {
			return last.command.Failure(fallback)
		}
		return core.ErrActionFailed.WithMessage(fallback)
	}
}

type semanticClick struct {
	host   Host
	target core.Element
}

func (s semanticClick) kind() core.Strategy { return core.StrategySemantic }

func (s semanticClick) try() attempt {
	if s.host == nil || !s.host.Click(s.target) {
		return attempt{}
	}
	target := s.target
	return attempt{ok: true, matched: &target}
}

type gestureTap struct {
	gestures Gestures
	point    core.Point
}

func (g gestureTap) kind() core.Strategy { return core.StrategyGesture }

func (g gestureTap) try() attempt {
	if g.gestures == nil {
		return attempt{}
	}
	return attempt{ok: g.gestures.TapByGesture(float64(g.point.X), float64(g.point.Y))}
}

type privilegedTap struct {
	runner Privileged
	point  core.Point
}

func (p privilegedTap) kind() core.Strategy { return core.StrategyPrivileged }

func (p privilegedTap) try() attempt {
	out := p.runner.Tap(p.point.X, p.point.Y)
	return attempt{ok: out.OK, command: &out}
}

// semanticSetText focuses the target before setting its text. Focus
// failure is not fatal.
type semanticSetText struct {
	host   Host
	target core.Element
	text   string
}

func (s semanticSetText) kind() core.Strategy { return core.StrategySemantic }

func (s semanticSetText) try() attempt {
	if s.host == nil {
		return attempt{}
	}
	s.host.Focus(s.target)
	if !s.host.SetText(s.target, s.text) {
		return attempt{}
	}
	target := s.target
	return attempt{ok: true, matched: &target}
}

type privilegedText struct {
	runner Privileged
	text   string
}

func (p privilegedText) kind() core.Strategy { return core.StrategyPrivileged }

func (p privilegedText) try() attempt {
	out := p.runner.InputText(p.text)
	return attempt{ok: out.OK, command: &out}
}

type semanticScroll struct {
	host     Host
	target   core.Element
	backward bool
}

func (s semanticScroll) kind() core.Strategy { return core.StrategySemantic }

func (s semanticScroll) try() attempt {
	if s.host == nil || !s.host.Scroll(s.target, s.backward) {
		return attempt{}
	}
	target := s.target
	return attempt{ok: true, matched: &target}
}

// privilegedScroll swipes between the element center and half its center
// height: upward for forward, downward for backward.
type privilegedScroll struct {
	runner   Privileged
	target   core.Element
	backward bool
}

func (p privilegedScroll) kind() core.Strategy { return core.StrategyPrivileged }

func (p privilegedScroll) try() attempt {
	c := p.target.Center()
	var out core.CommandOutcome
	if p.backward {
		out = p.runner.Swipe(c.X, c.Y/2, c.X, c.Y, scrollSwipeDuration)
	} else {
		out = p.runner.Swipe(c.X, c.Y, c.X, c.Y/2, scrollSwipeDuration)
	}
	return attempt{ok: out.OK, command: &out}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
