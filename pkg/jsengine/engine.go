// Package jsengine evaluates post-action JavaScript checks against a
// screen snapshot.
package jsengine

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/openclaw/a11y-kernel/pkg/core"
	"github.com/openclaw/a11y-kernel/pkg/logger"
	"github.com/openclaw/a11y-kernel/pkg/tree"
)

// DefaultTimeout bounds one script run.
const DefaultTimeout = 500 * time.Millisecond

// ErrTimeout is returned when a script exceeds its time budget.
var ErrTimeout = errors.New("script timed out")

// Result is the outcome of one check script.
type Result struct {
	Passed bool                   `json:"passed"`
	Output map[string]interface{} `json:"output,omitempty"`
}

// Engine wraps a goja runtime with screen helpers. A fresh runtime is used
// for every Check, so scripts cannot leak state into later checks.
type Engine struct {
	timeout time.Duration
	mu      sync.Mutex
}

// New creates a new JS engine.
func New() *Engine {
	return &Engine{timeout: DefaultTimeout}
}

// SetTimeout changes the per-script time budget.
func (e *Engine) SetTimeout(d time.Duration) {
	if d > 0 {
		e.timeout = d
	}
}

// Check runs script with the screen and the action outcome in scope. The
// check passes when the script's completion value is truthy.
//
// Globals: screen {package, elements[]}, outcome {ok, strategy, error, code},
// textExists(s), find(by, value), count(by, value), output {}, console.
func (e *Engine) Check(script string, screen *tree.Snapshot, outcome core.ActionOutcome) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	vm := goja.New()
	output := vm.NewObject()
	if err := e.bind(vm, screen, outcome, output); err != nil {
		return Result{}, fmt.Errorf("bind globals: %w", err)
	}

	timer := time.AfterFunc(e.timeout, func() {
		vm.Interrupt(ErrTimeout)
	})
	defer timer.Stop()

	value, err := vm.RunString(script)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return Result{}, ErrTimeout
		}
		return Result{}, fmt.Errorf("JS runtime error: %w", err)
	}

	res := Result{Passed: value != nil && value.ToBoolean()}
	if exported, ok := output.Export().(map[string]interface{}); ok && len(exported) > 0 {
		res.Output = exported
	}
	return res, nil
}

// bind installs the globals a check script can see.
func (e *Engine) bind(vm *goja.Runtime, screen *tree.Snapshot, outcome core.ActionOutcome, output *goja.Object) error {
	if screen == nil {
		screen = &tree.Snapshot{}
	}

	elements := make([]interface{}, len(screen.Elements))
	for i, el := range screen.Elements {
		elements[i] = elementObject(el)
	}

	globals := map[string]interface{}{
		"screen": map[string]interface{}{
			"package":  screen.Package,
			"elements": elements,
		},
		"outcome": map[string]interface{}{
			"ok":       outcome.Success,
			"strategy": string(outcome.Strategy),
			"error":    outcome.Error,
			"code":     outcome.Code,
		},
		"textExists": func(text string) bool {
			return screen.HasText(text)
		},
		"find": func(by, value string) interface{} {
			el, ok := tree.Match(screen.Elements, &core.Selector{By: core.SelectorField(by), Value: value})
			if !ok {
				return nil
			}
			return elementObject(el)
		},
		"count": func(by, value string) int {
			sel := core.Selector{By: core.SelectorField(by), Value: value}
			n := 0
			for _, el := range screen.Elements {
				if sel.Matches(el) {
					n++
				}
			}
			return n
		},
		"output":  output,
		"console": consoleObject(vm),
	}
	for name, v := range globals {
		if err := vm.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

// elementObject exposes an element with the same field names as the API.
func elementObject(e core.Element) map[string]interface{} {
	c := e.Center()
	return map[string]interface{}{
		"text":         e.Text,
		"resource_id":  e.ResourceID,
		"content_desc": e.Description,
		"class_name":   e.ClassName,
		"package":      e.PackageName,
		"clickable":    e.Clickable,
		"enabled":      e.Enabled,
		"editable":     e.IsEditable(),
		"scrollable":   e.Scrollable,
		"focusable":    e.Focusable,
		"bounds": map[string]interface{}{
			"left":   e.Bounds.Left,
			"top":    e.Bounds.Top,
			"right":  e.Bounds.Right,
			"bottom": e.Bounds.Bottom,
		},
		"center": map[string]interface{}{"x": c.X, "y": c.Y},
	}
}

// consoleObject routes console.log/warn/error to the kernel log.
func consoleObject(vm *goja.Runtime) *goja.Object {
	makeConsoleFunc := func(log func(string, ...interface{})) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			log("js: %s", strings.Join(parts, " "))
			return goja.Undefined()
		}
	}

	console := vm.NewObject()
	_ = console.Set("log", makeConsoleFunc(logger.Debug))
	_ = console.Set("warn", makeConsoleFunc(logger.Warn))
	_ = console.Set("error", makeConsoleFunc(logger.Error))
	return console
}
