// Package uiautomator2 implements the kernel host on top of a
// UIAutomator2 server.
package uiautomator2

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/openclaw/a11y-kernel/pkg/core"
	"github.com/openclaw/a11y-kernel/pkg/gesture"
	"github.com/openclaw/a11y-kernel/pkg/logger"
	"github.com/openclaw/a11y-kernel/pkg/tree"
	"github.com/openclaw/a11y-kernel/pkg/uiautomator2"
)

// Scroll gesture shape
const (
	scrollPercent = 0.7
	scrollSpeed   = 1500
)

// UIA2Client defines the UIAutomator2 calls the driver needs.
// Implemented by uiautomator2.Client. Allows mocking in tests.
type UIA2Client interface {
	FindElement(strategy, selector string) (*uiautomator2.Element, error)
	ClickElement(elementID string) error
	ClickContext(ctx context.Context, x, y int) error
	Scroll(elementID, direction string, percent float64, speed int) error
	Back() error
	PressKeyCode(keyCode int) error
	Source() (string, error)
}

// ElementActions is the per-element surface the driver uses.
// Implemented by *uiautomator2.Element.
type ElementActions interface {
	ID() string
	Click() error
	Clear() error
	SendKeys(text string) error
}

// Driver performs semantic actions, gesture dispatch and screen capture
// against a live device.
type Driver struct {
	client UIA2Client

	// find resolves an element locator. Tests replace it to return fakes.
	find func(strategy, selector string) (ElementActions, error)
}

// New creates a new UIAutomator2 driver.
func New(client UIA2Client) *Driver {
	d := &Driver{client: client}
	d.find = func(strategy, selector string) (ElementActions, error) {
		el, err := client.FindElement(strategy, selector)
		if err != nil {
			return nil, err
		}
		return el, nil
	}
	return d
}

// locate finds the live element for a snapshot element.
func (d *Driver) locate(e core.Element) (ElementActions, error) {
	loc, err := buildLocator(e)
	if err != nil {
		return nil, err
	}
	el, err := d.find(loc.strategy, loc.selector)
	if err != nil {
		return nil, fmt.Errorf("locate %s: %w", e, err)
	}
	return el, nil
}

// Click performs the element's click action.
func (d *Driver) Click(e core.Element) bool {
	el, err := d.locate(e)
	if err != nil {
		logger.Debug("click: %v", err)
		return false
	}
	if err := el.Click(); err != nil {
		logger.Debug("click %s: %v", e, err)
		return false
	}
	return true
}

// Focus gives input focus to an editable element by clicking it.
func (d *Driver) Focus(e core.Element) bool {
	if !e.IsEditable() {
		return false
	}
	return d.Click(e)
}

// SetText replaces the element's text.
func (d *Driver) SetText(e core.Element, text string) bool {
	el, err := d.locate(e)
	if err != nil {
		logger.Debug("set text: %v", err)
		return false
	}
	if err := el.Clear(); err != nil {
		logger.Debug("clear %s: %v", e, err)
	}
	if text == "" {
		return true
	}
	if err := el.SendKeys(text); err != nil {
		logger.Debug("set text %s: %v", e, err)
		return false
	}
	return true
}

// Scroll scrolls a scrollable container one step.
func (d *Driver) Scroll(e core.Element, backward bool) bool {
	el, err := d.locate(e)
	if err != nil {
		logger.Debug("scroll: %v", err)
		return false
	}
	direction := uiautomator2.DirectionDown
	if backward {
		direction = uiautomator2.DirectionUp
	}
	if err := d.client.Scroll(el.ID(), direction, scrollPercent, scrollSpeed); err != nil {
		logger.Debug("scroll %s %s: %v", e, direction, err)
		return false
	}
	return true
}

// GlobalAction performs back or home.
func (d *Driver) GlobalAction(a core.GlobalAction) bool {
	var err error
	switch a {
	case core.GlobalBack:
		err = d.client.Back()
	case core.GlobalHome:
		err = d.client.PressKeyCode(uiautomator2.KeyCodeHome)
	default:
		err = fmt.Errorf("unknown global action %q", a)
	}
	if err != nil {
		logger.Debug("global %s: %v", a, err)
		return false
	}
	return true
}

// DispatchGesture taps the first point of the stroke. The server call runs
// in the background and settles through the callbacks. Once ctx is done
// the tap is dropped, or aborted if already in flight.
func (d *Driver) DispatchGesture(ctx context.Context, stroke gesture.Stroke, onComplete, onCancel func()) bool {
	if len(stroke.Path) == 0 {
		return false
	}
	p := stroke.Path[0]
	x, y := int(math.Round(p.X)), int(math.Round(p.Y))
	go func() {
		if ctx.Err() != nil {
			logger.Debug("gesture tap (%d, %d) dropped: %v", x, y, ctx.Err())
			onCancel()
			return
		}
		if err := d.client.ClickContext(ctx, x, y); err != nil {
			logger.Debug("gesture tap (%d, %d): %v", x, y, err)
			onCancel()
			return
		}
		onComplete()
	}()
	return true
}

// Screen captures the current UI hierarchy.
func (d *Driver) Screen() (*tree.Snapshot, error) {
	source, err := d.client.Source()
	if err != nil {
		return nil, fmt.Errorf("get page source: %w", err)
	}
	snap, err := tree.ParsePageSource(source)
	if err != nil {
		return nil, err
	}
	snap.Taken = time.Now()
	return snap, nil
}

// locator is a find-element strategy and selector pair.
type locator struct {
	strategy string
	selector string
}

// buildLocator identifies the live node behind a snapshot element. Elements
// with bounds are located by XPath on their exact bounds, which stays unique
// among siblings that share an id or text. Elements without bounds fall back
// to a UiSelector chain over their identifying attributes.
func buildLocator(e core.Element) (locator, error) {
	if e.Bounds != (core.Bounds{}) {
		return locator{strategy: uiautomator2.StrategyXPath, selector: buildXPath(e)}, nil
	}

	var b strings.Builder
	b.WriteString("new UiSelector()")
	n := 0
	add := func(method, value string) {
		if value == "" {
			return
		}
		b.WriteString(fmt.Sprintf(`.%s("%s")`, method, escapeUiSelector(value)))
		n++
	}
	add("resourceId", e.ResourceID)
	add("text", e.Text)
	add("description", e.Description)
	if n == 0 {
		return locator{}, fmt.Errorf("element %s has no bounds or identifying attributes", e)
	}
	add("className", e.ClassName)
	return locator{strategy: uiautomator2.StrategyUIAutomator, selector: b.String()}, nil
}

// buildXPath matches the node with these bounds, narrowed by class,
// resource-id and content-desc for parents and children sharing a frame.
func buildXPath(e core.Element) string {
	b := e.Bounds
	var sb strings.Builder
	sb.WriteString("//*")
	pred := func(attr, value string) {
		if value == "" {
			return
		}
		sb.WriteString(fmt.Sprintf("[@%s=%s]", attr, xpathLiteral(value)))
	}
	pred("bounds", fmt.Sprintf("[%d,%d][%d,%d]", b.Left, b.Top, b.Right, b.Bottom))
	pred("class", e.ClassName)
	pred("resource-id", e.ResourceID)
	pred("content-desc", e.Description)
	return sb.String()
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	var sb strings.Builder
	sb.WriteString("concat(")
	for i, part := range parts {
		if i > 0 {
			sb.WriteString(`, '"', `)
		}
		sb.WriteString(`"` + part + `"`)
	}
	sb.WriteString(")")
	return sb.String()
}

// escapeUiSelector escapes a literal for a quoted UiSelector argument.
func escapeUiSelector(s string) string {
	var result strings.Builder
	result.Grow(len(s) * 2)
	for _, c := range s {
		switch c {
		case '"':
			result.WriteString(`\"`)
		case '\\':
			result.WriteString(`\\`)
		case '\n':
			result.WriteString(`\n`)
		case '\r':
			result.WriteString(`\r`)
		case '\t':
			result.WriteString(`\t`)
		default:
			result.WriteRune(c)
		}
	}
	return result.String()
}
