// Package mock provides a scripted host for running the kernel without a
// real device.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/openclaw/a11y-kernel/pkg/core"
	"github.com/openclaw/a11y-kernel/pkg/gesture"
	"github.com/openclaw/a11y-kernel/pkg/tree"
)

// Gesture modes
const (
	GestureComplete = "complete"
	GestureCancel   = "cancel"
	GestureRefuse   = "refuse"
	GestureHang     = "hang"
)

// Config configures mock host behavior.
type Config struct {
	// Screen is served by Screen. DefaultScreen is used when nil.
	Screen *tree.Snapshot

	FailClick   bool
	FailSetText bool
	FailScroll  bool
	FailGlobal  bool

	// GestureMode decides how dispatched gestures settle. Default complete.
	GestureMode string

	// StepDelay adds artificial delay per host call
	StepDelay time.Duration
}

// Call records one host interaction.
type Call struct {
	Op       string
	Element  core.Element
	Text     string
	Backward bool
	Global   core.GlobalAction
	Point    gesture.Point
}

// Driver is an in-memory host.
type Driver struct {
	Config Config

	mu     sync.Mutex
	screen *tree.Snapshot
	calls  []Call
}

// New creates a new mock host.
func New(cfg Config) *Driver {
	if cfg.GestureMode == "" {
		cfg.GestureMode = GestureComplete
	}
	screen := cfg.Screen
	if screen == nil {
		screen = DefaultScreen()
	}
	return &Driver{Config: cfg, screen: screen}
}

// DefaultScreen is a small login form.
func DefaultScreen() *tree.Snapshot {
	b := tree.NewBuilder()
	b.Open(core.Element{ClassName: "android.widget.FrameLayout", PackageName: "com.example.app", Enabled: true, Bounds: core.NewBounds(0, 0, 1080, 2400)})
	b.Open(core.Element{ClassName: "android.widget.ScrollView", ResourceID: "com.example.app:id/form", Enabled: true, Scrollable: true, Bounds: core.NewBounds(0, 200, 1080, 2200)})
	b.Leaf(core.Element{ClassName: "android.widget.EditText", ResourceID: "com.example.app:id/username", Text: "", Description: "Username", Clickable: true, Enabled: true, Focusable: true, Bounds: core.NewBounds(40, 300, 1040, 420)})
	b.Leaf(core.Element{ClassName: "android.widget.EditText", ResourceID: "com.example.app:id/password", Description: "Password", Clickable: true, Enabled: true, Focusable: true, Bounds: core.NewBounds(40, 460, 1040, 580)})
	b.Open(core.Element{ClassName: "android.widget.Button", ResourceID: "com.example.app:id/login", Clickable: true, Enabled: true, Focusable: true, Bounds: core.NewBounds(40, 640, 1040, 760)})
	b.Leaf(core.Element{ClassName: "android.widget.TextView", Text: "Log in", Enabled: true, Bounds: core.NewBounds(440, 670, 640, 730)})
	b.Close()
	b.Close()
	b.Close()
	return b.Snapshot()
}

func (d *Driver) record(c Call) {
	if d.Config.StepDelay > 0 {
		time.Sleep(d.Config.StepDelay)
	}
	d.mu.Lock()
	d.calls = append(d.calls, c)
	d.mu.Unlock()
}

// Calls returns the interactions so far.
func (d *Driver) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, len(d.calls))
	copy(out, d.calls)
	return out
}

// Click simulates a semantic click.
func (d *Driver) Click(e core.Element) bool {
	d.record(Call{Op: "click", Element: e})
	return !d.Config.FailClick
}

// Focus simulates input focus.
func (d *Driver) Focus(e core.Element) bool {
	d.record(Call{Op: "focus", Element: e})
	return true
}

// SetText simulates setting text and updates the served screen.
func (d *Driver) SetText(e core.Element, text string) bool {
	d.record(Call{Op: "set_text", Element: e, Text: text})
	if d.Config.FailSetText {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.screen.Elements {
		if d.screen.Elements[i] == e {
			d.screen.Elements[i].Text = text
			break
		}
	}
	return true
}

// Scroll simulates a semantic scroll.
func (d *Driver) Scroll(e core.Element, backward bool) bool {
	d.record(Call{Op: "scroll", Element: e, Backward: backward})
	return !d.Config.FailScroll
}

// GlobalAction simulates back and home.
func (d *Driver) GlobalAction(a core.GlobalAction) bool {
	d.record(Call{Op: "global", Global: a})
	return !d.Config.FailGlobal
}

// DispatchGesture settles the stroke according to GestureMode.
func (d *Driver) DispatchGesture(_ context.Context, stroke gesture.Stroke, onComplete, onCancel func()) bool {
	var p gesture.Point
	if len(stroke.Path) > 0 {
		p = stroke.Path[0]
	}
	d.record(Call{Op: "gesture", Point: p})

	switch d.Config.GestureMode {
	case GestureRefuse:
		return false
	case GestureCancel:
		go onCancel()
	case GestureHang:
	default:
		go onComplete()
	}
	return true
}

// Screen returns a copy of the current screen.
func (d *Driver) Screen() (*tree.Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := *d.screen
	s.Elements = append([]core.Element(nil), d.screen.Elements...)
	s.Parents = append([]int(nil), d.screen.Parents...)
	s.Taken = time.Now()
	return &s, nil
}
