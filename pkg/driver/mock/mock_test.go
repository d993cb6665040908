package mock

import (
	"testing"
	"time"

	"github.com/openclaw/a11y-kernel/pkg/core"
	"github.com/openclaw/a11y-kernel/pkg/gesture"
)

func TestNew_Defaults(t *testing.T) {
	d := New(Config{})
	if d.Config.GestureMode != GestureComplete {
		t.Errorf("GestureMode = %q, want %q", d.Config.GestureMode, GestureComplete)
	}
	screen, err := d.Screen()
	if err != nil {
		t.Fatalf("Screen() error = %v", err)
	}
	if screen.Package != "com.example.app" {
		t.Errorf("Package = %q", screen.Package)
	}
}

func TestSetText_UpdatesScreen(t *testing.T) {
	d := New(Config{})
	screen, _ := d.Screen()
	user := screen.Elements[2]

	if !d.SetText(user, "alice") {
		t.Fatal("SetText() = false")
	}
	after, _ := d.Screen()
	if !after.HasText("alice") {
		t.Error("screen does not contain typed text")
	}
	if screen.HasText("alice") {
		t.Error("earlier screen copy was modified")
	}
}

func TestFailures(t *testing.T) {
	d := New(Config{FailClick: true, FailSetText: true, FailScroll: true, FailGlobal: true})
	e := core.Element{Text: "x"}
	if d.Click(e) || d.SetText(e, "a") || d.Scroll(e, false) || d.GlobalAction(core.GlobalBack) {
		t.Error("configured failure returned true")
	}
	if got := len(d.Calls()); got != 4 {
		t.Errorf("Calls() len = %d, want 4", got)
	}
}

func TestDispatchGesture_Modes(t *testing.T) {
	tests := []struct {
		mode string
		want bool
	}{
		{GestureComplete, true},
		{GestureCancel, false},
		{GestureRefuse, false},
		{GestureHang, false},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			b := gesture.NewBridge(New(Config{GestureMode: tt.mode}))
			b.SetWait(50 * time.Millisecond)
			if got := b.TapByGesture(5, 5); got != tt.want {
				t.Errorf("TapByGesture() = %v, want %v", got, tt.want)
			}
		})
	}
}
