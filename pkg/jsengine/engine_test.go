package jsengine

import (
	"errors"
	"testing"
	"time"

	"github.com/openclaw/a11y-kernel/pkg/core"
	"github.com/openclaw/a11y-kernel/pkg/tree"
)

func testScreen() *tree.Snapshot {
	b := tree.NewBuilder()
	b.Open(core.Element{ClassName: "android.widget.FrameLayout", PackageName: "com.example.app", Bounds: core.NewBounds(0, 0, 1080, 2400)})
	b.Leaf(core.Element{ClassName: "android.widget.TextView", Text: "Welcome, Alice", Bounds: core.NewBounds(0, 100, 1080, 200)})
	b.Leaf(core.Element{ClassName: "android.widget.Button", ResourceID: "com.example.app:id/logout", Text: "Log out", Clickable: true, Enabled: true, Bounds: core.NewBounds(100, 300, 300, 400)})
	b.Leaf(core.Element{ClassName: "android.widget.Button", Text: "Settings", Clickable: true, Enabled: true})
	b.Close()
	return b.Snapshot()
}

var okOutcome = core.ActionOutcome{Success: true, Strategy: core.StrategySemantic}

func TestCheck(t *testing.T) {
	engine := New()

	tests := []struct {
		name   string
		script string
		want   bool
	}{
		{"text exists", `textExists("welcome")`, true},
		{"text missing", `textExists("Goodbye")`, false},
		{"find by id", `find("id", "logout").text === "Log out"`, true},
		{"find missing", `find("text", "Nope") === null`, true},
		{"center", `var b = find("id", "logout"); b.center.x === 200 && b.center.y === 350`, true},
		{"count", `count("class", "Button") === 2`, true},
		{"package", `screen.package === "com.example.app" && screen.elements.length === 4`, true},
		{"outcome", `outcome.ok && outcome.strategy === "semantic"`, true},
		{"falsy completion", `0`, false},
		{"undefined completion", `var x = 1;`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := engine.Check(tt.script, testScreen(), okOutcome)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Passed != tt.want {
				t.Errorf("Passed = %v, want %v", res.Passed, tt.want)
			}
		})
	}
}

func TestCheck_Output(t *testing.T) {
	res, err := New().Check(`output.buttons = count("class", "Button"); console.log("buttons", output.buttons); true`, testScreen(), okOutcome)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Passed {
		t.Error("expected pass")
	}
	if v, ok := res.Output["buttons"].(int64); !ok || v != 2 {
		t.Errorf("Output = %#v", res.Output)
	}
}

func TestCheck_NoOutputWhenUnused(t *testing.T) {
	res, err := New().Check(`true`, nil, okOutcome)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Output != nil {
		t.Errorf("Output = %#v, want nil", res.Output)
	}
}

func TestCheck_SyntaxError(t *testing.T) {
	if _, err := New().Check(`if (`, testScreen(), okOutcome); err == nil {
		t.Fatal("expected error")
	}
}

func TestCheck_RuntimeError(t *testing.T) {
	if _, err := New().Check(`find("id", "nope").text`, testScreen(), okOutcome); err == nil {
		t.Fatal("expected error reading property of null")
	}
}

func TestCheck_Timeout(t *testing.T) {
	engine := New()
	engine.SetTimeout(20 * time.Millisecond)

	start := time.Now()
	_, err := engine.Check(`while (true) {}`, testScreen(), okOutcome)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took %v", elapsed)
	}
}

func TestCheck_IsolatedRuns(t *testing.T) {
	engine := New()
	if _, err := engine.Check(`var leaked = 1; true`, nil, okOutcome); err != nil {
		t.Fatal(err)
	}
	res, err := engine.Check(`typeof leaked === "undefined"`, nil, okOutcome)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Passed {
		t.Error("state leaked between checks")
	}
}
