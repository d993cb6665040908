package tree

import (
	"testing"

	"github.com/openclaw/a11y-kernel/pkg/core"
)

func sel(by core.SelectorField, value string) *core.Selector {
	return &core.Selector{By: by, Value: value}
}

func TestMatchIndex(t *testing.T) {
	elements := []core.Element{
		{ClassName: "android.widget.FrameLayout"},
		{Text: "Settings", ResourceID: "com.app:id/title"},
		{Text: "Login", ResourceID: "com.app:id/login", Description: "Sign in"},
		{Text: "LOGIN again", ClassName: "android.widget.Button"},
	}

	tests := []struct {
		name string
		sel  *core.Selector
		want int
	}{
		{"text substring", sel(core.SelectByText, "log"), 2},
		{"case insensitive", sel(core.SelectByText, "LOGIN"), 2},
		{"id", sel(core.SelectByID, "title"), 1},
		{"description alias", sel("description", "sign"), 2},
		{"class", sel(core.SelectByClass, "button"), 3},
		{"no match", sel(core.SelectByText, "register"), -1},
		{"unknown field", sel("xpath", "//node"), -1},
		{"nil selector", nil, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchIndex(elements, tt.sel); got != tt.want {
				t.Errorf("MatchIndex(%v) = %d, want %d", tt.sel, got, tt.want)
			}
		})
	}
}

func TestMatch_EmptyInput(t *testing.T) {
	if _, ok := Match(nil, sel(core.SelectByText, "x")); ok {
		t.Error("Match(nil) found an element")
	}
}

func TestMatch_FirstInTreeOrder(t *testing.T) {
	// Same text at two depths: the shallower one comes first in pre-order.
	b := NewBuilder()
	b.Open(core.Element{ClassName: "root"})
	b.Open(core.Element{Text: "Continue", ResourceID: "outer"})
	b.Leaf(core.Element{Text: "Continue", ResourceID: "inner"})
	b.Close()
	b.Close()
	snap := b.Snapshot()

	got, ok := Match(snap.Elements, sel(core.SelectByText, "continue"))
	if !ok {
		t.Fatal("Match() found nothing")
	}
	if got.ResourceID != "outer" {
		t.Errorf("Match() = %q, want outer", got.ResourceID)
	}
}

func TestFindEnabledClickableAncestor(t *testing.T) {
	label := core.Element{Text: "OK"}
	parent := core.Element{ClassName: "LinearLayout"}
	disabled := core.Element{ClassName: "Button", Clickable: true, Enabled: false}
	grandparent := core.Element{ClassName: "Button", Clickable: true, Enabled: true}

	tests := []struct {
		name      string
		element   core.Element
		ancestors []core.Element
		want      core.Element
	}{
		{"self qualifies", grandparent, nil, grandparent},
		{"grandparent qualifies", label, []core.Element{parent, grandparent}, grandparent},
		{"skips disabled", label, []core.Element{disabled, grandparent}, grandparent},
		{"none qualifies", label, []core.Element{parent, disabled}, label},
		{"no ancestors", label, nil, label},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindEnabledClickableAncestor(tt.element, tt.ancestors); got != tt.want {
				t.Errorf("FindEnabledClickableAncestor() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFirstEditable(t *testing.T) {
	elements := []core.Element{
		{ClassName: "android.widget.TextView"},
		{ClassName: "android.widget.EditText", ResourceID: "first"},
		{ClassName: "android.widget.EditText", ResourceID: "second"},
	}
	if got := FirstEditable(elements); got != 1 {
		t.Errorf("FirstEditable() = %d, want 1", got)
	}
	if got := FirstEditable(elements[:1]); got != -1 {
		t.Errorf("FirstEditable() = %d, want -1", got)
	}
}

func TestFirstScrollable(t *testing.T) {
	elements := []core.Element{
		{ClassName: "android.widget.FrameLayout"},
		{ClassName: "androidx.recyclerview.widget.RecyclerView", Scrollable: true},
	}
	if got := FirstScrollable(elements); got != 1 {
		t.Errorf("FirstScrollable() = %d, want 1", got)
	}
	if got := FirstScrollable(nil); got != -1 {
		t.Errorf("FirstScrollable(nil) = %d, want -1", got)
	}
}
