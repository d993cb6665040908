package tree

import (
	"github.com/openclaw/a11y-kernel/pkg/core"
)

// MatchIndex returns the index of the first element, in order, that the
// selector matches. It returns -1 for a nil selector, an unknown field,
// empty input or no match.
func MatchIndex(elements []core.Element, sel *core.Selector) int {
	if sel == nil {
		return -1
	}
	if _, ok := sel.By.Normalize(); !ok {
		return -1
	}
	for i, e := range elements {
		if sel.Matches(e) {
			return i
		}
	}
	return -1
}

// Match returns the first element the selector matches.
func Match(elements []core.Element, sel *core.Selector) (core.Element, bool) {
	i := MatchIndex(elements, sel)
	if i < 0 {
		return core.Element{}, false
	}
	return elements[i], true
}

// FindEnabledClickableAncestor returns the nearest of element and its
// ancestors (nearest first) that is both clickable and enabled. When none
// qualifies the element itself is returned.
func FindEnabledClickableAncestor(element core.Element, ancestors []core.Element) core.Element {
	if element.Clickable && element.Enabled {
		return element
	}
	for _, a := range ancestors {
		if a.Clickable && a.Enabled {
			return a
		}
	}
	return element
}

// FirstEditable returns the index of the first element that accepts text.
func FirstEditable(elements []core.Element) int {
	for i, e := range elements {
		if e.IsEditable() {
			return i
		}
	}
	return -1
}

// FirstScrollable returns the index of the first scrollable element.
func FirstScrollable(elements []core.Element) int {
	for i, e := range elements {
		if e.Scrollable {
			return i
		}
	}
	return -1
}
