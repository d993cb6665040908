// Package tree holds accessibility tree snapshots and the element matcher.
package tree

import (
	"strings"
	"time"

	"github.com/openclaw/a11y-kernel/pkg/core"
)

// Snapshot is a pre-order flattening of one accessibility tree.
// Parents[i] is the index of the parent of Elements[i], or -1 for roots.
type Snapshot struct {
	Package  string
	Activity string
	Taken    time.Time
	Elements []core.Element
	Parents  []int
}

// Builder appends elements in pre-order.
type Builder struct {
	snap  Snapshot
	stack []int
}

// NewBuilder starts an empty snapshot.
func NewBuilder() *Builder {
	return &Builder{}
}

// Open appends e as a child of the currently open element and makes it the
// open element. Every Open needs a matching Close.
func (b *Builder) Open(e core.Element) int {
	parent := -1
	if n := len(b.stack); n > 0 {
		parent = b.stack[n-1]
	}
	idx := len(b.snap.Elements)
	b.snap.Elements = append(b.snap.Elements, e)
	b.snap.Parents = append(b.snap.Parents, parent)
	b.stack = append(b.stack, idx)
	return idx
}

// Close ends the currently open element.
func (b *Builder) Close() {
	if n := len(b.stack); n > 0 {
		b.stack = b.stack[:n-1]
	}
}

// Leaf appends an element with no children.
func (b *Builder) Leaf(e core.Element) int {
	idx := b.Open(e)
	b.Close()
	return idx
}

// Snapshot returns the built snapshot.
func (b *Builder) Snapshot() *Snapshot {
	s := b.snap
	if s.Package == "" {
		for _, e := range s.Elements {
			if e.PackageName != "" {
				s.Package = e.PackageName
				break
			}
		}
	}
	return &s
}

// Len returns the number of elements.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Elements)
}

// AncestorChain returns the ancestors of element i, nearest first.
func (s *Snapshot) AncestorChain(i int) []core.Element {
	if s == nil || i < 0 || i >= len(s.Elements) {
		return nil
	}
	var chain []core.Element
	for p := s.parent(i); p >= 0; p = s.parent(p) {
		chain = append(chain, s.Elements[p])
	}
	return chain
}

func (s *Snapshot) parent(i int) int {
	if i < 0 || i >= len(s.Parents) {
		return -1
	}
	return s.Parents[i]
}

// Interactive returns elements worth exposing to a client: clickable,
// focusable, or text inputs.
func (s *Snapshot) Interactive() []core.Element {
	if s == nil {
		return nil
	}
	var out []core.Element
	for _, e := range s.Elements {
		if e.Clickable || e.Focusable || strings.Contains(e.ClassName, "EditText") {
			out = append(out, e)
		}
	}
	return out
}

// HasText reports whether any element's text or description contains s,
// ignoring case.
func (s *Snapshot) HasText(text string) bool {
	if s == nil {
		return false
	}
	needle := strings.ToLower(text)
	for _, e := range s.Elements {
		if strings.Contains(strings.ToLower(e.Text), needle) ||
			strings.Contains(strings.ToLower(e.Description), needle) {
			return true
		}
	}
	return false
}
