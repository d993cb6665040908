// Package core holds the data model shared by the matcher, the privileged
// runner and the action engine.
package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Point is a screen coordinate in pixels. It is encoded as [x, y].
type Point struct {
	X int
	Y int
}

// MarshalJSON encodes the point as a two element array.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

// UnmarshalJSON decodes a two element array.
func (p *Point) UnmarshalJSON(data []byte) error {
	var xy []int
	if err := json.Unmarshal(data, &xy); err != nil {
		return err
	}
	if len(xy) != 2 {
		return fmt.Errorf("point needs 2 components, got %d", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// Bounds is an element rectangle in screen pixels, edges inclusive.
type Bounds struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// NewBounds builds bounds from two corners in any order.
func NewBounds(x1, y1, x2, y2 int) Bounds {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Bounds{Left: x1, Top: y1, Right: x2, Bottom: y2}
}

// Width returns the horizontal extent.
func (b Bounds) Width() int {
	return b.Right - b.Left
}

// Height returns the vertical extent.
func (b Bounds) Height() int {
	return b.Bottom - b.Top
}

// Center returns the integer midpoint. It always lies inside normalised bounds.
func (b Bounds) Center() Point {
	return Point{X: b.Left + b.Width()/2, Y: b.Top + b.Height()/2}
}

// Contains checks if a point is within the bounds
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.Left && p.X <= b.Right && p.Y >= b.Top && p.Y <= b.Bottom
}

// String formats bounds as "l,t,r,b".
func (b Bounds) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", b.Left, b.Top, b.Right, b.Bottom)
}

// MarshalText implements encoding.TextMarshaler.
func (b Bounds) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText parses "l,t,r,b".
func (b *Bounds) UnmarshalText(text []byte) error {
	parts := strings.Split(string(text), ",")
	if len(parts) != 4 {
		return fmt.Errorf("invalid bounds %q", text)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("invalid bounds %q: %w", text, err)
		}
		v[i] = n
	}
	*b = NewBounds(v[0], v[1], v[2], v[3])
	return nil
}

// Element is a read-only snapshot of one node in the accessibility tree.
// Empty string attributes are treated as absent.
type Element struct {
	Text        string `json:"text,omitempty"`
	ResourceID  string `json:"resource_id,omitempty"`
	Description string `json:"content_desc,omitempty"`
	ClassName   string `json:"class_name,omitempty"`
	PackageName string `json:"package,omitempty"`
	Clickable   bool   `json:"clickable"`
	Enabled     bool   `json:"enabled"`
	Editable    bool   `json:"editable,omitempty"`
	Scrollable  bool   `json:"scrollable,omitempty"`
	Focusable   bool   `json:"focusable,omitempty"`
	Bounds      Bounds `json:"bounds"`
}

// Center returns the midpoint of the element's bounds.
func (e Element) Center() Point {
	return e.Bounds.Center()
}

// IsEditable reports whether the element accepts text input.
func (e Element) IsEditable() bool {
	return e.Editable || strings.Contains(e.ClassName, "EditText")
}

// MarshalJSON adds the derived center to the encoded element.
func (e Element) MarshalJSON() ([]byte, error) {
	type plain Element
	return json.Marshal(struct {
		plain
		Center Point `json:"center"`
	}{plain(e), e.Center()})
}

// String returns a short description for logs.
func (e Element) String() string {
	label := e.ResourceID
	if label == "" {
		label = e.Description
	}
	if label == "" {
		label = e.Text
	}
	return fmt.Sprintf("%s[%s] @%s", e.ClassName, label, e.Bounds)
}
