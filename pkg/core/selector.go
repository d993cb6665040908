package core

import (
	"fmt"
	"strings"
)

// SelectorField names the element attribute a selector matches against.
type SelectorField string

// Selector fields
const (
	SelectByID          SelectorField = "id"
	SelectByDescription SelectorField = "desc"
	SelectByText        SelectorField = "text"
	SelectByClass       SelectorField = "class"
)

// Normalize maps aliases onto canonical fields, case-insensitively.
// Unknown fields return false.
func (f SelectorField) Normalize() (SelectorField, bool) {
	switch strings.ToLower(strings.TrimSpace(string(f))) {
	case "id", "resource_id", "resource-id":
		return SelectByID, true
	case "desc", "description", "content_desc", "content-desc":
		return SelectByDescription, true
	case "text":
		return SelectByText, true
	case "class", "class_name", "classname":
		return SelectByClass, true
	}
	return "", false
}

// Selector describes an element by one attribute and a substring.
type Selector struct {
	By    SelectorField `json:"by"`
	Value string        `json:"value"`
}

// Attribute returns the attribute of e named by the selector.
// The second result is false for unknown fields and absent attributes.
func (s Selector) Attribute(e Element) (string, bool) {
	field, ok := s.By.Normalize()
	if !ok {
		return "", false
	}
	var v string
	switch field {
	case SelectByID:
		v = e.ResourceID
	case SelectByDescription:
		v = e.Description
	case SelectByText:
		v = e.Text
	case SelectByClass:
		v = e.ClassName
	}
	return v, v != ""
}

// Matches reports whether the element's attribute contains the value,
// ignoring case.
func (s Selector) Matches(e Element) bool {
	attr, ok := s.Attribute(e)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(attr), strings.ToLower(s.Value))
}

// String returns "by=value".
func (s Selector) String() string {
	return fmt.Sprintf("%s=%s", s.By, s.Value)
}
