package tree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/openclaw/a11y-kernel/pkg/core"
)

// ParsePageSource parses an Android UI hierarchy dump into a snapshot.
// Supports both formats:
// - UIAutomator dump: uses <node> elements with a class attribute
// - UIAutomator2 server: uses class name as element tag (e.g., <android.widget.FrameLayout>)
func ParsePageSource(xmlData string) (*Snapshot, error) {
	decoder := xml.NewDecoder(strings.NewReader(xmlData))
	b := NewBuilder()
	foundHierarchy := false
	depth := 0

	for {
		token, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if b.snap.Elements == nil {
				return nil, fmt.Errorf("parse page source: %w", err)
			}
			// Keep what was parsed from a truncated dump
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "hierarchy" {
				foundHierarchy = true
				continue
			}
			b.Open(parseNode(t))
			depth++
		case xml.EndElement:
			if t.Name.Local == "hierarchy" || depth == 0 {
				continue
			}
			b.Close()
			depth--
		}
	}

	if !foundHierarchy {
		return nil, fmt.Errorf("invalid page source: no hierarchy element found")
	}

	return b.Snapshot(), nil
}

// parseNode reads the attributes of one node. Class name is the element tag
// unless a class attribute overrides it.
func parseNode(t xml.StartElement) core.Element {
	elem := core.Element{}
	if t.Name.Local != "node" {
		elem.ClassName = t.Name.Local
	}

	for _, attr := range t.Attr {
		switch attr.Name.Local {
		case "text":
			elem.Text = attr.Value
		case "resource-id":
			elem.ResourceID = attr.Value
		case "content-desc":
			elem.Description = attr.Value
		case "class":
			elem.ClassName = attr.Value
		case "package":
			elem.PackageName = attr.Value
		case "bounds":
			elem.Bounds = parseBounds(attr.Value)
		case "enabled":
			elem.Enabled = attr.Value == "true"
		case "clickable":
			elem.Clickable = attr.Value == "true"
		case "scrollable":
			elem.Scrollable = attr.Value == "true"
		case "focusable":
			elem.Focusable = attr.Value == "true"
		case "editable":
			elem.Editable = attr.Value == "true"
		}
	}
	return elem
}

// parseBounds parses Android bounds string "[x1,y1][x2,y2]".
func parseBounds(s string) core.Bounds {
	s = strings.ReplaceAll(s, "][", ",")
	s = strings.Trim(s, "[]")
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return core.Bounds{}
	}

	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return core.Bounds{}
		}
		v[i] = n
	}

	return core.NewBounds(v[0], v[1], v[2], v[3])
}
