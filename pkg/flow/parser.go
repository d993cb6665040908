package flow

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/openclaw/a11y-kernel/pkg/core"
)

// ParseError represents a parsing error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ParseFile parses a single YAML flow file.
func ParseFile(path string) (*Flow, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is user-provided flow file
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data, path)
}

// Parse parses flow content: an optional config document, "---", then a
// list of steps.
func Parse(data []byte, sourcePath string) (*Flow, error) {
	parts := splitYAMLDocuments(string(data))

	flow := &Flow{
		SourcePath: sourcePath,
	}

	if len(parts) == 0 {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    1,
			Message: "empty flow file",
		}
	}

	if len(parts) == 1 {
		if err := parseSteps(parts[0], flow); err != nil {
			return nil, err
		}
	} else {
		if err := yaml.Unmarshal([]byte(parts[0].text), &flow.Config); err != nil {
			return nil, &ParseError{
				Path:    sourcePath,
				Message: fmt.Sprintf("invalid config: %v", err),
			}
		}
		if err := parseSteps(parts[1], flow); err != nil {
			return nil, err
		}
	}

	if len(flow.Steps) == 0 {
		return nil, &ParseError{Path: sourcePath, Message: "flow has no steps"}
	}
	return flow, nil
}

// document is one "---" separated part of a flow file. line is the file
// line its first line sits on.
type document struct {
	text string
	line int
}

// splitYAMLDocuments splits on "---" lines outside block scalars.
func splitYAMLDocuments(content string) []document {
	var parts []document
	var current strings.Builder
	start := 1
	inMultiline := false
	multilineIndent := 0

	flush := func() {
		if strings.TrimSpace(current.String()) != "" {
			parts = append(parts, document{text: current.String(), line: start})
		}
		current.Reset()
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if !inMultiline {
			if strings.HasSuffix(trimmed, "|") || strings.HasSuffix(trimmed, ">") ||
				strings.HasSuffix(trimmed, "|-") || strings.HasSuffix(trimmed, ">-") {
				inMultiline = true
				if i+1 < len(lines) {
					next := lines[i+1]
					multilineIndent = len(next) - len(strings.TrimLeft(next, " \t"))
				}
			}
		} else {
			indent := len(line) - len(strings.TrimLeft(line, " \t"))
			if trimmed != "" && indent < multilineIndent {
				inMultiline = false
			}
		}

		if !inMultiline && line == "---" {
			flush()
			start = i + 2
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	flush()
	return parts
}

func parseSteps(doc document, flow *Flow) error {
	// pad so node lines match file lines
	content := strings.Repeat("\n", doc.line-1) + doc.text
	var rawSteps []yaml.Node
	if err := yaml.Unmarshal([]byte(content), &rawSteps); err != nil {
		return &ParseError{
			Path:    flow.SourcePath,
			Message: fmt.Sprintf("invalid steps: %v", err),
		}
	}

	for i := range rawSteps {
		step, err := parseStep(&rawSteps[i], flow.SourcePath)
		if err != nil {
			return err
		}
		flow.Steps = append(flow.Steps, step)
	}
	return nil
}

// stepParams is the mapping form of a step.
type stepParams struct {
	Selector     *core.Selector `yaml:"selector"`
	Text         *string        `yaml:"text"`
	Direction    string         `yaml:"direction"`
	Fallback     []int          `yaml:"fallback"`
	From         []int          `yaml:"from"`
	To           []int          `yaml:"to"`
	DurationMs   *int64         `yaml:"durationMs"`
	TimeoutMs    *int64         `yaml:"timeoutMs"`
	Package      string         `yaml:"package"`
	Keycode      *int           `yaml:"keycode"`
	VerifyText   string         `yaml:"verifyText"`
	VerifyScript string         `yaml:"verifyScript"`
}

func parseStep(node *yaml.Node, sourcePath string) (Step, error) {
	// "- back" has no parameters
	if node.Kind == yaml.ScalarNode {
		action := core.ActionKind(node.Value)
		if !isBareAction(action) {
			return Step{}, &ParseError{
				Path:    sourcePath,
				Line:    node.Line,
				Message: fmt.Sprintf("step %q needs parameters", node.Value),
			}
		}
		return Step{Line: node.Line, Request: core.ActionRequest{Action: node.Value}}, nil
	}

	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return Step{}, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: "step must be an action name or a single-key mapping",
		}
	}

	key, value := node.Content[0], node.Content[1]
	action := core.ActionKind(key.Value)
	if !isAction(action) {
		return Step{}, &ParseError{
			Path:    sourcePath,
			Line:    key.Line,
			Message: fmt.Sprintf("unknown action: %s", key.Value),
		}
	}

	step := Step{Line: key.Line, Request: core.ActionRequest{Action: key.Value}}
	if value.Kind == yaml.ScalarNode {
		if err := applyScalar(&step.Request, action, value.Value); err != nil {
			return Step{}, &ParseError{Path: sourcePath, Line: value.Line, Message: err.Error()}
		}
		return step, nil
	}

	var params stepParams
	if err := value.Decode(&params); err != nil {
		return Step{}, &ParseError{Path: sourcePath, Line: value.Line, Message: err.Error()}
	}
	applyParams(&step, params)
	return step, nil
}

// applyScalar fills the one parameter a scalar value stands for.
func applyScalar(req *core.ActionRequest, action core.ActionKind, v string) error {
	switch action {
	case core.ActionTap:
		if v == "" {
			return fmt.Errorf("tap needs a text or a mapping")
		}
		req.Selector = &core.Selector{By: core.SelectByText, Value: v}
	case core.ActionType:
		req.Text = core.StringPtr(v)
	case core.ActionScroll:
		req.Direction = v
	case core.ActionLaunchApp:
		req.PackageName = v
	case core.ActionKeyEvent:
		code, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("keyevent: invalid keycode %q", v)
		}
		req.Keycode = core.IntPtr(code)
	case core.ActionWait:
		if v == "" {
			return nil
		}
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("wait: invalid duration %q", v)
		}
		req.TimeoutMs = core.Int64Ptr(ms)
	case core.ActionBack, core.ActionHome, core.ActionDone:
		if v != "" {
			return fmt.Errorf("%s takes no parameters", action)
		}
	default:
		return fmt.Errorf("%s needs a mapping", action)
	}
	return nil
}

func applyParams(step *Step, params stepParams) {
	req := &step.Request
	req.Selector = params.Selector
	req.Text = params.Text
	req.Direction = params.Direction
	req.FallbackCoordinates = params.Fallback
	req.From = params.From
	req.To = params.To
	req.DurationMs = params.DurationMs
	req.TimeoutMs = params.TimeoutMs
	req.PackageName = params.Package
	req.Keycode = params.Keycode
	if params.VerifyScript != "" {
		req.ExpectedAfter = &core.ExpectedAfter{Script: params.VerifyScript}
	}
	step.VerifyText = params.VerifyText
}

func isAction(a core.ActionKind) bool {
	for _, k := range core.BaseActions {
		if a == k {
			return true
		}
	}
	for _, k := range core.PrivilegedActions {
		if a == k {
			return true
		}
	}
	return false
}

func isBareAction(a core.ActionKind) bool {
	switch a {
	case core.ActionBack, core.ActionHome, core.ActionDone, core.ActionWait, core.ActionScroll:
		return true
	}
	return false
}
