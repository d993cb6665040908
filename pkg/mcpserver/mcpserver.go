// Package mcpserver exposes a session as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/openclaw/a11y-kernel/pkg/core"
	"github.com/openclaw/a11y-kernel/pkg/session"
)

// Backend is the session surface the tools call. *session.Session
// implements it.
type Backend interface {
	Act(ctx context.Context, req core.ActionRequest) session.Response
	Screen() (session.ScreenResponse, error)
	Capabilities() session.CapabilitiesResponse
}

// Server wraps the MCP server.
type Server struct {
	backend Backend
	mcp     *mcpsrv.MCPServer
}

// New creates an MCP server with the kernel tools registered.
func New(backend Backend, version string) *Server {
	s := &Server{
		backend: backend,
		mcp:     mcpsrv.NewMCPServer("a11y-kernel", version, mcpsrv.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s
}

// ServeStdio blocks serving JSON-RPC on stdin/stdout.
func (s *Server) ServeStdio() error {
	return mcpsrv.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("screen",
			mcp.WithDescription("List the interactive elements on the current screen with text, resource id, content description, class and bounds"),
		),
		s.handleScreen,
	)

	s.mcp.AddTool(
		mcp.NewTool("capabilities",
			mcp.WithDescription("Report root availability and the actions this device supports"),
		),
		s.handleCapabilities,
	)

	s.mcp.AddTool(
		mcp.NewTool("act",
			mcp.WithDescription("Perform one UI action. Semantic accessibility actions are tried first, then gesture and root fallbacks."),
			mcp.WithString("action", mcp.Required(),
				mcp.Enum("tap", "type", "scroll", "back", "home", "launch_app", "keyevent", "swipe", "wait", "done"),
				mcp.Description("Action to perform")),
			mcp.WithString("by", mcp.Enum("id", "text", "desc", "class"), mcp.Description("Selector attribute")),
			mcp.WithString("value", mcp.Description("Selector substring, case-insensitive")),
			mcp.WithString("text", mcp.Description("Text for type")),
			mcp.WithString("direction", mcp.Enum("forward", "backward"), mcp.Description("Scroll direction")),
			mcp.WithNumber("x", mcp.Description("Fallback tap X")),
			mcp.WithNumber("y", mcp.Description("Fallback tap Y")),
			mcp.WithNumber("from_x", mcp.Description("Swipe start X")),
			mcp.WithNumber("from_y", mcp.Description("Swipe start Y")),
			mcp.WithNumber("to_x", mcp.Description("Swipe end X")),
			mcp.WithNumber("to_y", mcp.Description("Swipe end Y")),
			mcp.WithNumber("duration_ms", mcp.Description("Swipe duration in ms")),
			mcp.WithNumber("timeout_ms", mcp.Description("Wait duration in ms, clamped to 50..3000")),
			mcp.WithString("package", mcp.Description("Package for launch_app")),
			mcp.WithNumber("keycode", mcp.Description("Android key code for keyevent")),
			mcp.WithString("verify_text", mcp.Description("Text expected on screen after the action")),
			mcp.WithString("verify_script", mcp.Description("JavaScript check run against the screen after the action")),
		),
		s.handleAct,
	)
}

func (s *Server) handleScreen(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	screen, err := s.backend.Screen()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(screen, false), nil
}

func (s *Server) handleCapabilities(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.backend.Capabilities(), false), nil
}

func (s *Server) handleAct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := requestFromArgs(request.GetArguments())
	resp := s.backend.Act(ctx, req)
	failed := !resp.Success || (resp.Verify != nil && !resp.Verify.Passed)
	return jsonResult(resp, failed), nil
}

// requestFromArgs maps flat tool arguments onto an action request.
func requestFromArgs(params map[string]interface{}) core.ActionRequest {
	req := core.ActionRequest{
		Action:      stringParam(params, "action", ""),
		Direction:   stringParam(params, "direction", ""),
		PackageName: stringParam(params, "package", ""),
	}

	if by, value := stringParam(params, "by", ""), stringParam(params, "value", ""); by != "" && value != "" {
		req.Selector = &core.Selector{By: core.SelectorField(by), Value: value}
	}
	if _, ok := params["text"]; ok {
		req.Text = core.StringPtr(stringParam(params, "text", ""))
	}
	if x, okX := intParam(params, "x"); okX {
		if y, okY := intParam(params, "y"); okY {
			req.FallbackCoordinates = []int{x, y}
		}
	}
	if fx, ok1 := intParam(params, "from_x"); ok1 {
		fy, ok2 := intParam(params, "from_y")
		tx, ok3 := intParam(params, "to_x")
		ty, ok4 := intParam(params, "to_y")
		if ok2 && ok3 && ok4 {
			req.From = []int{fx, fy}
			req.To = []int{tx, ty}
		}
	}
	if d, ok := intParam(params, "duration_ms"); ok {
		req.DurationMs = core.Int64Ptr(int64(d))
	}
	if d, ok := intParam(params, "timeout_ms"); ok {
		req.TimeoutMs = core.Int64Ptr(int64(d))
	}
	if k, ok := intParam(params, "keycode"); ok {
		req.Keycode = core.IntPtr(k)
	}

	expected := core.ExpectedAfter{
		TextExists: stringParam(params, "verify_text", ""),
		Script:     stringParam(params, "verify_script", ""),
	}
	if !expected.IsEmpty() {
		req.ExpectedAfter = &expected
	}
	return req
}

func jsonResult(v interface{}, isError bool) *mcp.CallToolResult {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err))
	}
	if isError {
		return mcp.NewToolResultError(string(b))
	}
	return mcp.NewToolResultText(string(b))
}

func stringParam(params map[string]interface{}, key, defaultVal string) string {
	if v, ok := params[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return defaultVal
}

func intParam(params map[string]interface{}, key string) (int, bool) {
	switch n := params[key].(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
