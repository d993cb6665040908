// Package session serialises action requests against one live UI and
// shapes the results the API returns.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/openclaw/a11y-kernel/pkg/core"
	"github.com/openclaw/a11y-kernel/pkg/executor"
	"github.com/openclaw/a11y-kernel/pkg/jsengine"
	"github.com/openclaw/a11y-kernel/pkg/logger"
	"github.com/openclaw/a11y-kernel/pkg/metrics"
	"github.com/openclaw/a11y-kernel/pkg/tree"
)

// ServiceName identifies the kernel in health responses.
const ServiceName = "android-a11y-kernel"

// DefaultVerifyDelay is the settle time before expected_after checks.
const DefaultVerifyDelay = 350 * time.Millisecond

// ScreenSource captures the current UI tree.
type ScreenSource interface {
	Screen() (*tree.Snapshot, error)
}

// Options configures a Session.
type Options struct {
	VerifyDelay time.Duration
	APIPort     int
	// OnDevice reports whether the kernel runs on the device itself.
	OnDevice bool
}

// Session owns the engine and screen source for one device.
type Session struct {
	engine *executor.Engine
	source ScreenSource
	checks *jsengine.Engine
	opts   Options

	mu    sync.Mutex
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New creates a session.
func New(engine *executor.Engine, source ScreenSource, opts Options) *Session {
	if opts.VerifyDelay <= 0 {
		opts.VerifyDelay = DefaultVerifyDelay
	}
	return &Session{
		engine: engine,
		source: source,
		checks: jsengine.New(),
		opts:   opts,
		sleep:  sleepContext,
		now:    time.Now,
	}
}

// Response is the /act result: the action outcome plus optional
// verification.
type Response struct {
	core.ActionOutcome
	Verify *VerifyResult `json:"verify,omitempty"`
}

// VerifyResult reports expected_after checks. Passed is true only when
// every requested check passed.
type VerifyResult struct {
	Passed     bool             `json:"passed"`
	TextExists *bool            `json:"text_exists,omitempty"`
	Script     *jsengine.Result `json:"script,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Act runs one request. Requests are executed one at a time.
func (s *Session) Act(ctx context.Context, req core.ActionRequest) Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	screen := s.capture()
	outcome := s.engine.Execute(req, screen)
	metrics.ObserveAction(string(req.Kind()), string(outcome.Strategy), outcome.Success,
		time.Duration(outcome.ElapsedMs)*time.Millisecond)

	resp := Response{ActionOutcome: outcome}
	if outcome.Success && !req.ExpectedAfter.IsEmpty() {
		resp.Verify = s.verify(ctx, req.ExpectedAfter, outcome)
	}
	return resp
}

// capture reads the screen. A failed read yields an empty snapshot so
// coordinate fallbacks still work.
func (s *Session) capture() *tree.Snapshot {
	if s.source == nil {
		return &tree.Snapshot{}
	}
	screen, err := s.source.Screen()
	if err != nil {
		logger.Warn("screen capture failed: %v", err)
		return &tree.Snapshot{}
	}
	return screen
}

func (s *Session) verify(ctx context.Context, expected *core.ExpectedAfter, outcome core.ActionOutcome) *VerifyResult {
	if err := s.sleep(ctx, s.opts.VerifyDelay); err != nil {
		return &VerifyResult{Error: err.Error()}
	}

	screen := s.capture()
	res := &VerifyResult{Passed: true}

	if text := strings.TrimSpace(expected.TextExists); text != "" {
		found := screen.HasText(text)
		res.TextExists = &found
		res.Passed = res.Passed && found
	}

	if strings.TrimSpace(expected.Script) != "" {
		check, err := s.checks.Check(expected.Script, screen, outcome)
		if err != nil {
			res.Passed = false
			res.Error = err.Error()
		} else {
			res.Script = &check
			res.Passed = res.Passed && check.Passed
		}
	}

	logger.Debug("verify: passed=%v", res.Passed)
	return res
}

// ScreenResponse is the /screen payload.
type ScreenResponse struct {
	Package  string         `json:"package,omitempty"`
	Activity string         `json:"activity,omitempty"`
	TS       int64          `json:"ts"`
	Elements []core.Element `json:"elements"`
}

// Screen returns the interactive elements of the current screen.
func (s *Session) Screen() (ScreenResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := ScreenResponse{TS: s.now().UnixMilli(), Elements: []core.Element{}}
	if s.source == nil {
		return resp, nil
	}
	screen, err := s.source.Screen()
	if err != nil {
		return resp, err
	}
	resp.Package = screen.Package
	resp.Activity = screen.Activity
	if elements := screen.Interactive(); elements != nil {
		resp.Elements = elements
	}
	return resp, nil
}

// CapabilitiesResponse is the /capabilities payload.
type CapabilitiesResponse struct {
	OK              bool              `json:"ok"`
	RootAvailable   bool              `json:"root_available"`
	RootFallback    bool              `json:"root_fallback"`
	GestureDispatch bool              `json:"gesture_dispatch"`
	OnDeviceMode    bool              `json:"on_device_mode"`
	Actions         []core.ActionKind `json:"actions"`
	TS              int64             `json:"ts"`
}

// Capabilities probes root and lists supported actions.
func (s *Session) Capabilities() CapabilitiesResponse {
	caps := s.engine.Capabilities()
	return CapabilitiesResponse{
		OK:              true,
		RootAvailable:   s.engine.IsRootAvailable(),
		RootFallback:    caps.RootFallback,
		GestureDispatch: caps.GestureDispatch,
		OnDeviceMode:    s.opts.OnDevice,
		Actions:         caps.Actions,
		TS:              s.now().UnixMilli(),
	}
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	OK             bool   `json:"ok"`
	Service        string `json:"service"`
	APIPort        int    `json:"api_port"`
	ServiceEnabled bool   `json:"service_enabled"`
	TS             int64  `json:"ts"`
}

// Health reports liveness. It never touches the device.
func (s *Session) Health() HealthResponse {
	return HealthResponse{
		OK:             true,
		Service:        ServiceName,
		APIPort:        s.opts.APIPort,
		ServiceEnabled: s.source != nil,
		TS:             s.now().UnixMilli(),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
