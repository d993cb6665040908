// Package client talks to a running kernel over its local API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/openclaw/a11y-kernel/pkg/core"
	"github.com/openclaw/a11y-kernel/pkg/logger"
	"github.com/openclaw/a11y-kernel/pkg/session"
)

// Defaults
const (
	DefaultTimeout   = 8 * time.Second
	DefaultRetries   = 2
	DefaultRetryStep = 200 * time.Millisecond
	DefaultWaitAfter = 120 * time.Millisecond
)

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

// Client is an API client with bearer auth and retries.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	retries int
	step    time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

// New creates a client for baseURL (e.g. http://127.0.0.1:7333).
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: DefaultTimeout},
		retries: DefaultRetries,
		step:    DefaultRetryStep,
		sleep:   sleepContext,
	}
}

// SetRetries sets how many times a failed request is retried.
func (c *Client) SetRetries(n int) {
	if n < 0 {
		n = 0
	}
	c.retries = n
}

// SetTimeout sets the per-attempt HTTP timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.http.Timeout = d
}

// Health calls GET /health. No token is sent.
func (c *Client) Health(ctx context.Context) (session.HealthResponse, error) {
	var out session.HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, false, &out)
	return out, err
}

// Capabilities calls GET /capabilities.
func (c *Client) Capabilities(ctx context.Context) (session.CapabilitiesResponse, error) {
	var out session.CapabilitiesResponse
	err := c.do(ctx, http.MethodGet, "/capabilities", nil, true, &out)
	return out, err
}

// Screen calls GET /screen.
func (c *Client) Screen(ctx context.Context) (session.ScreenResponse, error) {
	var out session.ScreenResponse
	err := c.do(ctx, http.MethodGet, "/screen", nil, true, &out)
	return out, err
}

// Act calls POST /act.
func (c *Client) Act(ctx context.Context, req core.ActionRequest) (session.Response, error) {
	var out session.Response
	err := c.do(ctx, http.MethodPost, "/act", req, true, &out)
	return out, err
}

// StepResult is an action response plus the client-side text check.
type StepResult struct {
	session.Response
	VerifyText string `json:"verify_text,omitempty"`
	VerifyOK   *bool  `json:"verify_ok,omitempty"`
}

// Step acts, waits waitAfter, and when verifyText is set checks that the
// new screen contains it.
func (c *Client) Step(ctx context.Context, req core.ActionRequest, verifyText string, waitAfter time.Duration) (StepResult, error) {
	resp, err := c.Act(ctx, req)
	if err != nil {
		return StepResult{}, err
	}
	res := StepResult{Response: resp}

	if waitAfter > 0 {
		if err := c.sleep(ctx, waitAfter); err != nil {
			return res, err
		}
	}
	if verifyText == "" {
		return res, nil
	}

	found, err := c.ScreenHasText(ctx, verifyText)
	if err != nil {
		return res, fmt.Errorf("verify %q: %w", verifyText, err)
	}
	res.VerifyText = verifyText
	res.VerifyOK = &found
	return res, nil
}

// ScreenHasText reports whether any interactive element's text or
// description contains text, ignoring case.
func (c *Client) ScreenHasText(ctx context.Context, text string) (bool, error) {
	screen, err := c.Screen(ctx)
	if err != nil {
		return false, err
	}
	return HasText(screen.Elements, text), nil
}

// HasText is the case-insensitive containment check used by ScreenHasText.
func HasText(elements []core.Element, text string) bool {
	needle := strings.ToLower(text)
	for _, e := range elements {
		if strings.Contains(strings.ToLower(e.Text), needle) ||
			strings.Contains(strings.ToLower(e.Description), needle) {
			return true
		}
	}
	return false
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, auth bool, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	attempt := 0
	op := func() error {
		attempt++
		err := c.once(ctx, method, path, payload, auth, out)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !retryable(err) {
			return backoff.Permanent(err)
		}
		logger.Debug("%s %s attempt %d failed: %v", method, path, attempt, err)
		return err
	}

	b := backoff.WithMaxRetries(newLinearBackOff(c.step), uint64(c.retries))
	if err := backoff.Retry(op, b); err != nil {
		return fmt.Errorf("request failed %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) once(ctx context.Context, method, path string, payload []byte, auth bool, out interface{}) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if len(data) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &decodeError{err: err}
	}
	return nil
}

// retryable reports whether err may succeed on another attempt. Client
// errors (4xx) do not.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	var de *decodeError
	return !errors.As(err, &de)
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "decode response: " + e.err.Error() }

func (e *decodeError) Unwrap() error { return e.err }

// linearBackOff waits step, 2*step, 3*step, ...
type linearBackOff struct {
	step time.Duration
	n    int
}

func newLinearBackOff(step time.Duration) *linearBackOff {
	return &linearBackOff{step: step}
}

func (l *linearBackOff) NextBackOff() time.Duration {
	l.n++
	return time.Duration(l.n) * l.step
}

func (l *linearBackOff) Reset() {
	l.n = 0
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
