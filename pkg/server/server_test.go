package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openclaw/a11y-kernel/pkg/core"
	"github.com/openclaw/a11y-kernel/pkg/driver/mock"
	"github.com/openclaw/a11y-kernel/pkg/executor"
	"github.com/openclaw/a11y-kernel/pkg/gesture"
	"github.com/openclaw/a11y-kernel/pkg/session"
)

const testToken = "secret"

type fakeBackend struct {
	lastReq   core.ActionRequest
	acted     int
	screenErr error
}

func (f *fakeBackend) Act(_ context.Context, req core.ActionRequest) session.Response {
	f.acted++
	f.lastReq = req
	return session.Response{ActionOutcome: core.Succeeded(core.StrategySemantic, nil)}
}

func (f *fakeBackend) Screen() (session.ScreenResponse, error) {
	if f.screenErr != nil {
		return session.ScreenResponse{}, f.screenErr
	}
	return session.ScreenResponse{Package: "com.example.app", TS: 1, Elements: []core.Element{}}, nil
}

func (f *fakeBackend) Capabilities() session.CapabilitiesResponse {
	return session.CapabilitiesResponse{OK: true, Actions: core.BaseActions}
}

func (f *fakeBackend) Health() session.HealthResponse {
	return session.HealthResponse{OK: true, Service: session.ServiceName, APIPort: 7333}
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth_NoAuth(t *testing.T) {
	s := New(&fakeBackend{}, testToken)
	rec := do(t, s.Handler(), http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var h session.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &h); err != nil {
		t.Fatal(err)
	}
	if !h.OK || h.Service != "android-a11y-kernel" || h.APIPort != 7333 {
		t.Errorf("health = %+v", h)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("missing request ID")
	}
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"capabilities no token", http.MethodGet, "/capabilities", "", http.StatusUnauthorized},
		{"capabilities wrong token", http.MethodGet, "/capabilities", "nope", http.StatusUnauthorized},
		{"capabilities ok", http.MethodGet, "/capabilities", testToken, http.StatusOK},
		{"screen no token", http.MethodGet, "/screen", "", http.StatusUnauthorized},
		{"screen ok", http.MethodGet, "/screen", testToken, http.StatusOK},
		{"act no token", http.MethodPost, "/act", "", http.StatusUnauthorized},
		{"act ok", http.MethodPost, "/act", testToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&fakeBackend{}, testToken)
			rec := do(t, s.Handler(), tt.method, tt.path, tt.token, `{"action":"done"}`)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized {
				if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"unauthorized"}` {
					t.Errorf("body = %s", got)
				}
			}
		})
	}
}

func TestAuth_EmptyTokenRejectsAll(t *testing.T) {
	s := New(&fakeBackend{}, "")
	req := httptest.NewRequest(http.MethodGet, "/capabilities", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestAct_DecodesRequest(t *testing.T) {
	fb := &fakeBackend{}
	s := New(fb, testToken)
	body := `{"action":"tap","selector":{"by":"text","value":"Login"},"fallback_coordinates":[10,20],"unknown":1}`
	rec := do(t, s.Handler(), http.MethodPost, "/act", testToken, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	if fb.lastReq.Kind() != core.ActionTap || fb.lastReq.Selector == nil || fb.lastReq.Selector.Value != "Login" {
		t.Errorf("request = %+v", fb.lastReq)
	}
	if p, ok := fb.lastReq.TapPoint(); !ok || p.X != 10 || p.Y != 20 {
		t.Errorf("TapPoint() = %v, %v", p, ok)
	}
}

func TestAct_BadJSON(t *testing.T) {
	fb := &fakeBackend{}
	s := New(fb, testToken)
	rec := do(t, s.Handler(), http.MethodPost, "/act", testToken, `{"action":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
	if fb.acted != 0 {
		t.Error("backend called on bad body")
	}
}

func TestAct_WrongMethod(t *testing.T) {
	s := New(&fakeBackend{}, testToken)
	rec := do(t, s.Handler(), http.MethodGet, "/act", testToken, "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestScreen_Error(t *testing.T) {
	s := New(&fakeBackend{screenErr: errors.New("no window")}, testToken)
	rec := do(t, s.Handler(), http.MethodGet, "/screen", testToken, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no window") {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestRequestID_Reused(t *testing.T) {
	s := New(&fakeBackend{}, testToken)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request ID = %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := New(&fakeBackend{}, testToken)
	rec := do(t, s.Handler(), http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestEndToEnd_MockSession(t *testing.T) {
	host := mock.New(mock.Config{})
	sess := session.New(executor.New(host, gesture.NewBridge(host), nil), host, session.Options{APIPort: 7333})
	ts := httptest.NewServer(New(sess, testToken).Handler())
	defer ts.Close()

	body := `{"action":"tap","selector":{"by":"desc","value":"password"}}`
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/act", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out session.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !out.Success || out.Strategy != core.StrategySemantic || out.MatchedElement == nil {
		t.Fatalf("outcome = %+v", out.ActionOutcome)
	}
	if !strings.HasSuffix(out.MatchedElement.ResourceID, "password") {
		t.Errorf("matched = %+v", out.MatchedElement)
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	s := New(&fakeBackend{}, testToken)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
