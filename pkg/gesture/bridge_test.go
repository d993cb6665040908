package gesture

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeDispatcher calls back according to mode after delay.
type fakeDispatcher struct {
	mode    string // complete, cancel, never, both
	accept  bool
	delay   time.Duration
	mu      sync.Mutex
	strokes []Stroke
	ctx     context.Context
}

func (f *fakeDispatcher) DispatchGesture(ctx context.Context, stroke Stroke, onComplete, onCancel func()) bool {
	f.mu.Lock()
	f.strokes = append(f.strokes, stroke)
	f.ctx = ctx
	f.mu.Unlock()
	if !f.accept {
		return false
	}
	go func() {
		time.Sleep(f.delay)
		switch f.mode {
		case "complete":
			onComplete()
		case "cancel":
			onCancel()
		case "both":
			onComplete()
			onCancel()
			onComplete()
		}
	}()
	return true
}

func TestTapByGesture(t *testing.T) {
	tests := []struct {
		name string
		d    *fakeDispatcher
		want bool
	}{
		{"completed", &fakeDispatcher{mode: "complete", accept: true}, true},
		{"cancelled", &fakeDispatcher{mode: "cancel", accept: true}, false},
		{"refused", &fakeDispatcher{mode: "complete", accept: false}, false},
		{"never settles", &fakeDispatcher{mode: "never", accept: true}, false},
		{"late completion", &fakeDispatcher{mode: "complete", accept: true, delay: 200 * time.Millisecond}, false},
		{"repeated callbacks", &fakeDispatcher{mode: "both", accept: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBridge(tt.d)
			b.SetWait(50 * time.Millisecond)
			if got := b.TapByGesture(10, 20); got != tt.want {
				t.Errorf("TapByGesture() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTapByGesture_StrokeShape(t *testing.T) {
	d := &fakeDispatcher{mode: "complete", accept: true}
	NewBridge(d).TapByGesture(540, 1200)

	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.strokes) != 1 {
		t.Fatalf("dispatched %d strokes, want 1", len(d.strokes))
	}
	s := d.strokes[0]
	if len(s.Path) != 1 || s.Path[0] != (Point{X: 540, Y: 1200}) {
		t.Errorf("Path = %+v", s.Path)
	}
	if s.StartDelay != 0 || s.Duration != TapDuration {
		t.Errorf("StartDelay = %v, Duration = %v", s.StartDelay, s.Duration)
	}
}

func TestTapByGesture_Unsupported(t *testing.T) {
	b := NewBridge(nil)
	if b.Supported() {
		t.Error("Supported() = true without dispatcher")
	}
	if b.TapByGesture(1, 1) {
		t.Error("TapByGesture() = true without dispatcher")
	}
	var nilBridge *Bridge
	if nilBridge.TapByGesture(1, 1) {
		t.Error("nil bridge TapByGesture() = true")
	}
}

func TestTapByGesture_DefaultBound(t *testing.T) {
	d := &fakeDispatcher{mode: "never", accept: true}
	start := time.Now()
	NewBridge(d).TapByGesture(1, 1)
	elapsed := time.Since(start)
	if elapsed < WaitBound || elapsed > WaitBound+500*time.Millisecond {
		t.Errorf("TapByGesture() waited %v, want about %v", elapsed, WaitBound)
	}
}

func TestTapByGesture_CancelsContextAfterBound(t *testing.T) {
	d := &fakeDispatcher{mode: "never", accept: true}
	b := NewBridge(d)
	b.SetWait(20 * time.Millisecond)
	if b.TapByGesture(1, 1) {
		t.Fatal("TapByGesture() = true for a stroke that never settles")
	}

	d.mu.Lock()
	ctx := d.ctx
	d.mu.Unlock()
	select {
	case <-ctx.Done():
	default:
		t.Error("dispatch context still live after the bridge gave up")
	}
}
