// Package gesture turns the host's asynchronous gesture dispatch into a
// bounded blocking call.
package gesture

import (
	"context"
	"sync"
	"time"

	"github.com/openclaw/a11y-kernel/pkg/logger"
)

// Tap stroke shape and wait bound
const (
	TapDuration = 80 * time.Millisecond
	WaitBound   = 300 * time.Millisecond
)

// Point is a floating point screen coordinate.
type Point struct {
	X float64
	Y float64
}

// Stroke is one continuous touch path.
type Stroke struct {
	Path       []Point
	StartDelay time.Duration
	Duration   time.Duration
}

// Dispatcher submits a stroke to the host. Exactly one of onComplete or
// onCancel is expected to be called later, from any goroutine. The return
// value reports whether the host accepted the stroke at all. ctx is
// cancelled once the caller stops waiting; a stroke not yet performed by
// then must be dropped.
type Dispatcher interface {
	DispatchGesture(ctx context.Context, stroke Stroke, onComplete, onCancel func()) bool
}

// Bridge performs gesture taps on a Dispatcher.
type Bridge struct {
	dispatcher Dispatcher
	wait       time.Duration
}

// NewBridge creates a bridge. A nil dispatcher means the host cannot
// dispatch gestures and every tap returns false.
func NewBridge(d Dispatcher) *Bridge {
	return &Bridge{dispatcher: d, wait: WaitBound}
}

// SetWait changes the completion bound.
func (b *Bridge) SetWait(d time.Duration) {
	if d > 0 {
		b.wait = d
	}
}

// Supported reports whether the host can dispatch gestures.
func (b *Bridge) Supported() bool {
	return b != nil && b.dispatcher != nil
}

// TapByGesture dispatches a single-point tap at (x, y) and waits for its
// completion. Cancellation, refusal and timeout all return false.
func (b *Bridge) TapByGesture(x, y float64) bool {
	if !b.Supported() {
		return false
	}

	stroke := Stroke{
		Path:       []Point{{X: x, Y: y}},
		StartDelay: 0,
		Duration:   TapDuration,
	}

	done := make(chan bool, 1)
	var once sync.Once
	settle := func(ok bool) {
		once.Do(func() { done <- ok })
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !b.dispatcher.DispatchGesture(ctx, stroke, func() { settle(true) }, func() { settle(false) }) {
		logger.Debug("gesture dispatch refused at (%.0f, %.0f)", x, y)
		return false
	}

	timer := time.NewTimer(b.wait)
	defer timer.Stop()

	select {
	case ok := <-done:
		return ok
	case <-timer.C:
		logger.Debug("gesture at (%.0f, %.0f) not completed within %v", x, y, b.wait)
		return false
	}
}
