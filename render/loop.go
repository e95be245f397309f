package render

import (
	"context"
	"sync/atomic"
	"time"

	"git.sr.ht/~whereswaldon/streamviz/backend"
)

// DefaultFrameRate is used by loops without a frame rate.
const DefaultFrameRate = 60

// Loop renders frames continuously on its own goroutine. The zero value is
// ready to use.
type Loop struct {
	// FrameRate is the number of frames attempted per second.
	FrameRate int
	// AfterFrame, if set, runs after every rendered frame with the surface
	// that was drawn on.
	AfterFrame func(Surface)

	ticker backend.Periodic
	frames atomic.Uint64
}

func (l *Loop) interval() time.Duration {
	rate := l.FrameRate
	if rate <= 0 {
		rate = DefaultFrameRate
	}
	return time.Second / time.Duration(rate)
}

// Start stops any running loop and starts rendering with r. Each frame asks
// target for a surface and frame for the data to draw; Delta and Elapsed are
// filled in by the loop. A nil surface ends the loop quietly.
func (l *Loop) Start(ctx context.Context, target func() Surface, r Renderer, frame func() Frame) {
	var first, prev time.Time
	l.ticker.Start(ctx, l.interval(), func(now time.Time) bool {
		s := target()
		if s == nil {
			return false
		}
		if first.IsZero() {
			first, prev = now, now
		}
		f := frame()
		f.Delta = now.Sub(prev)
		f.Elapsed = now.Sub(first)
		prev = now
		Render(s, r, f)
		l.frames.Add(1)
		if l.AfterFrame != nil {
			l.AfterFrame(s)
		}
		return true
	})
}

// Stop halts the loop. Once it returns no further frame is rendered. Safe to
// call when the loop is not running.
func (l *Loop) Stop() {
	l.ticker.Stop()
}

func (l *Loop) Running() bool {
	return l.ticker.Running()
}

// Frames counts every frame rendered since the loop was created.
func (l *Loop) Frames() uint64 {
	return l.frames.Load()
}
