package backend

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Periodic owns at most one goroutine invoking a function on a fixed
// interval. The zero value is ready to use.
type Periodic struct {
	lock   sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Start stops any running ticker and launches a new one. The tick function
// runs on the ticker goroutine; returning false stops the ticker. tick must
// not call Stop or Start on the same Periodic.
func (p *Periodic) Start(ctx context.Context, interval time.Duration, tick func(now time.Time) bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.stopLocked()
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				// An in-flight tick always finishes, but nothing runs after
				// cancellation.
				if ctx.Err() != nil || !tick(now) {
					return
				}
			}
		}
	}()
}

// Stop halts the ticker and waits for an in-flight tick to finish. It is safe
// to call when nothing is running.
func (p *Periodic) Stop() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.stopLocked()
}

func (p *Periodic) stopLocked() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.cancel = nil
	p.done = nil
}

// Running reports whether the ticker goroutine is still alive.
func (p *Periodic) Running() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Sink receives samples. chart.Pipeline and Buffer both implement it.
type Sink interface {
	Append(Sample)
	AppendBatch([]Sample)
}

var _ Sink = (*Buffer)(nil)

// Feed appends a new sample from Source to Sink on every tick.
type Feed struct {
	Source   Source
	Sink     Sink
	Interval time.Duration

	ticker Periodic
	last   atomic.Int64
}

func NewFeed(source Source, sink Sink, interval time.Duration) *Feed {
	if interval <= 0 {
		interval = DefaultStep
	}
	return &Feed{
		Source:   source,
		Sink:     sink,
		Interval: interval,
	}
}

// Start begins appending samples that follow lastTimestamp. A feed that is
// already running is stopped first.
func (f *Feed) Start(ctx context.Context, lastTimestamp int64) {
	f.last.Store(lastTimestamp)
	f.ticker.Start(ctx, f.Interval, func(time.Time) bool {
		s, err := f.Source.Next(f.last.Load())
		if err != nil {
			log.Printf("dropping sample: %v", err)
			return true
		}
		f.Sink.Append(s)
		f.last.Store(s.Timestamp)
		return true
	})
}

// Stop halts the feed. Safe to call repeatedly.
func (f *Feed) Stop() {
	f.ticker.Stop()
}

func (f *Feed) Running() bool {
	return f.ticker.Running()
}

// Last is the timestamp of the most recently appended sample.
func (f *Feed) Last() int64 {
	return f.last.Load()
}
