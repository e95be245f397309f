package backend

import (
	"context"
	"sync"
)

// Broadcast fans the most recent value out to any number of subscribers.
// Slow subscribers only ever see the latest value; intermediate values are
// skipped. The zero value is ready to use.
type Broadcast[T any] struct {
	lock sync.Mutex
	subs map[chan T]struct{}
	last T
	has  bool
}

// Publish replaces the current value and notifies every subscriber.
func (b *Broadcast[T]) Publish(v T) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.last = v
	b.has = true
	for ch := range b.subs {
		select {
		case <-ch:
		default:
		}
		// Only Publish sends, and it holds the lock, so the channel has room.
		ch <- v
	}
}

// Latest returns the most recently published value.
func (b *Broadcast[T]) Latest() (T, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.last, b.has
}

// Subscribe returns a channel that receives the current value (if any) and
// every later one. The channel is closed once ctx is done. The signature
// matches the provider functions used with skel streams.
func (b *Broadcast[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)
	b.lock.Lock()
	if b.subs == nil {
		b.subs = make(map[chan T]struct{})
	}
	b.subs[ch] = struct{}{}
	if b.has {
		ch <- b.last
	}
	b.lock.Unlock()
	go func() {
		<-ctx.Done()
		b.lock.Lock()
		defer b.lock.Unlock()
		delete(b.subs, ch)
		close(ch)
	}()
	return ch
}
