package chart

import (
	"context"
	"math"
	"slices"
	"sync"

	"git.sr.ht/~whereswaldon/streamviz/backend"
)

// View is the derived state of a Pipeline after one recomputation. Views are
// never modified after they are published.
type View struct {
	// Samples passed the filter, in timestamp order.
	Samples []backend.Sample
	Bounds  Bounds
	// Stats describe the unfiltered buffer.
	Stats  backend.Stats
	Filter backend.FilterSpec
	// Categories lists every category in the buffer, sorted, whether or not
	// the filter lets it through.
	Categories []string
	// Version increases by one with every recomputation.
	Version uint64
}

// Pipeline owns a Buffer and the filter applied to it. Every mutation
// recomputes the filtered samples and their bounds exactly once and
// publishes the resulting View.
type Pipeline struct {
	buffer *backend.Buffer

	lock  sync.Mutex
	spec  backend.FilterSpec
	view  View
	views backend.Broadcast[View]
}

var _ backend.Sink = (*Pipeline)(nil)

func NewPipeline(capacity int, spec backend.FilterSpec) *Pipeline {
	p := &Pipeline{
		buffer: backend.NewBuffer(capacity),
		spec:   spec,
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	p.recompute()
	return p
}

// Buffer exposes the underlying buffer for read-only use.
func (p *Pipeline) Buffer() *backend.Buffer {
	return p.buffer
}

// Snapshot returns a copy of every buffered sample, ignoring the filter.
func (p *Pipeline) Snapshot() []backend.Sample {
	return p.buffer.Snapshot()
}

func (p *Pipeline) Append(s backend.Sample) {
	p.mutate(func() { p.buffer.Append(s) })
}

func (p *Pipeline) AppendBatch(batch []backend.Sample) {
	if len(batch) == 0 {
		return
	}
	p.mutate(func() { p.buffer.AppendBatch(batch) })
}

func (p *Pipeline) Clear() {
	p.mutate(p.buffer.Clear)
}

// SetFilter replaces the active filter.
func (p *Pipeline) SetFilter(spec backend.FilterSpec) {
	p.mutate(func() { p.spec = spec })
}

// Filter returns the active filter.
func (p *Pipeline) Filter() backend.FilterSpec {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.spec
}

// View returns the most recent view.
func (p *Pipeline) View() View {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.view
}

// Views provides the current view and every later one. Slow readers skip
// intermediate views.
func (p *Pipeline) Views(ctx context.Context) <-chan View {
	return p.views.Subscribe(ctx)
}

func (p *Pipeline) mutate(f func()) {
	p.lock.Lock()
	defer p.lock.Unlock()
	f()
	p.recompute()
}

// recompute must be called with the lock held.
func (p *Pipeline) recompute() {
	all := p.buffer.Snapshot()
	window := all
	if p.spec.Times.Start != math.MinInt64 || p.spec.Times.End != math.MaxInt64 {
		window = p.buffer.Between(p.spec.Times.Start, p.spec.Times.End)
	}
	filtered := backend.Filter(window, p.spec)
	p.view = View{
		Samples:    filtered,
		Bounds:     ComputeBounds(filtered),
		Stats:      p.buffer.Stats(),
		Filter:     p.spec,
		Categories: categories(all),
		Version:    p.view.Version + 1,
	}
	p.views.Publish(p.view)
}

func categories(samples []backend.Sample) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range samples {
		if _, ok := seen[s.Category]; ok {
			continue
		}
		seen[s.Category] = struct{}{}
		out = append(out, s.Category)
	}
	slices.Sort(out)
	return out
}
