package backend

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// ErrAggregatorClosed is returned when submitting to a torn down Aggregator.
var ErrAggregatorClosed = errors.New("aggregator closed")

// Kind identifies the variant of a Request.
type Kind uint8

const (
	KindProcess Kind = iota
	KindAggregate
	KindGenerate
	KindFilter
)

func (k Kind) String() string {
	switch k {
	case KindProcess:
		return "process"
	case KindAggregate:
		return "aggregate"
	case KindGenerate:
		return "generate"
	case KindFilter:
		return "filter"
	default:
		return "unknown"
	}
}

type (
	// Request is a unit of work for the Aggregator. The set of implementations
	// is closed; see the *Request types in this package.
	Request interface {
		Kind() Kind
		compute() ([]Sample, error)
	}

	// SmoothRequest smooths samples with a trailing window average.
	SmoothRequest struct {
		Samples []Sample
		Window  int
	}
	// AggregateRequest collapses samples into time buckets.
	AggregateRequest struct {
		Samples    []Sample
		Window     int64
		Method     Method
		ByCategory bool
	}
	// GenerateRequest produces synthetic samples.
	GenerateRequest struct {
		Count      int
		Start      int64
		Seed       int64
		Categories []string
	}
	// FilterRequest applies a FilterSpec.
	FilterRequest struct {
		Samples []Sample
		Spec    FilterSpec
	}
)

func (SmoothRequest) Kind() Kind    { return KindProcess }
func (AggregateRequest) Kind() Kind { return KindAggregate }
func (GenerateRequest) Kind() Kind  { return KindGenerate }
func (FilterRequest) Kind() Kind    { return KindFilter }

func (r SmoothRequest) compute() ([]Sample, error) {
	return Smooth(r.Samples, r.Window)
}

func (r AggregateRequest) compute() ([]Sample, error) {
	return Aggregate(r.Samples, r.Window, r.Method, r.ByCategory)
}

func (r GenerateRequest) compute() ([]Sample, error) {
	if r.Count < 0 {
		return nil, fmt.Errorf("cannot generate %d samples", r.Count)
	}
	return NewGenerator(r.Seed, r.Categories...).Batch(r.Count, r.Start), nil
}

func (r FilterRequest) compute() ([]Sample, error) {
	return Filter(r.Samples, r.Spec), nil
}

// Response is the single answer to a Request, matched by ID.
type Response struct {
	ID      uint64
	Kind    Kind
	Samples []Sample
	Err     error
	Elapsed time.Duration
}

// AggregationError describes a failed background computation.
type AggregationError struct {
	ID   uint64
	Kind Kind
	Err  error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregation %d (%s) failed: %v", e.ID, e.Kind, e.Err)
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}

// Call is an in-flight request. Done receives exactly one Response unless the
// Aggregator is closed first, in which case it never fires.
type Call struct {
	ID      uint64
	Request Request
	Done    <-chan Response
}

type envelope struct {
	id  uint64
	req Request
}

// Aggregator runs expensive batch computations on a dedicated goroutine.
// Requests and results are exchanged over channels only; callers must not
// mutate sample slices they have submitted until the response arrives.
type Aggregator struct {
	requests chan envelope
	ready    chan struct{}
	done     chan struct{}
	cancel   context.CancelFunc
	once     sync.Once

	lock    sync.Mutex
	pending map[uint64]chan Response
	nextID  uint64
	closed  bool
}

// NewAggregator starts the worker goroutine. It stops when ctx is cancelled
// or Close is called.
func NewAggregator(ctx context.Context) *Aggregator {
	ctx, cancel := context.WithCancel(ctx)
	a := &Aggregator{
		requests: make(chan envelope, 64),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
		cancel:   cancel,
		pending:  make(map[uint64]chan Response),
	}
	go a.run(ctx)
	return a
}

// Ready is closed once the worker accepts requests.
func (a *Aggregator) Ready() <-chan struct{} {
	return a.ready
}

// Closed is closed once the worker goroutine has exited.
func (a *Aggregator) Closed() <-chan struct{} {
	return a.done
}

func (a *Aggregator) run(ctx context.Context) {
	defer close(a.done)
	defer a.drop()
	close(a.ready)
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-a.requests:
			a.complete(execute(env))
		}
	}
}

func execute(env envelope) (resp Response) {
	start := time.Now()
	resp = Response{ID: env.id, Kind: env.req.Kind()}
	defer func() {
		if r := recover(); r != nil {
			resp.Samples = nil
			resp.Err = &AggregationError{ID: env.id, Kind: env.req.Kind(), Err: fmt.Errorf("panic: %v", r)}
		}
		resp.Elapsed = time.Since(start)
	}()
	samples, err := env.req.compute()
	if err != nil {
		resp.Err = &AggregationError{ID: env.id, Kind: env.req.Kind(), Err: err}
		return resp
	}
	resp.Samples = samples
	return resp
}

func (a *Aggregator) complete(resp Response) {
	a.lock.Lock()
	ch, ok := a.pending[resp.ID]
	delete(a.pending, resp.ID)
	a.lock.Unlock()
	if ok {
		// Buffered with capacity one, so this never blocks.
		ch <- resp
	}
}

// drop forgets every pending call. Their Done channels are never completed.
func (a *Aggregator) drop() {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.closed = true
	if n := len(a.pending); n > 0 {
		log.Printf("aggregator shutting down with %d pending requests", n)
	}
	a.pending = make(map[uint64]chan Response)
}

// Pending reports how many requests await a response.
func (a *Aggregator) Pending() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return len(a.pending)
}

// Submit enqueues req and returns its Call.
func (a *Aggregator) Submit(ctx context.Context, req Request) (*Call, error) {
	a.lock.Lock()
	if a.closed {
		a.lock.Unlock()
		return nil, ErrAggregatorClosed
	}
	a.nextID++
	id := a.nextID
	ch := make(chan Response, 1)
	a.pending[id] = ch
	a.lock.Unlock()

	select {
	case a.requests <- envelope{id: id, req: req}:
		return &Call{ID: id, Request: req, Done: ch}, nil
	case <-a.done:
		a.forget(id)
		return nil, ErrAggregatorClosed
	case <-ctx.Done():
		a.forget(id)
		return nil, ctx.Err()
	}
}

func (a *Aggregator) forget(id uint64) {
	a.lock.Lock()
	defer a.lock.Unlock()
	delete(a.pending, id)
}

// Close stops the worker and waits for it to exit. Safe to call repeatedly.
func (a *Aggregator) Close() {
	a.once.Do(func() {
		a.cancel()
		<-a.done
	})
}

// Compute runs req synchronously on the calling goroutine.
func Compute(req Request) ([]Sample, error) {
	resp := execute(envelope{req: req})
	return resp.Samples, resp.Err
}

// Offload runs req on the Aggregator when it is available, falling back to a
// synchronous Compute when it is nil, not yet ready, or closed. Errors from
// the computation itself are returned as they are.
func Offload(ctx context.Context, a *Aggregator, req Request) ([]Sample, error) {
	if a == nil {
		return Compute(req)
	}
	select {
	case <-a.Ready():
	default:
		return Compute(req)
	}
	call, err := a.Submit(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Printf("failed submitting %s request, computing inline: %v", req.Kind(), err)
		return Compute(req)
	}
	select {
	case resp := <-call.Done:
		return resp.Samples, resp.Err
	case <-a.Closed():
		return Compute(req)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
