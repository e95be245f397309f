package backend

import (
	"context"
	"fmt"
	"log"
	"slices"
	"time"
)

// CategorySummary describes the recent history of one category, computed
// from bucket averages.
type CategorySummary struct {
	Category string
	Buckets  int
	// Current is the average of the newest bucket.
	Current float64
	// Low and High are the smallest and largest bucket averages.
	Low, High float64
	// Peak is the largest single value.
	Peak float64
}

// Summary is a periodic digest of the stream.
type Summary struct {
	Stats      Stats
	Span       time.Duration
	Bucket     time.Duration
	Categories []CategorySummary
	Elapsed    time.Duration
}

// Summarizer periodically digests a snapshot of the stream on the
// Aggregator. Failed refreshes are logged and the previous summary stays
// current.
type Summarizer struct {
	Snapshot   func() []Sample
	Aggregator *Aggregator
	// Span is how much recent history each summary covers.
	Span   time.Duration
	Bucket time.Duration

	ticker    Periodic
	summaries Broadcast[Summary]
}

func NewSummarizer(snapshot func() []Sample, agg *Aggregator) *Summarizer {
	return &Summarizer{
		Snapshot:   snapshot,
		Aggregator: agg,
		Span:       time.Minute,
		Bucket:     10 * time.Second,
	}
}

// Summaries provides the latest summary and every later one.
func (s *Summarizer) Summaries(ctx context.Context) <-chan Summary {
	return s.summaries.Subscribe(ctx)
}

// Start refreshes the summary every interval until Stop or ctx is done.
func (s *Summarizer) Start(ctx context.Context, interval time.Duration) {
	s.ticker.Start(ctx, interval, func(time.Time) bool {
		if _, err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
			log.Printf("failed refreshing summary: %v", err)
		}
		return true
	})
}

func (s *Summarizer) Stop() {
	s.ticker.Stop()
}

// Refresh computes and publishes a new summary.
func (s *Summarizer) Refresh(ctx context.Context) (Summary, error) {
	start := time.Now()
	samples := s.Snapshot()
	sum := Summary{
		Stats:  computeStats(samples),
		Span:   s.Span,
		Bucket: s.Bucket,
	}
	if len(samples) > 0 {
		cutoff := sum.Stats.End - s.Span.Milliseconds()
		idx, _ := slices.BinarySearchFunc(samples, cutoff, func(e Sample, t int64) int {
			return cmpTimestamp(e.Timestamp, t)
		})
		recent := samples[idx:]
		means, err := Offload(ctx, s.Aggregator, AggregateRequest{
			Samples:    recent,
			Window:     s.Bucket.Milliseconds(),
			Method:     Average,
			ByCategory: true,
		})
		if err != nil {
			return Summary{}, fmt.Errorf("failed averaging buckets: %w", err)
		}
		peaks, err := Offload(ctx, s.Aggregator, AggregateRequest{
			Samples:    recent,
			Window:     s.Bucket.Milliseconds(),
			Method:     Max,
			ByCategory: true,
		})
		if err != nil {
			return Summary{}, fmt.Errorf("failed finding bucket peaks: %w", err)
		}
		sum.Categories = summarize(means, peaks)
	}
	sum.Elapsed = time.Since(start)
	s.summaries.Publish(sum)
	return sum, nil
}

func summarize(means, peaks []Sample) []CategorySummary {
	byCategory := map[string]*CategorySummary{}
	var order []string
	for _, m := range means {
		c, ok := byCategory[m.Category]
		if !ok {
			c = &CategorySummary{Category: m.Category, Low: m.Value, High: m.Value, Peak: m.Value}
			byCategory[m.Category] = c
			order = append(order, m.Category)
		}
		c.Buckets++
		// Buckets arrive in ascending order, so the last one seen is newest.
		c.Current = m.Value
		c.Low = min(c.Low, m.Value)
		c.High = max(c.High, m.Value)
	}
	for _, p := range peaks {
		if c, ok := byCategory[p.Category]; ok {
			c.Peak = max(c.Peak, p.Value)
		}
	}
	slices.Sort(order)
	out := make([]CategorySummary, 0, len(order))
	for _, name := range order {
		out = append(out, *byCategory[name])
	}
	return out
}
