package backend

import (
	"context"
	"testing"
	"time"
)

func TestSummarizerRefresh(t *testing.T) {
	samples := []Sample{
		// Outside the one minute span.
		sampleAt(0, "CPU", 1000),
		sampleAt(60_000, "CPU", 10),
		sampleAt(65_000, "CPU", 30),
		sampleAt(70_000, "CPU", 50),
		sampleAt(70_000, "Disk", 5),
		sampleAt(80_000, "CPU", 70),
	}
	s := NewSummarizer(func() []Sample { return samples }, nil)
	sum, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Stats.Count != len(samples) {
		t.Errorf("expected stats over every sample, got %+v", sum.Stats)
	}
	if len(sum.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %+v", sum.Categories)
	}
	cpu := sum.Categories[0]
	if cpu.Category != "CPU" || cpu.Buckets != 3 {
		t.Errorf("unexpected CPU summary %+v", cpu)
	}
	if cpu.Low != 20 || cpu.High != 70 || cpu.Current != 70 || cpu.Peak != 70 {
		t.Errorf("unexpected CPU figures %+v", cpu)
	}
	if disk := sum.Categories[1]; disk.Category != "Disk" || disk.Current != 5 {
		t.Errorf("unexpected Disk summary %+v", disk)
	}
	latest, ok := s.summaries.Latest()
	if !ok || latest.Stats != sum.Stats {
		t.Errorf("expected refresh to publish the summary")
	}
}

func TestSummarizerStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	agg := NewAggregator(ctx)
	defer agg.Close()
	buf := NewBuffer(10)
	buf.AppendBatch(NewGenerator(1).Batch(10, 0))
	s := NewSummarizer(buf.Snapshot, agg)
	summaries := s.Summaries(ctx)
	s.Start(ctx, time.Millisecond)
	defer s.Stop()
	select {
	case sum := <-summaries:
		if sum.Stats.Count != 10 {
			t.Errorf("expected 10 samples summarized, got %d", sum.Stats.Count)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no summary produced")
	}
}
