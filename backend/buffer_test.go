package backend

import (
	"strconv"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleAt(ts int64, category string, value float64) Sample {
	return Sample{Timestamp: ts, Category: category, Value: value, ID: category + "-" + strconv.FormatInt(ts, 10)}
}

func timestamps(samples []Sample) []int64 {
	out := make([]int64, 0, len(samples))
	for _, s := range samples {
		out = append(out, s.Timestamp)
	}
	return out
}

func TestBufferEvictsOldest(t *testing.T) {
	b := NewBuffer(3)
	for _, ts := range []int64{1, 2, 3} {
		b.Append(sampleAt(ts, "CPU", float64(ts)))
	}
	b.Append(sampleAt(4, "CPU", 4))
	if diff := cmp.Diff([]int64{2, 3, 4}, timestamps(b.Snapshot())); diff != "" {
		t.Errorf("unexpected contents (-want +got):\n%s", diff)
	}
	if b.Len() != 3 {
		t.Errorf("expected length 3, got %d", b.Len())
	}
}

func TestBufferAppendOutOfOrder(t *testing.T) {
	b := NewBuffer(4)
	for _, ts := range []int64{10, 20, 30, 15, 20} {
		b.Append(sampleAt(ts, "CPU", float64(ts)))
	}
	snap := b.Snapshot()
	if diff := cmp.Diff([]int64{15, 20, 20, 30}, timestamps(snap)); diff != "" {
		t.Errorf("unexpected contents (-want +got):\n%s", diff)
	}
	// The later of two equal timestamps goes last.
	if snap[2].Value != 20 || snap[1].ID != snap[2].ID {
		t.Errorf("unexpected tie order %+v", snap[1:3])
	}
}

func TestBufferDefaultCapacity(t *testing.T) {
	for _, capacity := range []int{0, -5} {
		if b := NewBuffer(capacity); b.Capacity() != DefaultCapacity {
			t.Errorf("expected capacity %d for %d, got %d", DefaultCapacity, capacity, b.Capacity())
		}
	}
}

func TestBufferAppendBatch(t *testing.T) {
	type testCase struct {
		name     string
		capacity int
		existing []int64
		batch    []int64
		expected []int64
	}
	for _, tc := range []testCase{
		{
			name:     "extends",
			capacity: 10,
			existing: []int64{1, 2},
			batch:    []int64{3, 4},
			expected: []int64{1, 2, 3, 4},
		},
		{
			name:     "unsorted batch",
			capacity: 10,
			existing: []int64{},
			batch:    []int64{5, 1, 3},
			expected: []int64{1, 3, 5},
		},
		{
			name:     "backfill",
			capacity: 10,
			existing: []int64{10, 20, 30},
			batch:    []int64{25, 5, 15},
			expected: []int64{5, 10, 15, 20, 25, 30},
		},
		{
			name:     "backfill beyond capacity",
			capacity: 4,
			existing: []int64{10, 20, 30},
			batch:    []int64{25, 5, 15},
			expected: []int64{15, 20, 25, 30},
		},
		{
			name:     "empty batch",
			capacity: 2,
			existing: []int64{1},
			batch:    nil,
			expected: []int64{1},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBuffer(tc.capacity)
			for _, ts := range tc.existing {
				b.Append(sampleAt(ts, "CPU", 1))
			}
			var batch []Sample
			for _, ts := range tc.batch {
				batch = append(batch, sampleAt(ts, "Disk", 2))
			}
			b.AppendBatch(batch)
			if diff := cmp.Diff(tc.expected, timestamps(b.Snapshot())); diff != "" {
				t.Errorf("unexpected contents (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBufferAppendBatchTies(t *testing.T) {
	b := NewBuffer(10)
	b.Append(sampleAt(1, "CPU", 1))
	b.Append(sampleAt(3, "CPU", 3))
	b.AppendBatch([]Sample{sampleAt(3, "Disk", 30), sampleAt(2, "Disk", 20)})
	var categories []string
	for _, s := range b.Snapshot() {
		categories = append(categories, s.Category)
	}
	if diff := cmp.Diff([]string{"CPU", "Disk", "CPU", "Disk"}, categories); diff != "" {
		t.Errorf("existing samples should win ties (-want +got):\n%s", diff)
	}
}

func TestBufferAppendBatchDoesNotModifyInput(t *testing.T) {
	batch := []Sample{sampleAt(3, "CPU", 1), sampleAt(1, "CPU", 1)}
	NewBuffer(5).AppendBatch(batch)
	if batch[0].Timestamp != 3 || batch[1].Timestamp != 1 {
		t.Errorf("expected input batch to stay unsorted, got %v", timestamps(batch))
	}
}

func TestBufferBetween(t *testing.T) {
	b := NewBuffer(10)
	for _, ts := range []int64{1, 2, 3, 4, 5} {
		b.Append(sampleAt(ts, "CPU", 1))
	}
	for _, tc := range []struct {
		start, end int64
		expected   []int64
	}{
		{start: 2, end: 4, expected: []int64{2, 3, 4}},
		{start: 4, end: 2, expected: []int64{2, 3, 4}},
		{start: 0, end: 1, expected: []int64{1}},
		{start: 6, end: 9, expected: []int64{}},
	} {
		got := timestamps(b.Between(tc.start, tc.end))
		if diff := cmp.Diff(tc.expected, got); diff != "" {
			t.Errorf("Between(%d, %d) (-want +got):\n%s", tc.start, tc.end, diff)
		}
	}
}

func TestBufferStats(t *testing.T) {
	b := NewBuffer(10)
	if st := b.Stats(); st != (Stats{}) {
		t.Errorf("expected zero stats for empty buffer, got %+v", st)
	}
	b.AppendBatch([]Sample{
		sampleAt(10, "CPU", 1),
		sampleAt(20, "Disk", 1),
		sampleAt(30, "CPU", 1),
	})
	expected := Stats{Count: 3, Categories: 2, Start: 10, End: 30}
	if st := b.Stats(); st != expected {
		t.Errorf("expected %+v, got %+v", expected, st)
	}
	b.Clear()
	if b.Len() != 0 {
		t.Errorf("expected clear to empty the buffer, got %d samples", b.Len())
	}
}

func TestBufferSnapshotIsCopy(t *testing.T) {
	b := NewBuffer(2)
	b.Append(sampleAt(1, "CPU", 1))
	snap := b.Snapshot()
	snap[0].Value = 99
	if got := b.Snapshot()[0].Value; got != 1 {
		t.Errorf("expected snapshot mutation to leave buffer intact, got %f", got)
	}
}

func TestBufferConcurrentAppend(t *testing.T) {
	b := NewBuffer(100)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				b.AppendBatch([]Sample{sampleAt(int64(w*1000+i), "CPU", 1)})
				_ = b.Stats()
			}
		}()
	}
	wg.Wait()
	snap := b.Snapshot()
	if len(snap) != 100 {
		t.Fatalf("expected buffer to be full, got %d", len(snap))
	}
	for i := 1; i < len(snap); i++ {
		if snap[i].Timestamp < snap[i-1].Timestamp {
			t.Errorf("expected ascending timestamps, got %d after %d", snap[i].Timestamp, snap[i-1].Timestamp)
		}
	}
}
