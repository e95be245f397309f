package backend

import (
	"slices"
	"sort"
	"sync"
)

// DefaultCapacity is used when a buffer is created without a usable capacity.
const DefaultCapacity = 10_000

// Stats summarizes the contents of a Buffer.
type Stats struct {
	Count      int
	Categories int
	// Start and End are the first and last timestamps. Both are zero for an
	// empty buffer.
	Start, End int64
}

// Buffer holds the most recent samples of a stream ordered by timestamp. It
// never holds more than its capacity; the oldest samples are evicted first.
type Buffer struct {
	lock     sync.RWMutex
	samples  []Sample
	capacity int
}

func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		samples:  make([]Sample, 0, capacity),
		capacity: capacity,
	}
}

func (b *Buffer) Capacity() int {
	return b.capacity
}

func (b *Buffer) Len() int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return len(b.samples)
}

// Append adds a sample to the end of the buffer. A sample older than the
// newest one held is inserted at its place in timestamp order instead,
// after any samples sharing its timestamp.
func (b *Buffer) Append(sample Sample) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if n := len(b.samples); n == 0 || b.samples[n-1].Timestamp <= sample.Timestamp {
		b.samples = append(b.samples, sample)
	} else {
		idx := sort.Search(n, func(i int) bool {
			return b.samples[i].Timestamp > sample.Timestamp
		})
		b.samples = slices.Insert(b.samples, idx, sample)
	}
	b.trim()
}

// AppendBatch merges samples into the buffer. The batch may be out of order
// (historical backfill), so it is sorted first and then merged such that the
// ascending timestamp order is preserved. Samples already held win ties.
func (b *Buffer) AppendBatch(batch []Sample) {
	if len(batch) == 0 {
		return
	}
	sorted := slices.Clone(batch)
	slices.SortStableFunc(sorted, func(a, b Sample) int {
		return cmpTimestamp(a.Timestamp, b.Timestamp)
	})
	b.lock.Lock()
	defer b.lock.Unlock()
	if len(b.samples) == 0 || b.samples[len(b.samples)-1].Timestamp <= sorted[0].Timestamp {
		// Fast path for batches that extend the stream.
		b.samples = append(b.samples, sorted...)
		b.trim()
		return
	}
	merged := make([]Sample, 0, len(b.samples)+len(sorted))
	i, j := 0, 0
	for i < len(b.samples) && j < len(sorted) {
		if sorted[j].Timestamp < b.samples[i].Timestamp {
			merged = append(merged, sorted[j])
			j++
		} else {
			merged = append(merged, b.samples[i])
			i++
		}
	}
	merged = append(merged, b.samples[i:]...)
	merged = append(merged, sorted[j:]...)
	b.samples = merged
	b.trim()
}

// trim evicts the oldest samples beyond capacity. Must hold the write lock.
func (b *Buffer) trim() {
	if over := len(b.samples) - b.capacity; over > 0 {
		// Shift in place so the backing array does not grow forever.
		n := copy(b.samples, b.samples[over:])
		clear(b.samples[n:])
		b.samples = b.samples[:n]
	}
}

// Clear drops every sample.
func (b *Buffer) Clear() {
	b.lock.Lock()
	defer b.lock.Unlock()
	clear(b.samples)
	b.samples = b.samples[:0]
}

// Snapshot returns a copy of the current contents.
func (b *Buffer) Snapshot() []Sample {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return slices.Clone(b.samples)
}

// Between returns a copy of the samples with timestamps in the closed
// interval [start,end]. If end is less than start the bounds are swapped.
func (b *Buffer) Between(start, end int64) []Sample {
	if end < start {
		start, end = end, start
	}
	b.lock.RLock()
	defer b.lock.RUnlock()
	indexA := sort.Search(len(b.samples), func(i int) bool {
		return b.samples[i].Timestamp >= start
	})
	indexB := sort.Search(len(b.samples), func(i int) bool {
		return b.samples[i].Timestamp > end
	})
	if indexA >= indexB {
		return nil
	}
	return slices.Clone(b.samples[indexA:indexB])
}

// Stats walks the buffer once; the buffer is bounded so this stays cheap.
func (b *Buffer) Stats() Stats {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return computeStats(b.samples)
}

func computeStats(samples []Sample) Stats {
	if len(samples) == 0 {
		return Stats{}
	}
	seen := make(map[string]struct{})
	st := Stats{
		Count: len(samples),
		Start: samples[0].Timestamp,
		End:   samples[0].Timestamp,
	}
	for _, s := range samples {
		seen[s.Category] = struct{}{}
		st.Start = min(st.Start, s.Timestamp)
		st.End = max(st.End, s.Timestamp)
	}
	st.Categories = len(seen)
	return st
}

func cmpTimestamp(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
