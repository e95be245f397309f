package backend

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

// ErrUnknownMethod is returned when parsing an unsupported aggregation method.
var ErrUnknownMethod = errors.New("unknown aggregation method")

// Method collapses the values of one bucket into a single value.
type Method uint8

const (
	Average Method = iota
	Sum
	Min
	Max
)

func (m Method) String() string {
	switch m {
	case Average:
		return "average"
	case Sum:
		return "sum"
	case Min:
		return "min"
	case Max:
		return "max"
	default:
		return "unknown"
	}
}

// ParseMethod accepts the names produced by Method.String, plus "avg"/"mean".
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "average", "avg", "mean":
		return Average, nil
	case "sum":
		return Sum, nil
	case "min":
		return Min, nil
	case "max":
		return Max, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
}

func (m Method) apply(values []float64) float64 {
	switch m {
	case Sum, Average:
		var total float64
		for _, v := range values {
			total += v
		}
		if m == Average {
			return total / float64(len(values))
		}
		return total
	case Min:
		return slices.Min(values)
	case Max:
		return slices.Max(values)
	default:
		return math.NaN()
	}
}

// BucketStart returns the start of the bucket of width window holding ts.
// Negative timestamps round toward negative infinity.
func BucketStart(ts, window int64) int64 {
	q := ts / window
	if ts%window != 0 && ts < 0 {
		q--
	}
	return q * window
}

type bucketKey struct {
	start    int64
	category string
}

// Aggregate partitions samples into buckets of window milliseconds and
// collapses each bucket into one derived sample. When byCategory is set every
// category gets its own bucket; otherwise the derived samples carry an empty
// category. The result is ordered by bucket start, then category.
func Aggregate(samples []Sample, window int64, method Method, byCategory bool) ([]Sample, error) {
	if window <= 0 {
		return nil, fmt.Errorf("aggregation window must be positive, got %d", window)
	}
	if method > Max {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, method)
	}
	buckets := make(map[bucketKey][]float64)
	var keys []bucketKey
	for _, s := range samples {
		key := bucketKey{start: BucketStart(s.Timestamp, window)}
		if byCategory {
			key.category = s.Category
		}
		if _, ok := buckets[key]; !ok {
			keys = append(keys, key)
		}
		buckets[key] = append(buckets[key], s.Value)
	}
	slices.SortFunc(keys, func(a, b bucketKey) int {
		if c := cmpTimestamp(a.start, b.start); c != 0 {
			return c
		}
		return strings.Compare(a.category, b.category)
	})
	out := make([]Sample, 0, len(keys))
	for _, key := range keys {
		out = append(out, derived(key.start, method.apply(buckets[key]), key.category, window, method.String()))
	}
	return out, nil
}

// Smooth replaces each sample's value with the average of the trailing window
// samples of the same category, itself included. Order is preserved.
func Smooth(samples []Sample, window int) ([]Sample, error) {
	if window <= 0 {
		return nil, fmt.Errorf("smoothing window must be positive, got %d", window)
	}
	type run struct {
		values []float64
		sum    float64
	}
	runs := make(map[string]*run)
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		r := runs[s.Category]
		if r == nil {
			r = &run{}
			runs[s.Category] = r
		}
		r.values = append(r.values, s.Value)
		r.sum += s.Value
		if len(r.values) > window {
			r.sum -= r.values[0]
			r.values = r.values[1:]
		}
		d := derived(s.Timestamp, r.sum/float64(len(r.values)), s.Category, int64(window), "smooth")
		d.ID = s.ID
		out = append(out, d)
	}
	return out, nil
}
