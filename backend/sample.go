package backend

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidSample is returned for samples that must never enter a buffer.
var ErrInvalidSample = errors.New("invalid sample")

// Metadata keys set on derived samples.
const (
	MetaAggregated = "aggregated"
	MetaBucket     = "bucket"
	MetaMethod     = "method"
)

// Sample is a single timestamped measurement. Samples are treated as immutable
// once created; derived samples are new values.
type Sample struct {
	// Timestamp in milliseconds.
	Timestamp int64
	Value     float64
	Category  string
	ID        string
	Metadata  map[string]string
}

// Aggregated reports whether the sample was derived from other samples.
func (s Sample) Aggregated() bool {
	return s.Metadata[MetaAggregated] == "true"
}

// Validate rejects samples with non-finite values.
func (s Sample) Validate() error {
	if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return fmt.Errorf("%w: value %v for %q", ErrInvalidSample, s.Value, s.ID)
	}
	return nil
}

func derived(ts int64, value float64, category string, window int64, method string) Sample {
	id := category + "@" + strconv.FormatInt(ts, 10) + "/" + method
	return Sample{
		Timestamp: ts,
		Value:     value,
		Category:  category,
		ID:        id,
		Metadata: map[string]string{
			MetaAggregated: "true",
			MetaBucket:     strconv.FormatInt(window, 10),
			MetaMethod:     method,
		},
	}
}
