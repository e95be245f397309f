package backend

import "math"

// ValueRange is a closed interval of sample values.
type ValueRange struct {
	Min, Max float64
}

// TimeRange is a closed interval of timestamps in milliseconds.
type TimeRange struct {
	Start, End int64
}

// FilterSpec selects a view of a stream.
//
// An empty Categories set applies no category filter at all: every category
// passes. Only entries set to true are members of the set. The value and time
// ranges have no such special case.
type FilterSpec struct {
	Categories map[string]bool
	Values     ValueRange
	Times      TimeRange
}

// MatchAll returns a spec that keeps every finite sample.
func MatchAll() FilterSpec {
	return FilterSpec{
		Values: ValueRange{Min: math.Inf(-1), Max: math.Inf(1)},
		Times:  TimeRange{Start: math.MinInt64, End: math.MaxInt64},
	}
}

// WithCategories returns a copy of the spec restricted to the given categories.
func (f FilterSpec) WithCategories(categories ...string) FilterSpec {
	f.Categories = make(map[string]bool, len(categories))
	for _, c := range categories {
		f.Categories[c] = true
	}
	return f
}

// Matches reports whether a sample passes every predicate of the spec.
func (f FilterSpec) Matches(s Sample) bool {
	return f.matches(s, f.restricted())
}

// restricted reports whether the category set has any members.
func (f FilterSpec) restricted() bool {
	for _, member := range f.Categories {
		if member {
			return true
		}
	}
	return false
}

func (f FilterSpec) matches(s Sample, restricted bool) bool {
	if restricted && !f.Categories[s.Category] {
		return false
	}
	if s.Value < f.Values.Min || s.Value > f.Values.Max {
		return false
	}
	return s.Timestamp >= f.Times.Start && s.Timestamp <= f.Times.End
}

// Filter returns the samples matching spec in their original order. The input
// is never modified.
func Filter(samples []Sample, spec FilterSpec) []Sample {
	out := make([]Sample, 0, len(samples))
	restricted := spec.restricted()
	for _, s := range samples {
		if spec.matches(s, restricted) {
			out = append(out, s)
		}
	}
	return out
}
