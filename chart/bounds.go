// Package chart maps stream samples between data space and screen space and
// tracks the pan, zoom and hover state of a chart.
package chart

import (
	"git.sr.ht/~whereswaldon/streamviz/backend"
)

// Padding applied to each side of the data range, as a fraction of the span.
const (
	PadX = 0.05
	PadY = 0.10
)

// Bounds is a rectangle in data space. X is a timestamp in milliseconds and Y
// is a sample value.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// UnitBounds is used whenever there is too little data to derive a range.
var UnitBounds = Bounds{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1}

func (b Bounds) SpanX() float64 { return b.MaxX - b.MinX }
func (b Bounds) SpanY() float64 { return b.MaxY - b.MinY }

// Contains reports whether p lies within b, edges included.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// ComputeBounds returns the padded extent of samples. Fewer than two samples
// yield UnitBounds. An axis along which every sample agrees is widened by one
// unit on each side. When no value is negative the lower value bound never
// drops below zero.
func ComputeBounds(samples []backend.Sample) Bounds {
	if len(samples) < 2 {
		return UnitBounds
	}
	first := samples[0]
	b := Bounds{
		MinX: float64(first.Timestamp), MaxX: float64(first.Timestamp),
		MinY: first.Value, MaxY: first.Value,
	}
	for _, s := range samples[1:] {
		ts := float64(s.Timestamp)
		b.MinX = min(b.MinX, ts)
		b.MaxX = max(b.MaxX, ts)
		b.MinY = min(b.MinY, s.Value)
		b.MaxY = max(b.MaxY, s.Value)
	}
	nonNegative := b.MinY >= 0
	b.MinX, b.MaxX = pad(b.MinX, b.MaxX, PadX)
	b.MinY, b.MaxY = pad(b.MinY, b.MaxY, PadY)
	if nonNegative {
		b.MinY = max(b.MinY, 0)
	}
	return b
}

func pad(lo, hi, frac float64) (float64, float64) {
	span := hi - lo
	if span == 0 {
		return lo - 1, hi + 1
	}
	return lo - span*frac, hi + span*frac
}
