package chart

import (
	"math"

	"git.sr.ht/~whereswaldon/streamviz/backend"
)

// SamplePoint returns the data space position of s.
func SamplePoint(s backend.Sample) Point {
	return Point{X: float64(s.Timestamp), Y: s.Value}
}

// FindNearest returns the sample closest to a screen position, measured by
// Euclidean distance in data space. Every sample is visited.
func FindNearest(screen Point, in Interaction, b Bounds, d Dimensions, samples []backend.Sample) (backend.Sample, bool) {
	if len(samples) == 0 {
		return backend.Sample{}, false
	}
	target := ScreenToData(screen, in, b, d)
	best := -1
	bestDist := math.Inf(1)
	for i, s := range samples {
		dx := float64(s.Timestamp) - target.X
		dy := s.Value - target.Y
		if dist := dx*dx + dy*dy; dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	if best < 0 {
		return backend.Sample{}, false
	}
	return samples[best], true
}
