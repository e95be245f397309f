package render

import "git.sr.ht/~whereswaldon/streamviz/chart"

// Scatter draws every sample as a dot. Dots fade as their number grows.
type Scatter struct {
	Radius float64
}

// ScatterAlpha is the opacity of each dot when count dots are drawn.
func ScatterAlpha(count int) float64 {
	if count <= 0 {
		return 1
	}
	return max(0.3, min(1, 1000/float64(count)))
}

func (sc Scatter) Draw(s Surface, f *Frame) {
	radius := sc.Radius
	if radius <= 0 {
		radius = 2.5
	}
	alpha := ScatterAlpha(len(f.Samples))
	for _, sample := range f.Samples {
		s.Arc(f.Scale(chart.SamplePoint(sample)), radius, WithAlpha(f.Color(sample.Category), alpha), true)
	}
}

func (Scatter) Overlay(s Surface, f *Frame) {
	drawHover(s, f)
}
