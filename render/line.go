package render

import (
	"math"
	"time"

	"git.sr.ht/~whereswaldon/streamviz/backend"
	"git.sr.ht/~whereswaldon/streamviz/chart"
)

// PulsePeriod is how long the marker on the newest sample takes to pulse
// once.
const PulsePeriod = 1500 * time.Millisecond

// maxMarkers is the largest series that still gets a marker on every point.
const maxMarkers = 200

// Line draws one polyline per category.
type Line struct {
	// Markers draws a dot on every point of short series.
	Markers bool
	Width   float64
}

func (l Line) width() float64 {
	if l.Width <= 0 {
		return 2
	}
	return l.Width
}

type series struct {
	category string
	samples  []backend.Sample
}

// groupByCategory splits samples by category, keeping the order in which
// categories first appear.
func groupByCategory(samples []backend.Sample) []series {
	index := map[string]int{}
	var out []series
	for _, s := range samples {
		i, ok := index[s.Category]
		if !ok {
			i = len(out)
			index[s.Category] = i
			out = append(out, series{category: s.Category})
		}
		out[i].samples = append(out[i].samples, s)
	}
	return out
}

func (l Line) Draw(s Surface, f *Frame) {
	width := l.width()
	for _, g := range groupByCategory(f.Samples) {
		c := f.Color(g.category)
		points := make([]chart.Point, len(g.samples))
		for i, sample := range g.samples {
			points[i] = f.Scale(chart.SamplePoint(sample))
		}
		s.Polyline(points, width, c)
		if l.Markers && len(points) <= maxMarkers {
			for _, p := range points {
				s.Arc(p, width*1.25, c, true)
			}
		}
	}
	newest := f.Samples[len(f.Samples)-1]
	p := f.Scale(chart.SamplePoint(newest))
	c := f.Color(newest.Category)
	phase := Pulse(f.Elapsed)
	s.Arc(p, width*(2+3*phase), WithAlpha(c, 1-phase), false)
	s.Arc(p, width*1.5, c, true)
}

func (Line) Overlay(s Surface, f *Frame) {
	drawHover(s, f)
}

// Pulse returns how far into its current pulse the newest-sample marker is,
// in [0,1).
func Pulse(elapsed time.Duration) float64 {
	return math.Mod(elapsed.Seconds()/PulsePeriod.Seconds(), 1)
}
