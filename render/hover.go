package render

import (
	"fmt"

	"git.sr.ht/~whereswaldon/streamviz/chart"
)

// Approximate glyph size used to lay out tooltips. Surfaces do not measure
// text, so boxes are sized for the fixed-width face of ImageSurface.
const (
	glyphWidth  = 7
	glyphHeight = 13
	tooltipPad  = 4
)

// Tooltip returns the text shown for a hovered sample.
func Tooltip(h *chart.Hover) string {
	return fmt.Sprintf("%s: %s at %s", h.Sample.Category, ValueLabel(h.Sample.Value), TimeLabel(float64(h.Sample.Timestamp)))
}

// drawHover draws a crosshair through the hovered sample and a tooltip next
// to it. Samples panned out of the plot get neither.
func drawHover(s Surface, f *Frame) {
	h := f.Interaction.Hover
	if h == nil {
		return
	}
	tl, br := f.Dims.PlotRect()
	p := f.Screen(chart.SamplePoint(h.Sample))
	if p.X < tl.X || p.X > br.X || p.Y < tl.Y || p.Y > br.Y {
		return
	}
	s.Polyline([]chart.Point{chart.Pt(p.X, tl.Y), chart.Pt(p.X, br.Y)}, 1, f.Palette.Crosshair)
	s.Polyline([]chart.Point{chart.Pt(tl.X, p.Y), chart.Pt(br.X, p.Y)}, 1, f.Palette.Crosshair)
	s.Arc(p, 5, f.Color(h.Sample.Category), false)

	text := Tooltip(h)
	size := chart.Pt(float64(len(text)*glyphWidth+2*tooltipPad), glyphHeight+2*tooltipPad)
	origin := p.Add(chart.Pt(8, -8-size.Y))
	if origin.X+size.X > br.X {
		origin.X = p.X - 8 - size.X
	}
	if origin.Y < tl.Y {
		origin.Y = p.Y + 8
	}
	s.FillRect(origin, origin.Add(size), f.Palette.Tooltip)
	s.Text(origin.Add(chart.Pt(tooltipPad, size.Y/2)), text, f.Palette.Label, AnchorLeft)
}
