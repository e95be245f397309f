package render

import (
	"time"

	"git.sr.ht/~whereswaldon/streamviz/chart"
	"github.com/dustin/go-humanize"
)

// GridFractions are the positions of gridlines across the plot.
var GridFractions = []float64{0, 0.25, 0.5, 0.75, 1}

const labelGap = 6

// DrawGrid draws gridlines, the two axis lines and tick labels. Labels show
// the data under each gridline with the current pan and zoom applied.
func DrawGrid(s Surface, f *Frame) {
	tl, br := f.Dims.PlotRect()
	w, h := br.X-tl.X, br.Y-tl.Y
	for _, frac := range GridFractions {
		x := tl.X + frac*w
		y := tl.Y + frac*h
		s.Polyline([]chart.Point{chart.Pt(x, tl.Y), chart.Pt(x, br.Y)}, 1, f.Palette.Grid)
		s.Polyline([]chart.Point{chart.Pt(tl.X, y), chart.Pt(br.X, y)}, 1, f.Palette.Grid)
		if f.XLabel != nil {
			at := chart.ScreenToData(chart.Pt(x, br.Y), f.Interaction, f.Bounds, f.Dims)
			s.Text(chart.Pt(x, br.Y+labelGap), f.XLabel(at.X), f.Palette.Label, AnchorBelow)
		}
		if f.YLabel != nil {
			at := chart.ScreenToData(chart.Pt(tl.X, y), f.Interaction, f.Bounds, f.Dims)
			s.Text(chart.Pt(tl.X-labelGap, y), f.YLabel(at.Y), f.Palette.Label, AnchorRight)
		}
	}
	s.Polyline([]chart.Point{tl, chart.Pt(tl.X, br.Y), br}, 1.5, f.Palette.Axis)
}

// TimeLabel formats a millisecond timestamp as a wall clock time.
func TimeLabel(ms float64) string {
	return time.UnixMilli(int64(ms)).Format("15:04:05")
}

// ValueLabel formats a sample value with thousands separators.
func ValueLabel(v float64) string {
	return humanize.CommafWithDigits(v, 1)
}
