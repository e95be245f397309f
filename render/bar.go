package render

import (
	"slices"

	"git.sr.ht/~whereswaldon/streamviz/chart"
)

// Bar draws one bar per category holding the average of its samples.
type Bar struct{}

type barValue struct {
	category string
	mean     float64
}

// legendIndex orders categories missing from the legend after known ones.
func legendIndex(legend []string, category string) int {
	if i := slices.Index(legend, category); i >= 0 {
		return i
	}
	return len(legend)
}

// barValues averages samples per category, ordered like the frame's legend.
func barValues(f *Frame) []barValue {
	type acc struct {
		sum float64
		n   int
	}
	totals := map[string]*acc{}
	var order []string
	for _, s := range f.Samples {
		a, ok := totals[s.Category]
		if !ok {
			a = &acc{}
			totals[s.Category] = a
			order = append(order, s.Category)
		}
		a.sum += s.Value
		a.n++
	}
	slices.SortStableFunc(order, func(a, b string) int {
		return legendIndex(f.Categories, a) - legendIndex(f.Categories, b)
	})
	out := make([]barValue, 0, len(order))
	for _, c := range order {
		out = append(out, barValue{category: c, mean: totals[c].sum / float64(totals[c].n)})
	}
	return out
}

// Prepare scales the value axis from zero to the tallest bar and hides the
// time labels.
func (Bar) Prepare(f *Frame) {
	bars := barValues(f)
	tallest := 0.0
	for _, b := range bars {
		tallest = max(tallest, b.mean)
	}
	if tallest <= 0 {
		tallest = 1
	}
	f.Bounds = chart.Bounds{MinX: 0, MaxX: float64(max(len(bars), 1)), MinY: 0, MaxY: tallest}
	f.XLabel = nil
}

func (Bar) Draw(s Surface, f *Frame) {
	bars := barValues(f)
	if len(bars) == 0 {
		return
	}
	tl, br := f.Dims.PlotRect()
	slot := f.Dims.PlotWidth() / float64(len(bars))
	for i, b := range bars {
		height := clamp(b.mean/f.Bounds.MaxY, 0, 1) * f.Dims.PlotHeight()
		x0 := tl.X + slot*(float64(i)+0.15)
		x1 := x0 + slot*0.7
		mid := (x0 + x1) / 2
		s.FillRect(chart.Pt(x0, br.Y-height), chart.Pt(x1, br.Y), f.Color(b.category))
		s.Text(chart.Pt(mid, br.Y-height-labelGap), ValueLabel(b.mean), f.Palette.Label, AnchorAbove)
		s.Text(chart.Pt(mid, br.Y+labelGap), b.category, f.Palette.Label, AnchorBelow)
	}
}
