package render

import (
	"image/color"
	"slices"
	"time"

	"git.sr.ht/~whereswaldon/streamviz/backend"
	"git.sr.ht/~whereswaldon/streamviz/chart"
)

// Frame is everything needed to draw one chart frame.
type Frame struct {
	Samples []backend.Sample
	// Categories fixes the color of each category by its index.
	Categories  []string
	Bounds      chart.Bounds
	Dims        chart.Dimensions
	Interaction chart.Interaction
	Palette     Palette
	// Delta is the time since the previous animated frame and Elapsed the
	// time since the first one. Both are zero for one-shot renders.
	Delta, Elapsed time.Duration
	// XLabel and YLabel format axis tick values. A nil formatter hides the
	// labels of that axis.
	XLabel, YLabel func(float64) string

	// heat caches the heatmap grid shared by Prepare, Draw and Overlay.
	heat *heatCache
}

// NewFrame builds a frame from a pipeline view.
func NewFrame(v chart.View, d chart.Dimensions, in chart.Interaction) Frame {
	return Frame{
		Samples:     v.Samples,
		Categories:  v.Categories,
		Bounds:      v.Bounds,
		Dims:        d,
		Interaction: in,
		Palette:     DefaultPalette,
		XLabel:      TimeLabel,
		YLabel:      ValueLabel,
	}
}

// Color returns the color of a category.
func (f *Frame) Color(category string) color.NRGBA {
	return f.Palette.Category(slices.Index(f.Categories, category))
}

// Scale maps a data point into the plot before pan and zoom.
func (f *Frame) Scale(p chart.Point) chart.Point {
	return chart.Scale(p, f.Bounds, f.Dims)
}

// Screen maps a data point all the way to the screen.
func (f *Frame) Screen(p chart.Point) chart.Point {
	return chart.DataToScreen(p, f.Interaction, f.Bounds, f.Dims)
}

// Renderer draws the content of one chart type. Draw runs with the pan and
// zoom transform pushed, so it works in unzoomed plot coordinates.
type Renderer interface {
	Draw(s Surface, f *Frame)
}

// Preparer is implemented by renderers whose axes do not follow the frame's
// data bounds. Prepare may replace the bounds and label formatters.
type Preparer interface {
	Prepare(f *Frame)
}

// Overlayer is implemented by renderers that draw on top of the chart in
// screen space, after the pan and zoom transform is removed.
type Overlayer interface {
	Overlay(s Surface, f *Frame)
}

// Render draws one frame: background, grid and axes in screen space, then
// the chart content under the pan and zoom transform, then any overlays. A
// nil surface makes it a no-op. An empty frame still draws the grid.
func Render(s Surface, r Renderer, f Frame) {
	if s == nil || r == nil {
		return
	}
	if f.Dims.Width <= 0 || f.Dims.Height <= 0 {
		size := s.Size()
		f.Dims = chart.Dims(size.X, size.Y)
	}
	if f.Interaction.Scale == 0 {
		f.Interaction.Scale = 1
	}
	if p, ok := r.(Preparer); ok {
		p.Prepare(&f)
	}
	s.Clear(f.Palette.Background)
	if f.Dims.Empty() {
		return
	}
	DrawGrid(s, &f)
	if len(f.Samples) == 0 {
		return
	}
	s.Push(f.Interaction.Affine())
	r.Draw(s, &f)
	s.Pop()
	if o, ok := r.(Overlayer); ok {
		o.Overlay(s, &f)
	}
}

// ForType returns the renderer for a chart type name.
func ForType(name string) (Renderer, bool) {
	switch name {
	case "line":
		return Line{Markers: true}, true
	case "bar":
		return Bar{}, true
	case "scatter":
		return Scatter{}, true
	case "heatmap":
		return Heatmap{}, true
	default:
		return nil, false
	}
}

// Types lists the chart type names accepted by ForType.
var Types = []string{"line", "bar", "scatter", "heatmap"}

// RendererFunc adapts a plain function to the Renderer interface.
type RendererFunc func(s Surface, f *Frame)

func (r RendererFunc) Draw(s Surface, f *Frame) {
	r(s, f)
}
