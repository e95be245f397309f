package chart

// Point is a position in either data or screen space.
type Point struct {
	X, Y float64
}

func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(q Point) Point   { return Point{X: p.X + q.X, Y: p.Y + q.Y} }
func (p Point) Sub(q Point) Point   { return Point{X: p.X - q.X, Y: p.Y - q.Y} }
func (p Point) Mul(s float64) Point { return Point{X: p.X * s, Y: p.Y * s} }
func (p Point) Div(s float64) Point { return Point{X: p.X / s, Y: p.Y / s} }

// Margin reserves room around the plot for axes and labels.
type Margin struct {
	Top, Right, Bottom, Left float64
}

// DefaultMargin leaves room for tick labels on the left and bottom.
var DefaultMargin = Margin{Top: 20, Right: 20, Bottom: 40, Left: 56}

// Dimensions describes the drawing area in logical units.
type Dimensions struct {
	Width, Height float64
	Margin        Margin
}

// Dims returns dimensions of the given size with DefaultMargin.
func Dims(width, height float64) Dimensions {
	return Dimensions{Width: width, Height: height, Margin: DefaultMargin}
}

func (d Dimensions) PlotWidth() float64 {
	return max(d.Width-d.Margin.Left-d.Margin.Right, 0)
}

func (d Dimensions) PlotHeight() float64 {
	return max(d.Height-d.Margin.Top-d.Margin.Bottom, 0)
}

// PlotRect returns the corners of the plot area.
func (d Dimensions) PlotRect() (topLeft, bottomRight Point) {
	topLeft = Pt(d.Margin.Left, d.Margin.Top)
	return topLeft, topLeft.Add(Pt(d.PlotWidth(), d.PlotHeight()))
}

// Empty reports whether there is no room to plot anything.
func (d Dimensions) Empty() bool {
	return d.PlotWidth() <= 0 || d.PlotHeight() <= 0
}

func ratio(v, lo, span float64) float64 {
	if span == 0 {
		return 0
	}
	return (v - lo) / span
}

// Scale maps a data point into the plot rectangle, before any pan or zoom.
// Larger values map to smaller Y so that they render higher up.
func Scale(p Point, b Bounds, d Dimensions) Point {
	return Point{
		X: d.Margin.Left + ratio(p.X, b.MinX, b.SpanX())*d.PlotWidth(),
		Y: d.Margin.Top + ratio(b.MaxY, p.Y, b.SpanY())*d.PlotHeight(),
	}
}

// Unscale inverts Scale. A degenerate plot rectangle maps everything to the
// lower bounds.
func Unscale(p Point, b Bounds, d Dimensions) Point {
	return Point{
		X: b.MinX + ratio(p.X, d.Margin.Left, d.PlotWidth())*b.SpanX(),
		Y: b.MaxY - ratio(p.Y, d.Margin.Top, d.PlotHeight())*b.SpanY(),
	}
}

// Affine is a uniform scale followed by a translation.
type Affine struct {
	Scale  float64
	Offset Point
}

// Identity leaves every point where it is.
var Identity = Affine{Scale: 1}

func (a Affine) scale() float64 {
	if a.Scale == 0 {
		return 1
	}
	return a.Scale
}

// Apply maps p as p*Scale + Offset.
func (a Affine) Apply(p Point) Point {
	return p.Mul(a.scale()).Add(a.Offset)
}

// Invert undoes Apply.
func (a Affine) Invert(p Point) Point {
	return p.Sub(a.Offset).Div(a.scale())
}

// Transform applies the pan and zoom of in to a scaled point.
func Transform(p Point, in Interaction) Point {
	return in.Affine().Apply(p)
}

// Untransform removes the pan and zoom of in from a screen point.
func Untransform(p Point, in Interaction) Point {
	return in.Affine().Invert(p)
}

// ScreenToData maps a screen position back into data space.
func ScreenToData(screen Point, in Interaction, b Bounds, d Dimensions) Point {
	return Unscale(Untransform(screen, in), b, d)
}

// DataToScreen maps a data point to its final screen position.
func DataToScreen(p Point, in Interaction, b Bounds, d Dimensions) Point {
	return Transform(Scale(p, b, d), in)
}
