package main

import (
	"image"
	"image/color"

	"gioui.org/f32"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/widget/material"
	"git.sr.ht/~whereswaldon/streamviz/chart"
	"git.sr.ht/~whereswaldon/streamviz/render"
)

// gioSurface draws render primitives into the ops of a layout context.
// Logical units are Dp.
type gioSurface struct {
	gtx  C
	th   *material.Theme
	px   image.Point
	size chart.Point
	xf   render.TransformStack
}

var _ render.Surface = (*gioSurface)(nil)

func newGioSurface(gtx C, th *material.Theme) *gioSurface {
	density := float64(gtx.Metric.PxPerDp)
	if density <= 0 {
		density = 1
	}
	px := gtx.Constraints.Max
	return &gioSurface{
		gtx:  gtx,
		th:   th,
		px:   px,
		size: chart.Pt(float64(px.X)/density, float64(px.Y)/density),
		xf:   render.TransformStack{Density: density},
	}
}

func fpt(p chart.Point) f32.Point {
	return f32.Pt(float32(p.X), float32(p.Y))
}

func (s *gioSurface) Size() chart.Point { return s.size }

func (s *gioSurface) Clear(c color.NRGBA) {
	paint.FillShape(s.gtx.Ops, c, clip.Rect{Max: s.px}.Op())
}

func (s *gioSurface) Push(a chart.Affine) { s.xf.Push(a) }
func (s *gioSurface) Pop()                { s.xf.Pop() }

func (s *gioSurface) path(pts []chart.Point, closed bool) clip.PathSpec {
	var p clip.Path
	p.Begin(s.gtx.Ops)
	p.MoveTo(fpt(s.xf.Apply(pts[0])))
	for _, pt := range pts[1:] {
		p.LineTo(fpt(s.xf.Apply(pt)))
	}
	if closed {
		p.Close()
	}
	return p.End()
}

func (s *gioSurface) Polyline(points []chart.Point, width float64, c color.NRGBA) {
	if len(points) == 0 {
		return
	}
	w := max(width*s.xf.Scale(), 1)
	if len(points) == 1 {
		s.dot(s.xf.Apply(points[0]), w/2, c)
		return
	}
	paint.FillShape(s.gtx.Ops, c, clip.Stroke{
		Path:  s.path(points, false),
		Width: float32(w),
	}.Op())
}

func (s *gioSurface) FillRect(min, max chart.Point, c color.NRGBA) {
	corners := []chart.Point{min, chart.Pt(max.X, min.Y), max, chart.Pt(min.X, max.Y)}
	paint.FillShape(s.gtx.Ops, c, clip.Outline{Path: s.path(corners, true)}.Op())
}

func (s *gioSurface) ellipse(center chart.Point, r float64) clip.Ellipse {
	return clip.Ellipse{
		Min: image.Pt(int(floor(center.X-r)), int(floor(center.Y-r))),
		Max: image.Pt(int(ceil(center.X+r)), int(ceil(center.Y+r))),
	}
}

func (s *gioSurface) dot(center chart.Point, r float64, c color.NRGBA) {
	paint.FillShape(s.gtx.Ops, c, s.ellipse(center, r).Op(s.gtx.Ops))
}

func (s *gioSurface) Arc(center chart.Point, radius float64, c color.NRGBA, filled bool) {
	r := radius * s.xf.Scale()
	if r <= 0 {
		return
	}
	p := s.xf.Apply(center)
	if filled {
		s.dot(p, r, c)
		return
	}
	paint.FillShape(s.gtx.Ops, c, clip.Stroke{
		Path:  s.ellipse(p, r).Path(s.gtx.Ops),
		Width: float32(s.xf.Density),
	}.Op())
}

func (s *gioSurface) Text(at chart.Point, str string, c color.NRGBA, a render.Anchor) {
	if str == "" {
		return
	}
	gtx := s.gtx
	gtx.Constraints.Min = image.Point{}
	gtx.Constraints.Max = image.Pt(s.px.X, s.px.Y)
	l := material.Caption(s.th, str)
	l.Color = c
	l.MaxLines = 1
	dims, call := rec(gtx, l.Layout)
	topLeft := s.xf.Apply(at).Add(a.Offset(float64(dims.Size.X), float64(dims.Size.Y)))
	defer op.Offset(image.Pt(int(topLeft.X), int(topLeft.Y))).Push(gtx.Ops).Pop()
	call.Add(gtx.Ops)
}
