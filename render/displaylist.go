package render

import (
	"image/color"
	"slices"

	"git.sr.ht/~whereswaldon/streamviz/chart"
)

// OpKind identifies a recorded drawing primitive.
type OpKind uint8

const (
	OpClear OpKind = iota
	OpPush
	OpPop
	OpPolyline
	OpFillRect
	OpArc
	OpText
)

// Op is one recorded call on a DisplayList.
type Op struct {
	Kind   OpKind
	Points []chart.Point
	Width  float64
	Color  color.NRGBA
	Filled bool
	Text   string
	Anchor Anchor
	Affine chart.Affine
}

// DisplayList is a Surface that records drawing calls so they can be
// replayed onto another surface later, possibly on another goroutine.
type DisplayList struct {
	size chart.Point
	ops  []Op
}

var _ Surface = (*DisplayList)(nil)

func NewDisplayList(size chart.Point) *DisplayList {
	return &DisplayList{size: size}
}

func (d *DisplayList) Size() chart.Point { return d.size }

func (d *DisplayList) Clear(c color.NRGBA) {
	d.ops = append(d.ops, Op{Kind: OpClear, Color: c})
}

func (d *DisplayList) Push(a chart.Affine) {
	d.ops = append(d.ops, Op{Kind: OpPush, Affine: a})
}

func (d *DisplayList) Pop() {
	d.ops = append(d.ops, Op{Kind: OpPop})
}

func (d *DisplayList) Polyline(points []chart.Point, width float64, c color.NRGBA) {
	d.ops = append(d.ops, Op{Kind: OpPolyline, Points: slices.Clone(points), Width: width, Color: c})
}

func (d *DisplayList) FillRect(min, max chart.Point, c color.NRGBA) {
	d.ops = append(d.ops, Op{Kind: OpFillRect, Points: []chart.Point{min, max}, Color: c})
}

func (d *DisplayList) Arc(center chart.Point, radius float64, c color.NRGBA, filled bool) {
	d.ops = append(d.ops, Op{Kind: OpArc, Points: []chart.Point{center}, Width: radius, Color: c, Filled: filled})
}

func (d *DisplayList) Text(at chart.Point, s string, c color.NRGBA, a Anchor) {
	d.ops = append(d.ops, Op{Kind: OpText, Points: []chart.Point{at}, Text: s, Color: c, Anchor: a})
}

// Ops returns the recorded calls.
func (d *DisplayList) Ops() []Op {
	return d.ops
}

// Count returns how many calls of kind were recorded.
func (d *DisplayList) Count(kind OpKind) int {
	n := 0
	for _, op := range d.ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Replay issues every recorded call on s.
func (d *DisplayList) Replay(s Surface) {
	for _, op := range d.ops {
		switch op.Kind {
		case OpClear:
			s.Clear(op.Color)
		case OpPush:
			s.Push(op.Affine)
		case OpPop:
			s.Pop()
		case OpPolyline:
			s.Polyline(op.Points, op.Width, op.Color)
		case OpFillRect:
			s.FillRect(op.Points[0], op.Points[1], op.Color)
		case OpArc:
			s.Arc(op.Points[0], op.Width, op.Color, op.Filled)
		case OpText:
			s.Text(op.Points[0], op.Text, op.Color, op.Anchor)
		}
	}
}
