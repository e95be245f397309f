// Package render draws charts onto abstract drawing surfaces.
package render

import (
	"image/color"

	"git.sr.ht/~whereswaldon/streamviz/chart"
)

// Anchor positions text relative to the point it is drawn at.
type Anchor uint8

const (
	// AnchorLeft starts the text at the point, vertically centered.
	AnchorLeft Anchor = iota
	// AnchorRight ends the text at the point, vertically centered.
	AnchorRight
	// AnchorCenter centers the text on the point.
	AnchorCenter
	// AnchorAbove centers the text horizontally with its bottom at the point.
	AnchorAbove
	// AnchorBelow centers the text horizontally with its top at the point.
	AnchorBelow
)

// Offset returns where the top-left corner of a w by h box goes when the box
// is anchored at the origin.
func (a Anchor) Offset(w, h float64) chart.Point {
	switch a {
	case AnchorRight:
		return chart.Pt(-w, -h/2)
	case AnchorCenter:
		return chart.Pt(-w/2, -h/2)
	case AnchorAbove:
		return chart.Pt(-w/2, -h)
	case AnchorBelow:
		return chart.Pt(-w/2, 0)
	default:
		return chart.Pt(0, -h/2)
	}
}

// Surface is a 2D drawing target. Coordinates are logical units; a surface
// maps them onto its backing store, accounting for pixel density. Every
// primitive is subject to the transforms pushed so far.
type Surface interface {
	// Size is the logical size of the surface.
	Size() chart.Point
	// Clear fills the whole surface, ignoring transforms.
	Clear(color.NRGBA)
	Push(chart.Affine)
	Pop()
	Polyline(points []chart.Point, width float64, c color.NRGBA)
	FillRect(min, max chart.Point, c color.NRGBA)
	// Arc draws a full circle, either filled or as a thin outline.
	Arc(center chart.Point, radius float64, c color.NRGBA, filled bool)
	Text(at chart.Point, s string, c color.NRGBA, a Anchor)
}

// TransformStack composes the transforms pushed onto a surface with the
// density scale of its backing store.
type TransformStack struct {
	// Density is the number of backing pixels per logical unit.
	Density float64
	stack   []chart.Affine
}

func (t *TransformStack) Push(a chart.Affine) {
	t.stack = append(t.stack, a)
}

// Pop removes the most recent transform. Popping an empty stack does
// nothing.
func (t *TransformStack) Pop() {
	if len(t.stack) > 0 {
		t.stack = t.stack[:len(t.stack)-1]
	}
}

// Reset drops every pushed transform.
func (t *TransformStack) Reset() {
	t.stack = t.stack[:0]
}

func (t *TransformStack) density() float64 {
	if t.Density <= 0 {
		return 1
	}
	return t.Density
}

// Apply maps a logical point to backing pixels.
func (t *TransformStack) Apply(p chart.Point) chart.Point {
	for i := len(t.stack) - 1; i >= 0; i-- {
		p = t.stack[i].Apply(p)
	}
	return p.Mul(t.density())
}

// Scale is the factor by which lengths grow from logical units to backing
// pixels.
func (t *TransformStack) Scale() float64 {
	s := t.density()
	for _, a := range t.stack {
		if a.Scale != 0 {
			s *= a.Scale
		}
	}
	return s
}
