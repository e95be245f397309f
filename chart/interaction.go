package chart

import (
	"math"

	"git.sr.ht/~whereswaldon/streamviz/backend"
)

// Zoom limits and the factors applied per wheel event.
const (
	MinScale float64 = 0.1
	MaxScale float64 = 10

	zoomIn  = 1.1
	zoomOut = 0.9
)

// Hover records the sample nearest to the pointer.
type Hover struct {
	Sample backend.Sample
	// Screen is the pointer position that selected Sample.
	Screen Point
}

// Interaction is the pan, zoom and hover state of one chart.
type Interaction struct {
	Scale float64
	Pan   Point
	Hover *Hover
}

// Idle returns the interaction of a chart nobody has touched.
func Idle() Interaction {
	return Interaction{Scale: 1}
}

// Affine returns the pan and zoom as a transform from plot space to the
// screen.
func (in Interaction) Affine() Affine {
	return Affine{Scale: in.Scale, Offset: in.Pan}
}

// Zoomed reports whether the view deviates from the idle pan and zoom.
func (in Interaction) Zoomed() bool {
	return (in.Scale != 0 && in.Scale != 1) || in.Pan != (Point{})
}

// Controller turns pointer input into Interaction changes. It is meant to be
// driven from a single event loop and is not safe for concurrent use. The
// zero value is ready to use.
type Controller struct {
	state Interaction
}

func NewController() *Controller {
	return &Controller{state: Idle()}
}

func (c *Controller) scale() float64 {
	if c.state.Scale == 0 {
		c.state.Scale = 1
	}
	return c.state.Scale
}

// Move updates the hover to the sample nearest to screen. It reports whether
// anything is hovered.
func (c *Controller) Move(screen Point, b Bounds, d Dimensions, samples []backend.Sample) bool {
	c.scale()
	nearest, ok := FindNearest(screen, c.state, b, d, samples)
	if !ok {
		c.state.Hover = nil
		return false
	}
	c.state.Hover = &Hover{Sample: nearest, Screen: screen}
	return true
}

// Leave clears the hover.
func (c *Controller) Leave() {
	c.state.Hover = nil
}

// Wheel zooms in for negative deltaY and out for positive deltaY, keeping the
// point under cursor fixed on screen.
func (c *Controller) Wheel(cursor Point, deltaY float64) {
	factor := zoomIn
	if deltaY > 0 {
		factor = zoomOut
	}
	c.ZoomTo(cursor, c.scale()*factor)
}

// ZoomTo sets the zoom to scale, clamped to [MinScale, MaxScale], keeping the
// point under cursor fixed on screen. Non-finite scales are ignored.
func (c *Controller) ZoomTo(cursor Point, scale float64) {
	old := c.scale()
	if math.IsNaN(scale) || math.IsInf(scale, 0) {
		return
	}
	next := clamp(scale, MinScale, MaxScale)
	c.state.Pan = cursor.Sub(cursor.Sub(c.state.Pan).Mul(next / old))
	c.state.Scale = next
}

// Reset restores the idle pan and zoom. The hover is kept.
func (c *Controller) Reset() {
	c.state.Scale = 1
	c.state.Pan = Point{}
}

// State returns a copy of the current interaction.
func (c *Controller) State() Interaction {
	c.scale()
	st := c.state
	if st.Hover != nil {
		h := *st.Hover
		st.Hover = &h
	}
	return st
}
