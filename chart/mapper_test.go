package chart

import (
	"math"
	"testing"
)

func near(a, b Point) bool {
	const epsilon = 1e-6
	return math.Abs(a.X-b.X) <= epsilon*max(1, math.Abs(b.X)) &&
		math.Abs(a.Y-b.Y) <= epsilon*max(1, math.Abs(b.Y))
}

func TestScale(t *testing.T) {
	b := Bounds{MinX: 0, MaxX: 100, MinY: 0, MaxY: 10}
	d := Dimensions{Width: 220, Height: 140, Margin: Margin{Top: 10, Right: 10, Bottom: 30, Left: 10}}
	for _, tc := range []struct {
		data, screen Point
	}{
		{data: Pt(0, 0), screen: Pt(10, 110)},
		{data: Pt(100, 10), screen: Pt(210, 10)},
		{data: Pt(50, 5), screen: Pt(110, 60)},
	} {
		if got := Scale(tc.data, b, d); !near(got, tc.screen) {
			t.Errorf("Scale(%v): expected %v, got %v", tc.data, tc.screen, got)
		}
	}
}

func TestScaleZeroSpan(t *testing.T) {
	b := Bounds{MinX: 5, MaxX: 5, MinY: 3, MaxY: 3}
	d := Dims(400, 300)
	got := Scale(Pt(5, 3), b, d)
	if got.X != d.Margin.Left || got.Y != d.Margin.Top {
		t.Errorf("expected a zero ratio to map to the plot origin, got %v", got)
	}
	if math.IsNaN(got.X) || math.IsNaN(got.Y) {
		t.Errorf("expected finite coordinates, got %v", got)
	}
}

func TestRoundTrip(t *testing.T) {
	b := Bounds{MinX: 1_700_000_000_000, MaxX: 1_700_000_060_000, MinY: 0, MaxY: 110}
	d := Dims(800, 600)
	for _, p := range []Point{
		Pt(1_700_000_000_000, 0),
		Pt(1_700_000_030_000, 55.5),
		Pt(1_700_000_060_000, 110),
		Pt(1_700_000_012_345, 99.99),
	} {
		screen := Scale(p, b, d)
		if got := ScreenToData(screen, Idle(), b, d); !near(got, p) {
			t.Errorf("round trip of %v gave %v", p, got)
		}
	}
}

func TestRoundTripZoomed(t *testing.T) {
	b := Bounds{MinX: 0, MaxX: 1000, MinY: 0, MaxY: 100}
	d := Dims(640, 480)
	in := Interaction{Scale: 2.5, Pan: Pt(-120, 33)}
	p := Pt(420, 42)
	if got := ScreenToData(DataToScreen(p, in, b, d), in, b, d); !near(got, p) {
		t.Errorf("expected %v, got %v", p, got)
	}
}

func TestAffine(t *testing.T) {
	a := Affine{Scale: 2, Offset: Pt(10, -5)}
	p := Pt(3, 4)
	if got := a.Apply(p); got != Pt(16, 3) {
		t.Errorf("expected (16,3), got %v", got)
	}
	if got := a.Invert(a.Apply(p)); got != p {
		t.Errorf("expected %v, got %v", p, got)
	}
	var zero Affine
	if got := zero.Apply(p); got != p {
		t.Errorf("expected zero affine to act as identity, got %v", got)
	}
}

func TestDimensions(t *testing.T) {
	d := Dimensions{Width: 100, Height: 50, Margin: Margin{Top: 5, Right: 10, Bottom: 15, Left: 20}}
	if d.PlotWidth() != 70 || d.PlotHeight() != 30 {
		t.Errorf("unexpected plot size %fx%f", d.PlotWidth(), d.PlotHeight())
	}
	tl, br := d.PlotRect()
	if tl != Pt(20, 5) || br != Pt(90, 35) {
		t.Errorf("unexpected plot rect %v %v", tl, br)
	}
	small := Dims(10, 10)
	if !small.Empty() || small.PlotWidth() != 0 {
		t.Errorf("expected a tiny surface to have no plot area")
	}
}
