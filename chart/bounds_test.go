package chart

import (
	"testing"

	"git.sr.ht/~whereswaldon/streamviz/backend"
)

func TestComputeBoundsScenario(t *testing.T) {
	b := ComputeBounds([]backend.Sample{
		{Timestamp: 100, Value: 10},
		{Timestamp: 200, Value: 20},
	})
	if !(b.MinX < 100) {
		t.Errorf("expected MinX < 100, got %f", b.MinX)
	}
	if !(b.MaxX > 200) {
		t.Errorf("expected MaxX > 200, got %f", b.MaxX)
	}
	if b.MinY < 0 {
		t.Errorf("expected MinY >= 0, got %f", b.MinY)
	}
	if !(b.MaxY > 20) {
		t.Errorf("expected MaxY > 20, got %f", b.MaxY)
	}
	expected := Bounds{MinX: 95, MaxX: 205, MinY: 9, MaxY: 21}
	if b != expected {
		t.Errorf("expected %+v, got %+v", expected, b)
	}
}

func TestComputeBounds(t *testing.T) {
	type testCase struct {
		name     string
		samples  []backend.Sample
		expected Bounds
	}
	for _, tc := range []testCase{
		{
			name:     "empty",
			expected: UnitBounds,
		},
		{
			name:     "single",
			samples:  []backend.Sample{{Timestamp: 5000, Value: 50}},
			expected: UnitBounds,
		},
		{
			name: "floored at zero",
			samples: []backend.Sample{
				{Timestamp: 0, Value: 1},
				{Timestamp: 1000, Value: 91},
			},
			expected: Bounds{MinX: -50, MaxX: 1050, MinY: 0, MaxY: 100},
		},
		{
			name: "negative values keep their padding",
			samples: []backend.Sample{
				{Timestamp: 0, Value: -10},
				{Timestamp: 10, Value: 10},
			},
			expected: Bounds{MinX: -0.5, MaxX: 10.5, MinY: -12, MaxY: 12},
		},
		{
			name: "flat",
			samples: []backend.Sample{
				{Timestamp: 10, Value: 50},
				{Timestamp: 10, Value: 50},
			},
			expected: Bounds{MinX: 9, MaxX: 11, MinY: 49, MaxY: 51},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := ComputeBounds(tc.samples); got != tc.expected {
				t.Errorf("expected %+v, got %+v", tc.expected, got)
			}
		})
	}
}

func TestComputeBoundsPadsStrictly(t *testing.T) {
	samples := backend.NewGenerator(9).Batch(500, 1_700_000_000_000)
	b := ComputeBounds(samples)
	for _, s := range samples {
		if !(float64(s.Timestamp) > b.MinX && float64(s.Timestamp) < b.MaxX) {
			t.Fatalf("timestamp %d not strictly inside [%f, %f]", s.Timestamp, b.MinX, b.MaxX)
		}
		if !(s.Value < b.MaxY) || s.Value < b.MinY {
			t.Fatalf("value %f not inside [%f, %f)", s.Value, b.MinY, b.MaxY)
		}
	}
}
