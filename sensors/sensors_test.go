package sensors

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"git.sr.ht/~whereswaldon/streamviz/backend"
)

type fixedSensor struct {
	name  string
	value float64
	err   error
	reads int
}

func (f *fixedSensor) Name() string { return f.name }
func (f *fixedSensor) Unit() Unit   { return Percent }
func (f *fixedSensor) Read() (float64, error) {
	f.reads++
	return f.value, f.err
}

func TestSourceBatch(t *testing.T) {
	a := &fixedSensor{name: "A", value: 12.344}
	b := &fixedSensor{name: "B", value: 250}
	src := NewSource(a, b)
	out := src.Batch(4, 1000)
	expected := []backend.Sample{
		{Timestamp: 1000, Category: "A", Value: 12.34},
		{Timestamp: 1100, Category: "B", Value: 100},
		{Timestamp: 1200, Category: "A", Value: 12.34},
		{Timestamp: 1300, Category: "B", Value: 100},
	}
	if diff := cmp.Diff(expected, out, cmpopts.IgnoreFields(backend.Sample{}, "ID")); diff != "" {
		t.Errorf("unexpected batch (-expected +got):\n%s", diff)
	}
	if a.reads != 2 || b.reads != 2 {
		t.Errorf("expected two reads per sensor, got %d and %d", a.reads, b.reads)
	}
}

func TestSourceSkipsFailedReadings(t *testing.T) {
	src := NewSource(&fixedSensor{name: "ok", value: 1}, &fixedSensor{name: "bad", err: errors.New("gone")})
	out := src.Batch(4, 0)
	if len(out) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(out))
	}
	for _, s := range out {
		if s.Category != "ok" {
			t.Errorf("expected only readings from ok, got %q", s.Category)
		}
	}
}

func TestSourceNext(t *testing.T) {
	src := NewSource(&fixedSensor{name: "A", value: 5}, &fixedSensor{name: "B", err: errors.New("gone")})
	src.Now = func() time.Time { return time.UnixMilli(5000) }

	s, err := src.Next(0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.Timestamp != 5000 {
		t.Errorf("expected the clock time 5000, got %d", s.Timestamp)
	}
	if _, err := src.Next(s.Timestamp); err == nil {
		t.Errorf("expected the failing sensor to return an error")
	}
	// The clock has not moved, so the timestamp must still increase.
	s2, err := src.Next(s.Timestamp)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s2.Timestamp != 5001 {
		t.Errorf("expected timestamp 5001, got %d", s2.Timestamp)
	}
	if s.ID == s2.ID {
		t.Errorf("expected distinct ids, both were %q", s.ID)
	}
}

func TestSourceInitial(t *testing.T) {
	src := NewSource(&fixedSensor{name: "A"}, &fixedSensor{name: "B"})
	src.Now = func() time.Time { return time.UnixMilli(10_000) }
	out := src.Initial(100)
	if len(out) != 2 {
		t.Fatalf("expected one reading per sensor, got %d", len(out))
	}
	if last := out[len(out)-1].Timestamp; last != 10_000 {
		t.Errorf("expected the last reading at 10000, got %d", last)
	}
	if out := NewSource().Initial(5); out != nil {
		t.Errorf("expected nothing from an empty source, got %v", out)
	}
	if _, err := NewSource().Next(0); err == nil {
		t.Errorf("expected an error from an empty source")
	}
}

func TestFindHostSensors(t *testing.T) {
	list, err := FindHostSensors()
	if runtime.GOOS != "linux" {
		if !errors.Is(err, errors.ErrUnsupported) {
			t.Errorf("expected ErrUnsupported, got %v", err)
		}
		return
	}
	if err != nil {
		t.Fatalf("expected host sensors, got %v", err)
	}
	if len(list) < 2 {
		t.Fatalf("expected at least load and memory, got %d sensors", len(list))
	}
	src := NewSource(list...)
	if diff := cmp.Diff([]string{"Load", "Memory"}, src.Categories()[:2]); diff != "" {
		t.Errorf("unexpected categories (-expected +got):\n%s", diff)
	}
	for _, s := range src.Batch(len(list), 0) {
		if s.Value < 0 || s.Value > 100 {
			t.Errorf("%s: value %f outside [0,100]", s.Category, s.Value)
		}
	}
}
