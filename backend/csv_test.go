package backend

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCSVReader(t *testing.T) {
	input := strings.Join([]string{
		"timestamp (ms),category,value,id",
		"100,CPU,12.5,a",
		"200, Disk ,40",
		"not-a-time,CPU,1,b",
		"300,CPU,NaN,c",
		"400,CPU",
		`500,"Net,work",7,d`,
		"",
	}, "\n")
	cr := NewCSVReader(strings.NewReader(input))
	var got []Sample
	for {
		s, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, s)
	}
	expected := []Sample{
		{Timestamp: 100, Category: "CPU", Value: 12.5, ID: "a"},
		{Timestamp: 200, Category: "Disk", Value: 40, ID: "csv-1"},
		{Timestamp: 500, Category: "Net,work", Value: 7, ID: "d"},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("unexpected samples (-want +got):\n%s", diff)
	}
}

func TestCSVReaderHeaderless(t *testing.T) {
	cr := NewCSVReader(strings.NewReader("1,CPU,2,x\n"))
	s, err := cr.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID != "x" || s.Timestamp != 1 {
		t.Errorf("expected the first row to be kept, got %+v", s)
	}
}

func TestReadCSVBatches(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewCSVWriter(&buf)
	if err != nil {
		t.Fatalf("failed creating writer: %v", err)
	}
	samples := NewGenerator(5).Batch(10, 0)
	for _, s := range samples {
		if err := w.Write(s); err != nil {
			t.Fatalf("failed writing: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("failed flushing: %v", err)
	}
	sink := &recordingSink{}
	n, err := ReadCSV(&buf, sink, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(samples) {
		t.Errorf("expected %d samples, got %d", len(samples), n)
	}
	if sink.batches != 3 {
		t.Errorf("expected 3 batches, got %d", sink.batches)
	}
	if diff := cmp.Diff(samples, sink.Snapshot()); diff != "" {
		t.Errorf("trace did not survive a round trip (-want +got):\n%s", diff)
	}
}

func TestCSVWriterRejectsNonFinite(t *testing.T) {
	w, err := NewCSVWriter(io.Discard)
	if err != nil {
		t.Fatalf("failed creating writer: %v", err)
	}
	if err := w.Write(Sample{Value: math.NaN()}); !errors.Is(err, ErrInvalidSample) {
		t.Errorf("expected ErrInvalidSample, got %v", err)
	}
}
