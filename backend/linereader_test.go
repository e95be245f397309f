package backend

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func readLine(t *testing.T, r io.Reader) (string, error) {
	t.Helper()
	var scratch [1024]byte
	n, err := r.Read(scratch[:])
	return string(scratch[:n]), err
}

func TestLineReaderHoldsPartialLines(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	l := NewLineReader(buf)
	for i, step := range []struct {
		write string
		line  string
	}{
		{write: "hello\nthere\n", line: "hello\n"},
		{line: "there\n"},
		{write: "unter"},
		{write: "minated"},
		{write: " line\nnext", line: "unterminated line\n"},
		{write: "\n", line: "next\n"},
	} {
		buf.WriteString(step.write)
		got, err := readLine(t, l)
		if step.line == "" {
			if !errors.Is(err, io.EOF) || got != "" {
				t.Errorf("step %d: expected EOF and nothing read, got %q, %v", i, got, err)
			}
			continue
		}
		if err != nil || got != step.line {
			t.Errorf("step %d: expected %q, got %q, %v", i, step.line, got, err)
		}
	}
}

func TestCSVReaderGrowingTrace(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	cr := NewTailingCSVReader(buf)
	buf.WriteString("timestamp (ms),category,value,id\n1,CPU,1")
	if _, err := cr.Read(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF before the row is complete, got %v", err)
	}
	buf.WriteString("2.5,a\n")
	s, err := cr.Read()
	if err != nil {
		t.Fatalf("expected the completed row, got %v", err)
	}
	if s.Value != 12.5 || s.ID != "a" {
		t.Errorf("expected value 12.5 with id a, got %+v", s)
	}
}

func TestCSVReaderUnterminatedLastRow(t *testing.T) {
	input := "timestamp (ms),category,value,id\n1,CPU,1,a\n2,CPU,2,b"
	buf := NewBuffer(10)
	n, err := ReadCSV(bytes.NewBufferString(input), buf, 8)
	if err != nil {
		t.Fatalf("failed reading trace: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 samples, got %d", n)
	}
	if last := buf.Snapshot()[1]; last.ID != "b" || last.Value != 2 {
		t.Errorf("expected the unterminated row last, got %+v", last)
	}

	l := NewLineReader(bytes.NewBufferString("tail"))
	l.final = true
	if got, err := readLine(t, l); err != nil || got != "tail" {
		t.Errorf("expected %q, got %q, %v", "tail", got, err)
	}
	if got, err := readLine(t, l); !errors.Is(err, io.EOF) || got != "" {
		t.Errorf("expected EOF after the tail, got %q, %v", got, err)
	}
}
