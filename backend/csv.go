package backend

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"
)

// CSVHeader is the first record of a trace file.
var CSVHeader = []string{"timestamp (ms)", "category", "value", "id"}

// lineReader hands out only complete newline-terminated lines. An
// unterminated tail is held back (and io.EOF returned) until the rest of the
// line arrives, which makes it safe to parse files that are still being
// written. A final reader hands out the tail as the last line instead.
type lineReader struct {
	src     *bufio.Reader
	ready   []byte
	partial []byte
	final   bool
}

var _ io.Reader = (*lineReader)(nil)

func NewLineReader(r io.Reader) *lineReader {
	return &lineReader{src: bufio.NewReader(r)}
}

func (l *lineReader) Read(b []byte) (int, error) {
	if len(l.ready) == 0 {
		chunk, err := l.src.ReadBytes('\n')
		l.partial = append(l.partial, chunk...)
		if err != nil && !(l.final && errors.Is(err, io.EOF) && len(l.partial) > 0) {
			return 0, err
		}
		l.ready, l.partial = l.partial, nil
	}
	n := copy(b, l.ready)
	l.ready = l.ready[n:]
	return n, nil
}

// CSVReader decodes samples from a trace.
type CSVReader struct {
	r    *csv.Reader
	line int
	seq  int
}

// NewCSVReader reads a complete trace. A last row without a trailing newline
// is still decoded.
func NewCSVReader(r io.Reader) *CSVReader {
	l := NewLineReader(r)
	l.final = true
	return newCSVReader(l)
}

// NewTailingCSVReader tolerates traces that are still growing: Read returns
// io.EOF at the current end and may be called again once more data has been
// written. An unterminated last row waits for its newline.
func NewTailingCSVReader(r io.Reader) *CSVReader {
	return newCSVReader(NewLineReader(r))
}

func newCSVReader(l *lineReader) *CSVReader {
	cr := csv.NewReader(l)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return &CSVReader{r: cr}
}

// Read returns the next valid sample. Malformed rows are logged and skipped.
func (c *CSVReader) Read() (Sample, error) {
	for {
		rec, err := c.r.Read()
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				log.Printf("skipping malformed trace row: %v", err)
				continue
			}
			return Sample{}, err
		}
		c.line++
		s, err := c.parse(rec)
		if err != nil {
			if c.line == 1 {
				// Most likely the header.
				continue
			}
			log.Printf("skipping trace row %d: %v", c.line, err)
			continue
		}
		return s, nil
	}
}

func (c *CSVReader) parse(rec []string) (Sample, error) {
	if len(rec) < 3 {
		return Sample{}, fmt.Errorf("expected at least 3 fields, got %d", len(rec))
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
	if err != nil {
		return Sample{}, fmt.Errorf("failed parsing timestamp: %w", err)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
	if err != nil {
		return Sample{}, fmt.Errorf("failed parsing value: %w", err)
	}
	s := Sample{
		Timestamp: ts,
		Category:  strings.TrimSpace(rec[1]),
		Value:     value,
	}
	if len(rec) > 3 {
		s.ID = strings.TrimSpace(rec[3])
	}
	if s.ID == "" {
		c.seq++
		s.ID = "csv-" + strconv.Itoa(c.seq)
	}
	if err := s.Validate(); err != nil {
		return Sample{}, err
	}
	return s, nil
}

// ReadCSV decodes every available sample from r and appends them to sink in
// batches of batchSize. It returns the number of samples appended; reaching
// the end of r is not an error.
func ReadCSV(r io.Reader, sink Sink, batchSize int) (int, error) {
	return readBatches(NewCSVReader(r), sink, batchSize)
}

func readBatches(cr *CSVReader, sink Sink, batchSize int) (int, error) {
	if batchSize < 1 {
		batchSize = 256
	}
	batch := make([]Sample, 0, batchSize)
	total := 0
	flush := func() {
		if len(batch) == 0 {
			return
		}
		sink.AppendBatch(batch)
		total += len(batch)
		batch = make([]Sample, 0, batchSize)
	}
	for {
		s, err := cr.Read()
		if err != nil {
			flush()
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			return total, err
		}
		batch = append(batch, s)
		if len(batch) == batchSize {
			flush()
		}
	}
}

// CSVWriter encodes samples in the trace format read by CSVReader.
type CSVWriter struct {
	w *csv.Writer
}

// NewCSVWriter writes the header immediately.
func NewCSVWriter(w io.Writer) (*CSVWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return nil, fmt.Errorf("failed writing trace header: %w", err)
	}
	return &CSVWriter{w: cw}, nil
}

func (c *CSVWriter) Write(s Sample) error {
	if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return fmt.Errorf("%w: refusing to write %v", ErrInvalidSample, s.Value)
	}
	return c.w.Write([]string{
		strconv.FormatInt(s.Timestamp, 10),
		s.Category,
		strconv.FormatFloat(s.Value, 'f', -1, 64),
		s.ID,
	})
}

// Flush writes any buffered records to the underlying writer.
func (c *CSVWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}
