// Package sensors reads live measurements from the host and exposes them as a
// sample source.
package sensors

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"sync"
	"time"

	"git.sr.ht/~whereswaldon/streamviz/backend"
)

type Unit uint8

func (u Unit) String() string {
	switch u {
	case Percent:
		return "%"
	default:
		return "?"
	}
}

const (
	Percent Unit = iota
	Unknown
)

type Sensor interface {
	Name() string
	Unit() Unit
	Read() (float64, error)
}

// Source polls a fixed set of sensors in turn, producing one sample per
// reading. The sensor name becomes the sample category.
type Source struct {
	Step time.Duration
	// Now is the clock used to stamp readings. Defaults to time.Now.
	Now func() time.Time

	lock    sync.Mutex
	sensors []Sensor
	next    int
	seq     uint64
}

var _ backend.Source = (*Source)(nil)

func NewSource(list ...Sensor) *Source {
	return &Source{
		Step:    backend.DefaultStep,
		Now:     time.Now,
		sensors: list,
	}
}

func (s *Source) String() string {
	return "host"
}

// Categories lists the sensor names in polling order.
func (s *Source) Categories() []string {
	out := make([]string, len(s.sensors))
	for i, sensor := range s.sensors {
		out[i] = sensor.Name()
	}
	return out
}

// Initial reads each sensor at most once. Live sensors have no history, so
// count only limits how many readings are taken.
func (s *Source) Initial(count int) []backend.Sample {
	n := min(count, len(s.sensors))
	if n < 1 {
		return nil
	}
	now := s.Now().UnixMilli()
	return s.Batch(n, now-int64(n-1)*s.Step.Milliseconds())
}

// Next reads the next sensor. The sample is stamped with the current time,
// or just after lastTimestamp if the clock has not advanced past it.
func (s *Source) Next(lastTimestamp int64) (backend.Sample, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	ts := max(s.Now().UnixMilli(), lastTimestamp+1)
	return s.read(ts)
}

// Batch reads count sensors in turn, stamping them one step apart from start.
// Failed readings are logged and skipped.
func (s *Source) Batch(count int, start int64) []backend.Sample {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make([]backend.Sample, 0, max(count, 0))
	step := s.Step.Milliseconds()
	for i := 0; i < count; i++ {
		sample, err := s.read(start + int64(i)*step)
		if err != nil {
			log.Printf("skipping reading: %v", err)
			continue
		}
		out = append(out, sample)
	}
	return out
}

// read must be called with the lock held.
func (s *Source) read(ts int64) (backend.Sample, error) {
	if len(s.sensors) == 0 {
		return backend.Sample{}, fmt.Errorf("no sensors configured")
	}
	sensor := s.sensors[s.next%len(s.sensors)]
	s.next++
	v, err := sensor.Read()
	if err != nil {
		return backend.Sample{}, fmt.Errorf("failed reading %s: %w", sensor.Name(), err)
	}
	if sensor.Unit() == Percent {
		v = math.Max(0, math.Min(100, v))
	}
	s.seq++
	sample := backend.Sample{
		Timestamp: ts,
		Value:     math.Round(v*100) / 100,
		Category:  sensor.Name(),
		ID:        "host-" + strconv.FormatUint(s.seq, 10),
	}
	if err := sample.Validate(); err != nil {
		return backend.Sample{}, err
	}
	return sample, nil
}
