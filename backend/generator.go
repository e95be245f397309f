package backend

import (
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"
)

// DefaultStep is the nominal spacing of realtime samples.
const DefaultStep = 100 * time.Millisecond

// DefaultCategories are used by generators created without any.
var DefaultCategories = []string{"CPU", "Memory", "Network", "Disk"}

// Source produces samples for a stream. Timestamps strictly increase with the
// index of the produced sample.
type Source interface {
	Initial(count int) []Sample
	Next(lastTimestamp int64) (Sample, error)
	Batch(count int, start int64) []Sample
}

// Generator is a synthetic Source. Each category follows its own bounded
// random walk inside [Floor, Ceil].
type Generator struct {
	Step        time.Duration
	Categories  []string
	Floor, Ceil float64
	// Now is the clock used by Initial. Defaults to time.Now.
	Now func() time.Time

	lock   sync.Mutex
	rng    *rand.Rand
	levels map[string]float64
	next   int
	seq    uint64
}

var _ Source = (*Generator)(nil)

func NewGenerator(seed int64, categories ...string) *Generator {
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	return &Generator{
		Step:       DefaultStep,
		Categories: categories,
		Floor:      0,
		Ceil:       100,
		Now:        time.Now,
		rng:        rand.New(rand.NewSource(seed)),
		levels:     make(map[string]float64),
	}
}

func (g *Generator) String() string {
	return "generator"
}

// Initial returns count samples ending at the current time.
func (g *Generator) Initial(count int) []Sample {
	now := g.Now().UnixMilli()
	start := now - int64(count-1)*g.Step.Milliseconds()
	return g.Batch(count, start)
}

// Next returns the sample that follows lastTimestamp by one step.
func (g *Generator) Next(lastTimestamp int64) (Sample, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	s := g.sample(lastTimestamp + g.Step.Milliseconds())
	if err := s.Validate(); err != nil {
		return Sample{}, err
	}
	return s, nil
}

// Batch returns count samples starting at start, one step apart.
func (g *Generator) Batch(count int, start int64) []Sample {
	g.lock.Lock()
	defer g.lock.Unlock()
	out := make([]Sample, 0, max(count, 0))
	step := g.Step.Milliseconds()
	for i := 0; i < count; i++ {
		s := g.sample(start + int64(i)*step)
		if s.Validate() != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

// sample must be called with the lock held.
func (g *Generator) sample(ts int64) Sample {
	category := g.Categories[g.next%len(g.Categories)]
	g.next++
	level, ok := g.levels[category]
	if !ok {
		level = g.Floor + g.rng.Float64()*(g.Ceil-g.Floor)
	}
	span := g.Ceil - g.Floor
	level += (g.rng.Float64() - 0.5) * span * 0.1
	level = clamp(level, g.Floor, g.Ceil)
	g.levels[category] = level
	g.seq++
	return Sample{
		Timestamp: ts,
		Value:     math.Round(level*100) / 100,
		Category:  category,
		ID:        "gen-" + strconv.FormatUint(g.seq, 10),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
