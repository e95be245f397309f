package render

import (
	"slices"
	"time"

	"git.sr.ht/~whereswaldon/streamviz/backend"
	"git.sr.ht/~whereswaldon/streamviz/chart"
)

// DefaultHeatmapBucket is the width of one heatmap column.
const DefaultHeatmapBucket = 5 * time.Minute

// maxColumns bounds the number of heatmap columns. Wider traces get wider
// buckets.
const maxColumns = 2048

// Heatmap draws a grid of categories by time buckets, each cell colored by
// the average of its samples.
type Heatmap struct {
	Bucket time.Duration
}

type cellKey struct {
	row    int
	bucket int64
}

type heatGrid struct {
	rows   []string
	window int64
	// start is the first bucket and end the end of the last one.
	start, end int64
	cells      map[cellKey]float64
	lo, hi     float64
}

type heatCache struct {
	bucket time.Duration
	grid   heatGrid
	ok     bool
}

// frameGrid aggregates the frame's samples once and reuses the grid for the
// rest of the frame.
func (h Heatmap) frameGrid(f *Frame) (heatGrid, bool) {
	if f.heat == nil || f.heat.bucket != h.Bucket {
		g, ok := h.grid(f)
		f.heat = &heatCache{bucket: h.Bucket, grid: g, ok: ok}
	}
	return f.heat.grid, f.heat.ok
}

func (h Heatmap) grid(f *Frame) (heatGrid, bool) {
	if len(f.Samples) == 0 {
		return heatGrid{}, false
	}
	window := h.Bucket.Milliseconds()
	if window <= 0 {
		window = DefaultHeatmapBucket.Milliseconds()
	}
	first, last := f.Samples[0].Timestamp, f.Samples[0].Timestamp
	for _, s := range f.Samples {
		first = min(first, s.Timestamp)
		last = max(last, s.Timestamp)
	}
	if columns := (last - first) / window; columns > maxColumns {
		window = (last - first + maxColumns - 1) / maxColumns
	}
	means, err := backend.Aggregate(f.Samples, window, backend.Average, true)
	if err != nil || len(means) == 0 {
		return heatGrid{}, false
	}
	g := heatGrid{
		window: window,
		start:  backend.BucketStart(first, window),
		end:    backend.BucketStart(last, window) + window,
		cells:  make(map[cellKey]float64, len(means)),
		lo:     means[0].Value,
		hi:     means[0].Value,
	}
	for _, m := range means {
		if !slices.Contains(g.rows, m.Category) {
			g.rows = append(g.rows, m.Category)
		}
	}
	slices.SortStableFunc(g.rows, func(a, b string) int {
		return legendIndex(f.Categories, a) - legendIndex(f.Categories, b)
	})
	for _, m := range means {
		g.cells[cellKey{row: slices.Index(g.rows, m.Category), bucket: m.Timestamp}] = m.Value
		g.lo = min(g.lo, m.Value)
		g.hi = max(g.hi, m.Value)
	}
	return g, true
}

// HeatLevel quantizes a value normalized to [0,1] into low, medium and high.
func HeatLevel(norm float64) int {
	switch {
	case norm < 1.0/3:
		return 0
	case norm < 2.0/3:
		return 1
	default:
		return 2
	}
}

func (g heatGrid) level(v float64) int {
	if g.hi == g.lo {
		return 1
	}
	return HeatLevel((v - g.lo) / (g.hi - g.lo))
}

// Prepare lays the time buckets along X and one row per category along Y.
func (h Heatmap) Prepare(f *Frame) {
	g, ok := h.frameGrid(f)
	if !ok {
		return
	}
	f.Bounds = chart.Bounds{
		MinX: float64(g.start), MaxX: float64(g.end),
		MinY: 0, MaxY: float64(len(g.rows)),
	}
	f.YLabel = nil
}

func (h Heatmap) Draw(s Surface, f *Frame) {
	g, ok := h.frameGrid(f)
	if !ok {
		return
	}
	rows := float64(len(g.rows))
	for r := range g.rows {
		top := rows - float64(r)
		for b := g.start; b < g.end; b += g.window {
			c := f.Palette.NoData
			if v, ok := g.cells[cellKey{row: r, bucket: b}]; ok {
				c = f.Palette.Heat[g.level(v)]
			}
			topLeft := f.Scale(chart.Pt(float64(b), top))
			bottomRight := f.Scale(chart.Pt(float64(b+g.window), top-1))
			s.FillRect(topLeft, bottomRight, c)
		}
	}
}

// Overlay labels each row in the left margin.
func (h Heatmap) Overlay(s Surface, f *Frame) {
	g, ok := h.frameGrid(f)
	if !ok {
		return
	}
	tl, br := f.Dims.PlotRect()
	rows := float64(len(g.rows))
	for r, name := range g.rows {
		y := f.Screen(chart.Pt(f.Bounds.MinX, rows-float64(r)-0.5)).Y
		if y < tl.Y || y > br.Y {
			continue
		}
		s.Text(chart.Pt(tl.X-labelGap, y), name, f.Palette.Label, AnchorRight)
	}
}
