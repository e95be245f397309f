// Package config holds the settings shared by the streamviz binaries.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"git.sr.ht/~whereswaldon/streamviz/backend"
	"git.sr.ht/~whereswaldon/streamviz/render"
	"git.sr.ht/~whereswaldon/streamviz/sensors"
)

// Capacity limits accepted by Validate.
const (
	MinCapacity = 5_000
	MaxCapacity = 50_000
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STREAMVIZ_"

type Config struct {
	// Capacity is the number of samples retained by the stream buffer.
	Capacity int
	// Initial is the number of samples seeded when streaming starts.
	Initial    int
	Interval   time.Duration
	Categories []string
	Seed       int64
	// Host replaces the synthetic generator with host sensor readings.
	Host bool

	Chart         string
	HeatmapBucket time.Duration
	FrameRate     int
	DPR           float64
	Width, Height int
}

func Default() Config {
	return Config{
		Capacity:      backend.DefaultCapacity,
		Initial:       100,
		Interval:      backend.DefaultStep,
		Categories:    slices.Clone(backend.DefaultCategories),
		Seed:          1,
		Chart:         "line",
		HeatmapBucket: render.DefaultHeatmapBucket,
		FrameRate:     render.DefaultFrameRate,
		DPR:           1,
		Width:         800,
		Height:        400,
	}
}

// Load returns the defaults with any environment overrides applied.
func Load() (Config, error) {
	c := Default()
	err := c.ApplyEnv(os.LookupEnv)
	return c, err
}

// ApplyEnv overrides fields from variables found by lookup. Every malformed
// variable is reported; well-formed ones are applied regardless.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	get := func(name string, parse func(string) error) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return
		}
		if err := parse(v); err != nil {
			errs = append(errs, fmt.Errorf("failed parsing %s%s=%q: %w", EnvPrefix, name, v, err))
		}
	}
	get("CAPACITY", intInto(&c.Capacity))
	get("INITIAL", intInto(&c.Initial))
	get("INTERVAL", durationInto(&c.Interval))
	get("CATEGORIES", func(v string) error {
		c.Categories = splitList(v)
		return nil
	})
	get("SEED", func(v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			c.Seed = n
		}
		return err
	})
	get("HOST", func(v string) error {
		b, err := strconv.ParseBool(v)
		if err == nil {
			c.Host = b
		}
		return err
	})
	get("CHART", func(v string) error {
		c.Chart = v
		return nil
	})
	get("HEATMAP_BUCKET", durationInto(&c.HeatmapBucket))
	get("FRAME_RATE", intInto(&c.FrameRate))
	get("DPR", func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			c.DPR = f
		}
		return err
	})
	return errors.Join(errs...)
}

func intInto(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err == nil {
			*dst = n
		}
		return err
	}
}

func durationInto(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err == nil {
			*dst = d
		}
		return err
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// listValue is a comma-separated flag.
type listValue struct {
	dst *[]string
}

func (l listValue) String() string {
	if l.dst == nil {
		return ""
	}
	return strings.Join(*l.dst, ",")
}

func (l listValue) Set(v string) error {
	*l.dst = splitList(v)
	return nil
}

// RegisterFlags binds the stream settings to fs, using the current field
// values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Capacity, "capacity", c.Capacity, "Maximum number of samples retained")
	fs.IntVar(&c.Initial, "initial", c.Initial, "Number of samples seeded when streaming starts")
	fs.DurationVar(&c.Interval, "interval", c.Interval, "Interval between realtime samples")
	fs.Var(listValue{dst: &c.Categories}, "categories", "Comma-separated categories produced by the generator")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "Random seed for the generator")
	fs.BoolVar(&c.Host, "host", c.Host, "Stream host sensor readings instead of synthetic samples")
}

// RegisterRenderFlags binds the chart settings to fs.
func (c *Config) RegisterRenderFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Chart, "chart", c.Chart, "Chart type: "+strings.Join(render.Types, ", "))
	fs.DurationVar(&c.HeatmapBucket, "heatmap-bucket", c.HeatmapBucket, "Width of one heatmap column")
	fs.IntVar(&c.FrameRate, "frame-rate", c.FrameRate, "Animation frames per second")
	fs.Float64Var(&c.DPR, "dpr", c.DPR, "Device pixel ratio of raster output")
	fs.IntVar(&c.Width, "width", c.Width, "Chart width in logical pixels")
	fs.IntVar(&c.Height, "height", c.Height, "Chart height in logical pixels")
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.Capacity < MinCapacity || c.Capacity > MaxCapacity {
		errs = append(errs, fmt.Errorf("capacity %d outside [%d, %d]", c.Capacity, MinCapacity, MaxCapacity))
	}
	if c.Initial < 0 {
		errs = append(errs, fmt.Errorf("initial sample count %d is negative", c.Initial))
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval %v must be positive", c.Interval))
	}
	if !c.Host && len(c.Categories) == 0 {
		errs = append(errs, errors.New("at least one category is required"))
	}
	if !slices.Contains(render.Types, c.Chart) {
		errs = append(errs, fmt.Errorf("unknown chart type %q", c.Chart))
	}
	if c.HeatmapBucket <= 0 {
		errs = append(errs, fmt.Errorf("heatmap bucket %v must be positive", c.HeatmapBucket))
	}
	if c.FrameRate < 1 || c.FrameRate > 240 {
		errs = append(errs, fmt.Errorf("frame rate %d outside [1, 240]", c.FrameRate))
	}
	if c.DPR <= 0 {
		errs = append(errs, fmt.Errorf("device pixel ratio %v must be positive", c.DPR))
	}
	if c.Width < 1 || c.Height < 1 {
		errs = append(errs, fmt.Errorf("size %dx%d must be positive", c.Width, c.Height))
	}
	return errors.Join(errs...)
}

// Renderer returns the configured chart renderer.
func (c Config) Renderer() (render.Renderer, error) {
	r, ok := render.ForType(c.Chart)
	if !ok {
		return nil, fmt.Errorf("unknown chart type %q", c.Chart)
	}
	if _, ok := r.(render.Heatmap); ok {
		r = render.Heatmap{Bucket: c.HeatmapBucket}
	}
	return r, nil
}

// FeedConfig derives the backend feed settings.
func (c Config) FeedConfig() backend.FeedConfig {
	return backend.FeedConfig{Interval: c.Interval, BatchSize: 256}
}

// Source returns the configured sample source: host sensors when Host is set,
// otherwise a seeded generator.
func (c Config) Source() (backend.Source, error) {
	if !c.Host {
		g := backend.NewGenerator(c.Seed, c.Categories...)
		g.Step = c.Interval
		return g, nil
	}
	found, err := sensors.FindHostSensors()
	if err != nil {
		return nil, fmt.Errorf("failed loading host sensors: %w", err)
	}
	src := sensors.NewSource(found...)
	src.Step = c.Interval
	return src, nil
}
