package config

import (
	"flag"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"git.sr.ht/~whereswaldon/streamviz/render"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"STREAMVIZ_CAPACITY":       "20000",
		"STREAMVIZ_INTERVAL":       "250ms",
		"STREAMVIZ_CATEGORIES":     " a, b ,,c ",
		"STREAMVIZ_SEED":           "42",
		"STREAMVIZ_HOST":           "true",
		"STREAMVIZ_CHART":          "heatmap",
		"STREAMVIZ_HEATMAP_BUCKET": "1m",
		"STREAMVIZ_DPR":            "2",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	c := Default()
	if err := c.ApplyEnv(lookup); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	expected := Default()
	expected.Capacity = 20000
	expected.Interval = 250 * time.Millisecond
	expected.Categories = []string{"a", "b", "c"}
	expected.Seed = 42
	expected.Host = true
	expected.Chart = "heatmap"
	expected.HeatmapBucket = time.Minute
	expected.DPR = 2
	if diff := cmp.Diff(expected, c); diff != "" {
		t.Errorf("unexpected config (-expected +got):\n%s", diff)
	}
}

func TestApplyEnvErrors(t *testing.T) {
	env := map[string]string{
		"STREAMVIZ_CAPACITY":   "lots",
		"STREAMVIZ_INTERVAL":   "soon",
		"STREAMVIZ_FRAME_RATE": "30",
	}
	c := Default()
	err := c.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err == nil {
		t.Fatalf("expected an error")
	}
	for _, name := range []string{"STREAMVIZ_CAPACITY", "STREAMVIZ_INTERVAL"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("expected error to mention %s, got %v", name, err)
		}
	}
	if c.FrameRate != 30 {
		t.Errorf("expected valid overrides to apply, got frame rate %d", c.FrameRate)
	}
}

func TestRegisterFlags(t *testing.T) {
	c := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)
	c.RegisterRenderFlags(fs)
	args := []string{"-capacity", "6000", "-categories", "x,y", "-chart", "bar", "-width", "320"}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("expected flags to parse, got %v", err)
	}
	if c.Capacity != 6000 || c.Chart != "bar" || c.Width != 320 {
		t.Errorf("unexpected config after parsing: %+v", c)
	}
	if diff := cmp.Diff([]string{"x", "y"}, c.Categories); diff != "" {
		t.Errorf("unexpected categories (-expected +got):\n%s", diff)
	}
	if c.Interval != Default().Interval {
		t.Errorf("expected untouched flags to keep their defaults, got %v", c.Interval)
	}
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Config)
		errs   []string
	}{
		{
			name:   "capacity too small",
			mutate: func(c *Config) { c.Capacity = 10 },
			errs:   []string{"capacity"},
		},
		{
			name:   "capacity too large",
			mutate: func(c *Config) { c.Capacity = 60_000 },
			errs:   []string{"capacity"},
		},
		{
			name:   "capacity bounds inclusive",
			mutate: func(c *Config) { c.Capacity = MaxCapacity },
		},
		{
			name: "several problems",
			mutate: func(c *Config) {
				c.Chart = "pie"
				c.Interval = 0
				c.DPR = 0
			},
			errs: []string{"chart type", "interval", "pixel ratio"},
		},
		{
			name:   "no categories",
			mutate: func(c *Config) { c.Categories = nil },
			errs:   []string{"category"},
		},
		{
			name: "host needs no categories",
			mutate: func(c *Config) {
				c.Categories = nil
				c.Host = true
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(&c)
			err := c.Validate()
			if len(tc.errs) == 0 {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected errors mentioning %v", tc.errs)
			}
			for _, want := range tc.errs {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("expected error to mention %q, got %v", want, err)
				}
			}
		})
	}
}

func TestRenderer(t *testing.T) {
	c := Default()
	c.Chart = "heatmap"
	c.HeatmapBucket = time.Minute
	r, err := c.Renderer()
	if err != nil {
		t.Fatalf("expected a renderer, got %v", err)
	}
	if h, ok := r.(render.Heatmap); !ok || h.Bucket != time.Minute {
		t.Errorf("expected a one minute heatmap, got %#v", r)
	}
	c.Chart = "pie"
	if _, err := c.Renderer(); err == nil {
		t.Errorf("expected an error for an unknown chart")
	}
}

func TestApplyEnvKeepsFieldOnError(t *testing.T) {
	c := Default()
	_ = c.ApplyEnv(func(k string) (string, bool) {
		return "nope", k == "STREAMVIZ_CAPACITY"
	})
	if c.Capacity != Default().Capacity {
		t.Errorf("expected capacity to keep its default, got %d", c.Capacity)
	}
}

func TestSource(t *testing.T) {
	c := Default()
	c.Categories = []string{"only"}
	src, err := c.Source()
	if err != nil {
		t.Fatalf("expected a generator, got %v", err)
	}
	for _, s := range src.Batch(5, 0) {
		if s.Category != "only" {
			t.Errorf("expected category only, got %q", s.Category)
		}
	}
}
