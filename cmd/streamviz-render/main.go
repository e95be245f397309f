// Package main renders sample traces to PNG images.
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"git.sr.ht/~whereswaldon/streamviz/backend"
	"git.sr.ht/~whereswaldon/streamviz/chart"
	"git.sr.ht/~whereswaldon/streamviz/config"
	"git.sr.ht/~whereswaldon/streamviz/render"
)

type options struct {
	cfg        config.Config
	output     string
	categories []string
	minValue   float64
	maxValue   float64
	from, to   int64
	generate   int
	zoom       float64
	summary    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg, envErr := config.Load()
	opts := &options{cfg: cfg}
	rootCmd := &cobra.Command{
		Use:   "streamviz-render [trace.csv]",
		Short: "Render a sample trace to a PNG image",
		Long: `streamviz-render draws a csv sample trace (optionally zstd compressed)
as a line, bar, scatter or heatmap chart. Without a trace, --generate
renders synthetic samples instead.`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return envErr
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), opts, args)
		},
	}
	rootCmd.SilenceUsage = true

	goFlags := flag.NewFlagSet("streamviz-render", flag.ContinueOnError)
	opts.cfg.RegisterFlags(goFlags)
	opts.cfg.RegisterRenderFlags(goFlags)
	rootCmd.Flags().AddGoFlagSet(goFlags)

	rootCmd.Flags().StringVarP(&opts.output, "output", "o", "chart.png", "Output PNG path (- for stdout)")
	rootCmd.Flags().StringSliceVar(&opts.categories, "category", nil, "Only draw these categories (default: all)")
	rootCmd.Flags().Float64Var(&opts.minValue, "min", math.Inf(-1), "Smallest value to draw")
	rootCmd.Flags().Float64Var(&opts.maxValue, "max", math.Inf(1), "Largest value to draw")
	rootCmd.Flags().Int64Var(&opts.from, "from", math.MinInt64, "First timestamp (ms) to draw")
	rootCmd.Flags().Int64Var(&opts.to, "to", math.MaxInt64, "Last timestamp (ms) to draw")
	rootCmd.Flags().IntVar(&opts.generate, "generate", 600, "Synthetic samples to draw when no trace is given")
	rootCmd.Flags().Float64Var(&opts.zoom, "zoom", 1, "Zoom factor around the plot center")
	rootCmd.Flags().BoolVar(&opts.summary, "summary", false, "Print a summary of the drawn samples")
	return rootCmd
}

func (o *options) filter() backend.FilterSpec {
	spec := backend.MatchAll()
	if len(o.categories) > 0 {
		spec = spec.WithCategories(o.categories...)
	}
	spec.Values = backend.ValueRange{Min: o.minValue, Max: o.maxValue}
	spec.Times = backend.TimeRange{Start: o.from, End: o.to}
	return spec
}

func load(p *chart.Pipeline, o *options, args []string) error {
	if len(args) == 0 {
		src, err := o.cfg.Source()
		if err != nil {
			return err
		}
		p.AppendBatch(src.Batch(o.generate, time.Now().UnixMilli()))
		return nil
	}
	rc, err := backend.OpenTrace(args[0])
	if err != nil {
		return err
	}
	defer rc.Close()
	if _, err := backend.ReadCSV(rc, p, 1024); err != nil {
		return fmt.Errorf("failed reading %s: %w", args[0], err)
	}
	return nil
}

func run(stdout io.Writer, o *options, args []string) error {
	if err := o.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	r, err := o.cfg.Renderer()
	if err != nil {
		return err
	}
	p := chart.NewPipeline(o.cfg.Capacity, o.filter())
	if err := load(p, o, args); err != nil {
		return err
	}
	view := p.View()

	dims := chart.Dims(float64(o.cfg.Width), float64(o.cfg.Height))
	in := zoomed(o.zoom, dims)
	surface := render.NewImageSurface(dims.Width, dims.Height, o.cfg.DPR)
	render.Render(surface, r, render.NewFrame(view, dims, in))

	out, err := create(stdout, o.output)
	if err != nil {
		return err
	}
	if err := surface.WritePNG(out); err != nil {
		out.Close()
		return fmt.Errorf("failed encoding png: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed closing %s: %w", o.output, err)
	}
	if o.summary {
		printSummary(stdout, view)
	}
	return nil
}

// zoomed returns the interaction zoomed by factor around the plot center.
func zoomed(factor float64, d chart.Dimensions) chart.Interaction {
	c := chart.NewController()
	topLeft, bottomRight := d.PlotRect()
	c.ZoomTo(topLeft.Add(bottomRight).Mul(0.5), factor)
	return c.State()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func create(stdout io.Writer, path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed creating %s: %w", path, err)
	}
	return f, nil
}

func printSummary(w io.Writer, v chart.View) {
	fmt.Fprintf(w, "samples:    %s of %s\n", humanize.Comma(int64(len(v.Samples))), humanize.Comma(int64(v.Stats.Count)))
	fmt.Fprintf(w, "categories: %d\n", len(v.Categories))
	if len(v.Samples) == 0 {
		return
	}
	first, last := v.Samples[0].Timestamp, v.Samples[len(v.Samples)-1].Timestamp
	fmt.Fprintf(w, "span:       %v\n", time.Duration(last-first)*time.Millisecond)
	fmt.Fprintf(w, "y axis:     %s to %s\n",
		humanize.FtoaWithDigits(v.Bounds.MinY, 2), humanize.FtoaWithDigits(v.Bounds.MaxY, 2))
}
