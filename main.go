package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"git.sr.ht/~whereswaldon/streamviz/backend"
	"git.sr.ht/~whereswaldon/streamviz/chart"
	"git.sr.ht/~whereswaldon/streamviz/config"
)

// summaryInterval is how often the summary tab is recomputed.
const summaryInterval = 2 * time.Second

// WindowState holds the services of one window.
type WindowState struct {
	backend.Bundle
	Ctx        context.Context
	Pipeline   *chart.Pipeline
	Controller *stream.Controller
	Invalidate func()
}

func NewWindowState(ctx context.Context, bundle backend.Bundle, pipeline *chart.Pipeline, win *app.Window) WindowState {
	return WindowState{
		Bundle:     bundle,
		Ctx:        ctx,
		Pipeline:   pipeline,
		Controller: stream.NewController(ctx, win.Invalidate),
		Invalidate: win.Invalidate,
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `%[1]s: visualize a live sample stream
Usage:

 %[1]s

OR

 streamviz-feed | %[1]s -trace -

OR

 %[1]s -trace trace.csv

`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	cfg, err := config.Load()
	if err != nil {
		log.Printf("ignoring invalid environment: %v", err)
	}
	cfg.RegisterFlags(flag.CommandLine)
	cfg.RegisterRenderFlags(flag.CommandLine)
	traceName := flag.String("trace", "", "CSV trace to open at startup (- reads stdin)")
	startStream := flag.Bool("stream", false, "Start streaming immediately")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	source, err := cfg.Source()
	if err != nil {
		log.Fatalf("failed loading sample source: %v", err)
	}

	go func() {
		w := app.NewWindow(app.Title("streamviz"))
		if err := loop(w, cfg, source, *traceName, *startStream); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}()
	app.Main()
}

func loop(w *app.Window, cfg config.Config, source backend.Source, traceName string, streaming bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipeline := chart.NewPipeline(cfg.Capacity, backend.MatchAll())
	bundle := backend.NewBundle(ctx, pipeline, pipeline.Snapshot, source, cfg.FeedConfig())
	defer func() {
		if err := bundle.Close(); err != nil {
			log.Printf("failed shutting down: %v", err)
		}
	}()
	bundle.Summarizer.Start(ctx, summaryInterval)

	ws := NewWindowState(ctx, bundle, pipeline, w)
	expl := explorer.NewExplorer(w)
	ui := NewUI(ws, expl, cfg)
	defer ui.Close()

	switch traceName {
	case "":
	case "-":
		bundle.Datasource.LoadFromStream("stdin", os.Stdin)
	default:
		if err := bundle.Datasource.LoadFromFile(traceName); err != nil {
			log.Printf("failed loading trace: %v", err)
		}
	}
	if streaming {
		bundle.Datasource.StartStreaming(cfg.Initial)
	}

	var ops op.Ops
	for {
		ev := w.NextEvent()
		expl.ListenEvents(ev)
		switch ev := ev.(type) {
		case app.DestroyEvent:
			return ev.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, ev)
			ui.Layout(gtx)
			ev.Frame(gtx.Ops)
		}
	}
}
