package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"git.sr.ht/~whereswaldon/streamviz/backend"
	"git.sr.ht/~whereswaldon/streamviz/config"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `%[1]s: emit a csv sample trace
Usage:

 %[1]s > file

OR

 %[1]s | streamviz

OR

 %[1]s -output trace.csv.zst

Traces named *.zst are compressed. Use -host to record host load and memory
readings instead of synthetic samples.

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
	outputName := flag.String("output", "-", "Output file for CSV sample data")
	limit := flag.Int("count", 0, "Stop after this many realtime samples (0 runs until interrupted)")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	source, err := cfg.Source()
	if err != nil {
		log.Fatalf("failed loading sample source: %v", err)
	}
	output, err := backend.CreateTrace(*outputName)
	if err != nil {
		log.Fatalf("failed opening output file %q: %v", *outputName, err)
	}
	if err := run(output, source, cfg, *limit); err != nil {
		log.Printf("failed writing trace: %v", err)
	}
	if err := output.Close(); err != nil {
		log.Fatalf("failed closing output: %v", err)
	}
}

func run(output io.Writer, source backend.Source, cfg config.Config, limit int) error {
	w, err := backend.NewCSVWriter(output)
	if err != nil {
		return err
	}
	var last int64
	for _, s := range source.Initial(cfg.Initial) {
		if err := w.Write(s); err != nil {
			return err
		}
		last = s.Timestamp
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if last == 0 {
		last = time.Now().UnixMilli()
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	for written := 0; limit <= 0 || written < limit; {
		select {
		case <-sigChan:
			// We've gotten an interrupt; shut down.
			return nil
		case <-ticker.C:
			s, err := source.Next(last)
			if err != nil {
				log.Printf("dropping sample: %v", err)
				continue
			}
			if err := w.Write(s); err != nil {
				return err
			}
			// Flush every row so that readers tailing the file see it.
			if err := w.Flush(); err != nil {
				return err
			}
			last = s.Timestamp
			written++
		}
	}
	return nil
}
