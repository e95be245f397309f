package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/klauspost/compress/zstd"
)

type Mode uint8

const (
	ModeNone Mode = iota
	ModeStreaming
	ModeReplaying
)

func (m Mode) String() string {
	switch m {
	case ModeStreaming:
		return "streaming"
	case ModeReplaying:
		return "replaying"
	default:
		return "idle"
	}
}

// Status describes what the Datasource is currently feeding into its sink.
type Status struct {
	Mode   Mode
	Source string
	// Ingested counts samples appended from traces since the last load.
	Ingested int
	Err      error
}

// Datasource owns every producer of samples for one sink: the realtime Feed
// and any number of trace readers.
type Datasource struct {
	appCtx context.Context
	sink   Sink
	source Source
	feed   *Feed
	batch  int

	lock   sync.Mutex
	status Status
	// cancelLoad stops the trace currently being replayed.
	cancelLoad context.CancelFunc
	loads      sync.WaitGroup
	statuses   Broadcast[Status]
}

func NewDatasource(appCtx context.Context, sink Sink, source Source, cfg FeedConfig) *Datasource {
	d := &Datasource{
		appCtx: appCtx,
		sink:   sink,
		source: source,
		feed:   NewFeed(source, sink, cfg.Interval),
		batch:  cfg.BatchSize,
	}
	d.statuses.Publish(Status{})
	return d
}

// FeedConfig tunes how a Datasource produces samples.
type FeedConfig struct {
	Interval  time.Duration
	BatchSize int
}

// Status provides the current status and every later change.
func (d *Datasource) Status(ctx context.Context) <-chan Status {
	return d.statuses.Subscribe(ctx)
}

func (d *Datasource) setStatus(f func(*Status)) {
	d.lock.Lock()
	f(&d.status)
	st := d.status
	d.lock.Unlock()
	d.statuses.Publish(st)
}

// StartStreaming seeds the sink with initial samples and starts the realtime
// feed after them. Calling it while streaming restarts the feed. A trace
// being replayed is abandoned.
func (d *Datasource) StartStreaming(initial int) {
	d.lock.Lock()
	if d.cancelLoad != nil {
		d.cancelLoad()
		d.cancelLoad = nil
	}
	d.lock.Unlock()
	seed := d.source.Initial(initial)
	d.sink.AppendBatch(seed)
	last := int64(0)
	if len(seed) > 0 {
		last = seed[len(seed)-1].Timestamp
	} else if g, ok := d.source.(*Generator); ok {
		last = g.Now().UnixMilli()
	}
	d.feed.Start(d.appCtx, last)
	d.setStatus(func(s *Status) {
		s.Mode = ModeStreaming
		s.Source = sourceName(d.source)
		s.Err = nil
	})
}

func sourceName(src Source) string {
	if named, ok := src.(fmt.Stringer); ok {
		return named.String()
	}
	return "stream"
}

// StopStreaming halts the realtime feed. Safe to call when not streaming.
func (d *Datasource) StopStreaming() {
	d.feed.Stop()
	d.setStatus(func(s *Status) {
		if s.Mode == ModeStreaming {
			s.Mode = ModeNone
		}
	})
}

// Streaming reports whether the realtime feed is running.
func (d *Datasource) Streaming() bool {
	return d.feed.Running()
}

// OpenTrace opens a trace file, transparently decompressing .zst files.
func OpenTrace(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed opening trace: %w", err)
	}
	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed creating zstd reader: %w", err), f.Close())
	}
	return &zstdFile{Decoder: dec, f: f}, nil
}

type zstdFile struct {
	*zstd.Decoder
	f *os.File
}

func (z *zstdFile) Close() error {
	z.Decoder.Close()
	return z.f.Close()
}

// CreateTrace creates a trace file, compressing it when path ends in .zst.
// The path "-" writes to stdout.
func CreateTrace(path string) (io.WriteCloser, error) {
	if path == "-" {
		return os.Stdout, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed creating trace: %w", err)
	}
	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed creating zstd writer: %w", err), f.Close())
	}
	return &zstdWriteFile{Encoder: enc, f: f}, nil
}

type zstdWriteFile struct {
	*zstd.Encoder
	f *os.File
}

// Close flushes the final zstd frame before closing the file.
func (z *zstdWriteFile) Close() error {
	return errors.Join(z.Encoder.Close(), z.f.Close())
}

// LoadFromFile replays a trace file into the sink, stopping the realtime
// feed. Uncompressed files are tailed: rows appended to the file later are
// ingested as they arrive.
func (d *Datasource) LoadFromFile(path string) error {
	rc, err := OpenTrace(path)
	if err != nil {
		d.setStatus(func(s *Status) { s.Err = err })
		return err
	}
	d.load(filepath.Base(path), rc, !strings.HasSuffix(path, ".zst"))
	return nil
}

// LoadFromStream replays a trace read from rc into the sink. If rc has a
// Name method (like *os.File) and names a regular file, the file is tailed.
func (d *Datasource) LoadFromStream(name string, rc io.ReadCloser) {
	tail := false
	if f, ok := rc.(interface{ Name() string }); ok {
		if info, err := os.Stat(f.Name()); err == nil && info.Mode().IsRegular() {
			tail = true
		}
	}
	d.load(name, rc, tail)
}

func (d *Datasource) load(name string, rc io.ReadCloser, tail bool) {
	d.feed.Stop()
	d.lock.Lock()
	if d.cancelLoad != nil {
		d.cancelLoad()
	}
	ctx, cancel := context.WithCancel(d.appCtx)
	d.cancelLoad = cancel
	d.lock.Unlock()

	d.setStatus(func(s *Status) {
		s.Mode = ModeReplaying
		s.Source = name
		s.Ingested = 0
		s.Err = nil
	})
	d.loads.Add(1)
	go func() {
		defer d.loads.Done()
		defer rc.Close()
		err := d.readSource(ctx, rc, tail)
		if err != nil && ctx.Err() == nil {
			log.Printf("failed reading trace %q: %v", name, err)
			d.setStatus(func(s *Status) { s.Err = err })
		}
	}()
}

func (d *Datasource) readSource(ctx context.Context, rc io.ReadCloser, tail bool) error {
	var watcher *fsnotify.Watcher
	if f, ok := rc.(interface{ Name() string }); ok && tail {
		var err error
		watcher, err = fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed creating file watcher: %w", err)
		}
		defer watcher.Close()
		if err := watcher.Add(f.Name()); err != nil {
			return fmt.Errorf("failed watching %q: %w", f.Name(), err)
		}
	}
	cr := NewTailingCSVReader(rc)
	if watcher == nil {
		cr = NewCSVReader(rc)
	}
	for {
		n, err := readBatches(cr, d.sink, d.batch)
		if n > 0 {
			d.setStatus(func(s *Status) { s.Ingested += n })
		}
		if err != nil {
			return err
		}
		if watcher == nil {
			return nil
		}
		// Wait for the file to grow.
		if err := awaitWrite(ctx, watcher); err != nil {
			return err
		}
	}
}

func awaitWrite(ctx context.Context, w *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return io.ErrUnexpectedEOF
			}
			if ev.Has(fsnotify.Write) {
				return nil
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				return fmt.Errorf("trace %q went away", ev.Name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return io.ErrUnexpectedEOF
			}
			return fmt.Errorf("failed watching trace: %w", err)
		}
	}
}

// Close stops the feed and any trace readers and waits for them to exit.
func (d *Datasource) Close() error {
	d.feed.Stop()
	d.lock.Lock()
	if d.cancelLoad != nil {
		d.cancelLoad()
	}
	d.lock.Unlock()
	d.loads.Wait()
	return nil
}
