package backend

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func waitStatus(t *testing.T, statuses <-chan Status, cond func(Status) bool) Status {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case st := <-statuses:
			if cond(st) {
				return st
			}
		case <-timeout:
			t.Fatalf("timed out waiting for datasource status")
		}
	}
}

func TestDatasourceTailsFile(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	path := filepath.Join(t.TempDir(), "trace.csv")
	if err := os.WriteFile(path, []byte("timestamp (ms),category,value,id\n1,CPU,1,a\n2,CPU,2,b\n3,CPU,3,c\n"), 0o644); err != nil {
		t.Fatalf("failed writing trace: %v", err)
	}
	buf := NewBuffer(100)
	ds := NewDatasource(ctx, buf, NewGenerator(1), FeedConfig{Interval: time.Millisecond})
	defer ds.Close()
	statuses := ds.Status(ctx)
	if err := ds.LoadFromFile(path); err != nil {
		t.Fatalf("failed loading: %v", err)
	}
	st := waitStatus(t, statuses, func(s Status) bool { return s.Ingested == 3 })
	if st.Mode != ModeReplaying || st.Source != "trace.csv" {
		t.Errorf("unexpected status %+v", st)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("failed reopening trace: %v", err)
	}
	if _, err := f.WriteString("4,Disk,4,d\n5,Disk,5,e\n"); err != nil {
		t.Fatalf("failed appending: %v", err)
	}
	f.Close()
	waitStatus(t, statuses, func(s Status) bool { return s.Ingested == 5 })
	if got := buf.Stats(); got.Count != 5 || got.Categories != 2 {
		t.Errorf("unexpected buffer stats %+v", got)
	}
	if err := ds.Close(); err != nil {
		t.Errorf("failed closing: %v", err)
	}
}

func TestDatasourceCompressedTrace(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	path := filepath.Join(t.TempDir(), "trace.csv.zst")
	f, err := CreateTrace(path)
	if err != nil {
		t.Fatalf("failed creating trace: %v", err)
	}
	cw, err := NewCSVWriter(f)
	if err != nil {
		t.Fatalf("failed creating writer: %v", err)
	}
	for _, s := range NewGenerator(2).Batch(20, 0) {
		if err := cw.Write(s); err != nil {
			t.Fatalf("failed writing: %v", err)
		}
	}
	if err := cw.Flush(); err != nil {
		t.Fatalf("failed flushing: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed closing trace: %v", err)
	}

	buf := NewBuffer(100)
	ds := NewDatasource(ctx, buf, NewGenerator(1), FeedConfig{BatchSize: 8})
	defer ds.Close()
	statuses := ds.Status(ctx)
	if err := ds.LoadFromFile(path); err != nil {
		t.Fatalf("failed loading: %v", err)
	}
	waitStatus(t, statuses, func(s Status) bool { return s.Ingested == 20 })
	ds.Close()
	if n := buf.Len(); n != 20 {
		t.Errorf("expected 20 samples, got %d", n)
	}
}

func TestDatasourceMissingFile(t *testing.T) {
	ds := NewDatasource(context.Background(), NewBuffer(1), NewGenerator(1), FeedConfig{})
	defer ds.Close()
	if err := ds.LoadFromFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Errorf("expected an error for a missing trace")
	}
}

func TestDatasourceStreaming(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	buf := NewBuffer(1000)
	ds := NewDatasource(ctx, buf, NewGenerator(1), FeedConfig{Interval: time.Millisecond})
	defer ds.Close()
	ds.StartStreaming(10)
	if !ds.Streaming() {
		t.Errorf("expected datasource to be streaming")
	}
	eventually(t, "streamed samples", func() bool { return buf.Len() > 12 })
	ds.StopStreaming()
	ds.StopStreaming()
	if ds.Streaming() {
		t.Errorf("expected streaming to stop")
	}
	snap := buf.Snapshot()
	for i := 1; i < len(snap); i++ {
		if snap[i].Timestamp <= snap[i-1].Timestamp {
			t.Fatalf("expected strictly increasing timestamps, got %d after %d", snap[i].Timestamp, snap[i-1].Timestamp)
		}
	}
}

func TestDatasourceModesExclusive(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	buf := NewBuffer(1000)
	ds := NewDatasource(ctx, buf, NewGenerator(1), FeedConfig{Interval: time.Millisecond})
	defer ds.Close()
	statuses := ds.Status(ctx)
	ds.StartStreaming(10)
	eventually(t, "streamed samples", func() bool { return buf.Len() > 12 })

	future := time.Now().Add(time.Minute).UnixMilli()
	row := strconv.FormatInt(future, 10) + ",Trace,50,future\n"
	ds.LoadFromStream("future", io.NopCloser(strings.NewReader(row)))
	waitStatus(t, statuses, func(s Status) bool { return s.Mode == ModeReplaying && s.Ingested == 1 })
	if ds.Streaming() {
		t.Errorf("expected replaying a trace to stop the feed")
	}

	// The feed now produces samples older than the trace row.
	ds.StartStreaming(0)
	waitStatus(t, statuses, func(s Status) bool { return s.Mode == ModeStreaming })
	n := buf.Len()
	eventually(t, "more streamed samples", func() bool { return buf.Len() > n+20 })
	ds.StopStreaming()
	snap := buf.Snapshot()
	for i := 1; i < len(snap); i++ {
		if snap[i].Timestamp < snap[i-1].Timestamp {
			t.Fatalf("ordering broken at %d: %d after %d", i, snap[i].Timestamp, snap[i-1].Timestamp)
		}
	}
	if last := snap[len(snap)-1]; last.ID != "future" {
		t.Errorf("expected the trace row to stay newest, got %+v", last)
	}
}
