package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/docsegment/internal/config"
	"github.com/dgallion1/docsegment/internal/outline"
	"github.com/dgallion1/docsegment/internal/pathstore"
	"github.com/dgallion1/docsegment/internal/segment"
	"github.com/dgallion1/docsegment/internal/stats"
)

type memStore struct {
	mu       sync.Mutex
	outlines map[string]pathstore.Outline
	putErr   error
	puts     int
}

func newMemStore() *memStore {
	return &memStore{outlines: make(map[string]pathstore.Outline)}
}

func (m *memStore) PutOutline(_ context.Context, o pathstore.Outline) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.outlines[o.DocID] = o
	return nil
}

func (m *memStore) GetOutline(_ context.Context, docID string) (*pathstore.Outline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.outlines[docID]
	if !ok {
		return nil, pathstore.ErrNotFound
	}
	return &o, nil
}

func (m *memStore) DeleteOutline(_ context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.outlines[docID]; !ok {
		return pathstore.ErrNotFound
	}
	delete(m.outlines, docID)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestWorker_ProcessWellStructured(t *testing.T) {
	store := newMemStore()
	lat := stats.NewLatency(time.Hour)
	w := NewWorker(store, lat, discardLogger(), false)

	cfg := segment.DefaultConfig()
	cfg.CreateToc = true
	src := "# Guide\n\nIntro.\n\n## Install\n\nSteps.\n"
	job := NewJob("guide.md", "", segment.OpSegment, cfg, []byte(src))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Headings != 2 || snap.Progress.Sections != 2 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
	if !snap.Progress.Stored {
		t.Error("expected outline to be stored")
	}
	res := snap.Result
	if res == nil {
		t.Fatal("expected result")
	}
	if !strings.Contains(res.HTML, `<section id="guide" class="doc-section" data-section-level="0">`) {
		t.Errorf("expected sectioned html, got %q", res.HTML)
	}
	if !strings.Contains(res.TOC, `href="#install"`) {
		t.Errorf("expected toc entry for install, got %q", res.TOC)
	}
	if res.Outline.Title != "guide" || len(res.Outline.Children) != 1 {
		t.Errorf("unexpected outline %+v", res.Outline)
	}

	stored, err := store.GetOutline(context.Background(), job.DocID)
	if err != nil {
		t.Fatalf("expected stored outline: %v", err)
	}
	if !stored.WellStructured || stored.Filename != "guide.md" {
		t.Errorf("unexpected stored outline %+v", stored)
	}
	if snap := lat.Snapshot(); snap.Runs != 1 || snap.Headings != 2 {
		t.Errorf("expected one recorded run, got %+v", snap)
	}
}

func TestWorker_ProcessInvalidOutline(t *testing.T) {
	w := NewWorker(nil, nil, discardLogger(), false)
	job := NewJob("bad.html", "Bad", segment.OpSegment, segment.DefaultConfig(),
		[]byte(`<h1>A</h1><h3>B</h3>`))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusInvalid {
		t.Fatalf("expected invalid, got %q", snap.Status)
	}
	if snap.Result.HTML != "" {
		t.Errorf("expected no rendered html for invalid outline, got %q", snap.Result.HTML)
	}
	if len(snap.Result.Diagnostics) != 1 || snap.Result.Diagnostics[0].Kind != outline.NonConsecutiveJump {
		t.Errorf("unexpected diagnostics %+v", snap.Result.Diagnostics)
	}
	if snap.Result.Outline.Title != "Bad" {
		t.Errorf("expected explicit title, got %q", snap.Result.Outline.Title)
	}
}

func TestWorker_ProcessUnsupportedFormat(t *testing.T) {
	w := NewWorker(nil, nil, discardLogger(), false)
	job := NewJob("data.csv", "", segment.OpSegment, segment.DefaultConfig(), []byte("a,b"))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "loading" {
		t.Errorf("expected failed in loading, got %q/%q", snap.Status, snap.Phase)
	}
	if len(snap.Progress.Errors) != 1 {
		t.Errorf("expected one error, got %v", snap.Progress.Errors)
	}
}

func TestWorker_StoreFailureKeepsResult(t *testing.T) {
	store := newMemStore()
	store.putErr = errors.New("permission denied")
	w := NewWorker(store, nil, discardLogger(), false)

	job := NewJob("a.html", "", segment.OpValidate, segment.DefaultConfig(), []byte(`<h1>A</h1>`))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q", snap.Status)
	}
	if snap.Progress.Stored {
		t.Error("expected stored=false")
	}
	if store.puts != 1 {
		t.Errorf("expected a single non-retried put, got %d", store.puts)
	}
	if len(snap.Progress.Errors) != 1 {
		t.Errorf("expected store error recorded, got %v", snap.Progress.Errors)
	}
}

func TestOrchestrator_ProcessesSubmittedJobs(t *testing.T) {
	cfg := config.Config{WorkerCount: 2, MaxQueueSize: 4, JobTTL: time.Hour, StatsWindow: time.Hour}
	o := NewOrchestrator(cfg, nil, nil, discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("a.txt", "", segment.OpSegment, segment.DefaultConfig(), []byte("no headings here"))
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !job.Snapshot().Status.Done() {
		if time.Now().After(deadline) {
			t.Fatal("job did not finish")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := o.GetJob(job.ID).Snapshot().Status; got != StatusInvalid {
		t.Errorf("expected invalid for text without headings, got %q", got)
	}
	if o.Latency().Snapshot().Invalid != 1 {
		t.Error("expected the run to be recorded as invalid")
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, nil, nil, discardLogger())
	// Not started: nothing drains the queue.

	first := NewJob("a.html", "", segment.OpSegment, segment.DefaultConfig(), []byte("<h1>a</h1>"))
	second := NewJob("b.html", "", segment.OpSegment, segment.DefaultConfig(), []byte("<h1>b</h1>"))
	if err := o.Submit(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := o.Submit(second); err == nil {
		t.Fatal("expected queue full error")
	}
	if second.Snapshot().Status != StatusFailed {
		t.Errorf("expected rejected job to be failed, got %q", second.Status)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected depth 1, got %d", o.QueueDepth())
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(errors.New("boom")) {
		t.Error("plain errors are not retryable")
	}
	if !IsRetryable(&pathstore.StatusError{Code: 503}) {
		t.Error("503 should be retryable")
	}
	if IsRetryable(&pathstore.StatusError{Code: 400}) {
		t.Error("400 should not be retryable")
	}
	if IsRetryable(context.Canceled) {
		t.Error("cancellation should not be retryable")
	}
}
