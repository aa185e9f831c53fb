package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/docsegment/internal/loader"
	"github.com/dgallion1/docsegment/internal/pathstore"
	"github.com/dgallion1/docsegment/internal/segment"
	"github.com/dgallion1/docsegment/internal/stats"
	"golang.org/x/net/html"
)

// OutlineStore persists document outlines.
type OutlineStore interface {
	PutOutline(ctx context.Context, o pathstore.Outline) error
	GetOutline(ctx context.Context, docID string) (*pathstore.Outline, error)
	DeleteOutline(ctx context.Context, docID string) error
}

// Worker processes a single document job.
type Worker struct {
	store       OutlineStore
	latency     *stats.Latency
	log         *slog.Logger
	pdfFallback bool
}

// NewWorker returns a worker. store may be nil, in which case outlines are
// not persisted.
func NewWorker(store OutlineStore, latency *stats.Latency, log *slog.Logger, pdfFallback bool) *Worker {
	return &Worker{
		store:       store,
		latency:     latency,
		log:         log,
		pdfFallback: pdfFallback,
	}
}

// Process runs load, segment and store for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	// Phase 1: Load
	job.SetStatus(StatusLoading, "loading")
	doc, err := w.load(job)
	if err != nil {
		log.Error("load failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "loading")
		return
	}
	title := job.Title
	if title == "" {
		title = loader.Title(doc, job.Filename)
	}

	// Phase 2: Segment
	job.SetStatus(StatusSegmenting, "segmenting")
	seg, err := segment.New(job.Settings, log)
	if err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "segmenting")
		return
	}
	start := time.Now()
	res, err := seg.Run(doc, job.Operation)
	elapsed := time.Since(start)
	if err != nil {
		log.Error("segmentation failed", "error", err)
		job.AddError(fmt.Sprintf("segment: %s", err))
		job.SetStatus(StatusFailed, "segmenting")
		return
	}
	if w.latency != nil {
		w.latency.Record(elapsed, len(res.Items), res.WellStructured())
	}
	job.SetCounts(len(res.Items), len(res.Sections), len(res.Diagnostics))
	log.Info("segmented document",
		"headings", len(res.Items),
		"sections", len(res.Sections),
		"well_structured", res.WellStructured(),
		"duration_ms", elapsed.Milliseconds(),
	)

	result, err := BuildResult(doc, res, title)
	if err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "rendering")
		return
	}
	result.DurationMs = float64(elapsed) / float64(time.Millisecond)

	// Phase 3: Store
	if w.store != nil {
		job.SetStatus(StatusStoring, "storing")
		o := pathstore.Outline{
			DocID:          job.DocID,
			Filename:       job.Filename,
			WellStructured: result.WellStructured,
			Tree:           result.Outline,
			Diagnostics:    len(result.Diagnostics),
			StoredAt:       time.Now().UTC(),
		}
		err := withRetry(ctx, func() error { return w.store.PutOutline(ctx, o) }, func(attempt int, err error) {
			log.Warn("retryable store error", "attempt", attempt, "error", err)
		})
		if err != nil {
			log.Error("store failed", "error", err)
			job.AddError(fmt.Sprintf("store: %s", err))
		} else {
			job.MarkStored()
		}
	}

	job.SetResult(result)
	if res.WellStructured() {
		job.SetStatus(StatusCompleted, "done")
	} else {
		job.SetStatus(StatusInvalid, "done")
	}
}

func (w *Worker) load(job *Job) (*html.Node, error) {
	l, err := loader.ForFile(job.Filename)
	if err != nil {
		return nil, err
	}
	if p, ok := l.(*loader.PDFLoader); ok {
		p.FallbackPdftotext = w.pdfFallback
	}
	doc, err := l.Load(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return doc, nil
}

// BuildResult renders a run's output for clients. The document is only
// rendered when the run changed it.
func BuildResult(doc *html.Node, res *segment.Result, title string) (*JobResult, error) {
	out := &JobResult{
		WellStructured: res.WellStructured(),
		Diagnostics:    res.Diagnostics,
		Items:          res.Items,
		Outline:        res.Outline(title),
	}
	if !res.WellStructured() || res.Operation == segment.OpValidate {
		return out, nil
	}
	var err error
	if out.HTML, err = renderBody(doc); err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	if res.TOC != nil && !res.TocPlaced {
		var b strings.Builder
		if err := html.Render(&b, res.TOC); err != nil {
			return nil, fmt.Errorf("render toc: %w", err)
		}
		out.TOC = b.String()
	}
	return out, nil
}

// renderBody renders the children of <body>, or the whole tree when the
// document has no body.
func renderBody(doc *html.Node) (string, error) {
	var b strings.Builder
	body := loader.Body(doc)
	if body == doc {
		err := html.Render(&b, doc)
		return b.String(), err
	}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}
