package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/docsegment/internal/doctree"
	"github.com/dgallion1/docsegment/internal/outline"
	"github.com/dgallion1/docsegment/internal/segment"
)

// JobStatus represents the state of a segmentation job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusLoading    JobStatus = "loading"
	StatusSegmenting JobStatus = "segmenting"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusInvalid    JobStatus = "invalid"
	StatusFailed     JobStatus = "failed"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusInvalid || s == StatusFailed
}

// Job tracks the state of a single document segmentation.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	DocID string `json:"doc_id"`

	Status    JobStatus         `json:"status"`
	Phase     string            `json:"phase"`
	Filename  string            `json:"filename"`
	Title     string            `json:"title"`
	Operation segment.Operation `json:"operation"`
	Settings  segment.Config    `json:"-"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	result   *JobResult
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	Headings    int      `json:"headings"`
	Sections    int      `json:"sections"`
	Diagnostics int      `json:"diagnostics"`
	Stored      bool     `json:"stored"`
	Errors      []string `json:"errors"`
}

// JobResult is what a finished job produced.
type JobResult struct {
	WellStructured bool                `json:"well_structured"`
	Diagnostics    []outline.Violation `json:"diagnostics"`
	Items          []outline.Item      `json:"items"`
	Outline        *doctree.DocTree    `json:"outline"`
	HTML           string              `json:"html,omitempty"`
	TOC            string              `json:"toc,omitempty"`
	DurationMs     float64             `json:"duration_ms"`
}

// NewJob returns a queued job for data.
func NewJob(filename, title string, op segment.Operation, settings segment.Config, data []byte) *Job {
	now := time.Now()
	hash := ContentHashHex(data)
	j := &Job{
		ID:          NewJobID(),
		DocID:       hash[:16],
		Status:      StatusQueued,
		Phase:       "queued",
		Filename:    filename,
		Title:       title,
		Operation:   op,
		Settings:    settings,
		ContentHash: hash,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	j.fileData = data
	return j
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetCounts records what segmentation found.
func (j *Job) SetCounts(headings, sections, diagnostics int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Headings = headings
	j.Progress.Sections = sections
	j.Progress.Diagnostics = diagnostics
	j.UpdatedAt = time.Now()
}

// MarkStored records that the outline reached pathstore.
func (j *Job) MarkStored() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Stored = true
	j.UpdatedAt = time.Now()
}

// SetResult attaches the job's output and releases the uploaded bytes.
func (j *Job) SetResult(r *JobResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = r
	j.fileData = nil
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string            `json:"job_id"`
	DocID     string            `json:"doc_id"`
	Status    JobStatus         `json:"status"`
	Phase     string            `json:"phase"`
	Filename  string            `json:"filename"`
	Title     string            `json:"title"`
	Operation segment.Operation `json:"operation"`
	Progress  Progress          `json:"progress"`
	Result    *JobResult        `json:"result,omitempty"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	progress := j.Progress
	progress.Errors = errs
	return JobSnapshot{
		ID:        j.ID,
		DocID:     j.DocID,
		Status:    j.Status,
		Phase:     j.Phase,
		Filename:  j.Filename,
		Title:     j.Title,
		Operation: j.Operation,
		Progress:  progress,
		Result:    j.result,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
