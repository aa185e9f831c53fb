package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/docsegment/internal/loader"
	"github.com/dgallion1/docsegment/internal/pipeline"
	"github.com/dgallion1/docsegment/internal/segment"
	"github.com/go-chi/chi/v5"
)

// handleSegment segments one document synchronously. The document is either
// a multipart "file" field or the raw request body, named by ?filename=.
func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	filename, data, err := s.readUpload(r)
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	op, cfg, err := s.segmentOptions(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	l, err := loader.ForFile(filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if p, ok := l.(*loader.PDFLoader); ok {
		p.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}
	doc, err := l.Load(bytes.NewReader(data), filename)
	if err != nil {
		jsonError(w, "failed to load document: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	seg, err := segment.New(cfg, s.log)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	start := time.Now()
	res, err := seg.Run(doc, op)
	elapsed := time.Since(start)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.orchestrator.Latency().Record(elapsed, len(res.Items), res.WellStructured())

	title := r.FormValue("title")
	if title == "" {
		title = loader.Title(doc, filename)
	}
	result, err := pipeline.BuildResult(doc, res, title)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	result.DurationMs = float64(elapsed) / float64(time.Millisecond)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":    pipeline.ContentHashHex(data)[:16],
		"filename":  filename,
		"operation": op,
		"result":    result,
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleBatchSegment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	op, cfg, err := s.segmentOptions(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	var results []map[string]any
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		if !loader.IsSupportedExtension(filename) {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
			})
			continue
		}

		f, err := fh.Open()
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "failed to open file",
			})
			continue
		}

		data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "file too large or read error",
			})
			continue
		}

		job := pipeline.NewJob(filename, "", op, cfg, data)
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"job_id":   job.ID,
				"error":    err.Error(),
			})
			continue
		}

		results = append(results, map[string]any{
			"filename": filename,
			"job_id":   job.ID,
			"doc_id":   job.DocID,
			"status":   statusOf(job),
			"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"jobs": results})
}

// statusOf reads a job's status under its lock.
func statusOf(job *pipeline.Job) pipeline.JobStatus {
	return job.Snapshot().Status
}

// uploadError carries the HTTP status for a rejected upload.
type uploadError struct {
	msg  string
	code int
}

func (e *uploadError) Error() string { return e.msg }

func statusFor(err error) int {
	var ue *uploadError
	if errors.As(err, &ue) {
		return ue.code
	}
	return http.StatusBadRequest
}

// readUpload returns the uploaded document and its sanitized filename.
func (s *Server) readUpload(r *http.Request) (string, []byte, error) {
	var (
		filename string
		src      io.Reader
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return "", nil, &uploadError{"invalid multipart form: " + err.Error(), http.StatusBadRequest}
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, &uploadError{"file is required: " + err.Error(), http.StatusBadRequest}
		}
		defer file.Close()
		filename, src = header.Filename, file
	} else {
		filename = r.URL.Query().Get("filename")
		if filename == "" {
			filename = "document" + extensionFor(mediaType)
		}
		src = r.Body
	}

	filename = sanitizeFilename(filename)
	if !loader.IsSupportedExtension(filename) {
		return "", nil, &uploadError{fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest}
	}

	data, err := io.ReadAll(io.LimitReader(src, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return "", nil, &uploadError{"failed to read document", http.StatusBadRequest}
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return "", nil, &uploadError{fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge}
	}
	return filename, data, nil
}

func extensionFor(mediaType string) string {
	switch mediaType {
	case "text/markdown":
		return ".md"
	case "text/plain":
		return ".txt"
	case "application/pdf":
		return ".pdf"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return ".docx"
	}
	return ".html"
}

// segmentOptions applies per-request overrides to the service defaults.
func (s *Server) segmentOptions(r *http.Request) (segment.Operation, segment.Config, error) {
	cfg := s.cfg.Segment()
	op, err := segment.ParseOperation(r.FormValue("op"))
	if err != nil {
		return "", cfg, err
	}

	ints := map[string]*int{
		"start_level":   &cfg.StartLevel,
		"end_level":     &cfg.EndLevel,
		"max_id_length": &cfg.MaxIDLength,
	}
	for name, dst := range ints {
		if v := r.FormValue(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return "", cfg, fmt.Errorf("%s: %w", name, err)
			}
			*dst = n
		}
	}
	bools := map[string]*bool{
		"toc":             &cfg.CreateToc,
		"anchor":          &cfg.HeadingAnchor,
		"relative_levels": &cfg.RelativeLevels,
		"debug":           &cfg.Debug,
	}
	for name, dst := range bools {
		if v := r.FormValue(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return "", cfg, fmt.Errorf("%s: %w", name, err)
			}
			*dst = b
		}
	}
	if v := strings.TrimSpace(r.FormValue("toc_selector")); v != "" {
		cfg.TocSelector = v
	}
	if v := strings.TrimSpace(r.FormValue("section_class")); v != "" {
		cfg.SectionClass = v
	}

	if err := cfg.Validate(); err != nil {
		return "", cfg, err
	}
	return op, cfg, nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
