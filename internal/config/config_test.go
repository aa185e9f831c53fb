package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SEGMENT_API_KEY", "k")
	t.Setenv("WORKER_COUNT", "-1")
	t.Setenv("JOB_TTL", "bogus")

	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected default port, got %q", cfg.Port)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected worker count reset to 4, got %d", cfg.WorkerCount)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected fallback TTL, got %s", cfg.JobTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("SEGMENT_API_KEY", "")
	if err := Load().Validate(); err == nil {
		t.Error("expected error without SEGMENT_API_KEY")
	}

	t.Setenv("SEGMENT_API_KEY", "k")
	t.Setenv("PATHSTORE_URL", "http://localhost:8080")
	if err := Load().Validate(); err == nil {
		t.Error("expected error for pathstore without key")
	}

	t.Setenv("PATHSTORE_URL", "")
	t.Setenv("SEGMENT_START_LEVEL", "4")
	t.Setenv("SEGMENT_END_LEVEL", "2")
	if err := Load().Validate(); err == nil {
		t.Error("expected error for end level below start level")
	}
}

func TestSegment(t *testing.T) {
	t.Setenv("SEGMENT_START_LEVEL", "2")
	t.Setenv("SEGMENT_CREATE_TOC", "true")
	t.Setenv("SEGMENT_HEADING_ANCHOR", "false")

	sc := Load().Segment()
	if sc.StartLevel != 2 || sc.EndLevel != 6 {
		t.Errorf("unexpected levels %d..%d", sc.StartLevel, sc.EndLevel)
	}
	if !sc.CreateToc || sc.HeadingAnchor {
		t.Errorf("unexpected flags toc=%v anchor=%v", sc.CreateToc, sc.HeadingAnchor)
	}
	if sc.SectionClass != "doc-section" || !sc.RelativeLevels {
		t.Errorf("expected defaults to be filled, got %+v", sc)
	}
}
