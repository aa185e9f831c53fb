package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/docsegment/internal/segment"
)

type Config struct {
	Port string

	// Pathstore connection; outlines are not persisted when URL is empty.
	PathstoreURL    string
	PathstoreAPIKey string

	// Auth
	SegmentAPIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Latency window for /api/stats
	StatsWindow time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Segmentation defaults, overridable per request
	StartLevel    int
	EndLevel      int
	CreateToc     bool
	HeadingAnchor bool
	Debug         bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		PathstoreURL:    os.Getenv("PATHSTORE_URL"),
		PathstoreAPIKey: os.Getenv("PATHSTORE_API_KEY"),

		SegmentAPIKey: os.Getenv("SEGMENT_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL:      envDuration("JOB_TTL", 1*time.Hour),
		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		StartLevel:    envInt("SEGMENT_START_LEVEL", 1),
		EndLevel:      envInt("SEGMENT_END_LEVEL", 6),
		CreateToc:     envBool("SEGMENT_CREATE_TOC", false),
		HeadingAnchor: envBool("SEGMENT_HEADING_ANCHOR", true),
		Debug:         envBool("SEGMENT_DEBUG", false),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.SegmentAPIKey == "" {
		return fmt.Errorf("SEGMENT_API_KEY is required")
	}
	if c.PathstoreURL != "" && c.PathstoreAPIKey == "" {
		return fmt.Errorf("PATHSTORE_API_KEY is required when PATHSTORE_URL is set")
	}
	if err := c.Segment().Validate(); err != nil {
		return fmt.Errorf("segment settings: %w", err)
	}
	return nil
}

// Segment returns the segmentation defaults as a segment.Config.
func (c Config) Segment() segment.Config {
	sc := segment.DefaultConfig()
	sc.StartLevel = c.StartLevel
	sc.EndLevel = c.EndLevel
	sc.CreateToc = c.CreateToc
	sc.HeadingAnchor = c.HeadingAnchor
	sc.Debug = c.Debug
	return sc.ApplyDefaults()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
