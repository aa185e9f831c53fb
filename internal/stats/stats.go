package stats

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at       time.Time
	duration time.Duration
	headings int
	invalid  bool
}

// Snapshot aggregates the segmentation runs still inside the window.
type Snapshot struct {
	Runs       int     `json:"runs"`
	Invalid    int     `json:"invalid"`
	Headings   int     `json:"headings"`
	MinMs      float64 `json:"min_ms"`
	MaxMs      float64 `json:"max_ms"`
	AvgMs      float64 `json:"avg_ms"`
	P50Ms      float64 `json:"p50_ms"`
	P95Ms      float64 `json:"p95_ms"`
	P99Ms      float64 `json:"p99_ms"`
	WindowSecs float64 `json:"window_secs"`
}

// Latency keeps a rolling window of segmentation run timings.
type Latency struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
	now     func() time.Time
}

func NewLatency(window time.Duration) *Latency {
	if window <= 0 {
		window = time.Hour
	}
	return &Latency{
		samples: make([]sample, 0, 256),
		window:  window,
		now:     time.Now,
	}
}

// Record adds one run. wellStructured is false when validation rejected the
// document.
func (l *Latency) Record(d time.Duration, headings int, wellStructured bool) {
	if d < 0 {
		d = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)
	l.samples = append(l.samples, sample{
		at:       now,
		duration: d,
		headings: headings,
		invalid:  !wellStructured,
	})
}

func (l *Latency) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(l.now())
	snap := Snapshot{WindowSecs: l.window.Seconds()}
	if len(l.samples) == 0 {
		return snap
	}

	values := make([]float64, 0, len(l.samples))
	var sum float64
	for _, s := range l.samples {
		ms := float64(s.duration) / float64(time.Millisecond)
		values = append(values, ms)
		sum += ms
		snap.Headings += s.headings
		if s.invalid {
			snap.Invalid++
		}
	}
	slices.Sort(values)

	snap.Runs = len(values)
	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = sum / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

func (l *Latency) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.window)
	keep := l.samples[:0]
	for _, s := range l.samples {
		if !s.at.Before(cutoff) {
			keep = append(keep, s)
		}
	}
	l.samples = keep
}

// percentile interpolates linearly between the two closest ranks.
func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return sorted[0]
	}
	if pct >= 100 {
		return sorted[len(sorted)-1]
	}

	index := float64(len(sorted)-1) * pct / 100
	lower := int(index)
	if lower+1 >= len(sorted) {
		return sorted[lower]
	}
	weight := index - float64(lower)
	return sorted[lower] + (sorted[lower+1]-sorted[lower])*weight
}
