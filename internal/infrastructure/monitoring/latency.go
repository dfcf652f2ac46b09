package monitoring

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const latencyWindow = 256

// LatencySummary describes the most recent durations of one operation
type LatencySummary struct {
	Count    int     `json:"count"`
	MeanMs   float64 `json:"mean_ms"`
	StdDevMs float64 `json:"stddev_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
	MaxMs    float64 `json:"max_ms"`
}

// window keeps the last latencyWindow samples, in milliseconds
type window struct {
	mu      sync.Mutex
	samples []float64
	next    int
}

func newWindow() *window {
	return &window{samples: make([]float64, 0, latencyWindow)}
}

func (w *window) add(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.samples) < latencyWindow {
		w.samples = append(w.samples, ms)
		return
	}
	w.samples[w.next] = ms
	w.next = (w.next + 1) % latencyWindow
}

func (w *window) summary() LatencySummary {
	w.mu.Lock()
	sorted := append([]float64(nil), w.samples...)
	w.mu.Unlock()

	if len(sorted) == 0 {
		return LatencySummary{}
	}
	sort.Float64s(sorted)

	s := LatencySummary{
		Count:  len(sorted),
		MeanMs: stat.Mean(sorted, nil),
		P50Ms:  stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P95Ms:  stat.Quantile(0.95, stat.Empirical, sorted, nil),
		MaxMs:  floats.Max(sorted),
	}
	if len(sorted) > 1 {
		s.StdDevMs = stat.StdDev(sorted, nil)
	}
	return s
}

// BuildLatency summarizes the most recent build durations
func (m *Metrics) BuildLatency() LatencySummary {
	return m.buildWindow.summary()
}
