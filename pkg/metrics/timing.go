// Package metrics provides performance instrumentation for the reactive core.
//
// Timing metrics cover the hot paths of an orchestration pass (recalc,
// validate, refresh) and the compute scheduler. Collection uses atomics and
// is enabled by default; set AMPDESK_METRICS=0 to disable.
//
// Usage:
//
//	func expensiveOperation() {
//	    defer metrics.Timer(metrics.ComputeRun)()
//	    // ... operation code
//	}
package metrics

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/ampdesk/ampdesk/pkg/debug"
)

// enabled controls whether metrics are collected.
// Defaults to true unless AMPDESK_METRICS=0 is set.
var enabled = os.Getenv("AMPDESK_METRICS") != "0"

// Enabled returns whether metrics collection is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled allows programmatic control of metrics collection.
func SetEnabled(e bool) {
	enabled = e
}

// TimingMetric tracks timing statistics for a named operation.
// All methods are thread-safe using atomic operations.
type TimingMetric struct {
	name    string
	count   int64
	totalNs int64
	maxNs   int64
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record records a single timing measurement.
func (m *TimingMetric) Record(d time.Duration) {
	if !enabled {
		return
	}
	ns := d.Nanoseconds()
	atomic.AddInt64(&m.count, 1)
	atomic.AddInt64(&m.totalNs, ns)
	for {
		old := atomic.LoadInt64(&m.maxNs)
		if ns <= old || atomic.CompareAndSwapInt64(&m.maxNs, old, ns) {
			break
		}
	}
}

// Name returns the metric name.
func (m *TimingMetric) Name() string {
	return m.name
}

// Count returns the number of recorded measurements.
func (m *TimingMetric) Count() int64 {
	return atomic.LoadInt64(&m.count)
}

// TotalNs returns the total time in nanoseconds.
func (m *TimingMetric) TotalNs() int64 {
	return atomic.LoadInt64(&m.totalNs)
}

// MaxNs returns the maximum recorded time in nanoseconds.
func (m *TimingMetric) MaxNs() int64 {
	return atomic.LoadInt64(&m.maxNs)
}

// AvgNs returns the average time in nanoseconds, 0 if nothing was recorded.
func (m *TimingMetric) AvgNs() int64 {
	count := atomic.LoadInt64(&m.count)
	if count == 0 {
		return 0
	}
	return atomic.LoadInt64(&m.totalNs) / count
}

// Stats returns all timing statistics at once.
func (m *TimingMetric) Stats() TimingStats {
	count := atomic.LoadInt64(&m.count)
	totalNs := atomic.LoadInt64(&m.totalNs)
	var avgNs int64
	if count > 0 {
		avgNs = totalNs / count
	}
	return TimingStats{
		Name:    m.name,
		Count:   count,
		TotalMs: float64(totalNs) / 1e6,
		AvgMs:   float64(avgNs) / 1e6,
		MaxMs:   float64(atomic.LoadInt64(&m.maxNs)) / 1e6,
	}
}

// Reset clears all recorded measurements.
func (m *TimingMetric) Reset() {
	atomic.StoreInt64(&m.count, 0)
	atomic.StoreInt64(&m.totalNs, 0)
	atomic.StoreInt64(&m.maxNs, 0)
}

// TimingStats holds a snapshot of timing statistics.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
}

// Timer returns a function that records elapsed time when called.
// Use with defer for automatic timing:
//
//	defer metrics.Timer(metrics.RecalcAction)()
func Timer(m *TimingMetric) func() {
	if !enabled || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.Record(time.Since(start))
	}
}

// slowThresholdNs is the duration above which Span logs the labelled
// operation, in nanoseconds.
var slowThresholdNs atomic.Int64

func init() {
	slowThresholdNs.Store(int64(50 * time.Millisecond))
}

// SlowThreshold returns the current slow-span logging threshold.
func SlowThreshold() time.Duration {
	return time.Duration(slowThresholdNs.Load())
}

// SetSlowThreshold overrides the slow-span logging threshold. Non-positive
// values are ignored.
func SetSlowThreshold(d time.Duration) {
	if d > 0 {
		slowThresholdNs.Store(int64(d))
	}
}

// Span times a labelled action, records it on m, and debug-logs the label
// when it exceeds SlowThreshold. Use with defer:
//
//	defer metrics.Span(metrics.RefreshAction, "refresh dc_load")()
func Span(m *TimingMetric, label string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		if m != nil {
			m.Record(d)
		}
		if d >= SlowThreshold() {
			debug.LogTiming(label, d)
		}
	}
}

// Global timing metrics for the reactive core.
var (
	RecalcAction      = newTimingMetric("recalc_action")
	ValidatePass      = newTimingMetric("validate_pass")
	RefreshAction     = newTimingMetric("refresh_action")
	OrchestrationPass = newTimingMetric("orchestration_pass")
	ComputeRun        = newTimingMetric("compute_run")
	SnapshotBuild     = newTimingMetric("snapshot_build")
	WatcherNotify     = newTimingMetric("watcher_notify")
)

// AllTimingMetrics returns all registered timing metrics.
func AllTimingMetrics() []*TimingMetric {
	return []*TimingMetric{
		RecalcAction,
		ValidatePass,
		RefreshAction,
		OrchestrationPass,
		ComputeRun,
		SnapshotBuild,
		WatcherNotify,
	}
}

// ResetAll resets all timing metrics.
func ResetAll() {
	for _, m := range AllTimingMetrics() {
		m.Reset()
	}
}

// AllTimingStats returns stats for metrics that recorded at least one sample.
func AllTimingStats() []TimingStats {
	all := AllTimingMetrics()
	stats := make([]TimingStats, 0, len(all))
	for _, m := range all {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}
