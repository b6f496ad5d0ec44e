package kernel

import (
	"sync"
	"time"
)

// SchedulerMetrics collects the scheduling-latency and CPU-time
// percentiles described in SPEC_FULL.md's domain stack (P² estimators
// fed on every context switch), grounded on eventloop/metrics.go's
// LatencyMetrics. All methods are safe for concurrent use; the core
// pumps call observeLatency/observeCPUTime outside the GIL, and
// readers (diagnostics, tests) call Snapshot from any goroutine.
type SchedulerMetrics struct {
	mu      sync.Mutex
	latency *multiQuantile
	cpuTime *multiQuantile
	samples *ring[int64]

	switches uint64
	wakeups  uint64
}

// newSchedulerMetrics builds a metrics collector tracking p50/p90/p99.
func newSchedulerMetrics() *SchedulerMetrics {
	return &SchedulerMetrics{
		latency: newMultiQuantile(0.5, 0.9, 0.99),
		cpuTime: newMultiQuantile(0.5, 0.9, 0.99),
		samples: newRing[int64](256),
	}
}

// observeLatency folds a ready-to-running scheduling delay sample into
// the latency estimator.
func (m *SchedulerMetrics) observeLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency.observe(float64(d.Nanoseconds()))
	m.wakeups++
}

// observeCPUTime folds a completed run's CPU-time slice into the
// cpuTime estimator and the recent-samples ring.
func (m *SchedulerMetrics) observeCPUTime(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cpuTime.observe(float64(d.Nanoseconds()))
	m.samples.push(d.Nanoseconds())
	m.switches++
}

// MetricsSnapshot is a point-in-time read of SchedulerMetrics.
type MetricsSnapshot struct {
	LatencyP50, LatencyP90, LatencyP99 time.Duration
	CPUTimeP50, CPUTimeP90, CPUTimeP99 time.Duration
	ContextSwitches                    uint64
	Wakeups                            uint64
}

// Snapshot returns the current estimates. Percentiles report zero
// before any sample has been observed, rather than NaN, so callers can
// log/compare them without special-casing startup. Until the fifth
// sample they come from pSquare.value's warm-up path, which is biased
// toward zero.
func (m *SchedulerMetrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	lv := m.latency.values()
	cv := m.cpuTime.values()
	return MetricsSnapshot{
		LatencyP50:       durOrZero(lv[0.5]),
		LatencyP90:       durOrZero(lv[0.9]),
		LatencyP99:       durOrZero(lv[0.99]),
		CPUTimeP50:       durOrZero(cv[0.5]),
		CPUTimeP90:       durOrZero(cv[0.9]),
		CPUTimeP99:       durOrZero(cv[0.99]),
		ContextSwitches:  m.switches,
		Wakeups:          m.wakeups,
	}
}

func durOrZero(ns float64) time.Duration {
	if ns != ns { // NaN
		return 0
	}
	return time.Duration(ns)
}
