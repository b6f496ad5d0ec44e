package kernel

import (
	"testing"
	"time"
)

func TestSchedulerMetricsSnapshotBeforeAnySamples(t *testing.T) {
	m := newSchedulerMetrics()
	snap := m.Snapshot()
	if snap.LatencyP50 != 0 || snap.CPUTimeP99 != 0 {
		t.Fatalf("snapshot before any samples = %+v, want all zero", snap)
	}
	if snap.ContextSwitches != 0 || snap.Wakeups != 0 {
		t.Fatalf("counters before any samples = %+v, want zero", snap)
	}
}

func TestSchedulerMetricsCountsSwitchesAndWakeups(t *testing.T) {
	m := newSchedulerMetrics()
	for i := 0; i < 10; i++ {
		m.observeLatency(time.Duration(i+1) * time.Microsecond)
	}
	for i := 0; i < 7; i++ {
		m.observeCPUTime(time.Duration(i+1) * time.Millisecond)
	}
	snap := m.Snapshot()
	if snap.Wakeups != 10 {
		t.Fatalf("Wakeups = %d, want 10", snap.Wakeups)
	}
	if snap.ContextSwitches != 7 {
		t.Fatalf("ContextSwitches = %d, want 7", snap.ContextSwitches)
	}
}

// TestKernelMetricsObservedDuringScheduling is an integration check
// that running real threads through the scheduler actually feeds
// SchedulerMetrics, not just the unit-level observe calls above.
func TestKernelMetricsObservedDuringScheduling(t *testing.T) {
	k := testBoot(t)

	const n = 20
	refs := make([]ThreadRef, n)
	for i := range refs {
		refs[i], _ = k.Spawn(1, func() any { return nil })
	}
	for _, ref := range refs {
		joinWithTimeout(t, k, ref, 2*time.Second, "metrics-thread")
	}

	snap := k.Metrics().Snapshot()
	if snap.ContextSwitches == 0 {
		t.Fatal("expected at least one observed context switch after running threads")
	}
	if snap.Wakeups == 0 {
		t.Fatal("expected at least one observed scheduling-latency sample")
	}
}
