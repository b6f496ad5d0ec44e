package kernel

import (
	"sync"
	"sync/atomic"

	"go.uber.org/automaxprocs/maxprocs"
)

// Kernel is the root object: one per booted system, holding the GIL,
// the scheduler, the monotonic clock, and the interrupt registry. A
// single process may boot at most one Kernel at a time (mirrors a real
// target, which has exactly one instance of this kernel core linked
// into its firmware image).
type Kernel struct {
	cfg   *Config
	gil   *gil
	sched *Scheduler
	clock *Clock
	irq   *IRQRegistry

	stopCh  chan struct{}
	started atomic.Bool
}

var (
	globalKernelMu sync.RWMutex
	globalKernel   *Kernel
)

// currentKernel returns the most recently booted Kernel, or nil before
// the first Boot. Used internally by Panic and by the BusyDelay
// functions, which have no other way to reach kernel-local state from a
// bare package-level function call.
func currentKernel() *Kernel {
	globalKernelMu.RLock()
	defer globalKernelMu.RUnlock()
	return globalKernel
}

// Boot constructs and starts a Kernel: it resolves the Config, starts
// one core-pump goroutine per Config.NumCores, and starts the sleep
// queue reaper. automaxprocs is invoked first (best-effort, errors are
// logged and ignored) so a container-constrained host doesn't oversell
// its GOMAXPROCS before we additionally fan out NumCores goroutines on
// top of it.
func Boot(opts ...Option) *Kernel {
	cfg := resolveConfig(opts)

	// GOMAXPROCS is tuned for the host cgroup once at boot and left in
	// place for the life of the process; unlike a request-scoped undo,
	// there is no narrower scope to restore it to.
	_, err := maxprocs.Set()
	if err != nil && cfg.Logger != nil {
		cfg.Logger.Log(LogEntry{Level: LevelWarn, Category: "boot", Message: "automaxprocs: " + err.Error()})
	}

	k := &Kernel{
		cfg:    cfg,
		clock:  newPlatformClock(),
		irq:    newIRQRegistry(),
		stopCh: make(chan struct{}),
	}
	k.gil = newGIL(cfg.NumCores)
	k.sched = newScheduler(k, cfg, k.clock)

	globalKernelMu.Lock()
	globalKernel = k
	globalKernelMu.Unlock()

	k.started.Store(true)
	for c := 0; c < cfg.NumCores; c++ {
		go k.corePump(c)
	}
	go k.sleepReaper()

	k.logf(LevelInfo, "boot", 0, "kernel booted", map[string]any{
		"cores":      cfg.NumCores,
		"priorities": cfg.PriorityLevels,
	})
	return k
}

// Shutdown stops accepting new threads, stops the sleep reaper, and
// nudges the core pumps so each one exits once no thread is ready or
// running. It returns without waiting for the pumps to exit. Intended
// for tests and for a host-simulation build that needs to exit
// cleanly; a real architecture port never calls this.
func (k *Kernel) Shutdown() {
	k.sched.shutdown.Store(true)
	close(k.stopCh)
	for range k.sched.cores {
		k.sched.wakeIdleCore()
	}
}

// Metrics returns the scheduler's live latency/CPU-time metrics
// collector.
func (k *Kernel) Metrics() *SchedulerMetrics { return k.sched.metrics }

// Clock returns the kernel's monotonic time source.
func (k *Kernel) Clock() *Clock { return k.clock }

// Config returns the resolved configuration the kernel was booted
// with. Callers must not mutate the returned value.
func (k *Kernel) Config() Config { return *k.cfg }
