package kernel

import "time"

// Config holds compile-time-equivalent kernel configuration. A real
// architecture port would bake these into constants; this module
// resolves them once at Boot, the way eventloop/options.go resolves
// loopOptions from a slice of LoopOption before constructing a Loop.
type Config struct { //nolint:govet
	// PriorityLevels is the number of distinct priority values, indexed
	// 0..PriorityLevels-1 (higher is more urgent). Defaults to 32.
	PriorityLevels int

	// NumCores is the number of core-pump goroutines the scheduler
	// starts. Defaults to 1. The GIL is a real SpinLock-backed lock for
	// every value, 1 included: a single core does not turn
	// irq_lock/irq_unlock into no-ops.
	NumCores int

	// TickSlice is the round-robin quantum applied to threads that
	// share a priority level. Zero disables preemption on tick
	// expiry (cooperative-within-priority scheduling only).
	TickSlice time.Duration

	// CPUTimeAccounting enables per-thread CPU-time counters (§4.7).
	// When false, Thread.CPUTime always returns 0 and the accounting
	// hook in the scheduler's switch path is skipped entirely.
	CPUTimeAccounting bool

	// DeepSleepSupported enables the deep-sleep-forbidden refcount and
	// IdleHook invocation. When false, EnterDeepSleepForbidden is a
	// no-op and the idle core pump never calls IdleHook.
	DeepSleepSupported bool

	// FatalOnSpawnFailure names the resource-exhaustion policy from §7
	// (Panic(FaultStackExhausted, ...) instead of a sentinel invalid
	// ThreadRef). Defaults to false. Spawn does not read it: Spawn has
	// no resource-exhaustion failure path on the generic port.
	FatalOnSpawnFailure bool

	// IdleHook is called by a core's pump loop whenever its ready queue
	// is empty and the deep-sleep lock is unheld. Supplements the
	// behavior of miosix's idle thread (see SPEC_FULL.md §Supplemented
	// Features #1). Nil is a valid no-op hook.
	IdleHook func()

	// Logger receives structured diagnostics. Defaults to NewNoOpLogger
	// — the kernel core owns no console/UART, so silence is the correct
	// default (see §6 "no CLI/console plumbing owned by this core").
	Logger Logger

	// RebootFunc is invoked by Panic after the fatal log line is
	// flushed and interrupts are disabled. Defaults to defaultReboot,
	// which prints the fault to stderr and calls os.Exit(1), since a Go
	// process has no watchdog to trigger a reboot.
	RebootFunc func(FaultKind, string)
}

// Option configures a Config, in the style of eventloop's LoopOption.
type Option func(*Config)

// WithPriorityLevels sets the number of ready-queue priority levels.
func WithPriorityLevels(n int) Option {
	return func(c *Config) { c.PriorityLevels = n }
}

// WithNumCores sets the number of core-pump goroutines (SMP fan-out).
func WithNumCores(n int) Option {
	return func(c *Config) { c.NumCores = n }
}

// WithTickSlice sets the round-robin quantum for same-priority threads.
func WithTickSlice(d time.Duration) Option {
	return func(c *Config) { c.TickSlice = d }
}

// WithCPUTimeAccounting enables or disables per-thread CPU-time
// counters.
func WithCPUTimeAccounting(enabled bool) Option {
	return func(c *Config) { c.CPUTimeAccounting = enabled }
}

// WithDeepSleep enables or disables the deep-sleep-forbidden refcount
// and idle hook dispatch.
func WithDeepSleep(enabled bool) Option {
	return func(c *Config) { c.DeepSleepSupported = enabled }
}

// WithIdleHook installs the function the idle pump calls when it finds
// nothing ready to run.
func WithIdleHook(fn func()) Option {
	return func(c *Config) { c.IdleHook = fn }
}

// WithLogger installs a structured logger. Passing nil restores the
// no-op default.
func WithLogger(l Logger) Option {
	return func(c *Config) {
		if l == nil {
			l = NewNoOpLogger()
		}
		c.Logger = l
	}
}

// WithRebootFunc overrides the action Panic takes once it has finished
// logging and masking interrupts.
func WithRebootFunc(fn func(FaultKind, string)) Option {
	return func(c *Config) { c.RebootFunc = fn }
}

// resolveConfig applies opts over the defaults, the way
// resolveLoopOptions seeds loopOptions before folding in LoopOption
// values.
func resolveConfig(opts []Option) *Config {
	cfg := &Config{
		PriorityLevels:     32,
		NumCores:           1,
		TickSlice:          10 * time.Millisecond,
		CPUTimeAccounting:  true,
		DeepSleepSupported: true,
		Logger:             NewNoOpLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(cfg)
	}
	if cfg.PriorityLevels <= 0 {
		cfg.PriorityLevels = 32
	}
	if cfg.NumCores <= 0 {
		cfg.NumCores = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = NewNoOpLogger()
	}
	if cfg.RebootFunc == nil {
		cfg.RebootFunc = defaultReboot
	}
	return cfg
}
