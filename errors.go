package kernel

import "errors"

// Two-valued results and caller-recoverable failures. Mirrors the
// top-of-file sentinel error block in eventloop's loop.go, one var per
// documented failure mode instead of a generic errors.New at the call
// site.
var (
	// ErrTimeout is returned by timed_lock/timed_wait/timed_wait-style
	// APIs when the deadline passed before the predicate was satisfied.
	ErrTimeout = errors.New("kernel: operation timed out")

	// ErrAlreadyRegistered is returned by the non-fatal registration
	// helpers; register_irq itself is fatal on conflict (see Panic).
	ErrAlreadyRegistered = errors.New("kernel: irq id already registered")

	// ErrNotRegistered is returned by TryUnregisterIRQ for an IRQ id
	// that has no installed handler.
	ErrNotRegistered = errors.New("kernel: irq id not registered")

	// ErrHandlerMismatch is returned by TryUnregisterIRQ when the stored
	// (handler, arg) pair does not match the caller's.
	ErrHandlerMismatch = errors.New("kernel: irq handler/arg mismatch")

	// ErrNoThreads names the spawn resource-exhaustion failure. Spawn
	// on the generic port has no resource-exhaustion check and never
	// returns it.
	ErrNoThreads = errors.New("kernel: insufficient resources to spawn thread")

	// ErrAlreadyJoined is returned by TryJoin/Detach called a second
	// time on the same thread, or called on a detached thread (Join
	// faults instead).
	ErrAlreadyJoined = errors.New("kernel: thread already joined or detached")

	// ErrShutdown is returned by scheduler entry points once Shutdown
	// has been called; no further threads may be spawned.
	ErrShutdown = errors.New("kernel: scheduler is shutting down")
)

// FaultKind enumerates the programming faults that escalate to Panic
// (§7 "Programming faults"). These are never returned to callers — they
// terminate the process (in the generic port) or reboot the device (on a
// real architecture port).
type FaultKind int

const (
	// FaultUnlockNotOwner: Mutex.Unlock called by a thread other than
	// the owner.
	FaultUnlockNotOwner FaultKind = iota
	// FaultDoubleRegisterIRQ: register_irq called for an id that
	// already has a handler installed.
	FaultDoubleRegisterIRQ
	// FaultUnregisterMismatch: unregister_irq's stored handler/arg did
	// not match the caller's.
	FaultUnregisterMismatch
	// FaultDoubleJoin: Join called twice on the same thread, or on a
	// detached thread.
	FaultDoubleJoin
	// FaultSchedulerInvariant: a debug assertion inside the scheduler
	// observed a broken invariant (e.g. a Running thread found in a
	// wait list).
	FaultSchedulerInvariant
	// FaultKernelPausedViolation: a blocking call was attempted while
	// the kernel was paused (PauseKernel scope held).
	FaultKernelPausedViolation
	// FaultUnexpectedIRQ: a hardware interrupt fired for an id with no
	// registered handler and no default handler installed.
	FaultUnexpectedIRQ
	// FaultStackExhausted: the architecture port reported insufficient
	// stack for a thread, but the build was configured to fault rather
	// than return ErrNoThreads (see Config.FatalOnSpawnFailure).
	FaultStackExhausted
)

// String names the fault the way the log line and Panic message render
// it.
func (k FaultKind) String() string {
	switch k {
	case FaultUnlockNotOwner:
		return "unlock-not-owner"
	case FaultDoubleRegisterIRQ:
		return "double-register-irq"
	case FaultUnregisterMismatch:
		return "unregister-mismatch"
	case FaultDoubleJoin:
		return "double-join"
	case FaultSchedulerInvariant:
		return "scheduler-invariant"
	case FaultKernelPausedViolation:
		return "kernel-paused-violation"
	case FaultUnexpectedIRQ:
		return "unexpected-irq"
	case FaultStackExhausted:
		return "stack-exhausted"
	default:
		return "unknown-fault"
	}
}
