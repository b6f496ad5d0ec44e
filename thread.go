package kernel

import (
	"sync"
	"sync/atomic"
	"time"
)

// ThreadID uniquely identifies a thread for the lifetime of the kernel.
type ThreadID uint64

// ThreadRef is the handle Spawn returns. The zero value is invalid,
// matching §7's resource-exhaustion policy: Spawn returns an invalid
// ThreadRef rather than panicking when it cannot allocate a thread.
type ThreadRef struct {
	id    ThreadID
	valid bool
}

// Valid reports whether r refers to a real thread.
func (r ThreadRef) Valid() bool { return r.valid }

// ID returns the numeric thread id, or 0 for an invalid ref.
func (r ThreadRef) ID() ThreadID { return r.id }

// Thread is one schedulable unit of execution: a goroutine standing in
// for hardware-saved register/stack context, paired with a resume
// token the scheduler uses to grant it the right to run (see doc.go's
// Architecture section).
type Thread struct {
	id   ThreadID
	name string
	k    *Kernel

	basePriority      int32
	inheritedPriority atomic.Int32 // -1 when no boost is active

	state *fastState

	resumeCh chan struct{} // scheduler -> thread: run token
	parkedCh chan struct{} // thread -> scheduler: yielded/blocked/exited

	core int32 // core currently (or most recently) running this thread

	fn func() any

	exitValue any
	done      chan struct{}
	joiners   int
	detached  bool
	joined    bool

	cpuTimeTotal   atomic.Int64 // nanoseconds
	recentRuns     *ring[int64]
	stackHighWater atomic.Uint64

	waitNext *Thread // intrusive link for waitList

	sleepDeadline time.Duration
	heapIndex     int
	readyStamp    time.Duration // clock.Now() value when last enqueued, for latency metrics

	preemptPending atomic.Bool

	// timeoutWaitList is set by a timed_* blocking call to the waitList
	// it pushed itself onto, so sleepReaper can pull it back out if the
	// deadline wins the race against a normal wakeup. Cleared whenever
	// the thread is removed from that list by any path.
	timeoutWaitList *waitList

	// timedOut is set by sleepReaper, and only by sleepReaper, right
	// before it requeues a thread whose deadline fired first. A normal
	// Post/Signal/Unlock wakeup never touches it. Semaphore and CondVar
	// read it right after resuming to tell the two cases apart — both
	// paths clear timeoutWaitList before waking the thread, so that
	// field itself can't be used for the distinction post-wake.
	timedOut bool

	// kernelPausedDepth tracks nested PauseKernel scopes held by this
	// thread; a blocking call attempted while it is nonzero is a
	// programming fault (§4.9).
	kernelPausedDepth int

	mu sync.Mutex // guards exitValue/joined bookkeeping read outside the GIL by Join
}

var threadLocal sync.Map // goroutine key -> *Thread

// currentThread resolves the Thread object for the calling goroutine,
// or nil if called from a core-pump goroutine or outside any kernel
// thread body.
func currentThread() *Thread {
	if v, ok := threadLocal.Load(currentGoroutineKey()); ok {
		return v.(*Thread)
	}
	return nil
}

// currentThreadID is a convenience used by logging and Panic.
func currentThreadID() uint64 {
	if t := currentThread(); t != nil {
		return uint64(t.id)
	}
	return 0
}

// effectivePriority returns the higher of the thread's base priority
// and any priority it has inherited through mutex ownership (§4.8
// "priority inheritance").
func (t *Thread) effectivePriority() int32 {
	inherited := t.inheritedPriority.Load()
	if inherited > t.basePriority {
		return inherited
	}
	return t.basePriority
}

// boostTo raises the thread's inherited priority if p exceeds the
// current boost; called when a higher-priority thread blocks on a
// mutex this thread owns.
func (t *Thread) boostTo(p int32) {
	for {
		cur := t.inheritedPriority.Load()
		if p <= cur {
			return
		}
		if t.inheritedPriority.CompareAndSwap(cur, p) {
			return
		}
	}
}

// clearBoost removes any inherited priority, called when a thread
// releases the last mutex that was boosting it.
func (t *Thread) clearBoost() {
	t.inheritedPriority.Store(-1)
}

// Name returns the thread's diagnostic name, defaulting to
// "thread-<id>" when none was supplied to Spawn (SPEC_FULL.md
// Supplemented Feature #3).
func (t *Thread) Name() string { return t.name }

// StackHighWater reports the thread's stack high-water counter, a
// diagnostic-only value since Go goroutine stacks grow and shrink
// automatically and cannot actually overflow the way a fixed hardware
// stack can (SPEC_FULL.md Supplemented Feature #2). Nothing in this
// package updates the counter, so on the generic port it reads 0.
func (t *Thread) StackHighWater() uint64 { return t.stackHighWater.Load() }

// CPUTime returns the accumulated CPU time this thread has consumed.
// Always zero when Config.CPUTimeAccounting is disabled.
func (t *Thread) CPUTime() time.Duration {
	return time.Duration(t.cpuTimeTotal.Load())
}

// State returns the thread's current scheduling state.
func (t *Thread) State() ThreadState { return t.state.load() }

// SpawnOption configures an individual Spawn call.
type SpawnOption func(*Thread)

// WithThreadName sets the diagnostic name for the new thread.
func WithThreadName(name string) SpawnOption {
	return func(t *Thread) { t.name = name }
}

// Spawn creates a new thread at the given priority running fn, and
// returns once the thread has been placed on the ready queue (it may
// not have run yet). Returns an invalid ThreadRef and ErrShutdown once
// Shutdown has been called. It has no resource-exhaustion check: it
// never returns ErrNoThreads and never consults
// Config.FatalOnSpawnFailure.
func (k *Kernel) Spawn(priority int32, fn func() any, opts ...SpawnOption) (ThreadRef, error) {
	if k.sched.shutdown.Load() {
		return ThreadRef{}, ErrShutdown
	}

	id := ThreadID(k.sched.nextThreadID.Add(1))
	t := &Thread{
		id:           id,
		k:            k,
		basePriority: priority,
		state:        newFastState(StateReady),
		resumeCh:     make(chan struct{}, 1),
		parkedCh:     make(chan struct{}, 1),
		fn:           fn,
		done:         make(chan struct{}),
		core:         -1,
		recentRuns:   newRing[int64](32),
	}
	t.inheritedPriority.Store(-1)
	t.name = "thread-" + itoa(uint64(id))
	for _, opt := range opts {
		opt(t)
	}

	k.gil.lock(0)
	k.sched.threads[id] = t
	k.sched.enqueueReady(t)
	k.gil.unlock(0)

	go t.runLoop(k)

	k.sched.wakeIdleCore()
	return ThreadRef{id: id, valid: true}, nil
}

// runLoop is the body every Spawned goroutine executes: wait for the
// first resume token, run the user function, then hand the exit value
// to any joiners.
func (t *Thread) runLoop(k *Kernel) {
	threadLocal.Store(currentGoroutineKey(), t)
	<-t.resumeCh

	var result any
	func() {
		defer func() {
			if r := recover(); r != nil {
				k.logf(LevelError, "thread", uint64(t.id), "thread body panicked", map[string]any{"recover": r})
				result = r
			}
		}()
		result = t.fn()
	}()

	k.sched.exitThread(t, result)
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// Join blocks the caller until t exits, returning its exit value.
// Joining the same thread twice, or joining a detached thread, is a
// programming fault per §7 ("a second join is a programming fault")
// and routes through Panic(FaultDoubleJoin, ...).
func (k *Kernel) Join(ref ThreadRef) any {
	v, err := k.TryJoin(ref)
	if err != nil {
		Panic(FaultDoubleJoin, "Join: "+err.Error())
		return nil
	}
	return v
}

// TryJoin is Join's non-fatal form, returning ErrAlreadyJoined instead
// of faulting when ref was already joined, detached, or is unknown.
func (k *Kernel) TryJoin(ref ThreadRef) (any, error) {
	if !ref.valid {
		return nil, ErrAlreadyJoined
	}
	coreID := coreOf(k)
	k.gil.lock(coreID)
	t, ok := k.sched.threads[ref.id]
	if !ok {
		k.gil.unlock(coreID)
		return nil, ErrAlreadyJoined
	}
	if t.detached || t.joined {
		k.gil.unlock(coreID)
		return nil, ErrAlreadyJoined
	}
	t.joined = true
	k.gil.unlock(coreID)

	<-t.done

	// the thread has exited and no other joiner can exist (joined was
	// claimed exclusively above), so the table slot is now reclaimable.
	k.gil.lock(coreID)
	delete(k.sched.threads, ref.id)
	k.gil.unlock(coreID)

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exitValue, nil
}

// Detach marks t so that no one may Join it; its resources are
// reclaimed as soon as it exits instead of waiting for a joiner, or
// immediately if it has already exited by the time Detach is called.
func (k *Kernel) Detach(ref ThreadRef) error {
	if !ref.valid {
		return ErrAlreadyJoined
	}
	coreID := coreOf(k)
	k.gil.lock(coreID)
	defer k.gil.unlock(coreID)
	t, ok := k.sched.threads[ref.id]
	if !ok || t.joined || t.detached {
		return ErrAlreadyJoined
	}
	t.detached = true
	if t.state.load() == StateDeleted {
		delete(k.sched.threads, ref.id)
	}
	return nil
}

// GetCurrent returns a ThreadRef for the calling thread, or an invalid
// ref if called outside any kernel thread body.
func GetCurrent() ThreadRef {
	t := currentThread()
	if t == nil {
		return ThreadRef{}
	}
	return ThreadRef{id: t.id, valid: true}
}

// GetCurrentCoreID reports the core id the calling goroutine is
// running on, per §6's architecture port contract.
func GetCurrentCoreID() uint8 { return currentCoreID() }

// SetPriority changes t's base priority. A thread already on a ready
// queue stays in its old priority level's queue until its next
// enqueue; the new level applies from then on. A thread with an
// inherited boost keeps running at the higher of the two.
func (k *Kernel) SetPriority(ref ThreadRef, p int32) error {
	if !ref.valid {
		return ErrAlreadyJoined
	}
	coreID := int(currentCoreID())
	k.gil.lock(coreID)
	defer k.gil.unlock(coreID)

	t, ok := k.sched.threads[ref.id]
	if !ok {
		return ErrAlreadyJoined
	}
	t.basePriority = p
	if t.state.load() == StateReady {
		// already enqueued at the old priority level; a real kernel
		// would relocate the FIFO node, this module simply lets the
		// thread ride out its current level and re-levels on its next
		// enqueueReady (documented simplification, see DESIGN.md).
		return nil
	}
	return nil
}

// coreOf resolves the calling goroutine's core id (0 if called from
// outside a core pump, e.g. a one-shot setup call before Boot starts
// pumps, or from ordinary application code on a single-core build).
func coreOf(k *Kernel) int {
	return int(currentCoreID())
}
