package kernel

import (
	"sync"
	"sync/atomic"
)

// gil is the global interrupt lock: the sole discipline every kernel
// data structure (ready queues, sleep queue, wait lists, thread state)
// is protected by, per §4.3. It is a single real critical section across
// the whole kernel, not one per core: coreID only identifies *which*
// core-pump slot a caller is acting on behalf of for logging and
// maskInterrupts' benefit, it is never a substitute for knowing which
// goroutine is actually running. Reentrancy is keyed on the calling
// goroutine's own identity, since many unrelated goroutines (every
// thread body defaults to coreID 0 unless it is itself a registered
// core pump) would otherwise collide on the same coreID and wrongly
// treat each other as the same nested holder.
//
// Every section this lock guards is a handful of map/heap mutations
// with no blocking call inside it (the actual park happens after
// release, on a thread's own resumeCh/parkedCh pair), which is exactly
// the workload a SpinLock is for, so that's what backs it rather than a
// blocking sync.Mutex.
type gil struct {
	mu    SpinLock
	owner atomic.Uint64 // goroutine key of the current holder, 0 if unheld
	depth int32         // reentrancy depth, touched only by the holder
}

func newGIL(numCores int) *gil {
	return &gil{}
}

// lock acquires the GIL, masking "interrupts" (i.e. preventing any
// other goroutine from touching shared scheduler state) for the
// duration. Reentrant: a goroutine that already holds it just bumps its
// depth counter, mirroring irq_lock's documented nesting behavior.
// coreID is unused by the locking decision itself; it exists so callers
// don't need a separate no-arg form.
func (g *gil) lock(coreID int) {
	key := currentGoroutineKey()
	if key != 0 && g.owner.Load() == key {
		g.depth++
		return
	}
	g.mu.Lock()
	g.owner.Store(key)
	g.depth = 1
}

// unlock releases one level of nesting; the GIL is only truly released
// once depth returns to zero, matching irq_unlock's nesting contract.
func (g *gil) unlock(coreID int) {
	g.depth--
	if g.depth > 0 {
		return
	}
	g.owner.Store(0)
	g.mu.Unlock()
}

// held reports whether the GIL is currently held by anyone. coreID is
// accepted for symmetry with lock/unlock but no longer distinguishes
// holders, since the lock is single and goroutine-keyed rather than
// per-core.
func (g *gil) held(coreID int) bool {
	return g.owner.Load() != 0
}

// maskInterrupts is Panic's last step before handing off to RebootFunc:
// grab the GIL on every core's behalf so no other core-pump goroutine
// can observe a partially-faulted kernel before reboot. It deliberately
// never unlocks; the process is terminating.
func (k *Kernel) maskInterrupts() {
	for c := 0; c < k.cfg.NumCores; c++ {
		k.gil.lock(c)
	}
}

// currentCoreID resolves the calling core-pump's id via coreIDKey, the
// same goroutine-local pattern loop.go's getGoroutineID uses (parse
// runtime.Stack) generalized to a small per-goroutine registry instead,
// since core-pump goroutines are long-lived and few, so paying for a
// map lookup is cheaper and less fragile than stack-trace parsing.
func currentCoreID() uint8 {
	if v, ok := coreIDLocal.Load(currentGoroutineKey()); ok {
		return v.(uint8)
	}
	return 0
}

var coreIDLocal sync.Map // goroutineKey -> uint8
