package kernel

import (
	"container/heap"
	"time"
)

// Mutex is the priority-inheritance mutex from §4.8. Recursive mutexes
// allow their owner to relock them (incrementing a hold count); fast
// (non-recursive) mutexes deadlock the owner on a second lock attempt,
// matching the documented behavior of a real kernel's fast mutex
// rather than faulting, since the kernel cannot distinguish "the owner
// relocked on purpose" from "the owner forgot it already holds this".
type Mutex struct {
	k         *Kernel
	recursive bool
	owner     *Thread
	lockCount int
	waiters   waitList
}

// NewMutex creates a Mutex. recursive selects recursive-relock
// semantics; false gives the fast-mutex deadlock-on-relock behavior.
func (k *Kernel) NewMutex(recursive bool) *Mutex {
	return &Mutex{k: k, recursive: recursive}
}

// Lock blocks until the calling thread owns m, boosting the current
// owner's effective priority to the caller's if that unblocks it
// sooner (priority inheritance).
func (m *Mutex) Lock() {
	m.lockImpl(nil)
}

// TimedLock blocks until the calling thread owns m or d elapses,
// returning ErrTimeout in the latter case.
func (m *Mutex) TimedLock(d time.Duration) error {
	deadline := m.k.clock.Deadline(d)
	return m.lockImpl(&deadline)
}

func (m *Mutex) lockImpl(deadline *time.Duration) error {
	self := currentThread()
	if self == nil {
		// Every real caller runs inside a Spawned thread body; a bare
		// goroutine with no Thread identity has no priority to inherit
		// from and no resume token to park on, so it cannot safely
		// contend for a Mutex.
		Panic(FaultSchedulerInvariant, "Mutex.Lock called outside any kernel thread")
	}
	guardNotPaused(self)
	coreID := int(currentCoreID())
	k := m.k

	k.gil.lock(coreID)
	if m.owner == nil {
		m.owner = self
		m.lockCount = 1
		k.gil.unlock(coreID)
		return nil
	}
	if m.owner == self {
		if m.recursive {
			m.lockCount++
			k.gil.unlock(coreID)
			return nil
		}
		// fast mutex relocked by its own owner: falls through to the
		// contended path below, which deadlocks self exactly as a real
		// fast mutex would.
	}

	if self != nil && self.effectivePriority() > m.owner.effectivePriority() {
		m.owner.boostTo(self.effectivePriority())
	}
	m.waiters.pushBack(self)
	if self != nil {
		self.state.store(StateWaiting)
	}

	var timedOut bool
	if deadline != nil && self != nil {
		self.sleepDeadline = *deadline
		self.timeoutWaitList = &m.waiters
		heap.Push(&k.sched.sleepQ, self)
	}
	k.gil.unlock(coreID)

	if self == nil {
		return nil
	}
	self.parkedCh <- struct{}{}
	<-self.resumeCh

	k.gil.lock(coreID)
	if deadline != nil {
		cancelSleep(k.sched, self)
		self.timeoutWaitList = nil
	}
	timedOut = m.owner != self
	k.gil.unlock(coreID)

	if timedOut {
		return ErrTimeout
	}
	return nil
}

// TryLock attempts to acquire m without blocking, returning false if it
// is already held by another thread.
func (m *Mutex) TryLock() bool {
	self := currentThread()
	if self == nil {
		Panic(FaultSchedulerInvariant, "Mutex.TryLock called outside any kernel thread")
	}
	coreID := int(currentCoreID())
	k := m.k

	k.gil.lock(coreID)
	defer k.gil.unlock(coreID)

	if m.owner == nil {
		m.owner = self
		m.lockCount = 1
		return true
	}
	if m.owner == self && m.recursive {
		m.lockCount++
		return true
	}
	return false
}

// Unlock releases m. Calling Unlock from a thread that does not own m
// is a programming fault (§7) and routes through Panic.
func (m *Mutex) Unlock() {
	self := currentThread()
	coreID := int(currentCoreID())
	k := m.k

	k.gil.lock(coreID)
	if m.owner != self {
		k.gil.unlock(coreID)
		Panic(FaultUnlockNotOwner, "Mutex.Unlock called by non-owner")
		return
	}
	if m.recursive && m.lockCount > 1 {
		m.lockCount--
		k.gil.unlock(coreID)
		return
	}

	if self != nil {
		self.clearBoost()
	}

	next := m.waiters.popFront()
	if next == nil {
		m.owner = nil
		m.lockCount = 0
	} else {
		if next.timeoutWaitList != nil {
			cancelSleep(k.sched, next)
			next.timeoutWaitList = nil
		}
		m.owner = next
		m.lockCount = 1
		k.sched.enqueueReady(next)
		k.sched.wakeIdleCore()
	}
	k.gil.unlock(coreID)
}
