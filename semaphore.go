package kernel

import (
	"container/heap"
	"time"
)

// Semaphore is the counting semaphore from §4.8: Post/Wait implemented
// so a signal delivered before a matching wait is never lost, the
// "lost wakeup" failure mode a naive condvar-based semaphore is
// vulnerable to. count is only ever touched with the GIL held.
type Semaphore struct {
	k       *Kernel
	count   int
	waiters waitList
}

// NewSemaphore creates a Semaphore with the given initial count.
func (k *Kernel) NewSemaphore(initial int) *Semaphore {
	return &Semaphore{k: k, count: initial}
}

// Post wakes the highest-priority blocked waiter if there is one,
// leaving the count unchanged; otherwise it increments the count.
// Safe to call from IRQ-registered handlers,
// since it only ever needs the GIL, never a goroutine-parking wait.
func (s *Semaphore) Post() {
	coreID := int(currentCoreID())
	k := s.k
	k.gil.lock(coreID)
	if w := s.waiters.popFront(); w != nil {
		if w.timeoutWaitList != nil {
			cancelSleep(k.sched, w)
			w.timeoutWaitList = nil
		}
		k.sched.enqueueReady(w)
		k.gil.unlock(coreID)
		k.sched.wakeIdleCore()
		return
	}
	s.count++
	k.gil.unlock(coreID)
}

// Wait blocks until the count is positive, then decrements it. Called
// from outside a kernel thread while the count is zero, it has no
// Thread to park and returns at once without decrementing.
func (s *Semaphore) Wait() {
	s.waitImpl(nil)
}

// TryWait decrements the count and returns true if it was positive,
// or returns false immediately without blocking.
func (s *Semaphore) TryWait() bool {
	coreID := int(currentCoreID())
	k := s.k
	k.gil.lock(coreID)
	defer k.gil.unlock(coreID)
	if s.count > 0 {
		s.count--
		return true
	}
	return false
}

// TimedWait blocks until the count is positive or d elapses, returning
// ErrTimeout in the latter case.
func (s *Semaphore) TimedWait(d time.Duration) error {
	deadline := s.k.clock.Deadline(d)
	return s.waitImpl(&deadline)
}

func (s *Semaphore) waitImpl(deadline *time.Duration) error {
	self := currentThread()
	guardNotPaused(self)
	coreID := int(currentCoreID())
	k := s.k

	k.gil.lock(coreID)
	if s.count > 0 {
		s.count--
		k.gil.unlock(coreID)
		return nil
	}
	if self == nil {
		k.gil.unlock(coreID)
		return ErrTimeout
	}
	if deadline != nil && *deadline <= k.clock.Now() {
		k.gil.unlock(coreID)
		return ErrTimeout
	}

	s.waiters.pushBack(self)
	self.state.store(StateWaiting)
	self.timedOut = false
	if deadline != nil {
		self.sleepDeadline = *deadline
		self.timeoutWaitList = &s.waiters
		heap.Push(&k.sched.sleepQ, self)
	}
	k.gil.unlock(coreID)

	self.parkedCh <- struct{}{}
	<-self.resumeCh

	k.gil.lock(coreID)
	timedOut := self.timedOut
	if deadline != nil {
		cancelSleep(k.sched, self)
		self.timeoutWaitList = nil
	}
	k.gil.unlock(coreID)

	if timedOut {
		return ErrTimeout
	}
	return nil
}

// Count returns the current count, read under the GIL. It is a
// diagnostic read: a concurrent Post/Wait may change the count as soon
// as it returns (matches how a real kernel would expose sem_getvalue).
func (s *Semaphore) Count() int {
	coreID := int(currentCoreID())
	s.k.gil.lock(coreID)
	defer s.k.gil.unlock(coreID)
	return s.count
}
