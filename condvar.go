package kernel

import (
	"container/heap"
	"sync/atomic"
	"time"
)

// CondVar is a Mesa-style condition variable (§4.8): Signal/Broadcast
// only ever requeue waiters as ready, they never guarantee the
// predicate still holds by the time a waiter actually runs again, so
// every Wait caller is expected to re-check its predicate in a loop,
// exactly as nsync's condition variables document.
type CondVar struct {
	k        *Kernel
	waiters  waitList
	spurious atomic.Uint64
}

// NewCondVar creates a CondVar.
func (k *Kernel) NewCondVar() *CondVar {
	return &CondVar{k: k}
}

// Wait atomically releases m and blocks the calling thread, then
// reacquires m before returning. The caller must hold m on entry.
func (c *CondVar) Wait(m *Mutex) {
	c.waitImpl(m, nil)
}

// TimedWait is Wait with a deadline; returns ErrTimeout if d elapses
// before a Signal/Broadcast reaches this waiter. m is reacquired
// before returning in both cases.
func (c *CondVar) TimedWait(m *Mutex, d time.Duration) error {
	deadline := c.k.clock.Deadline(d)
	return c.waitImpl(m, &deadline)
}

func (c *CondVar) waitImpl(m *Mutex, deadline *time.Duration) error {
	self := currentThread()
	guardNotPaused(self)
	coreID := int(currentCoreID())
	k := c.k

	k.gil.lock(coreID)
	c.waiters.pushBack(self)
	if self != nil {
		self.state.store(StateWaitCondVar)
		self.timedOut = false
		if deadline != nil {
			self.sleepDeadline = *deadline
			self.timeoutWaitList = &c.waiters
			heap.Push(&k.sched.sleepQ, self)
		}
	}
	k.gil.unlock(coreID)

	m.Unlock()

	var timedOut bool
	if self != nil {
		self.parkedCh <- struct{}{}
		<-self.resumeCh

		k.gil.lock(coreID)
		timedOut = self.timedOut
		if deadline != nil {
			cancelSleep(k.sched, self)
			self.timeoutWaitList = nil
		}
		k.gil.unlock(coreID)
	}

	m.Lock()
	if timedOut {
		return ErrTimeout
	}
	return nil
}

// Signal wakes the highest-priority waiter, if any.
func (c *CondVar) Signal() {
	coreID := int(currentCoreID())
	k := c.k
	k.gil.lock(coreID)
	w := c.waiters.popFront()
	if w != nil && w.timeoutWaitList != nil {
		cancelSleep(k.sched, w)
		w.timeoutWaitList = nil
	}
	if w != nil {
		k.sched.enqueueReady(w)
	}
	k.gil.unlock(coreID)
	if w != nil {
		k.sched.wakeIdleCore()
	}
}

// Broadcast wakes every waiter currently blocked on c.
func (c *CondVar) Broadcast() {
	coreID := int(currentCoreID())
	k := c.k
	k.gil.lock(coreID)
	var woke bool
	for {
		w := c.waiters.popFront()
		if w == nil {
			break
		}
		if w.timeoutWaitList != nil {
			cancelSleep(k.sched, w)
			w.timeoutWaitList = nil
		}
		k.sched.enqueueReady(w)
		woke = true
	}
	k.gil.unlock(coreID)
	if woke {
		k.sched.wakeIdleCore()
	}
}

// SpuriousWakeups reports how many times a waiter on this CondVar
// resumed without a matching Signal/Broadcast. Always zero on the
// generic port: nothing here can interrupt a parked goroutine other
// than Signal/Broadcast/timeout. Reserved for architecture ports where
// an IRQ can legitimately re-enter the scheduler and requeue a waiter
// early.
func (c *CondVar) SpuriousWakeups() uint64 {
	return c.spurious.Load()
}
