package kernel

import (
	"container/heap"
	"time"
)

// Yield voluntarily relinquishes the calling thread's run token,
// placing it at the back of its priority level's ready queue. A no-op
// (returns immediately without parking) if called from outside a
// kernel thread body.
func Yield() {
	t := currentThread()
	if t == nil {
		return
	}
	k := t.k
	coreID := int(currentCoreID())
	k.gil.lock(coreID)
	t.preemptPending.Store(false)
	k.sched.enqueueReady(t)
	k.gil.unlock(coreID)

	t.parkedCh <- struct{}{}
	<-t.resumeCh
}

// CheckPreempt yields if the scheduler has requested this thread give
// up its core (tick-slice expiry), unless the thread is inside a
// PauseKernel scope. Blocking kernel calls (mutex lock, sem wait,
// sleep) do not call it; they give up the core when they park.
// Long-running computational threads should call it periodically at
// safe points, the cooperative counterpart to the tick-slice timer in
// corePump.
func CheckPreempt() {
	t := currentThread()
	if t == nil {
		return
	}
	if t.preemptPending.Load() && t.kernelPausedDepth == 0 {
		Yield()
	}
}

// Sleep parks the calling thread on the sleep queue until d has
// elapsed (§4.6 "timed sleep"). Called outside a thread body, it falls
// back to time.Sleep(d).
func Sleep(d time.Duration) {
	t := currentThread()
	if t == nil {
		time.Sleep(d)
		return
	}
	guardNotPaused(t)
	k := t.k
	coreID := int(currentCoreID())
	deadline := k.clock.Deadline(d)

	k.gil.lock(coreID)
	t.state.store(StateSleeping)
	t.sleepDeadline = deadline
	heap.Push(&k.sched.sleepQ, t)
	k.gil.unlock(coreID)

	t.parkedCh <- struct{}{}
	<-t.resumeCh
}

// sleepReaper is a dedicated goroutine started at Boot that pops
// expired entries off the sleep queue and moves them back to their
// ready queue. A real architecture port would drive this off a single
// hardware timer interrupt reprogrammed to the next deadline; the
// generic port polls on a short interval instead, since there is no
// interrupt to reprogram.
func (k *Kernel) sleepReaper() {
	const pollInterval = 200 * time.Microsecond
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-k.stopCh:
			return
		case <-ticker.C:
		}
		k.gil.lock(0)
		now := k.clock.Now()
		var woken []*Thread
		for k.sched.sleepQ.Len() > 0 && k.sched.sleepQ[0].sleepDeadline <= now {
			t := heap.Pop(&k.sched.sleepQ).(*Thread)
			switch {
			case t.state.load() == StateSleeping:
				k.sched.enqueueReady(t)
				woken = append(woken, t)
			case t.timeoutWaitList != nil:
				t.timeoutWaitList.removeThread(t)
				t.timeoutWaitList = nil
				t.timedOut = true
				k.sched.enqueueReady(t)
				woken = append(woken, t)
			}
		}
		k.gil.unlock(0)
		if len(woken) > 0 {
			k.sched.wakeIdleCore()
		}
	}
}

// cancelSleep pulls t out of the sleep queue early, used by
// timed_wait/timed_lock paths whose blocking condition was satisfied
// before the deadline. Callers hold the GIL.
func cancelSleep(s *Scheduler, t *Thread) {
	if t.heapIndex >= 0 && t.heapIndex < s.sleepQ.Len() && s.sleepQ[t.heapIndex] == t {
		heap.Remove(&s.sleepQ, t.heapIndex)
	}
}

// EnterDeepSleepForbidden increments the refcount that prevents idle
// cores from invoking IdleHook (§4.6), for code sections that need the
// core to remain fully clocked (e.g. a driver mid-DMA transfer).
func (k *Kernel) EnterDeepSleepForbidden() {
	k.sched.idleForbidCount.Add(1)
}

// ExitDeepSleepForbidden decrements the refcount incremented by
// EnterDeepSleepForbidden.
func (k *Kernel) ExitDeepSleepForbidden() {
	k.sched.idleForbidCount.Add(-1)
}
