package kernel

import (
	"testing"
	"time"
)

func TestCondVarSignalWakesOneWaiter(t *testing.T) {
	k := testBoot(t, WithNumCores(2))
	m := k.NewMutex(false)
	cv := k.NewCondVar()

	ready := false
	waiting := make(chan struct{})
	woke := make(chan struct{}, 1)

	ref, _ := k.Spawn(1, func() any {
		m.Lock()
		close(waiting)
		for !ready {
			cv.Wait(m)
		}
		m.Unlock()
		woke <- struct{}{}
		return nil
	})

	<-waiting

	// Mutex.Lock faults outside a kernel thread, so the predicate is
	// set from a spawned thread rather than the test goroutine.
	setter, _ := k.Spawn(1, func() any {
		m.Lock()
		ready = true
		m.Unlock()
		cv.Signal()
		return nil
	})
	joinWithTimeout(t, k, setter, 2*time.Second, "setter")

	select {
	case <-woke:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never observed the predicate after Signal")
	}
	joinWithTimeout(t, k, ref, 2*time.Second, "waiter")
}

func TestCondVarBroadcastWakesAllWaiters(t *testing.T) {
	k := testBoot(t, WithNumCores(4))
	m := k.NewMutex(false)
	cv := k.NewCondVar()

	const n = 3
	ready := false
	waitingCount := 0
	allWaiting := make(chan struct{})
	done := make(chan struct{}, n)

	refs := make([]ThreadRef, n)
	for i := 0; i < n; i++ {
		refs[i], _ = k.Spawn(1, func() any {
			m.Lock()
			waitingCount++
			if waitingCount == n {
				close(allWaiting)
			}
			for !ready {
				cv.Wait(m)
			}
			m.Unlock()
			done <- struct{}{}
			return nil
		})
	}

	<-allWaiting
	setter, _ := k.Spawn(1, func() any {
		m.Lock()
		ready = true
		m.Unlock()
		cv.Broadcast()
		return nil
	})
	joinWithTimeout(t, k, setter, 2*time.Second, "setter")

	for i := 0; i < n; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d/%d waiters woke after Broadcast", i, n)
		}
	}
	for _, ref := range refs {
		joinWithTimeout(t, k, ref, 2*time.Second, "broadcast-waiter")
	}
}

func TestCondVarTimedWaitTimesOut(t *testing.T) {
	k := testBoot(t)
	m := k.NewMutex(false)
	cv := k.NewCondVar()

	ref, _ := k.Spawn(1, func() any {
		m.Lock()
		err := cv.TimedWait(m, 20*time.Millisecond)
		m.Unlock()
		return err
	})

	got := joinWithTimeout(t, k, ref, 2*time.Second, "timedwait")
	if got != ErrTimeout {
		t.Fatalf("TimedWait = %v, want ErrTimeout", got)
	}
}

func TestCondVarSpuriousWakeupsAlwaysZero(t *testing.T) {
	k := testBoot(t)
	cv := k.NewCondVar()
	if got := cv.SpuriousWakeups(); got != 0 {
		t.Fatalf("SpuriousWakeups() = %d, want 0", got)
	}
}
