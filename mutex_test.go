package kernel

import (
	"testing"
	"time"
)

// TestPriorityInheritanceBoostsMutexOwner mirrors scenario S3: a
// low-priority holder L is boosted to the priority of a higher-priority
// thread M blocked on the mutex L owns, and the boost is cleared again
// once L releases it to M. Inspects Thread.inheritedPriority directly
// (this file lives in package kernel) since there is no portable signal
// for "M has finished parking on the waiter list".
func TestPriorityInheritanceBoostsMutexOwner(t *testing.T) {
	k := testBoot(t, WithNumCores(2))

	m := k.NewMutex(false)
	gate := k.NewSemaphore(0)
	gotLock := make(chan struct{})
	order := make(chan string, 2)

	lRef, _ := k.Spawn(1, func() any {
		m.Lock()
		close(gotLock)
		gate.Wait()
		order <- "L"
		m.Unlock()
		return nil
	})
	<-gotLock

	lThread := k.sched.threads[lRef.ID()]
	if boosted := lThread.inheritedPriority.Load(); boosted != -1 {
		t.Fatalf("L already boosted to %d before any contention", boosted)
	}

	mRef, _ := k.Spawn(3, func() any {
		m.Lock()
		order <- "M"
		m.Unlock()
		return nil
	})

	deadline := time.Now().Add(2 * time.Second)
	for lThread.inheritedPriority.Load() != 3 {
		if time.Now().After(deadline) {
			t.Fatal("L was never boosted to M's priority")
		}
		time.Sleep(time.Millisecond)
	}

	gate.Post()

	joinWithTimeout(t, k, lRef, 2*time.Second, "L")
	joinWithTimeout(t, k, mRef, 2*time.Second, "M")
	close(order)

	var seq []string
	for s := range order {
		seq = append(seq, s)
	}
	if len(seq) != 2 || seq[0] != "L" || seq[1] != "M" {
		t.Fatalf("execution order = %v, want [L M]", seq)
	}
	if got := lThread.inheritedPriority.Load(); got != -1 {
		t.Fatalf("L's boost was not cleared after Unlock, got %d", got)
	}
}

func TestRecursiveMutexReentry(t *testing.T) {
	k := testBoot(t)
	m := k.NewMutex(true)

	ref, _ := k.Spawn(1, func() any {
		m.Lock()
		m.Lock()
		m.Lock()
		m.Unlock()
		m.Unlock()
		if !m.TryLock() {
			return "tryLock-failed"
		}
		m.Unlock()
		m.Unlock()
		return "ok"
	})

	got := joinWithTimeout(t, k, ref, 2*time.Second, "recursive")
	if got != "ok" {
		t.Fatalf("got %v, want ok", got)
	}
}

// TestMutexTryLockFailsWhenHeld needs a second core: the holder thread
// parks on a plain Go channel receive rather than any kernel blocking
// call, so on a single core pump it would simply monopolize the only
// core and the contender's body would never run.
func TestMutexTryLockFailsWhenHeld(t *testing.T) {
	k := testBoot(t, WithNumCores(2))
	m := k.NewMutex(false)

	holderLocked := make(chan struct{})
	release := make(chan struct{})

	holderRef, _ := k.Spawn(1, func() any {
		m.Lock()
		close(holderLocked)
		<-release
		m.Unlock()
		return nil
	})

	<-holderLocked

	ref, _ := k.Spawn(1, func() any {
		return m.TryLock()
	})
	got := joinWithTimeout(t, k, ref, 2*time.Second, "trylock")
	if got != false {
		t.Fatalf("TryLock on a held mutex = %v, want false", got)
	}

	close(release)
	joinWithTimeout(t, k, holderRef, 2*time.Second, "holder")
}

func TestUnlockByNonOwnerIsFatal(t *testing.T) {
	opt, faults := faultCapture()
	k := testBoot(t, opt, WithNumCores(2))
	m := k.NewMutex(false)

	// The locker exits still owning m and is joined before the fault:
	// once Panic fires it keeps the GIL held, so no thread can run to
	// completion afterwards.
	lockerRef, _ := k.Spawn(1, func() any {
		m.Lock()
		return nil
	})
	joinWithTimeout(t, k, lockerRef, 2*time.Second, "locker")

	// The spawned thread's body never returns (Unlock's Panic ends in
	// select{}), so the test observes the fault over a channel instead
	// of joining it.
	k.Spawn(1, func() any {
		m.Unlock()
		return nil
	})

	select {
	case f := <-faults:
		if f.Kind != FaultUnlockNotOwner {
			t.Fatalf("got fault kind %v, want FaultUnlockNotOwner", f.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected Panic to fire when a non-owner called Unlock")
	}
}

// TestMutexTimedLockTimesOut needs a second core for the same reason as
// TestMutexTryLockFailsWhenHeld.
func TestMutexTimedLockTimesOut(t *testing.T) {
	k := testBoot(t, WithNumCores(2))
	m := k.NewMutex(false)

	holderLocked := make(chan struct{})
	release := make(chan struct{})
	holderRef, _ := k.Spawn(1, func() any {
		m.Lock()
		close(holderLocked)
		<-release
		m.Unlock()
		return nil
	})
	<-holderLocked

	ref, _ := k.Spawn(1, func() any {
		return m.TimedLock(20 * time.Millisecond)
	})
	got := joinWithTimeout(t, k, ref, 2*time.Second, "timedlock")
	if got != ErrTimeout {
		t.Fatalf("TimedLock = %v, want ErrTimeout", got)
	}
	close(release)
	joinWithTimeout(t, k, holderRef, 2*time.Second, "holder")
}
