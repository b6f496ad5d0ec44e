package kernel

import (
	"testing"
	"time"
)

// TestLockScopeReleasesOnUnlock exercises LockScope from inside a real
// kernel thread: Mutex.Lock panics if called outside one, since it has
// no thread identity to inherit priority from or park on.
func TestLockScopeReleasesOnUnlock(t *testing.T) {
	k := testBoot(t)
	m := k.NewMutex(false)

	heldDuringScope := make(chan bool, 1)
	ref, _ := k.Spawn(1, func() any {
		g := LockScope(m)
		heldDuringScope <- (m.owner == currentThread())
		g.Unlock()
		return m.owner == nil
	})

	if held := <-heldDuringScope; !held {
		t.Fatal("mutex should be owned by the spawning thread while the guard is live")
	}
	exit := joinWithTimeout(t, k, ref, 2*time.Second, "lock-scope")
	if released, ok := exit.(bool); !ok || !released {
		t.Fatal("mutex should be free once the guard releases it")
	}
}

func TestLockInterruptsExcludesOtherCore(t *testing.T) {
	k := testBoot(t, WithNumCores(2))

	g := k.LockInterrupts()
	if !k.gil.held(g.coreID) {
		t.Fatal("LockInterrupts should hold the GIL for the calling core")
	}

	acquired := make(chan struct{})
	go func() {
		g2 := k.LockInterrupts()
		g2.Unlock()
		close(acquired)
	}()
	select {
	case <-acquired:
		t.Fatal("another goroutine acquired the GIL while LockInterrupts held it")
	case <-time.After(50 * time.Millisecond):
	}

	g.Unlock()
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("the other goroutine never acquired the GIL after Unlock")
	}
	if k.gil.held(g.coreID) {
		t.Fatal("Unlock should release the GIL")
	}
}

func TestPauseKernelNestsAndResumes(t *testing.T) {
	k := testBoot(t)

	done := make(chan int)
	ref, _ := k.Spawn(1, func() any {
		th := currentThread()
		g1 := k.PauseKernel()
		g2 := k.PauseKernel()
		done <- th.kernelPausedDepth
		g2.Resume()
		done <- th.kernelPausedDepth
		g1.Resume()
		done <- th.kernelPausedDepth
		return nil
	})

	if depth := <-done; depth != 2 {
		t.Fatalf("kernelPausedDepth after two PauseKernel calls = %d, want 2", depth)
	}
	if depth := <-done; depth != 1 {
		t.Fatalf("kernelPausedDepth after one Resume = %d, want 1", depth)
	}
	if depth := <-done; depth != 0 {
		t.Fatalf("kernelPausedDepth after both Resume calls = %d, want 0", depth)
	}
	joinWithTimeout(t, k, ref, 2*time.Second, "pause-kernel-nesting")
}

// TestBlockingCallWhilePausedIsFatal exercises the §4.9 invariant that a
// thread holding a kernel-pause scope must not attempt a genuine blocking
// call: Sleep checks guardNotPaused before it ever touches the sleep
// queue.
func TestBlockingCallWhilePausedIsFatal(t *testing.T) {
	opt, faults := faultCapture()
	k := testBoot(t, opt)

	k.Spawn(1, func() any {
		g := k.PauseKernel()
		defer g.Resume()
		Sleep(10 * time.Millisecond)
		return nil
	})

	select {
	case f := <-faults:
		if f.Kind != FaultKernelPausedViolation {
			t.Fatalf("fault kind = %v, want %v", f.Kind, FaultKernelPausedViolation)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for FaultKernelPausedViolation")
	}
}
