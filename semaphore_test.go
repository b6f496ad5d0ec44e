package kernel

import (
	"testing"
	"time"
)

// TestSemaphoreTimedWaitPastDeadlineReturnsWithoutParking exercises the
// zero-count, already-elapsed-deadline boundary: it must return
// ErrTimeout straight away, never joining the wait list, so a Post
// arriving a moment later must not be consumed by it.
func TestSemaphoreTimedWaitPastDeadlineReturnsWithoutParking(t *testing.T) {
	k := testBoot(t)
	sem := k.NewSemaphore(0)

	ref, _ := k.Spawn(1, func() any {
		return sem.TimedWait(-1 * time.Millisecond)
	})
	got := joinWithTimeout(t, k, ref, 2*time.Second, "timedwait-past-deadline")
	if got != ErrTimeout {
		t.Fatalf("TimedWait with an already-elapsed deadline = %v, want ErrTimeout", got)
	}

	// the timed-out waiter must never have been pushed onto the wait
	// list, so count should still reflect a clean, unclaimed semaphore.
	sem.Post()
	if got := sem.Count(); got != 1 {
		t.Fatalf("Count() = %d, want 1 (the Post above should not have been consumed by the expired waiter)", got)
	}
}
