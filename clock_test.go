package kernel

import (
	"testing"
	"time"
)

func TestClockNowIsMonotonicNonDecreasing(t *testing.T) {
	c := newClock(nil)
	prev := c.Now()
	for i := 0; i < 1000; i++ {
		cur := c.Now()
		if cur < prev {
			t.Fatalf("Now() went backward: %v then %v", prev, cur)
		}
		prev = cur
	}
}

// TestClockAdvanceIgnoresBackwardSource exercises the read-extend-read
// guard: a source reporting a value behind what's already been
// observed must never move Now() backward.
func TestClockAdvanceIgnoresBackwardSource(t *testing.T) {
	var fake time.Duration
	c := newClock(func() time.Duration { return fake })

	fake = 100 * time.Millisecond
	first := c.Now()
	if first != fake {
		t.Fatalf("Now() = %v, want %v", first, fake)
	}

	fake = 10 * time.Millisecond // source regresses
	second := c.Now()
	if second != first {
		t.Fatalf("Now() regressed to %v after a backward source reading, want it pinned at %v", second, first)
	}

	fake = 200 * time.Millisecond
	third := c.Now()
	if third != fake {
		t.Fatalf("Now() = %v, want %v once the source moves forward again", third, fake)
	}
}

func TestClockDeadlineAddsDuration(t *testing.T) {
	var fake time.Duration = 5 * time.Second
	c := newClock(func() time.Duration { return fake })

	d := c.Deadline(250 * time.Millisecond)
	want := 5*time.Second + 250*time.Millisecond
	if d != want {
		t.Fatalf("Deadline(250ms) = %v, want %v", d, want)
	}
}
