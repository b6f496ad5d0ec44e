package kernel

import (
	"time"
)

// Clock is the monotonic time source described in §4.5: a fixed anchor
// plus an atomically-extended nanosecond offset, so readers never
// observe the wraparound or backward jump a naive time.Now()-based tick
// count could produce under NTP or wall-clock adjustment. Grounded on
// loop.go's tickAnchor/tickElapsedTime pair, generalized from "time
// since the loop started" to "time since Boot".
type Clock struct {
	anchor  time.Time
	offset  *Atomic64 // nanoseconds since anchor, monotonically non-decreasing
	source  func() time.Duration
}

// newClock creates a Clock anchored at the current instant. source, if
// non-nil, overrides the underlying monotonic reader (used by the
// generic architecture port to read CLOCK_MONOTONIC via
// golang.org/x/sys/unix instead of the Go runtime's monotonic reading,
// and by tests to inject a fake clock).
func newClock(source func() time.Duration) *Clock {
	c := &Clock{
		anchor: time.Now(),
		offset: NewAtomic64(0),
	}
	if source == nil {
		source = c.runtimeMonotonic
	}
	c.source = source
	return c
}

// runtimeMonotonic reads elapsed time since anchor using the Go
// runtime's monotonic clock reading embedded in time.Time, the default
// source when no architecture-specific reader is supplied.
func (c *Clock) runtimeMonotonic() time.Duration {
	return time.Since(c.anchor)
}

// Now returns elapsed monotonic time since Boot. The read-extend-read
// pattern guards against a source that itself wraps (e.g. a 32-bit
// hardware tick counter on a real architecture port): advance() folds
// any apparent backward step into the stored offset rather than ever
// returning a value smaller than the last one observed.
func (c *Clock) Now() time.Duration {
	return c.advance(c.source())
}

func (c *Clock) advance(observed time.Duration) time.Duration {
	for {
		cur := c.offset.Load()
		if int64(observed) <= cur {
			return time.Duration(cur)
		}
		if c.offset.CAS(cur, int64(observed)) {
			return observed
		}
	}
}

// Sleep-queue deadlines and timed_wait budgets are expressed as
// absolute Clock.Now()+d values; Deadline is a small helper so call
// sites don't repeat the addition.
func (c *Clock) Deadline(d time.Duration) time.Duration {
	return c.Now() + d
}
