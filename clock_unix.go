//go:build unix

package kernel

import (
	"time"

	"golang.org/x/sys/unix"
)

// unixMonotonicSource reads CLOCK_MONOTONIC directly via
// golang.org/x/sys/unix instead of relying on the Go runtime's
// embedded monotonic reading. A real architecture port would read a
// free-running hardware timer register the same way this reads a
// syscall-backed clock: a raw tick source Clock.advance() folds into
// its own monotonic offset regardless of what the source does.
func unixMonotonicSource() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return time.Duration(0)
	}
	return time.Duration(ts.Sec)*time.Second + time.Duration(ts.Nsec)
}

// newPlatformClock builds the Clock used by Boot on unix targets,
// reading CLOCK_MONOTONIC instead of the generic runtime-monotonic
// source, anchored to the reading taken when the Clock is built.
func newPlatformClock() *Clock {
	base := unixMonotonicSource()
	return newClock(func() time.Duration { return unixMonotonicSource() - base })
}
