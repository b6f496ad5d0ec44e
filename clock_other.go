//go:build !unix

package kernel

// newPlatformClock builds the Clock used by Boot on non-unix targets,
// falling back to the Go runtime's own monotonic clock reading.
func newPlatformClock() *Clock {
	return newClock(nil)
}
