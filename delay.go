package kernel

import "time"

// BusyDelayUS spin-waits against the monotonic clock for k
// microseconds (§4.5). Safe to call with interrupts (the GIL) held,
// unlike Sleep, since it never parks a goroutine or touches scheduler
// state — it only reads Clock.Now() in a tight loop.
func BusyDelayUS(k uint32) {
	busyDelay(time.Duration(k) * time.Microsecond)
}

// BusyDelayMS spin-waits for k milliseconds.
func BusyDelayMS(k uint32) {
	busyDelay(time.Duration(k) * time.Millisecond)
}

func busyDelay(d time.Duration) {
	kern := currentKernel()
	if kern == nil {
		return
	}
	deadline := kern.clock.Deadline(d)
	for kern.clock.Now() < deadline {
	}
}
