package kernel

import "sync/atomic"

// SpinLock is the hardware-spinlock stand-in from §4.1/§4.10: a bare
// CAS loop with no fairness guarantee, the primitive an SMP GIL or a
// lock-free data structure without LL/SC support would fall back to.
// Held for a handful of instructions at most; anything longer belongs
// behind the GIL instead.
type SpinLock struct {
	locked atomic.Bool
}

// Lock spins until the lock is acquired.
func (s *SpinLock) Lock() {
	for !s.locked.CompareAndSwap(false, true) {
		// busy-wait: a real architecture port would issue a WFE/YIELD
		// hint here; runtime.Gosched keeps this from starving the Go
		// scheduler on a GOMAXPROCS=1 build.
		spinHint()
	}
}

// TryLock attempts to acquire the lock without blocking.
func (s *SpinLock) TryLock() bool {
	return s.locked.CompareAndSwap(false, true)
}

// Unlock releases the lock.
func (s *SpinLock) Unlock() {
	s.locked.Store(false)
}

// NumCPU reports how many core-pump goroutines this kernel was booted
// with, the Go-native equivalent of a SMP port reading a fixed
// CPU-count constant out of the board's device tree.
func (k *Kernel) NumCPU() int { return k.cfg.NumCores }
