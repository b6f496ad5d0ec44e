package kernel

import "sync/atomic"

// cacheLinePad is appended after a hot atomic field to keep it off the
// same cache line as whatever follows, the way debug_faststate.go pads
// FastState to avoid false sharing between cores. 64 bytes covers every
// microcontroller and desktop part this module targets.
type cacheLinePad [64 - 8]byte

// Atomic32 is a word-sized lock-free cell with acquire/release
// semantics, the §4.2 "Atomics" primitive. A real architecture port
// without native LL/SC would back this with a SpinLock-guarded critical
// section instead (the same primitive gil.go uses); this type hides
// that choice behind one API so scheduler code never special-cases the
// architecture.
type Atomic32 struct {
	v   atomic.Int32
	_   cacheLinePad
}

// NewAtomic32 constructs an Atomic32 initialized to v.
func NewAtomic32(v int32) *Atomic32 {
	a := &Atomic32{}
	a.v.Store(v)
	return a
}

// Load reads the current value with acquire ordering.
func (a *Atomic32) Load() int32 { return a.v.Load() }

// Store writes v with release ordering.
func (a *Atomic32) Store(v int32) { a.v.Store(v) }

// Swap atomically replaces the value and returns the old one.
func (a *Atomic32) Swap(v int32) int32 { return a.v.Swap(v) }

// Add atomically adds delta and returns the new value.
func (a *Atomic32) Add(delta int32) int32 { return a.v.Add(delta) }

// CAS performs a compare-and-swap, returning true on success.
func (a *Atomic32) CAS(old, new int32) bool { return a.v.CompareAndSwap(old, new) }

// FetchInc is AtomicFetchIncrement from §4.2: returns the
// pre-increment value, matching the C idiom the original kernel's
// refcounts are built on.
func (a *Atomic32) FetchInc() int32 { return a.v.Add(1) - 1 }

// FetchDec returns the pre-decrement value.
func (a *Atomic32) FetchDec() int32 { return a.v.Add(-1) + 1 }

// Atomic64 is the 64-bit counterpart, used for the monotonic clock's
// nanosecond offset and CPU-time accumulators where 32 bits would wrap
// too soon.
type Atomic64 struct {
	v atomic.Int64
	_ cacheLinePad
}

// NewAtomic64 constructs an Atomic64 initialized to v.
func NewAtomic64(v int64) *Atomic64 {
	a := &Atomic64{}
	a.v.Store(v)
	return a
}

// Load reads the current value.
func (a *Atomic64) Load() int64 { return a.v.Load() }

// Store writes v.
func (a *Atomic64) Store(v int64) { a.v.Store(v) }

// Swap atomically replaces the value and returns the old one.
func (a *Atomic64) Swap(v int64) int64 { return a.v.Swap(v) }

// Add atomically adds delta and returns the new value.
func (a *Atomic64) Add(delta int64) int64 { return a.v.Add(delta) }

// CAS performs a compare-and-swap, returning true on success.
func (a *Atomic64) CAS(old, new int64) bool { return a.v.CompareAndSwap(old, new) }
