package kernel

import "golang.org/x/exp/constraints"

// ring is a fixed-capacity power-of-two circular buffer, grounded on
// catrate/ring.go. Used here for CPU-time sample history
// (Thread.recentRuns and SchedulerMetrics' recent-samples ring), both
// int64 nanosecond samples; constraints.Integer keeps it usable for
// any integer element type.
type ring[T constraints.Integer] struct {
	buf  []T
	mask uint32
	head uint32
	size uint32
}

// newRing allocates a ring whose capacity is the next power of two
// >= capHint (minimum 1).
func newRing[T constraints.Integer](capHint int) *ring[T] {
	n := 1
	for n < capHint {
		n <<= 1
	}
	if n == 0 {
		n = 1
	}
	return &ring[T]{
		buf:  make([]T, n),
		mask: uint32(n - 1),
	}
}

// push appends v, evicting the oldest element if the ring is full.
func (r *ring[T]) push(v T) {
	idx := (r.head + r.size) & r.mask
	r.buf[idx] = v
	if r.size < uint32(len(r.buf)) {
		r.size++
	} else {
		r.head = (r.head + 1) & r.mask
	}
}

// len reports the number of elements currently stored.
func (r *ring[T]) len() int { return int(r.size) }

// at returns the i-th oldest element (0 is the oldest still retained).
func (r *ring[T]) at(i int) T {
	return r.buf[(r.head+uint32(i))&r.mask]
}

// forEach visits elements oldest-first.
func (r *ring[T]) forEach(fn func(T)) {
	for i := uint32(0); i < r.size; i++ {
		fn(r.buf[(r.head+i)&r.mask])
	}
}

// reset empties the ring without releasing its backing array, the way
// a pooled chunk is recycled rather than reallocated.
func (r *ring[T]) reset() {
	r.head = 0
	r.size = 0
}
