// Package kernel implements the core of a small real-time operating
// system for 32-bit microcontrollers: the priority-preemptive scheduler,
// the thread model, synchronization primitives (mutex, condition
// variable, counting semaphore), the interrupt registration layer,
// word-sized atomics, and the monotonic time source that ties them
// together, plus an optional symmetric multi-processing bootstrap for
// dual-core parts.
//
// # Architecture
//
// A Thread is a goroutine paired with a resume token; the Scheduler
// decides which thread's token to release next by walking a
// priority-indexed ready queue and a deadline-ordered sleep queue. This
// mirrors a real preemptive kernel's ready/sleep queues and pend-SV
// reschedule flag, with the Go runtime's own goroutine stack standing in
// for the hardware-saved register/stack context an architecture port
// would otherwise manage.
//
// # Thread Safety
//
// All shared scheduler state (ready queues, sleep queue, wait lists,
// thread states) is touched only while the global interrupt lock (GIL)
// is held, exactly as specified: code that holds the GIL is effectively
// running with interrupts masked across every core. Atomics
// (Atomic32, Atomic64) are the only lock-free path, reserved for
// single-word updates such as intrusive refcounts.
//
// # Error Handling
//
// Programming faults (double-registering an IRQ, unlocking a mutex you
// don't own, a double join) are not recoverable at runtime: they route
// through Panic, which logs, disables interrupts, and reboots. Transient
// failures use two-valued results (Timeout/NoTimeout, bool) or a
// sentinel error from the Err* variables in errors.go — the kernel never
// unwinds a panic across its own API boundary except via Panic itself.
package kernel
