package kernel

// Scoped-lock helpers (§4.9): RAII-flavored wrappers that pair an
// acquire with a deferred release, the idiomatic-Go rendering of the
// kernel's InterruptDisableLock/PauseKernelLock scope guards.

// MutexGuard holds m locked until Unlock is called, meant to be used
// with defer: `g := LockScope(m); defer g.Unlock()`.
type MutexGuard struct{ m *Mutex }

// LockScope locks m and returns a guard that releases it.
func LockScope(m *Mutex) MutexGuard {
	m.Lock()
	return MutexGuard{m: m}
}

// Unlock releases the guarded mutex. Safe to call at most once.
func (g MutexGuard) Unlock() { g.m.Unlock() }

// InterruptLock masks the GIL for its lifetime, the scoped equivalent
// of irq_lock/irq_unlock. Meant to be used with defer.
type InterruptLock struct {
	k      *Kernel
	coreID int
}

// LockInterrupts acquires the GIL on the calling core and returns a
// guard that releases it.
func (k *Kernel) LockInterrupts() InterruptLock {
	coreID := int(currentCoreID())
	k.gil.lock(coreID)
	return InterruptLock{k: k, coreID: coreID}
}

// Unlock releases the interrupt lock acquired by LockInterrupts.
func (g InterruptLock) Unlock() { g.k.gil.unlock(g.coreID) }

// KernelPauseGuard marks the calling thread as having disabled
// preemption without disabling interrupts: IRQ handlers still run and
// can call Post/Signal, but this thread will not be tick-preempted,
// and any blocking call it attempts before Resume is a programming
// fault (FaultKernelPausedViolation).
type KernelPauseGuard struct{ t *Thread }

// PauseKernel disables scheduling on the calling thread until the
// returned guard's Resume is called. Nestable.
func (k *Kernel) PauseKernel() KernelPauseGuard {
	t := currentThread()
	if t != nil {
		t.kernelPausedDepth++
	}
	return KernelPauseGuard{t: t}
}

// Resume undoes one level of PauseKernel nesting.
func (g KernelPauseGuard) Resume() {
	if g.t != nil {
		g.t.kernelPausedDepth--
	}
}

// guardNotPaused is called at the top of every genuine blocking
// operation (Sleep, Mutex.Lock, Semaphore.Wait, CondVar.Wait) to
// enforce the §4.9 invariant that a thread holding a kernel-pause scope
// may not block.
func guardNotPaused(t *Thread) {
	if t != nil && t.kernelPausedDepth > 0 {
		Panic(FaultKernelPausedViolation, "blocking call attempted while kernel paused")
	}
}
