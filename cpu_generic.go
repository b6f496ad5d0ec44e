package kernel

import "runtime"

// spinHint yields the processor, the generic port's substitute for an
// architecture-specific WFE/YIELD instruction inside a SpinLock's
// contention loop.
func spinHint() { runtime.Gosched() }
