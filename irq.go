package kernel

import (
	"reflect"
	"sync"
)

// IRQHandler is a registered interrupt handler. It runs in "interrupt
// context": it must not block (Sleep, Mutex.Lock, Semaphore.Wait,
// CondVar.Wait all guard against this for thread context, but nothing
// stops an IRQ handler from calling them other than this comment — a
// real architecture port would be running on the interrupt stack with
// interrupts masked and no scheduler to hand control back to).
type IRQHandler func(arg any)

type irqEntry struct {
	handler IRQHandler
	arg     any
}

// IRQRegistry is the interrupt registration layer from §4.3, grounded
// on eventloop/registry.go's map-backed registry: a flat map keyed by
// interrupt id rather than registry.go's ring-indexed scavenging
// scheme, since IRQ handlers are long-lived for the life of the driver
// that installs them and are never garbage collected out from under a
// weak pointer the way registry.go's promise callbacks are.
type IRQRegistry struct {
	mu             sync.RWMutex
	handlers       map[int]*irqEntry
	defaultHandler IRQHandler
}

func newIRQRegistry() *IRQRegistry {
	return &IRQRegistry{handlers: make(map[int]*irqEntry)}
}

// RegisterIRQ installs h for interrupt id. Registering an id that
// already has a handler is a programming fault (§7): it almost always
// means two drivers were configured to share a line without an
// explicit shared-IRQ handler, so it routes through Panic rather than
// silently overwriting the existing handler.
func (k *Kernel) RegisterIRQ(id int, h IRQHandler, arg any) {
	k.irq.mu.Lock()
	_, exists := k.irq.handlers[id]
	if !exists {
		k.irq.handlers[id] = &irqEntry{handler: h, arg: arg}
	}
	k.irq.mu.Unlock()
	if exists {
		Panic(FaultDoubleRegisterIRQ, "RegisterIRQ: id already has a handler")
	}
}

// TryRegisterIRQ is the non-fatal form, for drivers that legitimately
// probe whether a line is free before claiming it.
func (k *Kernel) TryRegisterIRQ(id int, h IRQHandler, arg any) error {
	k.irq.mu.Lock()
	defer k.irq.mu.Unlock()
	if _, exists := k.irq.handlers[id]; exists {
		return ErrAlreadyRegistered
	}
	k.irq.handlers[id] = &irqEntry{handler: h, arg: arg}
	return nil
}

// UnregisterIRQ removes the handler installed for id. The caller must
// supply the same (handler, arg) pair it registered; a mismatch or an
// unregistered id is a programming fault, since it means a driver is
// tearing down state it never owned.
func (k *Kernel) UnregisterIRQ(id int, h IRQHandler, arg any) {
	err := k.TryUnregisterIRQ(id, h, arg)
	switch err {
	case nil:
		return
	case ErrNotRegistered:
		Panic(FaultUnregisterMismatch, "UnregisterIRQ: id not registered")
	case ErrHandlerMismatch:
		Panic(FaultUnregisterMismatch, "UnregisterIRQ: handler/arg mismatch")
	}
}

// TryUnregisterIRQ is the non-fatal form, returning a sentinel error
// instead of faulting.
func (k *Kernel) TryUnregisterIRQ(id int, h IRQHandler, arg any) error {
	k.irq.mu.Lock()
	defer k.irq.mu.Unlock()
	entry, ok := k.irq.handlers[id]
	if !ok {
		return ErrNotRegistered
	}
	if !funcPtrEqual(entry.handler, h) || entry.arg != arg {
		return ErrHandlerMismatch
	}
	delete(k.irq.handlers, id)
	return nil
}

// SetDefaultIRQHandler installs the handler invoked for any id with no
// specific registration, instead of faulting.
func (k *Kernel) SetDefaultIRQHandler(h IRQHandler) {
	k.irq.mu.Lock()
	k.irq.defaultHandler = h
	k.irq.mu.Unlock()
}

// Dispatch simulates the hardware vector table invoking the handler
// registered for id. An unregistered id with no default handler is a
// programming fault: the architecture port enabled an interrupt line
// nothing claimed.
func (k *Kernel) Dispatch(id int) {
	k.irq.mu.RLock()
	entry, ok := k.irq.handlers[id]
	def := k.irq.defaultHandler
	k.irq.mu.RUnlock()

	switch {
	case ok:
		entry.handler(entry.arg)
	case def != nil:
		def(nil)
	default:
		Panic(FaultUnexpectedIRQ, "Dispatch: no handler registered for interrupt id")
	}
}

// funcPtrEqual compares two IRQHandler values for identity using
// reflect, since Go function values aren't comparable with ==; this
// mirrors how registry.go matches a caller-supplied handler against
// the one it stored.
func funcPtrEqual(a, b IRQHandler) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
