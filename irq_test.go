package kernel

import "testing"

func TestRegisterDispatchUnregisterRoundTrip(t *testing.T) {
	k := testBoot(t)

	var gotArg any
	h := func(arg any) { gotArg = arg }

	k.RegisterIRQ(7, h, "payload")
	k.Dispatch(7)
	if gotArg != "payload" {
		t.Fatalf("handler arg = %v, want payload", gotArg)
	}

	k.UnregisterIRQ(7, h, "payload")
	if err := k.TryRegisterIRQ(7, h, "payload"); err != nil {
		t.Fatalf("re-registering id 7 after unregister: %v", err)
	}
}

func TestTryRegisterIRQConflict(t *testing.T) {
	k := testBoot(t)
	h := func(any) {}

	if err := k.TryRegisterIRQ(1, h, nil); err != nil {
		t.Fatalf("first TryRegisterIRQ: %v", err)
	}
	if err := k.TryRegisterIRQ(1, h, nil); err != ErrAlreadyRegistered {
		t.Fatalf("second TryRegisterIRQ = %v, want ErrAlreadyRegistered", err)
	}
}

func TestTryUnregisterMismatch(t *testing.T) {
	k := testBoot(t)
	h1 := func(any) {}
	h2 := func(any) {}

	if err := k.TryRegisterIRQ(2, h1, "a"); err != nil {
		t.Fatalf("TryRegisterIRQ: %v", err)
	}
	if err := k.TryUnregisterIRQ(2, h2, "a"); err != ErrHandlerMismatch {
		t.Fatalf("TryUnregisterIRQ with wrong handler = %v, want ErrHandlerMismatch", err)
	}
	if err := k.TryUnregisterIRQ(2, h1, "b"); err != ErrHandlerMismatch {
		t.Fatalf("TryUnregisterIRQ with wrong arg = %v, want ErrHandlerMismatch", err)
	}
	if err := k.TryUnregisterIRQ(3, h1, "a"); err != ErrNotRegistered {
		t.Fatalf("TryUnregisterIRQ on unused id = %v, want ErrNotRegistered", err)
	}
}

func TestDoubleRegisterIRQIsFatal(t *testing.T) {
	opt, faults := faultCapture()
	k := testBoot(t, opt)
	h := func(any) {}
	k.RegisterIRQ(5, h, nil)

	go k.RegisterIRQ(5, h, nil) // never returns: Panic ends in select{}

	f := <-faults
	if f.Kind != FaultDoubleRegisterIRQ {
		t.Fatalf("got fault kind %v, want FaultDoubleRegisterIRQ", f.Kind)
	}
}

func TestUnexpectedIRQIsFatal(t *testing.T) {
	opt, faults := faultCapture()
	k := testBoot(t, opt)

	go k.Dispatch(99) // no handler, no default: never returns

	f := <-faults
	if f.Kind != FaultUnexpectedIRQ {
		t.Fatalf("got fault kind %v, want FaultUnexpectedIRQ", f.Kind)
	}
}

func TestDefaultIRQHandlerCatchesUnregisteredIDs(t *testing.T) {
	k := testBoot(t)
	var got int
	k.SetDefaultIRQHandler(func(any) { got++ })
	k.Dispatch(123)
	k.Dispatch(456)
	if got != 2 {
		t.Fatalf("default handler invoked %d times, want 2", got)
	}
}
