package kernel

import (
	"fmt"
	"os"
)

// Panic escalates a programming fault the way §7 specifies: log it,
// mask interrupts so no other thread observes a half-broken kernel, and
// hand off to RebootFunc. It never returns.
//
// Architecture ports with a watchdog-triggered reset install a
// RebootFunc that spins with interrupts masked until the watchdog
// fires. The generic port used by this module has no watchdog, so
// defaultReboot calls os.Exit after flushing the log line, which is the
// closest equivalent to "the device resets" available to a goroutine.
func Panic(kind FaultKind, msg string) {
	panicOnce(kind, msg)
	select {}
}

// panicOnce does the actual logging/reboot dispatch and is split out so
// tests can substitute globalKernel's RebootFunc without relying on
// Panic's select{} ever returning.
func panicOnce(kind FaultKind, msg string) {
	k := currentKernel()
	var logger Logger = NewNoOpLogger()
	reboot := defaultReboot
	if k != nil {
		if k.cfg.Logger != nil {
			logger = k.cfg.Logger
		}
		if k.cfg.RebootFunc != nil {
			reboot = k.cfg.RebootFunc
		}
		k.maskInterrupts()
	}
	logger.Log(LogEntry{
		Level:    LevelError,
		Category: "fault",
		ThreadID: currentThreadID(),
		CoreID:   currentCoreID(),
		Message:  fmt.Sprintf("fatal: %s: %s", kind, msg),
	})
	reboot(kind, msg)
}

// defaultReboot is the RebootFunc used when Config.RebootFunc is nil. A
// real architecture port overrides this with NVIC_SystemReset or
// equivalent; the generic port terminates the process, since there is
// no hardware to reset.
func defaultReboot(kind FaultKind, msg string) {
	fmt.Fprintf(os.Stderr, "kernel panic [%s]: %s\n", kind, msg)
	os.Exit(1)
}
