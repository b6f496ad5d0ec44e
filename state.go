package kernel

import "sync/atomic"

// ThreadState enumerates the thread state machine from §3 "Data Model".
// Transitions are driven exclusively by scheduler code holding the
// GIL; nothing outside this package ever writes a ThreadState directly.
type ThreadState int32

const (
	StateReady ThreadState = iota
	StateRunning
	StateSleeping
	StateWaiting
	StateWaitingJoin
	StateWaitCondVar
	StateDeleted
	StateDetached
)

// String names the state the way log lines and debug assertions render
// it.
func (s ThreadState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateSleeping:
		return "sleeping"
	case StateWaiting:
		return "waiting"
	case StateWaitingJoin:
		return "waiting-join"
	case StateWaitCondVar:
		return "wait-condvar"
	case StateDeleted:
		return "deleted"
	case StateDetached:
		return "detached"
	default:
		return "unknown"
	}
}

// fastState is a cache-line-padded atomic holder for a ThreadState,
// grounded on eventloop/state.go's FastState: most reads (the
// scheduler deciding whether a thread is still eligible) happen off
// the GIL's critical path, so the state word itself stays a plain
// atomic even though every *transition* is GIL-serialized.
type fastState struct {
	v atomic.Int32
	_ cacheLinePad
}

func newFastState(initial ThreadState) *fastState {
	fs := &fastState{}
	fs.v.Store(int32(initial))
	return fs
}

func (fs *fastState) load() ThreadState {
	return ThreadState(fs.v.Load())
}

func (fs *fastState) store(s ThreadState) {
	fs.v.Store(int32(s))
}

// cas performs a compare-and-swap on the state word. Scheduler code
// uses this for the handful of transitions that must win a race against
// a concurrent IRQ-context wakeup (e.g. a sleep timer firing exactly as
// the thread is independently being woken by a semaphore post).
func (fs *fastState) cas(old, new ThreadState) bool {
	return fs.v.CompareAndSwap(int32(old), int32(new))
}
