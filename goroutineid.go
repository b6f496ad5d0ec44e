package kernel

import (
	"bytes"
	"runtime"
	"strconv"
)

// currentGoroutineKey returns the runtime's goroutine id, parsed out of
// runtime.Stack the way loop.go's getGoroutineID does it: there is no
// supported API for this, but every kernel goroutine (core pumps,
// thread bodies) needs a stable identity to key per-goroutine state
// like coreIDLocal and the Thread resume-token map, and parsing the
// "goroutine N [...]" header is the established workaround.
func currentGoroutineKey() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		return 0
	}
	b = b[len(prefix):]
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
