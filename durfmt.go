package kernel

import (
	"strconv"
	"time"
)

// durfmt renders a duration as fixed-point microseconds, for CPU-time
// and scheduling-latency diagnostics; no log line in this package
// calls it. Grounded on floater's decimal-nanosecond formatting: a
// format good enough for a log line, not a parser, so it avoids
// big.Rat and just does integer division with a fixed number of
// fractional digits.
func durfmt(d time.Duration) string {
	neg := d < 0
	if neg {
		d = -d
	}
	us := d.Nanoseconds() / 1000
	frac := d.Nanoseconds() % 1000
	s := strconv.FormatInt(us, 10) + "." + pad3(frac) + "us"
	if neg {
		s = "-" + s
	}
	return s
}

// pad3 zero-pads n (0..999) to exactly three digits.
func pad3(n int64) string {
	if n < 0 {
		n = -n
	}
	switch {
	case n < 10:
		return "00" + strconv.FormatInt(n, 10)
	case n < 100:
		return "0" + strconv.FormatInt(n, 10)
	default:
		return strconv.FormatInt(n, 10)
	}
}
