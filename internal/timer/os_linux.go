//go:build linux

package timer

import "golang.org/x/sys/unix"

func osNow() uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &ts); err != nil {
		return fallbackNow()
	}
	return uint64(ts.Nano())
}
