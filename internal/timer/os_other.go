//go:build !linux

package timer

func osNow() uint64 {
	return fallbackNow()
}
