// Package timer provides the counters the profiler reads timestamps from.
package timer

import (
	"fmt"
	"sync"
	"time"
)

const (
	KindCPU = "cpu"
	KindOS  = "os"

	// DefaultCalibration is how long the CPU counter is measured against the
	// OS timer to estimate its frequency.
	DefaultCalibration = 100 * time.Millisecond

	osFrequency = 1_000_000_000
)

// Source is a monotonic counter with an estimated frequency in counts per
// second.
type Source interface {
	Now() uint64
	EstimateFrequency() uint64
}

var epoch = time.Now()

func fallbackNow() uint64 {
	return uint64(time.Since(epoch).Nanoseconds())
}

// OS reads the operating system's monotonic clock in nanoseconds.
type OS struct{}

func (OS) Now() uint64 {
	return osNow()
}

func (OS) EstimateFrequency() uint64 {
	return osFrequency
}

// CPU reads the processor's timestamp counter where one is available and the
// OS clock otherwise. Its frequency is calibrated once, lazily.
type CPU struct {
	Calibration time.Duration

	once sync.Once
	freq uint64
}

func NewCPU(calibration time.Duration) *CPU {
	return &CPU{Calibration: calibration}
}

func (c *CPU) Now() uint64 {
	return readCounter()
}

func (c *CPU) EstimateFrequency() uint64 {
	c.once.Do(func() {
		c.freq = Calibrate(readCounter, osNow, osFrequency, c.Calibration)
	})
	return c.freq
}

// Name returns the name of the underlying counter.
func (c *CPU) Name() string {
	return counterName
}

// New returns the source for kind, one of KindCPU or KindOS.
func New(kind string, calibration time.Duration) (Source, error) {
	switch kind {
	case KindCPU:
		return NewCPU(calibration), nil
	case KindOS:
		return OS{}, nil
	default:
		return nil, fmt.Errorf("timer: unknown kind %q", kind)
	}
}

// Calibrate spins for window, as measured by os, and scales the number of
// counter ticks seen in that time to counts per second.
func Calibrate(counter, os func() uint64, osFreq uint64, window time.Duration) uint64 {
	if window <= 0 {
		window = DefaultCalibration
	}
	wait := uint64(window.Seconds() * float64(osFreq))

	counterStart := counter()
	osStart := os()
	var osElapsed uint64
	for osElapsed < wait {
		osElapsed = os() - osStart
	}
	counterElapsed := counter() - counterStart

	if osElapsed == 0 {
		return 0
	}
	return uint64(float64(osFreq) * float64(counterElapsed) / float64(osElapsed))
}
