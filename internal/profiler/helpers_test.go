package profiler

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
)

type manualClock struct {
	now  uint64
	freq uint64
}

func (c *manualClock) Now() uint64 {
	return c.now
}

func (c *manualClock) EstimateFrequency() uint64 {
	return c.freq
}

func newTestProfiler(t *testing.T, opts Options) (*Profiler, *manualClock, *bytes.Buffer) {
	t.Helper()
	clock := &manualClock{freq: 1_000_000}
	var logs bytes.Buffer
	logger := zerolog.New(&logs)
	opts.Clock = clock
	opts.Logger = &logger
	return New(opts), clock, &logs
}

func mustNil(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
