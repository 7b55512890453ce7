// Package profiler is an instrumentation profiler: call sites open and close
// timed blocks, and a report splits each block's time into what it spent in
// its own code and what it spent in blocks nested inside it.
//
// A Profiler is not safe for concurrent use. Give every goroutine that
// records blocks its own Profiler and combine the results with MergeReports.
package profiler

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/getsentry/blockprof/internal/timer"
)

// TimestampSource supplies the ticks blocks are measured in.
type TimestampSource interface {
	Now() uint64
	EstimateFrequency() uint64
}

type Options struct {
	// Clock defaults to the CPU timestamp counter.
	Clock TimestampSource
	// Capacity is the size of the slot table, root slot included.
	Capacity int
	// MaxDepth bounds how many blocks can be open at once.
	MaxDepth int
	// Logger defaults to the global zerolog logger.
	Logger *zerolog.Logger
	// Disabled turns every block operation into a no-op. Sessions still
	// work so the total time can be reported.
	Disabled bool
}

type Profiler struct {
	clock    TimestampSource
	logger   *zerolog.Logger
	disabled bool

	slots  []slot
	stack  []frame
	active SlotID

	sessionID uuid.UUID
	start     uint64
	end       uint64
	started   bool
	ended     bool
}

func New(opts Options) *Profiler {
	if opts.Clock == nil {
		opts.Clock = timer.NewCPU(timer.DefaultCalibration)
	}
	if opts.Capacity <= 1 {
		opts.Capacity = DefaultCapacity
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Profiler{
		clock:    opts.Clock,
		logger:   opts.Logger,
		disabled: opts.Disabled,
		slots:    make([]slot, opts.Capacity),
		stack:    make([]frame, 0, opts.MaxDepth),
	}
}

func (p *Profiler) log() *zerolog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return &log.Logger
}

// Active returns the innermost open slot, or RootSlot when no block is open.
func (p *Profiler) Active() SlotID {
	return p.active
}

// Depth returns the number of open blocks.
func (p *Profiler) Depth() int {
	return len(p.stack)
}
