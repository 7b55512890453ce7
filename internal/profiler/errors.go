package profiler

import "errors"

var (
	// ErrNotStarted is returned when the session was never started.
	ErrNotStarted = errors.New("no profile started")
	// ErrInProgress is returned when results are read before the session ended.
	ErrInProgress     = errors.New("profile still in progress")
	ErrAlreadyStarted = errors.New("profile already started")
	ErrAlreadyEnded   = errors.New("profile already ended")

	// ErrSlotOutOfRange is returned for the root slot and for ids past the
	// table capacity.
	ErrSlotOutOfRange = errors.New("slot id out of range")
	// ErrUnmatchedEnd is returned when a block ends while none is open.
	ErrUnmatchedEnd = errors.New("end without a matching begin")
	// ErrMismatchedEnd is returned when a block ends that isn't the innermost
	// open one, i.e. scopes overlap.
	ErrMismatchedEnd = errors.New("end does not match the innermost open block")
	ErrStackOverflow = errors.New("blocks nested too deeply")

	ErrFrequencyMismatch = errors.New("reports were measured with different timer frequencies")
)
