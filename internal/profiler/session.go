package profiler

import "github.com/google/uuid"

// BeginProfile starts the session clock. It can only be called once per
// profiler.
func (p *Profiler) BeginProfile() error {
	if p.started {
		p.log().Warn().Err(ErrAlreadyStarted).
			Str("session_id", p.sessionID.String()).
			Msg("profiler: ignoring begin")
		return ErrAlreadyStarted
	}
	p.sessionID = uuid.New()
	p.started = true
	p.start = p.clock.Now()
	return nil
}

// EndProfile stops the session clock.
func (p *Profiler) EndProfile() error {
	t := p.clock.Now()
	if !p.started {
		p.log().Warn().Err(ErrNotStarted).Msg("profiler: ignoring end")
		return ErrNotStarted
	}
	if p.ended {
		p.log().Warn().Err(ErrAlreadyEnded).
			Str("session_id", p.sessionID.String()).
			Msg("profiler: ignoring end")
		return ErrAlreadyEnded
	}
	p.end = t
	p.ended = true
	if len(p.stack) > 0 {
		p.log().Warn().
			Str("session_id", p.sessionID.String()).
			Int("open_blocks", len(p.stack)).
			Str("innermost_name", p.slots[p.active].name).
			Msg("profiler: session ended with open blocks")
	}
	return nil
}

// TotalElapsed returns the number of ticks between BeginProfile and
// EndProfile.
func (p *Profiler) TotalElapsed() (uint64, error) {
	if !p.started {
		return 0, ErrNotStarted
	}
	if !p.ended {
		return 0, ErrInProgress
	}
	return p.end - p.start, nil
}

// SessionID identifies the current session. It is empty before
// BeginProfile.
func (p *Profiler) SessionID() string {
	if !p.started {
		return ""
	}
	return p.sessionID.String()
}
