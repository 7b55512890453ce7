package profiler

// Block is an open timed block. The zero value is a valid no-op block,
// returned when the block could not be opened.
type Block struct {
	p  *Profiler
	id SlotID
}

// TimeBlock opens a block for id under its registered name. Close it on
// every exit path:
//
//	defer p.TimeBlock(slotParse).End()
func (p *Profiler) TimeBlock(id SlotID) Block {
	if p.disabled {
		return Block{}
	}
	var name string
	if int(id) < len(p.slots) {
		name = p.slots[id].name
	}
	if name == "" {
		name = NameOf(id)
	}
	if err := p.BeginBlock(id, name); err != nil {
		return Block{}
	}
	return Block{p: p, id: id}
}

// End closes the block. Calling it more than once is a nesting error.
func (b Block) End() {
	if b.p == nil {
		return
	}
	_ = b.p.EndBlock(b.id)
}

// TimeFunc runs fn inside a block for id.
func (p *Profiler) TimeFunc(id SlotID, fn func()) {
	defer p.TimeBlock(id).End()
	fn()
}

// BeginBlock opens a block for id and makes it the active slot. Prefer
// TimeBlock, which can't leave a block open on an early return.
func (p *Profiler) BeginBlock(id SlotID, name string) error {
	if p.disabled {
		return nil
	}
	if err := p.checkSlot(id); err != nil {
		p.log().Error().Err(err).
			Uint32("slot", uint32(id)).
			Str("name", name).
			Int("capacity", len(p.slots)).
			Msg("profiler: can't begin block")
		return err
	}
	if len(p.stack) == cap(p.stack) {
		p.log().Error().Err(ErrStackOverflow).
			Uint32("slot", uint32(id)).
			Str("name", name).
			Int("max_depth", cap(p.stack)).
			Msg("profiler: can't begin block")
		return ErrStackOverflow
	}

	s := &p.slots[id]
	s.name = name
	s.hitCount++
	if s.open == 0 {
		s.lastParent = p.active
	}
	s.open++
	p.stack = append(p.stack, frame{
		id:           id,
		parent:       p.active,
		savedElapsed: s.elapsed,
	})
	p.active = id

	// Read the clock last so the bookkeeping above isn't measured.
	p.stack[len(p.stack)-1].entry = p.clock.Now()
	return nil
}

// EndBlock closes the innermost open block, which must be id, and restores
// its parent as the active slot.
func (p *Profiler) EndBlock(id SlotID) error {
	if p.disabled {
		return nil
	}
	t := p.clock.Now()

	if err := p.checkSlot(id); err != nil {
		p.log().Error().Err(err).
			Uint32("slot", uint32(id)).
			Int("capacity", len(p.slots)).
			Msg("profiler: can't end block")
		return err
	}
	n := len(p.stack)
	if n == 0 {
		p.log().Error().Err(ErrUnmatchedEnd).
			Uint32("slot", uint32(id)).
			Str("name", p.slots[id].name).
			Msg("profiler: can't end block")
		return ErrUnmatchedEnd
	}
	top := p.stack[n-1]
	if top.id != id {
		p.log().Error().Err(ErrMismatchedEnd).
			Uint32("slot", uint32(id)).
			Str("name", p.slots[id].name).
			Uint32("innermost_slot", uint32(top.id)).
			Str("innermost_name", p.slots[top.id].name).
			Msg("profiler: can't end block")
		return ErrMismatchedEnd
	}
	p.stack = p.stack[:n-1]

	duration := t - top.entry
	s := &p.slots[id]
	s.open--
	s.elapsed = top.savedElapsed + duration
	if s.open > 0 {
		// An outer activation of the same slot is still open and will
		// cover this interval; count it as self time, not child time.
		s.elapsedChildren -= duration
	}
	p.active = top.parent
	p.slots[top.parent].elapsedChildren += duration
	return nil
}
