package profiler

// SlotID identifies one instrumented call site.
type SlotID uint32

// RootSlot is the implicit parent of every top level block. It is never
// reported.
const RootSlot SlotID = 0

const (
	DefaultCapacity = 128
	DefaultMaxDepth = 256
)

type (
	// Slot is a copy of the accounting bucket of one call site.
	Slot struct {
		ID       SlotID
		Name     string
		HitCount uint64
		// Elapsed is the time spent in the slot, nested blocks included.
		Elapsed uint64
		// ElapsedChildren is the time spent in blocks opened while this slot
		// was the innermost one.
		ElapsedChildren uint64
		// LastParent is the slot that was active when the outermost
		// activation of this slot last began.
		LastParent SlotID
	}

	slot struct {
		name            string
		hitCount        uint64
		elapsed         uint64
		elapsedChildren uint64
		lastParent      SlotID
		open            uint32
	}

	// frame is one open activation on the block stack.
	frame struct {
		id     SlotID
		parent SlotID
		entry  uint64
		// elapsed of the slot when this activation began, so a recursive
		// activation doesn't count the same interval twice.
		savedElapsed uint64
	}
)

// Exclusive is the time spent in the slot's own code.
func (s Slot) Exclusive() uint64 {
	return s.Elapsed - s.ElapsedChildren
}

func (p *Profiler) checkSlot(id SlotID) error {
	if id == RootSlot || int(id) >= len(p.slots) {
		return ErrSlotOutOfRange
	}
	return nil
}

// Slot returns a copy of the slot for id.
func (p *Profiler) Slot(id SlotID) (Slot, error) {
	if err := p.checkSlot(id); err != nil {
		return Slot{}, err
	}
	s := p.slots[id]
	return Slot{
		ID:              id,
		Name:            s.name,
		HitCount:        s.hitCount,
		Elapsed:         s.elapsed,
		ElapsedChildren: s.elapsedChildren,
		LastParent:      s.lastParent,
	}, nil
}

// Capacity returns the number of entries in the slot table, root included.
func (p *Profiler) Capacity() int {
	return len(p.slots)
}
