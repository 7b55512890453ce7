package profiler

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

type (
	Report struct {
		SessionID  string `json:"session_id,omitempty"`
		TotalTicks uint64 `json:"total_ticks"`
		// Frequency is the estimated number of ticks per second.
		Frequency uint64 `json:"frequency"`
		// RootElapsed is the time spent in top level blocks.
		RootElapsed uint64       `json:"root_elapsed_ticks"`
		Slots       []SlotReport `json:"slots"`
	}

	SlotReport struct {
		ID             SlotID `json:"id"`
		Name           string `json:"name"`
		Parent         SlotID `json:"parent"`
		HitCount       uint64 `json:"hit_count"`
		ExclusiveTicks uint64 `json:"exclusive_ticks"`
		InclusiveTicks uint64 `json:"inclusive_ticks"`
		// ChildrenTicks is the time spent in blocks nested in this slot.
		ChildrenTicks    uint64  `json:"children_ticks"`
		ExclusivePercent float64 `json:"exclusive_percent"`
		InclusivePercent float64 `json:"inclusive_percent"`
	}
)

// HasChildren reports whether time was spent in blocks nested in this slot.
func (s SlotReport) HasChildren() bool {
	return s.ChildrenTicks > 0
}

// Report builds the breakdown of a finished session. Slots that were never
// hit are left out; the others are ordered by id.
func (p *Profiler) Report() (Report, error) {
	total, err := p.TotalElapsed()
	if err != nil {
		p.log().Warn().Err(err).Msg(diagnostic(err))
		return Report{}, err
	}
	r := Report{
		SessionID:   p.sessionID.String(),
		TotalTicks:  total,
		Frequency:   p.clock.EstimateFrequency(),
		RootElapsed: p.slots[RootSlot].elapsedChildren,
	}
	for i := 1; i < len(p.slots); i++ {
		s := p.slots[i]
		if s.hitCount == 0 {
			continue
		}
		children := s.elapsedChildren
		// A recursive block still open at EndProfile has given back more
		// than it received.
		if int64(children) < 0 {
			children = 0
		}
		var exclusive uint64
		// Only a block left open past EndProfile can have more child time
		// than total time.
		if children <= s.elapsed {
			exclusive = s.elapsed - children
		}
		r.Slots = append(r.Slots, SlotReport{
			ID:             SlotID(i),
			Name:           s.name,
			Parent:         s.lastParent,
			HitCount:       s.hitCount,
			ExclusiveTicks: exclusive,
			InclusiveTicks: s.elapsed,
			ChildrenTicks:  children,
		})
	}
	r.computePercentages()
	return r, nil
}

// Dump writes the text report for a finished session to w. Nothing is
// written if the session hasn't been started and ended.
func (p *Profiler) Dump(w io.Writer) error {
	r, err := p.Report()
	if err != nil {
		return err
	}
	return r.WriteText(w)
}

func diagnostic(err error) string {
	switch {
	case errors.Is(err, ErrNotStarted):
		return "No profile started."
	case errors.Is(err, ErrInProgress):
		return "Profile still in progress."
	default:
		return "profiler: can't build report"
	}
}

func (r *Report) computePercentages() {
	for i := range r.Slots {
		r.Slots[i].ExclusivePercent = r.Percent(r.Slots[i].ExclusiveTicks)
		r.Slots[i].InclusivePercent = r.Percent(r.Slots[i].InclusiveTicks)
	}
}

// Percent returns ticks as a percentage of the session's total time.
func (r Report) Percent(ticks uint64) float64 {
	if r.TotalTicks == 0 {
		return 0
	}
	return 100 * float64(ticks) / float64(r.TotalTicks)
}

// Milliseconds returns the session's total time in milliseconds.
func (r Report) Milliseconds() float64 {
	if r.Frequency == 0 {
		return 0
	}
	return float64(r.TotalTicks) * 1000 / float64(r.Frequency)
}

// Nanoseconds converts ticks to nanoseconds.
func (r Report) Nanoseconds(ticks uint64) uint64 {
	if r.Frequency == 0 {
		return 0
	}
	return uint64(float64(ticks) * 1e9 / float64(r.Frequency))
}

// Lookup returns the report line for id.
func (r Report) Lookup(id SlotID) (SlotReport, bool) {
	for _, s := range r.Slots {
		if s.ID == id {
			return s, true
		}
	}
	return SlotReport{}, false
}

// Stack returns the chain of slots leading to id, outermost first, following
// each slot's last parent. Cycles, which recursion across slots can create,
// are cut at the first repeated slot.
func (r Report) Stack(id SlotID) []SlotID {
	byID := make(map[SlotID]SlotReport, len(r.Slots))
	for _, s := range r.Slots {
		byID[s.ID] = s
	}
	seen := make(map[SlotID]struct{})
	var stack []SlotID
	for id != RootSlot {
		s, ok := byID[id]
		if !ok {
			break
		}
		if _, ok := seen[id]; ok {
			break
		}
		seen[id] = struct{}{}
		stack = append(stack, id)
		id = s.Parent
	}
	for i, j := 0, len(stack)-1; i < j; i, j = i+1, j-1 {
		stack[i], stack[j] = stack[j], stack[i]
	}
	return stack
}

// WriteText writes the report in a human readable form, one line per slot:
//
//	Name[hits]: exclusive (pct%) excl. / inclusive (pct%) incl.
//
// The inclusive part is only present for slots with nested blocks.
func (r Report) WriteText(w io.Writer) error {
	var b strings.Builder
	b.WriteString("------------ Profile ------------\n")
	fmt.Fprintf(&b, "Total: %d ticks\n", r.TotalTicks)
	fmt.Fprintf(&b, "Total: %.4f ms (timer frequency %d)\n", r.Milliseconds(), r.Frequency)
	for _, s := range r.Slots {
		fmt.Fprintf(&b, "%s[%d]: %d (%.2f%%)", s.Name, s.HitCount, s.ExclusiveTicks, s.ExclusivePercent)
		if s.HasChildren() {
			fmt.Fprintf(&b, " excl. / %d (%.2f%%) incl.", s.InclusiveTicks, s.InclusivePercent)
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
