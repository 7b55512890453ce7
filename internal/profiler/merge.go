package profiler

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/getsentry/blockprof/internal/errorutil"
)

// MergeReports combines reports from several profilers, e.g. one per
// goroutine or one per run. Slots are matched by name and their counters
// summed, as are the total times. The merged report gets a session id of its
// own.
func MergeReports(reports ...Report) (Report, error) {
	if len(reports) == 0 {
		return Report{}, fmt.Errorf("profiler: merge: %w", errorutil.ErrNoResults)
	}
	merged := Report{
		SessionID: uuid.New().String(),
		Frequency: reports[0].Frequency,
	}
	index := make(map[string]int)
	for _, r := range reports {
		if r.Frequency != merged.Frequency {
			return Report{}, fmt.Errorf("profiler: merge: %w: %d and %d", ErrFrequencyMismatch, merged.Frequency, r.Frequency)
		}
		merged.TotalTicks += r.TotalTicks
		merged.RootElapsed += r.RootElapsed
		for _, s := range r.Slots {
			i, ok := index[s.Name]
			if !ok {
				index[s.Name] = len(merged.Slots)
				merged.Slots = append(merged.Slots, s)
				continue
			}
			m := &merged.Slots[i]
			m.HitCount += s.HitCount
			m.ExclusiveTicks += s.ExclusiveTicks
			m.InclusiveTicks += s.InclusiveTicks
			m.ChildrenTicks += s.ChildrenTicks
		}
	}
	sort.SliceStable(merged.Slots, func(i, j int) bool {
		return merged.Slots[i].ID < merged.Slots[j].ID
	})
	merged.computePercentages()
	return merged, nil
}
