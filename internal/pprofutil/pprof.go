// Package pprofutil exports profiler reports in the pprof format, so they can
// be explored with `go tool pprof`.
package pprofutil

import (
	"io"

	"github.com/google/pprof/profile"

	"github.com/getsentry/blockprof/internal/profiler"
)

// FromReport builds a pprof profile with one sample per slot. Locations
// follow the slot's last parents, innermost first, and the sample values are
// the slot's exclusive time and hit count.
func FromReport(r profiler.Report) (*profile.Profile, error) {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "exclusive", Unit: "nanoseconds"},
			{Type: "hits", Unit: "count"},
		},
		DefaultSampleType: "exclusive",
		PeriodType:        &profile.ValueType{Type: "wall", Unit: "nanoseconds"},
		Period:            1,
		DurationNanos:     int64(r.Nanoseconds(r.TotalTicks)),
	}
	if r.SessionID != "" {
		p.Comments = []string{"session " + r.SessionID}
	}

	locations := make(map[profiler.SlotID]*profile.Location, len(r.Slots))
	for i, s := range r.Slots {
		fn := &profile.Function{
			ID:         uint64(i + 1),
			Name:       s.Name,
			SystemName: s.Name,
		}
		loc := &profile.Location{
			ID:   uint64(i + 1),
			Line: []profile.Line{{Function: fn}},
		}
		p.Function = append(p.Function, fn)
		p.Location = append(p.Location, loc)
		locations[s.ID] = loc
	}

	for _, s := range r.Slots {
		stack := r.Stack(s.ID)
		locs := make([]*profile.Location, 0, len(stack))
		for i := len(stack) - 1; i >= 0; i-- {
			locs = append(locs, locations[stack[i]])
		}
		p.Sample = append(p.Sample, &profile.Sample{
			Location: locs,
			Value:    []int64{int64(r.Nanoseconds(s.ExclusiveTicks)), int64(s.HitCount)},
			Label:    map[string][]string{"slot": {s.Name}},
		})
	}

	if err := p.CheckValid(); err != nil {
		return nil, err
	}
	return p, nil
}

// Write writes r to w as a gzipped pprof profile.
func Write(w io.Writer, r profiler.Report) error {
	p, err := FromReport(r)
	if err != nil {
		return err
	}
	return p.Write(w)
}
