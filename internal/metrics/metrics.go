package metrics

import (
	"errors"
	"math"
	"sort"

	"github.com/getsentry/blockprof/internal/profiler"
)

type SlotMetadata struct {
	MaxVal   uint64
	WorstID  string
	Examples []string
}

// SlotTimes collects one slot's exclusive time across runs.
type SlotTimes struct {
	Name               string
	HitCount           uint64
	ExclusiveTimesNS   []uint64
	SumExclusiveTimeNS uint64
}

// Aggregator summarizes the reports of repeated runs of the same workload.
type Aggregator struct {
	MaxUniqueSlots   uint
	MaxNumOfExamples uint
	Slots            map[string]SlotTimes
	SlotsMetadata    map[string]SlotMetadata
}

type SlotMetrics struct {
	Name     string   `json:"name"`
	P75      uint64   `json:"p75"`
	P95      uint64   `json:"p95"`
	P99      uint64   `json:"p99"`
	Avg      float64  `json:"avg"`
	Sum      uint64   `json:"sum"`
	Count    uint64   `json:"count"`
	Runs     uint64   `json:"runs"`
	Worst    string   `json:"worst"`
	Examples []string `json:"examples"`
}

func NewAggregator(MaxUniqueSlots uint, MaxNumOfExamples uint) Aggregator {
	return Aggregator{
		MaxUniqueSlots:   MaxUniqueSlots,
		MaxNumOfExamples: MaxNumOfExamples,
		Slots:            make(map[string]SlotTimes),
		SlotsMetadata:    make(map[string]SlotMetadata),
	}
}

// AddReport records every slot of a report, ID being the run it came from.
func (ma *Aggregator) AddReport(r profiler.Report, ID string) {
	for _, s := range r.Slots {
		ns := r.Nanoseconds(s.ExclusiveTicks)
		if st, ok := ma.Slots[s.Name]; ok {
			st.HitCount += s.HitCount
			st.ExclusiveTimesNS = append(st.ExclusiveTimesNS, ns)
			st.SumExclusiveTimeNS += ns
			slotMetadata := ma.SlotsMetadata[s.Name]
			if ns > slotMetadata.MaxVal {
				slotMetadata.MaxVal = ns
				slotMetadata.WorstID = ID
			}
			if len(slotMetadata.Examples) < int(ma.MaxNumOfExamples) {
				slotMetadata.Examples = append(slotMetadata.Examples, ID)
			}
			ma.SlotsMetadata[s.Name] = slotMetadata
			ma.Slots[s.Name] = st
		} else {
			ma.Slots[s.Name] = SlotTimes{
				Name:               s.Name,
				HitCount:           s.HitCount,
				ExclusiveTimesNS:   []uint64{ns},
				SumExclusiveTimeNS: ns,
			}
			ma.SlotsMetadata[s.Name] = SlotMetadata{
				MaxVal:   ns,
				WorstID:  ID,
				Examples: []string{ID},
			}
		}
	}
}

// ToMetrics returns per slot percentiles of exclusive time, most expensive
// slots first.
func (ma *Aggregator) ToMetrics() []SlotMetrics {
	metrics := make([]SlotMetrics, 0, len(ma.Slots))

	for _, s := range ma.Slots {
		sort.Slice(s.ExclusiveTimesNS, func(i, j int) bool {
			return s.ExclusiveTimesNS[i] < s.ExclusiveTimesNS[j]
		})
		p75, _ := quantile(s.ExclusiveTimesNS, 0.75)
		p95, _ := quantile(s.ExclusiveTimesNS, 0.95)
		p99, _ := quantile(s.ExclusiveTimesNS, 0.99)
		metrics = append(metrics, SlotMetrics{
			Name:     s.Name,
			P75:      p75,
			P95:      p95,
			P99:      p99,
			Avg:      float64(s.SumExclusiveTimeNS) / float64(len(s.ExclusiveTimesNS)),
			Sum:      s.SumExclusiveTimeNS,
			Count:    s.HitCount,
			Runs:     uint64(len(s.ExclusiveTimesNS)),
			Worst:    ma.SlotsMetadata[s.Name].WorstID,
			Examples: ma.SlotsMetadata[s.Name].Examples,
		})
	}
	sort.Slice(metrics, func(i, j int) bool {
		if metrics[i].Sum != metrics[j].Sum {
			return metrics[i].Sum > metrics[j].Sum
		}
		return metrics[i].Name < metrics[j].Name
	})
	if len(metrics) > int(ma.MaxUniqueSlots) {
		metrics = metrics[:ma.MaxUniqueSlots]
	}
	return metrics
}

func quantile(values []uint64, q float64) (uint64, error) {
	if len(values) == 0 {
		return 0, errors.New("cannot compute percentile from empty list")
	}
	if q <= 0 || q > 1 {
		return 0, errors.New("q must be a value between 0 and 1.0")
	}
	index := int(math.Ceil(float64(len(values))*q)) - 1
	return values[index], nil
}
