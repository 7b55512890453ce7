package haversine

import (
	"context"
	"math"
	"sync"

	"github.com/getsentry/blockprof/internal/profiler"
)

var slotSum = sync.OnceValue(func() profiler.SlotID {
	return profiler.SlotNamed("Sum")
})

type Result struct {
	Count   int
	Sum     float64
	Average float64
}

// Sum computes the distance of every pair and their average.
func Sum(ctx context.Context, pairs []Pair) Result {
	defer profiler.FromContext(ctx).TimeBlock(slotSum()).End()

	var r Result
	for _, p := range pairs {
		r.Sum += p.Distance()
	}
	r.Count = len(pairs)
	if r.Count > 0 {
		r.Average = r.Sum / float64(r.Count)
	}
	return r
}

// Difference is the absolute difference between the computed average and
// the reference one.
func (r Result) Difference(a Answers) float64 {
	return math.Abs(r.Average - a.Average)
}
