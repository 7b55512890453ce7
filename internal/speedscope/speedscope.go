package speedscope

import (
	"io"
	"sort"

	gojson "github.com/goccy/go-json"

	"github.com/getsentry/blockprof/internal/profiler"
)

const (
	Schema = "https://www.speedscope.app/file-format-schema.json"

	ValueUnitNanoseconds ValueUnit = "nanoseconds"

	ProfileTypeSampled ProfileType = "sampled"

	exporter = "blockprof"
)

type (
	Frame struct {
		Name string `json:"name"`
	}

	SampledProfile struct {
		EndValue   uint64      `json:"endValue"`
		Name       string      `json:"name"`
		Samples    [][]int     `json:"samples"`
		StartValue uint64      `json:"startValue"`
		Type       ProfileType `json:"type"`
		Unit       ValueUnit   `json:"unit"`
		Weights    []uint64    `json:"weights"`
	}

	SharedData struct {
		Frames []Frame `json:"frames"`
	}

	ProfileType string
	ValueUnit   string

	Output struct {
		Schema             string           `json:"$schema"`
		ActiveProfileIndex int              `json:"activeProfileIndex"`
		Exporter           string           `json:"exporter"`
		Name               string           `json:"name"`
		Profiles           []SampledProfile `json:"profiles"`
		Shared             SharedData       `json:"shared"`
	}
)

// FromReport turns a report into a sampled profile with one sample per slot.
// A sample's stack follows the slot's last parents and its weight is the
// slot's exclusive time, so speedscope rebuilds inclusive times on its own.
func FromReport(r profiler.Report, name string) Output {
	if name == "" {
		name = r.SessionID
	}
	frames := make([]Frame, 0, len(r.Slots))
	frameIndex := make(map[profiler.SlotID]int, len(r.Slots))
	for _, s := range r.Slots {
		frameIndex[s.ID] = len(frames)
		frames = append(frames, Frame{Name: s.Name})
	}

	p := SampledProfile{
		EndValue: r.Nanoseconds(r.TotalTicks),
		Name:     name,
		Samples:  make([][]int, 0, len(r.Slots)),
		Type:     ProfileTypeSampled,
		Unit:     ValueUnitNanoseconds,
		Weights:  make([]uint64, 0, len(r.Slots)),
	}
	for _, s := range r.Slots {
		weight := r.Nanoseconds(s.ExclusiveTicks)
		if weight == 0 {
			continue
		}
		stack := r.Stack(s.ID)
		sample := make([]int, 0, len(stack))
		for _, id := range stack {
			sample = append(sample, frameIndex[id])
		}
		p.Samples = append(p.Samples, sample)
		p.Weights = append(p.Weights, weight)
	}
	SortSamplesAlphabetically(p.Samples, p.Weights, frames)

	return Output{
		Schema:   Schema,
		Exporter: exporter,
		Name:     name,
		Profiles: []SampledProfile{p},
		Shared:   SharedData{Frames: frames},
	}
}

// Encode writes o as JSON.
func Encode(w io.Writer, o Output) error {
	return gojson.NewEncoder(w).Encode(o)
}

type sampleSorter struct {
	samples [][]int
	weights []uint64
	frames  []Frame
}

func (s sampleSorter) Len() int {
	return len(s.samples)
}

func (s sampleSorter) Swap(i, j int) {
	s.samples[i], s.samples[j] = s.samples[j], s.samples[i]
	s.weights[i], s.weights[j] = s.weights[j], s.weights[i]
}

func (s sampleSorter) Less(i, j int) bool {
	a, b := s.samples[i], s.samples[j]
	for c := 0; ; c++ {
		if len(a) == c {
			return len(b) > c
		} else if len(b) == c {
			return false
		}
		if s.frames[a[c]].Name < s.frames[b[c]].Name {
			return true
		} else if s.frames[a[c]].Name > s.frames[b[c]].Name {
			return false
		}
	}
}

// SortSamplesAlphabetically orders stacks by frame name, outermost frame
// first, keeping each weight with its sample.
func SortSamplesAlphabetically(samples [][]int, weights []uint64, frames []Frame) {
	sort.Stable(sampleSorter{samples: samples, weights: weights, frames: frames})
}
