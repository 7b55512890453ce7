package profiler

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/getsentry/blockprof/internal/testutil"
)

func TestSingleBlock(t *testing.T) {
	p, clock, _ := newTestProfiler(t, Options{})

	clock.now = 100
	mustNil(t, p.BeginProfile())
	mustNil(t, p.BeginBlock(1, "Work"))
	clock.now = 150
	mustNil(t, p.EndBlock(1))
	mustNil(t, p.EndProfile())

	var out bytes.Buffer
	mustNil(t, p.Dump(&out))

	want := `------------ Profile ------------
Total: 50 ticks
Total: 0.0500 ms (timer frequency 1000000)
Work[1]: 50 (100.00%)
`
	if diff := testutil.Diff(out.String(), want); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
}

func TestNestedBlocks(t *testing.T) {
	p, clock, _ := newTestProfiler(t, Options{})

	mustNil(t, p.BeginProfile())
	mustNil(t, p.BeginBlock(1, "Outer"))
	clock.now = 100
	mustNil(t, p.BeginBlock(2, "Inner"))
	if p.Active() != 2 {
		t.Fatalf("want active slot 2, got %d", p.Active())
	}
	clock.now = 200
	mustNil(t, p.EndBlock(2))
	if p.Active() != 1 {
		t.Fatalf("want active slot 1, got %d", p.Active())
	}
	clock.now = 300
	mustNil(t, p.EndBlock(1))
	mustNil(t, p.EndProfile())

	got, err := p.Report()
	mustNil(t, err)
	want := Report{
		SessionID:   p.SessionID(),
		TotalTicks:  300,
		Frequency:   1_000_000,
		RootElapsed: 300,
		Slots: []SlotReport{
			{
				ID:               1,
				Name:             "Outer",
				Parent:           RootSlot,
				HitCount:         1,
				ExclusiveTicks:   200,
				InclusiveTicks:   300,
				ChildrenTicks:    100,
				ExclusivePercent: 200.0 / 3,
				InclusivePercent: 100,
			},
			{
				ID:               2,
				Name:             "Inner",
				Parent:           1,
				HitCount:         1,
				ExclusiveTicks:   100,
				InclusiveTicks:   100,
				ExclusivePercent: 100.0 / 3,
				InclusivePercent: 100.0 / 3,
			},
		},
	}
	if diff := testutil.Diff(got, want, testutil.ApproxFloats()); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}

	var out bytes.Buffer
	mustNil(t, got.WriteText(&out))
	for _, line := range []string{
		"Outer[1]: 200 (66.67%) excl. / 300 (100.00%) incl.\n",
		"Inner[1]: 100 (33.33%)\n",
	} {
		if !strings.Contains(out.String(), line) {
			t.Fatalf("missing line %q in:\n%s", line, out.String())
		}
	}
}

func TestRepeatedHits(t *testing.T) {
	p, clock, _ := newTestProfiler(t, Options{})

	mustNil(t, p.BeginProfile())
	for _, d := range []uint64{10, 20, 30} {
		mustNil(t, p.BeginBlock(1, "Loop"))
		clock.now += d
		mustNil(t, p.EndBlock(1))
		clock.now += 5
	}
	clock.now = 100
	mustNil(t, p.EndProfile())

	r, err := p.Report()
	mustNil(t, err)
	s, ok := r.Lookup(1)
	if !ok {
		t.Fatal("slot 1 missing from report")
	}
	if s.HitCount != 3 || s.InclusiveTicks != 60 || s.ExclusiveTicks != 60 {
		t.Fatalf("want 3 hits and 60 ticks, got %+v", s)
	}
	if s.ExclusivePercent != 60 {
		t.Fatalf("want 60%%, got %v", s.ExclusivePercent)
	}
	if s.HasChildren() {
		t.Fatal("a leaf slot should not report inclusive time")
	}
}

func TestRecursiveBlocks(t *testing.T) {
	type step struct {
		at    uint64
		begin bool
		id    SlotID
	}
	tests := []struct {
		name  string
		steps []step
		want  map[SlotID][3]uint64 // hits, exclusive, inclusive
	}{
		{
			name: "direct recursion",
			steps: []step{
				{0, true, 1},
				{20, true, 1},
				{50, false, 1},
				{100, false, 1},
			},
			want: map[SlotID][3]uint64{
				1: {2, 100, 100},
			},
		},
		{
			name: "recursion through another slot",
			steps: []step{
				{0, true, 1},
				{10, true, 2},
				{20, true, 1},
				{50, false, 1},
				{60, false, 2},
				{100, false, 1},
			},
			want: map[SlotID][3]uint64{
				1: {2, 80, 100},
				2: {1, 20, 50},
			},
		},
		{
			name: "three levels deep",
			steps: []step{
				{0, true, 1},
				{10, true, 1},
				{20, true, 1},
				{30, false, 1},
				{90, false, 1},
				{100, false, 1},
			},
			want: map[SlotID][3]uint64{
				1: {3, 100, 100},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p, clock, _ := newTestProfiler(t, Options{})
			mustNil(t, p.BeginProfile())
			for _, s := range test.steps {
				clock.now = s.at
				if s.begin {
					mustNil(t, p.BeginBlock(s.id, fmt.Sprintf("slot%d", s.id)))
				} else {
					mustNil(t, p.EndBlock(s.id))
				}
			}
			mustNil(t, p.EndProfile())

			r, err := p.Report()
			mustNil(t, err)
			got := make(map[SlotID][3]uint64)
			for _, s := range r.Slots {
				got[s.ID] = [3]uint64{s.HitCount, s.ExclusiveTicks, s.InclusiveTicks}
			}
			if diff := testutil.Diff(got, test.want); diff != "" {
				t.Fatalf("Result mismatch: got - want +\n%s", diff)
			}
			if r.RootElapsed != 100 {
				t.Fatalf("want 100 ticks under the root, got %d", r.RootElapsed)
			}
		})
	}
}

func TestRootElapsedMatchesTopLevelBlocks(t *testing.T) {
	p, clock, _ := newTestProfiler(t, Options{})

	mustNil(t, p.BeginProfile())
	mustNil(t, p.BeginBlock(1, "Read"))
	clock.now = 40
	mustNil(t, p.EndBlock(1))
	mustNil(t, p.BeginBlock(2, "Process"))
	clock.now = 60
	mustNil(t, p.BeginBlock(3, "Step"))
	clock.now = 90
	mustNil(t, p.EndBlock(3))
	clock.now = 100
	mustNil(t, p.EndBlock(2))
	mustNil(t, p.EndProfile())

	r, err := p.Report()
	mustNil(t, err)
	total, err := p.TotalElapsed()
	mustNil(t, err)

	var topLevel uint64
	for _, s := range r.Slots {
		if s.Parent == RootSlot {
			topLevel += s.InclusiveTicks
		}
	}
	if topLevel != total || r.RootElapsed != total {
		t.Fatalf("want %d ticks in top level blocks, got %d (root %d)", total, topLevel, r.RootElapsed)
	}
}

func TestRandomNestingInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p, clock, _ := newTestProfiler(t, Options{})
	hits := make(map[SlotID]uint64)
	var rootTotal uint64

	var open func(depth int)
	open = func(depth int) {
		id := SlotID(1 + rng.Intn(5))
		start := clock.now
		mustNil(t, p.BeginBlock(id, fmt.Sprintf("slot%d", id)))
		clock.now += uint64(rng.Intn(10))
		if depth < 4 {
			for n := rng.Intn(3); n > 0; n-- {
				open(depth + 1)
				clock.now += uint64(rng.Intn(10))
			}
		}
		mustNil(t, p.EndBlock(id))
		hits[id]++
		if depth == 0 {
			rootTotal += clock.now - start
		}
	}

	mustNil(t, p.BeginProfile())
	for i := 0; i < 200; i++ {
		open(0)
		clock.now += uint64(rng.Intn(10))
	}
	mustNil(t, p.EndProfile())

	r, err := p.Report()
	mustNil(t, err)
	var exclusive uint64
	for _, s := range r.Slots {
		if s.ExclusiveTicks > s.InclusiveTicks {
			t.Fatalf("slot %d: exclusive %d > inclusive %d", s.ID, s.ExclusiveTicks, s.InclusiveTicks)
		}
		if s.HitCount != hits[s.ID] {
			t.Fatalf("slot %d: want %d hits, got %d", s.ID, hits[s.ID], s.HitCount)
		}
		exclusive += s.ExclusiveTicks
	}
	if r.RootElapsed != rootTotal {
		t.Fatalf("want %d ticks under the root, got %d", rootTotal, r.RootElapsed)
	}
	if exclusive != rootTotal {
		t.Fatalf("exclusive times add up to %d, want %d", exclusive, rootTotal)
	}
}

func TestSessionErrors(t *testing.T) {
	t.Run("dump without begin", func(t *testing.T) {
		p, _, logs := newTestProfiler(t, Options{})
		var out bytes.Buffer
		if err := p.Dump(&out); !errors.Is(err, ErrNotStarted) {
			t.Fatalf("want ErrNotStarted, got %v", err)
		}
		if out.Len() != 0 {
			t.Fatalf("expected no report output, got %q", out.String())
		}
		if !strings.Contains(logs.String(), "No profile started.") {
			t.Fatalf("missing diagnostic in logs: %s", logs.String())
		}
	})

	t.Run("dump before end", func(t *testing.T) {
		p, _, logs := newTestProfiler(t, Options{})
		mustNil(t, p.BeginProfile())
		mustNil(t, p.BeginBlock(1, "Work"))
		mustNil(t, p.EndBlock(1))
		var out bytes.Buffer
		if err := p.Dump(&out); !errors.Is(err, ErrInProgress) {
			t.Fatalf("want ErrInProgress, got %v", err)
		}
		if out.Len() != 0 {
			t.Fatalf("expected no report output, got %q", out.String())
		}
		if !strings.Contains(logs.String(), "Profile still in progress.") {
			t.Fatalf("missing diagnostic in logs: %s", logs.String())
		}
	})

	t.Run("begin twice", func(t *testing.T) {
		p, clock, _ := newTestProfiler(t, Options{})
		clock.now = 10
		mustNil(t, p.BeginProfile())
		id := p.SessionID()
		clock.now = 20
		if err := p.BeginProfile(); !errors.Is(err, ErrAlreadyStarted) {
			t.Fatalf("want ErrAlreadyStarted, got %v", err)
		}
		if p.SessionID() != id {
			t.Fatal("second begin replaced the session")
		}
		clock.now = 30
		mustNil(t, p.EndProfile())
		if total, _ := p.TotalElapsed(); total != 20 {
			t.Fatalf("want 20 ticks, got %d", total)
		}
	})

	t.Run("end without begin", func(t *testing.T) {
		p, _, _ := newTestProfiler(t, Options{})
		if err := p.EndProfile(); !errors.Is(err, ErrNotStarted) {
			t.Fatalf("want ErrNotStarted, got %v", err)
		}
	})

	t.Run("end twice", func(t *testing.T) {
		p, clock, _ := newTestProfiler(t, Options{})
		mustNil(t, p.BeginProfile())
		clock.now = 10
		mustNil(t, p.EndProfile())
		clock.now = 20
		if err := p.EndProfile(); !errors.Is(err, ErrAlreadyEnded) {
			t.Fatalf("want ErrAlreadyEnded, got %v", err)
		}
		if total, _ := p.TotalElapsed(); total != 10 {
			t.Fatalf("want 10 ticks, got %d", total)
		}
	})

	t.Run("end with open blocks", func(t *testing.T) {
		p, _, logs := newTestProfiler(t, Options{})
		mustNil(t, p.BeginProfile())
		mustNil(t, p.BeginBlock(1, "Leaked"))
		mustNil(t, p.EndProfile())
		if !strings.Contains(logs.String(), "open blocks") {
			t.Fatalf("missing warning in logs: %s", logs.String())
		}
	})

	t.Run("open parent with closed child", func(t *testing.T) {
		p, clock, _ := newTestProfiler(t, Options{})
		mustNil(t, p.BeginProfile())
		mustNil(t, p.BeginBlock(1, "Outer"))
		clock.now = 10
		mustNil(t, p.BeginBlock(2, "Inner"))
		clock.now = 40
		mustNil(t, p.EndBlock(2))
		clock.now = 50
		mustNil(t, p.EndProfile())

		r, err := p.Report()
		mustNil(t, err)
		outer, ok := r.Lookup(1)
		if !ok {
			t.Fatal("Outer missing from the report")
		}
		if outer.ExclusiveTicks != 0 || outer.InclusiveTicks != 0 || outer.ChildrenTicks != 30 {
			t.Fatalf("unexpected Outer %+v", outer)
		}
		// Outer's inclusive time was never recorded, but time was still
		// spent in Inner, so the inclusive part is printed.
		var out bytes.Buffer
		mustNil(t, r.WriteText(&out))
		if !strings.Contains(out.String(), "Outer[1]: 0 (0.00%) excl. / 0 (0.00%) incl.\n") {
			t.Fatalf("unexpected report:\n%s", out.String())
		}
	})
}

func TestBlockErrors(t *testing.T) {
	t.Run("root and out of range ids", func(t *testing.T) {
		p, _, _ := newTestProfiler(t, Options{Capacity: 4})
		for _, id := range []SlotID{RootSlot, 4, 100} {
			if err := p.BeginBlock(id, "bad"); !errors.Is(err, ErrSlotOutOfRange) {
				t.Fatalf("slot %d: want ErrSlotOutOfRange, got %v", id, err)
			}
			if err := p.EndBlock(id); !errors.Is(err, ErrSlotOutOfRange) {
				t.Fatalf("slot %d: want ErrSlotOutOfRange, got %v", id, err)
			}
		}
		if p.Depth() != 0 {
			t.Fatalf("want no open blocks, got %d", p.Depth())
		}
		if _, err := p.Slot(4); !errors.Is(err, ErrSlotOutOfRange) {
			t.Fatalf("want ErrSlotOutOfRange, got %v", err)
		}
	})

	t.Run("end without begin", func(t *testing.T) {
		p, _, logs := newTestProfiler(t, Options{})
		if err := p.EndBlock(1); !errors.Is(err, ErrUnmatchedEnd) {
			t.Fatalf("want ErrUnmatchedEnd, got %v", err)
		}
		if !strings.Contains(logs.String(), "can't end block") {
			t.Fatalf("missing error in logs: %s", logs.String())
		}
	})

	t.Run("overlapping blocks", func(t *testing.T) {
		p, _, _ := newTestProfiler(t, Options{})
		mustNil(t, p.BeginBlock(1, "A"))
		mustNil(t, p.BeginBlock(2, "B"))
		if err := p.EndBlock(1); !errors.Is(err, ErrMismatchedEnd) {
			t.Fatalf("want ErrMismatchedEnd, got %v", err)
		}
		if p.Active() != 2 || p.Depth() != 2 {
			t.Fatalf("a rejected end changed the stack: active %d, depth %d", p.Active(), p.Depth())
		}
	})

	t.Run("nesting too deep", func(t *testing.T) {
		p, _, _ := newTestProfiler(t, Options{MaxDepth: 2})
		mustNil(t, p.BeginBlock(1, "A"))
		mustNil(t, p.BeginBlock(2, "B"))
		if err := p.BeginBlock(3, "C"); !errors.Is(err, ErrStackOverflow) {
			t.Fatalf("want ErrStackOverflow, got %v", err)
		}
		b := p.TimeBlock(3)
		b.End()
		if p.Active() != 2 {
			t.Fatalf("want active slot 2, got %d", p.Active())
		}
		if s, _ := p.Slot(3); s.HitCount != 0 {
			t.Fatalf("a rejected block was counted: %+v", s)
		}
	})
}

func TestDisabledProfiler(t *testing.T) {
	p, clock, _ := newTestProfiler(t, Options{Disabled: true})
	mustNil(t, p.BeginProfile())
	p.TimeFunc(1, func() {
		clock.now = 10
	})
	mustNil(t, p.BeginBlock(2, "Ignored"))
	mustNil(t, p.EndProfile())

	r, err := p.Report()
	mustNil(t, err)
	if len(r.Slots) != 0 {
		t.Fatalf("want no slots, got %+v", r.Slots)
	}
	if r.TotalTicks != 10 {
		t.Fatalf("want 10 ticks, got %d", r.TotalTicks)
	}
}
