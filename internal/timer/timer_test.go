package timer

import (
	"math"
	"testing"
	"time"
)

func TestCalibrate(t *testing.T) {
	tests := []struct {
		name      string
		ratio     uint64
		osFreq    uint64
		window    time.Duration
		wantRatio float64
	}{
		{
			name:      "counter three times faster",
			ratio:     3,
			osFreq:    1000,
			window:    time.Second,
			wantRatio: 3,
		},
		{
			name:      "same speed as os timer",
			ratio:     1,
			osFreq:    1_000_000,
			window:    10 * time.Millisecond,
			wantRatio: 1,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var now uint64
			os := func() uint64 {
				now++
				return now
			}
			counter := func() uint64 {
				return now * test.ratio
			}
			got := Calibrate(counter, os, test.osFreq, test.window)
			want := test.wantRatio * float64(test.osFreq)
			if math.Abs(float64(got)-want)/want > 0.01 {
				t.Fatalf("want frequency close to %v, got %v", want, got)
			}
		})
	}
}

func TestOSIsMonotonic(t *testing.T) {
	var s OS
	prev := s.Now()
	for i := 0; i < 1000; i++ {
		now := s.Now()
		if now < prev {
			t.Fatalf("os timer went backwards: %d after %d", now, prev)
		}
		prev = now
	}
	if s.EstimateFrequency() != osFrequency {
		t.Fatalf("want frequency %d, got %d", osFrequency, s.EstimateFrequency())
	}
}

func TestCPUFrequencyIsCached(t *testing.T) {
	c := NewCPU(time.Millisecond)
	first := c.EstimateFrequency()
	if first == 0 {
		t.Fatal("expected a non zero frequency")
	}
	if second := c.EstimateFrequency(); second != first {
		t.Fatalf("frequency changed between calls: %d then %d", first, second)
	}
}

func TestNew(t *testing.T) {
	for _, kind := range []string{KindCPU, KindOS} {
		if _, err := New(kind, time.Millisecond); err != nil {
			t.Fatalf("unexpected error for %q: %v", kind, err)
		}
	}
	if _, err := New("hpet", time.Millisecond); err == nil {
		t.Fatal("expected an error for an unknown kind")
	}
}
