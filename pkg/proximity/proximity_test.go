package proximity

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/teslashibe/go-nain/pkg/detection"
)

// boxWithRatio returns a confident detection covering ratio of the reference frame.
func boxWithRatio(ratio float64) detection.Detection {
	area := ratio * ReferenceArea
	return detection.Detection{
		ClassName:  "person",
		Confidence: 0.9,
		Box:        detection.Box{W: area / 100, H: 100},
	}
}

func pixelBox(w, h float64) detection.Detection {
	return detection.Detection{ClassName: "car", Confidence: 0.8, Box: detection.Box{W: w, H: h}}
}

func TestCadence(t *testing.T) {
	tests := []struct {
		name   string
		dets   []detection.Detection
		want   time.Duration
		wantOK bool
	}{
		{"empty batch", nil, 0, false},
		{"only low confidence", []detection.Detection{{Confidence: 0.5, Box: detection.Box{W: 300, H: 300}}}, 0, false},
		{"zero area", []detection.Detection{{Confidence: 0.9, Box: detection.Box{W: 0, H: 300}}}, 0, false},
		{"tiny", []detection.Detection{boxWithRatio(0.005)}, 2000 * time.Millisecond, true},
		{"0.01 boundary", []detection.Detection{pixelBox(32, 96)}, 1200 * time.Millisecond, true},
		{"between 0.02 and 0.04", []detection.Detection{boxWithRatio(0.03)}, 700 * time.Millisecond, true},
		{"between 0.04 and 0.08", []detection.Detection{boxWithRatio(0.05)}, 350 * time.Millisecond, true},
		{"0.08 boundary", []detection.Detection{pixelBox(256, 96)}, 150 * time.Millisecond, true},
		{"whole frame", []detection.Detection{boxWithRatio(1.2)}, 150 * time.Millisecond, true},
		{"max of batch wins", []detection.Detection{boxWithRatio(0.005), boxWithRatio(0.03)}, 700 * time.Millisecond, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Cadence(tt.dets)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Cadence: got (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIntervalMonotonic(t *testing.T) {
	prev := IntervalFor(0)
	for r := 0.0; r <= 0.2; r += 0.0005 {
		cur := IntervalFor(r)
		if cur > prev {
			t.Fatalf("interval grew from %v to %v at ratio %.4f", prev, cur, r)
		}
		prev = cur
	}
}

type countingBeeper struct{ n atomic.Int32 }

func (b *countingBeeper) Beep() { b.n.Add(1) }

func TestEngineTransitions(t *testing.T) {
	b := &countingBeeper{}
	e := NewEngine(b, nil)
	defer e.Stop()

	// ratio 0.015 -> 1200 ms, beeps once immediately
	e.Update([]detection.Detection{boxWithRatio(0.015)})
	if got := e.Interval(); got != 1200*time.Millisecond {
		t.Fatalf("Interval: got %v, want 1200ms", got)
	}
	if got := b.n.Load(); got != 1 {
		t.Fatalf("immediate beeps: got %d, want 1", got)
	}

	// same cadence is a no-op
	e.Update([]detection.Detection{boxWithRatio(0.018)})
	if got := b.n.Load(); got != 1 {
		t.Errorf("unchanged cadence should not beep again, got %d", got)
	}

	// ratio 0.05 -> 350 ms
	e.Update([]detection.Detection{boxWithRatio(0.05)})
	if got := e.Interval(); got != 350*time.Millisecond {
		t.Fatalf("Interval: got %v, want 350ms", got)
	}
	if got := b.n.Load(); got != 2 {
		t.Errorf("restart should beep once, got %d", got)
	}

	// empty batch stops alerting
	e.Update(nil)
	if got := e.Interval(); got != 0 {
		t.Fatalf("Interval after empty batch: got %v, want 0", got)
	}
	after := b.n.Load()
	time.Sleep(500 * time.Millisecond)
	if got := b.n.Load(); got != after {
		t.Errorf("beeps after stop: got %d more", got-after)
	}
}

func TestEngineRepeats(t *testing.T) {
	b := &countingBeeper{}
	e := NewEngine(b, nil)

	e.Update([]detection.Detection{boxWithRatio(0.5)})
	time.Sleep(500 * time.Millisecond)
	e.Stop()

	// one immediate beep plus roughly three at 150 ms
	if got := b.n.Load(); got < 3 {
		t.Errorf("repeating beeps: got %d, want at least 3", got)
	}

	stopped := b.n.Load()
	time.Sleep(400 * time.Millisecond)
	if got := b.n.Load(); got != stopped {
		t.Errorf("beeps after Stop: %d", got-stopped)
	}
}

func TestEngineStopIdempotent(t *testing.T) {
	e := NewEngine(BeeperFunc(func() {}), nil)
	e.Stop()
	e.Update([]detection.Detection{boxWithRatio(0.1)})
	e.Stop()
	e.Stop()
	if e.Interval() != 0 {
		t.Errorf("Interval: got %v, want 0", e.Interval())
	}
}
