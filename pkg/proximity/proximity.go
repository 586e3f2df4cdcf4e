// Package proximity turns obstacle detections into a repeating audible alert
// whose cadence speeds up as the nearest obstacle grows in the frame.
package proximity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-nain/pkg/detection"
)

// ReferenceArea is the frame area box sizes are compared against.
const ReferenceArea = 640.0 * 480.0

// Cadence thresholds on the area ratio, nearest last.
var steps = []struct {
	below    float64
	interval time.Duration
}{
	{0.01, 2000 * time.Millisecond},
	{0.02, 1200 * time.Millisecond},
	{0.04, 700 * time.Millisecond},
	{0.08, 350 * time.Millisecond},
}

// ClosestInterval is used when the ratio reaches the last threshold.
const ClosestInterval = 150 * time.Millisecond

// AreaRatio returns the largest box area ratio among qualifying detections.
func AreaRatio(dets []detection.Detection) (float64, bool) {
	var best float64
	found := false
	for _, d := range dets {
		if !d.Qualifies() {
			continue
		}
		r := d.Box.Area() / ReferenceArea
		if !found || r > best {
			best, found = r, true
		}
	}
	return best, found
}

// IntervalFor maps an area ratio to a beep interval.
func IntervalFor(ratio float64) time.Duration {
	for _, s := range steps {
		if ratio < s.below {
			return s.interval
		}
	}
	return ClosestInterval
}

// Cadence returns the beep interval for a batch, or false when nothing
// qualifies and alerting should stop.
func Cadence(dets []detection.Detection) (time.Duration, bool) {
	ratio, ok := AreaRatio(dets)
	if !ok {
		return 0, false
	}
	return IntervalFor(ratio), true
}

// Beeper plays one alert.
type Beeper interface {
	Beep()
}

// BeeperFunc adapts a function to Beeper.
type BeeperFunc func()

// Beep calls f.
func (f BeeperFunc) Beep() { f() }

// Engine repeats a beep at the cadence of the latest detection batch.
// It knows nothing about routes or steps.
type Engine struct {
	beeper Beeper
	logger *slog.Logger

	mu       sync.Mutex
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewEngine creates an idle engine.
func NewEngine(b Beeper, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{beeper: b, logger: logger.With("component", "proximity")}
}

// Update applies a new detection batch. An unchanged cadence is a no-op.
// A changed cadence restarts the repeating alert and beeps once immediately.
func (e *Engine) Update(dets []detection.Detection) {
	interval, ok := Cadence(dets)

	e.mu.Lock()
	defer e.mu.Unlock()

	if ok && interval == e.interval {
		return
	}
	if !ok && e.interval == 0 {
		return
	}

	e.stopLocked()
	if !ok {
		e.logger.Debug("alerting stopped")
		return
	}

	e.logger.Debug("cadence changed", "interval_ms", interval.Milliseconds())
	e.startLocked(interval)
	e.beeper.Beep()
}

// Interval returns the active beep interval, or 0 when silent.
func (e *Engine) Interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interval
}

// Stop silences the engine. No beep fires after Stop returns.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) startLocked(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.interval, e.cancel, e.done = interval, cancel, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				e.beeper.Beep()
			}
		}
	}()
}

func (e *Engine) stopLocked() {
	if e.cancel == nil {
		return
	}
	e.cancel()
	<-e.done
	e.interval, e.cancel, e.done = 0, nil, nil
}
