package navigation

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/teslashibe/go-nain/pkg/advisor"
	"github.com/teslashibe/go-nain/pkg/camera"
	"github.com/teslashibe/go-nain/pkg/detection"
	"github.com/teslashibe/go-nain/pkg/journal"
	"github.com/teslashibe/go-nain/pkg/location"
)

// maxDetectInFlight bounds overlapping detection requests.
const maxDetectInFlight = 2

// trackLocation feeds fixes to the step tracker until ctx ends.
func (c *Coordinator) trackLocation(ctx context.Context, s *Session, fixes <-chan location.Sample, stop func()) {
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case fix, ok := <-fixes:
			if !ok {
				return
			}
			c.applyFix(s, fix)
		}
	}
}

func (c *Coordinator) applyFix(s *Session, fix location.Sample) {
	c.mu.Lock()
	if !c.live(s) {
		c.mu.Unlock()
		return
	}
	s.fix = &fix
	ev, changed := s.tracker.OnLocation(fix.Point)
	if changed {
		c.stepChangedLocked(s, ev)
	} else {
		c.publishLocked()
	}
	c.mu.Unlock()

	if changed {
		c.record(journal.Entry{SessionID: s.ID, Kind: journal.KindStep, Destination: s.Destination, StepIndex: ev.Index, Detail: "geofence"})
	}
}

// pollDetections grabs a frame every interval and runs the detector on it.
// It stops itself when the detector reports it is unavailable.
func (c *Coordinator) pollDetections(ctx context.Context, s *Session) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	defer wg.Wait()

	slots := make(chan struct{}, maxDetectInFlight)
	ticker := time.NewTicker(c.timing.DetectionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		select {
		case slots <- struct{}{}:
		default:
			c.logger.Debug("detection busy, skipping frame")
			continue
		}

		frame, err := c.cfg.Frames.Frame(ctx)
		if err != nil {
			<-slots
			if !errors.Is(err, camera.ErrNoFrame) && ctx.Err() == nil {
				c.logger.Warn("frame capture failed", "error", err)
			}
			continue
		}

		seq, ok := c.issueSeq(s)
		if !ok {
			<-slots
			return
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-slots }()

			dets, err := c.cfg.Detector.Detect(ctx, frame)
			if c.applyDetections(ctx, s, seq, dets, err) {
				cancel()
			}
		}()
	}
}

func (c *Coordinator) issueSeq(s *Session) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.live(s) || s.detectionOff {
		return 0, false
	}
	s.issuedSeq++
	return s.issuedSeq, true
}

// applyDetections merges one detection result into s. Results for an ended
// session, or older than one already applied, are dropped. It reports
// whether polling should stop.
func (c *Coordinator) applyDetections(ctx context.Context, s *Session, seq uint64, dets []detection.Detection, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.live(s) {
		return true
	}

	if err != nil {
		if errors.Is(err, detection.ErrUnavailable) {
			c.logger.Warn("detector unavailable, detection stopped for this session", "error", err)
			s.detectionOff = true
			s.detections, s.obstacles = nil, nil
			c.proximity.Update(nil)
			c.publishLocked()
			return true
		}
		if ctx.Err() == nil {
			c.logger.Warn("detection failed", "seq", seq, "error", err)
		}
		return false
	}

	if seq <= s.appliedSeq {
		c.logger.Debug("stale detection discarded", "seq", seq, "applied", s.appliedSeq)
		return false
	}
	s.appliedSeq = seq
	s.detections = dets
	s.obstacles = c.filter.Obstacles(dets)
	c.proximity.Update(dets)
	c.publishLocked()
	return false
}

// situation feeds the guidance poller.
func (c *Coordinator) situation() (advisor.Situation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s == nil {
		return advisor.Situation{}, false
	}
	step, ok := s.tracker.Current()
	if !ok {
		return advisor.Situation{}, false
	}
	return advisor.Situation{
		SessionID:   s.ID.String(),
		Destination: s.Destination,
		Instruction: step.Instruction,
		Detections:  slices.Clone(s.detections),
		Progress:    s.tracker.Progress(),
	}, true
}

// announce speaks the confirmation now, insights after a short pause and
// then the current step, spaced so they never overlap.
func (c *Coordinator) announce(ctx context.Context, s *Session, confirmation, insights string) {
	start := time.Now()
	c.sayIfLive(s, confirmation)

	firstStep := c.timing.FirstStepDelay
	if insights != "" {
		if !sleep(ctx, c.timing.InsightsDelay) {
			return
		}
		if c.sayIfLive(s, insights) {
			firstStep = c.timing.FirstStepLate
		}
	}

	if !sleep(ctx, firstStep-time.Since(start)) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.live(s) {
		return
	}
	if step, ok := s.tracker.Current(); ok {
		c.say(step.Instruction)
	}
}
