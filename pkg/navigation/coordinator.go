package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/teslashibe/go-nain/pkg/advisor"
	"github.com/teslashibe/go-nain/pkg/detection"
	"github.com/teslashibe/go-nain/pkg/geo"
	"github.com/teslashibe/go-nain/pkg/intent"
	"github.com/teslashibe/go-nain/pkg/journal"
	"github.com/teslashibe/go-nain/pkg/location"
	"github.com/teslashibe/go-nain/pkg/proximity"
	"github.com/teslashibe/go-nain/pkg/route"
	"github.com/teslashibe/go-nain/pkg/routing"
)

const journalTimeout = 5 * time.Second

// Coordinator owns the navigation session. At most one session is active.
type Coordinator struct {
	cfg       Config
	timing    Timing
	logger    *slog.Logger
	filter    *detection.Filter
	proximity *proximity.Engine
	guidance  *advisor.Poller

	// lifecycle serializes session installation and teardown so that a
	// new session never starts while tasks of the previous one can fire.
	lifecycle sync.Mutex

	mu      sync.Mutex
	session *Session
	gen     uint64
	pending context.CancelFunc
}

// New creates an idle coordinator.
func New(cfg Config) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Beeper == nil {
		cfg.Beeper = proximity.BeeperFunc(func() {})
	}
	c := &Coordinator{
		cfg:    cfg,
		timing: cfg.Timing.withDefaults(),
		logger: cfg.Logger.With("component", "navigation"),
		filter: detection.NewFilter(cfg.Obstacles),
	}
	c.proximity = proximity.NewEngine(cfg.Beeper, cfg.Logger)
	if cfg.Advisor != nil {
		c.guidance = advisor.NewPoller(cfg.Advisor, advisor.SourceFunc(c.situation), cfg.Speaker, advisor.PollerConfig{
			Interval: c.timing.GuidanceInterval,
			Cooldown: c.timing.GuidanceCooldown,
			Logger:   cfg.Logger,
		})
	}
	return c
}

// Active reports whether a session is running.
func (c *Coordinator) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// State returns Idle or Navigating.
func (c *Coordinator) State() State {
	if c.Active() {
		return Navigating
	}
	return Idle
}

// Session returns the live session, or nil.
func (c *Coordinator) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// StartNavigation ends any current session, computes a route from the
// current location to destination and starts guiding. Failures are spoken
// and leave the coordinator idle.
func (c *Coordinator) StartNavigation(ctx context.Context, destination, utterance string) error {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		c.say(MsgAskDestination)
		return routing.ErrDestination
	}

	gen, rctx, cancel := c.begin(ctx)
	defer cancel()

	log := c.logger.With("destination", destination)
	log.Info("starting navigation", "utterance", utterance)

	lctx, lcancel := context.WithTimeout(rctx, c.timing.LocationTimeout)
	fix, err := c.cfg.Location.Current(lctx)
	lcancel()
	if err != nil {
		if !c.current(gen) {
			return ErrSuperseded
		}
		log.Warn("no location for navigation", "error", err)
		if errors.Is(err, location.ErrPermissionDenied) {
			c.say(MsgLocationDenied)
		} else {
			c.say(MsgNoLocation)
		}
		return fmt.Errorf("%w: %w", ErrNoLocation, err)
	}

	res, err := c.cfg.Router.Route(rctx, fix.Point, destination)
	if err == nil && (res == nil || res.Route.Len() == 0) {
		err = routing.ErrNoRoute
	}
	if err != nil {
		if !c.current(gen) {
			return ErrSuperseded
		}
		log.Warn("route failed", "error", err)
		c.say(fmt.Sprintf(MsgNoDirections, destination))
		c.record(journal.Entry{Kind: journal.KindFailed, Destination: destination, Detail: err.Error()})
		return err
	}

	s, err := c.install(gen, res, fix)
	if err != nil {
		log.Debug("route discarded", "error", err)
		return err
	}

	c.record(journal.Entry{SessionID: s.ID, Kind: journal.KindStarted, Destination: s.Destination, Detail: utterance})
	return nil
}

// begin supersedes any pending start, tears down the live session and
// returns a context for the new start's collaborator calls.
func (c *Coordinator) begin(ctx context.Context) (uint64, context.Context, context.CancelFunc) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	rctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.gen++
	gen := c.gen
	if c.pending != nil {
		c.pending()
	}
	c.pending = cancel
	old := c.detachLocked()
	c.mu.Unlock()

	if old != nil {
		c.teardown(old)
		c.logger.Info("previous session replaced", "session", old.ID)
	}
	return gen, rctx, cancel
}

func (c *Coordinator) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

func (c *Coordinator) install(gen uint64, res *routing.Result, fix location.Sample) (*Session, error) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return nil, ErrSuperseded
	}
	c.pending = nil

	tracker := route.NewTracker(res.Route, c.cfg.Logger)
	s := newSession(res.DestinationName, res.Destination, res.Route, tracker)
	s.fix = &fix
	c.session = s

	fixes, unwatch := c.cfg.Location.Watch()
	s.locationTask = spawn("location", func(ctx context.Context) { c.trackLocation(ctx, s, fixes, unwatch) })
	if c.cfg.Frames != nil && c.cfg.Detector != nil {
		s.detectionTask = spawn("detection", func(ctx context.Context) { c.pollDetections(ctx, s) })
	}
	if c.guidance != nil {
		s.guidanceTask = spawn("guidance", c.guidance.Run)
	}
	confirmation, insights := res.Confirmation, res.Insights
	if confirmation == "" {
		confirmation = routing.Confirmation(s.Destination, s.Route)
	}
	s.announceTask = spawn("announce", func(ctx context.Context) { c.announce(ctx, s, confirmation, insights) })

	c.logger.Info("navigation started",
		"session", s.ID,
		"destination", s.Destination,
		"steps", s.Route.Len(),
		"detection", s.detectionTask != nil,
		"guidance", s.guidanceTask != nil)
	c.publishLocked()
	return s, nil
}

// EndNavigation stops the session and speaks a confirmation. It reports
// false when there was nothing to end; calling it again is harmless.
func (c *Coordinator) EndNavigation() bool {
	return c.end(nil, MsgEnded, journal.KindEnded)
}

// Close ends any session without speaking.
func (c *Coordinator) Close() error {
	c.end(nil, "", journal.KindEnded)
	return nil
}

// end tears down want, or whatever is live when want is nil.
func (c *Coordinator) end(want *Session, message string, kind journal.Kind) bool {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if want != nil && c.session != want {
		c.mu.Unlock()
		return false
	}
	c.gen++
	if c.pending != nil {
		c.pending()
		c.pending = nil
	}
	s := c.detachLocked()
	c.mu.Unlock()

	if s == nil {
		return false
	}
	c.teardown(s)

	if message != "" {
		c.say(message)
	}
	c.mu.Lock()
	c.publishLocked()
	c.mu.Unlock()

	c.logger.Info("navigation ended", "session", s.ID, "reason", kind, "step", s.tracker.Index())
	c.record(journal.Entry{SessionID: s.ID, Kind: kind, Destination: s.Destination, StepIndex: s.tracker.Index()})
	return true
}

func (c *Coordinator) detachLocked() *Session {
	s := c.session
	if s == nil {
		return nil
	}
	s.active = false
	c.session = nil
	return s
}

// teardown stops every stream of s. Each running task is stopped exactly
// once; streams that never started are skipped.
func (c *Coordinator) teardown(s *Session) {
	c.mu.Lock()
	tasks := s.detachTasks()
	c.mu.Unlock()

	for _, t := range tasks {
		t.stop()
		c.logger.Debug("stream stopped", "session", s.ID, "stream", t.name)
	}
	c.proximity.Stop()

	c.mu.Lock()
	s.detections, s.obstacles = nil, nil
	c.mu.Unlock()
}

// live reports whether s is still the running session. Callers hold c.mu.
func (c *Coordinator) live(s *Session) bool {
	return s != nil && s.active && c.session == s
}

// Advance moves the step manually. Next on the final step arrives and ends
// the session.
func (c *Coordinator) Advance(ctx context.Context, dir route.Direction) bool {
	c.mu.Lock()
	s := c.session
	if s == nil {
		c.mu.Unlock()
		c.logger.Debug("advance without session", "direction", dir)
		return false
	}
	ev, ok := s.tracker.Advance(dir)
	if !ok {
		c.mu.Unlock()
		return false
	}
	if ev.Kind == route.Arrived {
		c.mu.Unlock()
		return c.end(s, fmt.Sprintf(MsgArrived, s.Destination), journal.KindArrived)
	}
	c.stepChangedLocked(s, ev)
	c.mu.Unlock()

	c.record(journal.Entry{SessionID: s.ID, Kind: journal.KindStep, Destination: s.Destination, StepIndex: ev.Index, Detail: dir.String()})
	return true
}

// Position describes the current step for the dispatcher.
func (c *Coordinator) Position() (intent.Position, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s == nil {
		return intent.Position{}, false
	}
	step, ok := s.tracker.Current()
	if !ok {
		return intent.Position{}, false
	}
	p := s.tracker.Progress()
	return intent.Position{
		Destination: s.Destination,
		StepNumber:  p.StepNumber,
		TotalSteps:  p.TotalSteps,
		Instruction: step.Instruction,
	}, true
}

// Current returns the last known location.
func (c *Coordinator) Current(ctx context.Context) (geo.Point, bool) {
	fix, ok := c.cfg.Location.Latest()
	if !ok {
		return geo.Point{}, false
	}
	return fix.Point, true
}

// CheckGuidance runs a situational check out of cycle. The cooldown since
// the last spoken alert still applies.
func (c *Coordinator) CheckGuidance(ctx context.Context) bool {
	if c.guidance == nil || !c.Active() {
		return false
	}
	return c.guidance.Check(ctx)
}

// Snapshot returns the current UI state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	s := c.session
	if s == nil {
		return Snapshot{State: Idle.String()}
	}

	snap := Snapshot{
		State:           Navigating.String(),
		SessionID:       s.ID.String(),
		Destination:     s.Destination,
		StepIndex:       s.tracker.Index(),
		TotalSteps:      s.Route.Len(),
		RemainingMeters: s.Route.RemainingDistance(s.tracker.Index()),
		BeepIntervalMs:  c.proximity.Interval().Milliseconds(),
		Tracking:        s.locationTask != nil,
		Detecting:       s.detectionTask != nil && !s.detectionOff,
		Guiding:         s.guidanceTask != nil,
	}
	started := s.StartedAt
	snap.StartedAt = &started
	if step, ok := s.tracker.Current(); ok {
		snap.Instruction = step.Instruction
	}
	if s.fix != nil {
		p := s.fix.Point
		snap.Location = &p
	}
	for _, d := range s.obstacles {
		snap.Obstacles = append(snap.Obstacles, detection.Describe(d))
	}
	return snap
}

func (c *Coordinator) publishLocked() {
	if c.cfg.Observer != nil {
		c.cfg.Observer.OnSnapshot(c.snapshotLocked())
	}
}

func (c *Coordinator) stepChangedLocked(s *Session, ev route.Event) {
	c.logger.Info("step changed", "session", s.ID, "index", ev.Index, "instruction", ev.Step.Instruction)
	if ev.Speak {
		c.say(ev.Step.Instruction)
	}
	c.publishLocked()
}

func (c *Coordinator) say(text string) {
	if c.cfg.Speaker != nil && text != "" {
		c.cfg.Speaker.Say(text)
	}
}

// sayIfLive speaks text only while s is the running session.
func (c *Coordinator) sayIfLive(s *Session, text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.live(s) || text == "" {
		return false
	}
	c.say(text)
	return true
}

func (c *Coordinator) record(e journal.Entry) {
	if c.cfg.Journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := c.cfg.Journal.Record(ctx, e); err != nil {
		c.logger.Warn("journal write failed", "kind", e.Kind, "error", err)
	}
}

var _ intent.Navigator = (*Coordinator)(nil)
