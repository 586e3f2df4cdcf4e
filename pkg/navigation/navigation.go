// Package navigation coordinates a walking navigation session: it starts and
// stops the location, detection, guidance and proximity streams and merges
// their effects into one spoken guidance channel.
package navigation

import (
	"errors"
	"log/slog"
	"time"

	"github.com/teslashibe/go-nain/pkg/advisor"
	"github.com/teslashibe/go-nain/pkg/camera"
	"github.com/teslashibe/go-nain/pkg/detection"
	"github.com/teslashibe/go-nain/pkg/geo"
	"github.com/teslashibe/go-nain/pkg/journal"
	"github.com/teslashibe/go-nain/pkg/location"
	"github.com/teslashibe/go-nain/pkg/proximity"
	"github.com/teslashibe/go-nain/pkg/routing"
)

var (
	// ErrNoLocation is returned when navigation cannot start because the
	// current position is unknown.
	ErrNoLocation = errors.New("navigation: current location unknown")

	// ErrSuperseded is returned by a start that was overtaken by a newer
	// start or by EndNavigation.
	ErrSuperseded = errors.New("navigation: superseded")
)

// Spoken messages.
const (
	MsgLocationDenied = "Location access is turned off. Please allow location access to navigate."
	MsgNoLocation     = "I can't find your location yet. Please enable location services and try again."
	MsgNoDirections   = "I could not find directions to %s."
	MsgAskDestination = "Where would you like to go?"
	MsgEnded          = "Navigation ended."
	MsgArrived        = "You have arrived at %s."
)

// State is the coordinator state.
type State int

const (
	Idle State = iota
	Navigating
)

func (s State) String() string {
	if s == Navigating {
		return "navigating"
	}
	return "idle"
}

// Timing holds the session schedule.
type Timing struct {
	DetectionInterval time.Duration
	GuidanceInterval  time.Duration
	GuidanceCooldown  time.Duration
	InsightsDelay     time.Duration
	FirstStepDelay    time.Duration
	FirstStepLate     time.Duration
	LocationTimeout   time.Duration
}

// DefaultTiming returns the standard schedule.
func DefaultTiming() Timing {
	return Timing{
		DetectionInterval: 2 * time.Second,
		GuidanceInterval:  advisor.DefaultPollInterval,
		GuidanceCooldown:  advisor.DefaultCooldown,
		InsightsDelay:     3 * time.Second,
		FirstStepDelay:    5 * time.Second,
		FirstStepLate:     10 * time.Second,
		LocationTimeout:   location.DefaultTimeout,
	}
}

func (t Timing) withDefaults() Timing {
	d := DefaultTiming()
	if t.DetectionInterval <= 0 {
		t.DetectionInterval = d.DetectionInterval
	}
	if t.GuidanceInterval <= 0 {
		t.GuidanceInterval = d.GuidanceInterval
	}
	if t.GuidanceCooldown <= 0 {
		t.GuidanceCooldown = d.GuidanceCooldown
	}
	if t.InsightsDelay <= 0 {
		t.InsightsDelay = d.InsightsDelay
	}
	if t.FirstStepDelay <= 0 {
		t.FirstStepDelay = d.FirstStepDelay
	}
	if t.FirstStepLate <= 0 {
		t.FirstStepLate = d.FirstStepLate
	}
	if t.LocationTimeout <= 0 {
		t.LocationTimeout = d.LocationTimeout
	}
	return t
}

// Speaker is the shared spoken-output channel. Say interrupts whatever is
// being spoken.
type Speaker interface {
	Say(text string)
}

// Observer receives a snapshot whenever the displayed state changes.
// It is called with coordinator state locked and must not call back into
// the coordinator.
type Observer interface {
	OnSnapshot(Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Snapshot)

// OnSnapshot calls f.
func (f ObserverFunc) OnSnapshot(s Snapshot) { f(s) }

// Snapshot is the UI view of the coordinator.
type Snapshot struct {
	State           string     `json:"state"`
	SessionID       string     `json:"session_id,omitempty"`
	Destination     string     `json:"destination,omitempty"`
	StepIndex       int        `json:"step_index"`
	TotalSteps      int        `json:"total_steps"`
	Instruction     string     `json:"instruction,omitempty"`
	RemainingMeters float64    `json:"remaining_meters"`
	Obstacles       []string   `json:"obstacles,omitempty"`
	Location        *geo.Point `json:"location,omitempty"`
	BeepIntervalMs  int64      `json:"beep_interval_ms"`
	Tracking        bool       `json:"tracking"`
	Detecting       bool       `json:"detecting"`
	Guiding         bool       `json:"guiding"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
}

// Config wires a Coordinator. Router, Location and Speaker are required.
// Without Frames and Detector there is no obstacle detection; without
// Advisor there is no situational guidance.
type Config struct {
	Router   routing.Router
	Location location.Provider
	Frames   camera.Source
	Detector detection.Detector
	Advisor  advisor.Advisor
	Speaker  Speaker
	Beeper   proximity.Beeper
	Journal  journal.Journal
	Observer Observer

	// Obstacles is the allow-list for the obstacle display. Beeping
	// considers every qualifying detection.
	Obstacles []string

	Timing Timing
	Logger *slog.Logger
}
