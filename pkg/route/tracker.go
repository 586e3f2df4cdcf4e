package route

import (
	"log/slog"

	"github.com/teslashibe/go-nain/pkg/geo"
)

// GeofenceMeters is how close the user must get to the next maneuver point
// before the tracker advances to it.
const GeofenceMeters = 15.0

// Direction selects a manual step change.
type Direction int

const (
	Next Direction = iota
	Previous
)

func (d Direction) String() string {
	if d == Previous {
		return "previous"
	}
	return "next"
}

// EventKind identifies what a tracker update produced.
type EventKind int

const (
	StepChanged EventKind = iota + 1
	Arrived
)

func (k EventKind) String() string {
	switch k {
	case StepChanged:
		return "step_changed"
	case Arrived:
		return "arrived"
	default:
		return "unknown"
	}
}

// Event is emitted when the current step changes or the route is finished.
type Event struct {
	Kind  EventKind
	Index int
	Step  Step
	Speak bool
}

// Tracker holds the current step index of a route.
// It is not safe for concurrent use; the owner serializes access.
type Tracker struct {
	route  *Route
	index  int
	logger *slog.Logger
}

// NewTracker starts tracking r at step 0.
func NewTracker(r *Route, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{route: r, logger: logger.With("component", "route.tracker")}
}

// Index returns the current step index.
func (t *Tracker) Index() int { return t.index }

// Route returns the tracked route.
func (t *Tracker) Route() *Route { return t.route }

// Current returns the current step.
func (t *Tracker) Current() (Step, bool) { return t.route.Step(t.index) }

// OnLocation advances one step when p is inside the geofence of the next
// maneuver point. It never moves backward and never passes the last step.
func (t *Tracker) OnLocation(p geo.Point) (Event, bool) {
	if t.route.Len() == 0 {
		t.logger.Warn("location update without route steps")
		return Event{}, false
	}
	if t.index >= t.route.Len()-1 {
		return Event{}, false
	}

	target := t.route.Steps[t.index+1].Maneuver.Location
	d := p.DistanceTo(target)
	if d >= GeofenceMeters {
		return Event{}, false
	}

	t.index++
	t.logger.Debug("reached maneuver point", "index", t.index, "distance_m", d)
	return t.stepChanged(), true
}

// Advance moves the index manually. Next on the last step reports Arrived
// and leaves the index unchanged.
func (t *Tracker) Advance(dir Direction) (Event, bool) {
	if t.route.Len() == 0 {
		t.logger.Warn("manual advance without route steps", "direction", dir)
		return Event{}, false
	}

	switch dir {
	case Next:
		if t.index >= t.route.Len()-1 {
			return Event{Kind: Arrived, Index: t.index, Step: t.route.Steps[t.index], Speak: true}, true
		}
		t.index++
		return t.stepChanged(), true
	case Previous:
		if t.index == 0 {
			return Event{}, false
		}
		t.index--
		return t.stepChanged(), true
	default:
		return Event{}, false
	}
}

// Progress describes how far along the route the user is.
type Progress struct {
	StepNumber        int     `json:"step_number"`
	TotalSteps        int     `json:"total_steps"`
	RemainingDistance float64 `json:"remaining_distance_meters"`
}

// Progress returns the current position in the route.
func (t *Tracker) Progress() Progress {
	return Progress{
		StepNumber:        t.index + 1,
		TotalSteps:        t.route.Len(),
		RemainingDistance: t.route.RemainingDistance(t.index),
	}
}

func (t *Tracker) stepChanged() Event {
	return Event{Kind: StepChanged, Index: t.index, Step: t.route.Steps[t.index], Speak: true}
}
