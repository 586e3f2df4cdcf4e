// Package route models a walking route and tracks the user's progress
// through its steps.
package route

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-nain/pkg/geo"
)

// Route is a computed walking route. It is immutable once attached to a session.
type Route struct {
	Steps         []Step      `json:"steps"`
	TotalDistance float64     `json:"total_distance_meters"`
	TotalDuration float64     `json:"total_duration_seconds"`
	Geometry      []geo.Point `json:"geometry,omitempty"`
}

// Step is one maneuver of a route.
type Step struct {
	Instruction     string   `json:"instruction"`
	DistanceMeters  float64  `json:"distance_meters"`
	DurationSeconds float64  `json:"duration_seconds"`
	Maneuver        Maneuver `json:"maneuver"`
	RoadName        string   `json:"road_name,omitempty"`
}

// Maneuver describes where and how a step begins.
type Maneuver struct {
	Type     string    `json:"type"`
	Modifier string    `json:"modifier,omitempty"`
	Location geo.Point `json:"location"`
}

// Len returns the number of steps, tolerating a nil route.
func (r *Route) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Steps)
}

// Step returns the step at i.
func (r *Route) Step(i int) (Step, bool) {
	if r == nil || i < 0 || i >= len(r.Steps) {
		return Step{}, false
	}
	return r.Steps[i], true
}

// RemainingDistance sums step distances from index i to the end.
func (r *Route) RemainingDistance(i int) float64 {
	if r == nil || i < 0 {
		return 0
	}
	var total float64
	for ; i < len(r.Steps); i++ {
		total += r.Steps[i].DistanceMeters
	}
	return total
}

// Summary is a one-line spoken overview of the route.
func (r *Route) Summary() string {
	if r.Len() == 0 {
		return ""
	}
	return fmt.Sprintf("The route is %s and takes about %s, with %d steps.",
		geo.FormatDistance(r.TotalDistance), geo.FormatDuration(r.TotalDuration), len(r.Steps))
}

// Instruction builds spoken text for a maneuver when the routing service
// does not supply one.
func Instruction(m Maneuver, road string) string {
	onto := ""
	if road != "" {
		onto = " onto " + road
	}
	mod := strings.ReplaceAll(m.Modifier, "_", " ")

	switch m.Type {
	case "depart":
		if road != "" {
			return "Head out on " + road
		}
		return "Start walking"
	case "arrive":
		return "You have arrived at your destination"
	case "turn", "end of road", "fork":
		if mod == "" {
			return "Turn" + onto
		}
		if mod == "straight" {
			return "Continue straight" + onto
		}
		if strings.HasPrefix(mod, "slight") || strings.HasPrefix(mod, "sharp") {
			return "Make a " + mod + " turn" + onto
		}
		return "Turn " + mod + onto
	case "roundabout", "rotary":
		return "Enter the roundabout" + onto
	case "continue", "new name", "notification":
		return "Continue" + onto
	default:
		if mod != "" {
			return "Go " + mod + onto
		}
		return "Continue" + onto
	}
}
