// Package advisor asks a language model for situational walking guidance and
// polls it periodically while a navigation session runs.
package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/teslashibe/go-nain/pkg/detection"
	"github.com/teslashibe/go-nain/pkg/geo"
	"github.com/teslashibe/go-nain/pkg/route"
)

// Urgency grades an assessment.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Situation is what the advisor sees on each check.
type Situation struct {
	// SessionID identifies the session the situation was taken from.
	SessionID   string
	Destination string
	Instruction string
	Detections  []detection.Detection
	Progress    route.Progress
}

// Assessment is the advisor's answer.
type Assessment struct {
	ShouldAlert bool    `json:"should_alert"`
	Guidance    string  `json:"guidance"`
	Urgency     Urgency `json:"urgency"`
}

// Advisor assesses the walking situation.
type Advisor interface {
	Assess(ctx context.Context, s Situation) (Assessment, error)
}

// AdviceRequest is a free-form question with whatever context is known.
type AdviceRequest struct {
	Question    string
	Destination string
	Instruction string
	Location    *geo.Point
}

// Summary renders progress for a prompt.
func (s Situation) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Step %d of %d. ", s.Progress.StepNumber, s.Progress.TotalSteps)
	fmt.Fprintf(&b, "About %s remaining", geo.FormatDistance(s.Progress.RemainingDistance))
	if s.Destination != "" {
		fmt.Fprintf(&b, " to %s", s.Destination)
	}
	b.WriteString(".")
	return b.String()
}

// DescribeDetections lists detections for a prompt, largest first.
func DescribeDetections(dets []detection.Detection) string {
	var parts []string
	for _, d := range detection.NewFilter(detection.COCOClasses).Obstacles(dets) {
		parts = append(parts, detection.Describe(d))
	}
	if len(parts) == 0 {
		return "nothing detected"
	}
	return strings.Join(parts, "; ")
}
