package navigation

import (
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-nain/pkg/detection"
	"github.com/teslashibe/go-nain/pkg/geo"
	"github.com/teslashibe/go-nain/pkg/location"
	"github.com/teslashibe/go-nain/pkg/route"
)

// Session is one navigation attempt. Its mutable fields are owned by the
// Coordinator and guarded by its lock; stream handlers hold the *Session
// and check that it is still the live one before acting.
type Session struct {
	ID          uuid.UUID
	Destination string
	Target      geo.Point
	Route       *route.Route
	StartedAt   time.Time

	active  bool
	tracker *route.Tracker
	fix     *location.Sample

	locationTask  *task
	detectionTask *task
	guidanceTask  *task
	announceTask  *task

	detectionOff bool
	issuedSeq    uint64
	appliedSeq   uint64
	detections   []detection.Detection
	obstacles    []detection.Detection
}

func newSession(dest string, target geo.Point, r *route.Route, tracker *route.Tracker) *Session {
	return &Session{
		ID:          uuid.New(),
		Destination: dest,
		Target:      target,
		Route:       r,
		StartedAt:   time.Now(),
		active:      true,
		tracker:     tracker,
	}
}

// detachTasks clears the running flags and returns the tasks to stop.
func (s *Session) detachTasks() []*task {
	var out []*task
	for _, t := range []**task{&s.locationTask, &s.detectionTask, &s.guidanceTask, &s.announceTask} {
		if *t != nil {
			out = append(out, *t)
			*t = nil
		}
	}
	return out
}
