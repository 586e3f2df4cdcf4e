// Package location tracks the walker's position. Fixes are pushed by a web
// client or a companion GPS device; only the latest one is kept.
package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/go-nain/pkg/geo"
	"github.com/teslashibe/go-nain/pkg/protocol"
)

var (
	// ErrPermissionDenied is reported when the user refused location access.
	ErrPermissionDenied = errors.New("location: permission denied")

	// ErrUnavailable is reported when the device cannot determine a position.
	ErrUnavailable = errors.New("location: position unavailable")

	// ErrTimeout is returned when no fix arrives in time.
	ErrTimeout = errors.New("location: timed out waiting for a fix")
)

// Sample is one position fix.
type Sample struct {
	Point    geo.Point `json:"point"`
	Accuracy float64   `json:"accuracy_meters,omitempty"`
	Heading  float64   `json:"heading,omitempty"`
	Time     time.Time `json:"time"`
}

// Provider supplies position fixes.
type Provider interface {
	// Current returns the latest fix, waiting for one if none is known yet.
	Current(ctx context.Context) (Sample, error)

	// Latest returns the last fix without waiting.
	Latest() (Sample, bool)

	// Watch delivers fixes as they arrive. Superseded fixes are dropped,
	// never queued. Call stop to release the channel.
	Watch() (fixes <-chan Sample, stop func())
}

// FromData converts a client location message. Geolocation failures become
// ErrPermissionDenied, ErrUnavailable or ErrTimeout.
func FromData(d protocol.LocationData, at time.Time) (Sample, error) {
	switch d.Error {
	case "":
	case protocol.LocationPermissionDenied:
		return Sample{}, ErrPermissionDenied
	case protocol.LocationTimeout:
		return Sample{}, ErrTimeout
	default:
		return Sample{}, ErrUnavailable
	}

	p := geo.Point{Lat: d.Lat, Lon: d.Lon}
	if !p.Valid() {
		return Sample{}, fmt.Errorf("location: invalid coordinates %v", p)
	}
	return Sample{Point: p, Accuracy: d.Accuracy, Heading: d.Heading, Time: at}, nil
}
