// Package routing computes walking routes from the user's location to a
// spoken destination.
package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teslashibe/go-nain/pkg/geo"
	"github.com/teslashibe/go-nain/pkg/route"
)

// Sentinel errors.
var (
	ErrNoRoute     = errors.New("routing: no walking route found")
	ErrNotFound    = errors.New("routing: destination not found")
	ErrNoOrigin    = errors.New("routing: origin is not a valid location")
	ErrDestination = errors.New("routing: destination is empty")
)

// Result is a computed route plus what to say about it.
type Result struct {
	Route           *route.Route
	DestinationName string
	Destination     geo.Point

	// Confirmation is spoken as soon as navigation starts.
	Confirmation string

	// Insights is optional commentary spoken a few seconds later.
	Insights string
}

// Router computes a route from a location to a named destination.
type Router interface {
	Route(ctx context.Context, from geo.Point, destination string) (*Result, error)
}

// Geocoder resolves a destination phrase to a point.
type Geocoder interface {
	Geocode(ctx context.Context, query string, near geo.Point) (Place, error)
}

// Place is a geocoded destination.
type Place struct {
	Name     string    `json:"name"`
	Location geo.Point `json:"location"`
}

// Directions computes a walking route between two points.
type Directions interface {
	Directions(ctx context.Context, from, to geo.Point) (*route.Route, error)
}

// InsightsProvider adds optional commentary about a route.
type InsightsProvider interface {
	RouteInsights(ctx context.Context, destination string, r *route.Route) (string, error)
}

// Service combines a geocoder and a directions engine.
type Service struct {
	geocoder   Geocoder
	directions Directions
	insights   InsightsProvider
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithInsights adds route commentary.
func WithInsights(p InsightsProvider) Option {
	return func(s *Service) { s.insights = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a routing service.
func NewService(g Geocoder, d Directions, opts ...Option) *Service {
	s := &Service{geocoder: g, directions: d, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "routing")
	return s
}

// Route geocodes destination near from and computes a walking route to it.
func (s *Service) Route(ctx context.Context, from geo.Point, destination string) (*Result, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, ErrDestination
	}
	if !from.Valid() {
		return nil, ErrNoOrigin
	}

	place, err := s.geocoder.Geocode(ctx, destination, from)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", destination, err)
	}

	r, err := s.directions.Directions(ctx, from, place.Location)
	if err != nil {
		return nil, fmt.Errorf("directions to %q: %w", place.Name, err)
	}
	if r.Len() == 0 {
		return nil, ErrNoRoute
	}

	name := place.Name
	if name == "" {
		name = destination
	}

	res := &Result{
		Route:           r,
		DestinationName: name,
		Destination:     place.Location,
		Confirmation:    Confirmation(name, r),
	}

	if s.insights != nil {
		text, err := s.insights.RouteInsights(ctx, name, r)
		if err != nil {
			s.logger.Warn("route insights failed", "destination", name, "error", err)
		} else {
			res.Insights = strings.TrimSpace(text)
		}
	}

	s.logger.Info("route computed",
		"destination", name,
		"steps", r.Len(),
		"distance_m", r.TotalDistance,
		"insights", res.Insights != "")
	return res, nil
}

// Confirmation is the text spoken when navigation to name begins.
func Confirmation(name string, r *route.Route) string {
	text := "Starting navigation to " + name + "."
	if sum := r.Summary(); sum != "" {
		text += " " + sum
	}
	return text
}

var _ Router = (*Service)(nil)
