package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-nain/internal/httpc"
	"github.com/teslashibe/go-nain/pkg/geo"
	"github.com/teslashibe/go-nain/pkg/route"
)

// DefaultOSRMURL is the public OSRM demo server.
const DefaultOSRMURL = "https://router.project-osrm.org"

// OSRMConfig configures the OSRM client.
type OSRMConfig struct {
	BaseURL string
	Profile string
	Timeout time.Duration
	Logger  *slog.Logger
}

// OSRM computes walking routes with an OSRM server.
type OSRM struct {
	cfg    OSRMConfig
	http   *http.Client
	logger *slog.Logger
}

// NewOSRM creates an OSRM client.
func NewOSRM(cfg OSRMConfig) *OSRM {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOSRMURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Profile == "" {
		cfg.Profile = "foot"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &OSRM{
		cfg:    cfg,
		http:   httpc.NewClient(cfg.Timeout),
		logger: cfg.Logger.With("component", "routing.osrm"),
	}
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Legs []struct {
			Steps []osrmStep `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

type osrmStep struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Name     string  `json:"name"`
	Maneuver struct {
		Type     string    `json:"type"`
		Modifier string    `json:"modifier"`
		Location []float64 `json:"location"`
	} `json:"maneuver"`
}

// URL builds the route request URL. OSRM takes lon,lat pairs.
func (o *OSRM) URL(from, to geo.Point) string {
	return fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?steps=true&overview=full&geometries=geojson",
		o.cfg.BaseURL, o.cfg.Profile, from.Lon, from.Lat, to.Lon, to.Lat)
}

// Directions returns the first route OSRM suggests.
func (o *OSRM) Directions(ctx context.Context, from, to geo.Point) (*route.Route, error) {
	var resp osrmResponse
	err := httpc.GetJSON(ctx, o.http, o.URL(from, to), &resp)
	if err != nil {
		var se *httpc.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %s", ErrNoRoute, se.Body)
		}
		return nil, fmt.Errorf("osrm: %w", err)
	}
	if resp.Code != "Ok" || len(resp.Routes) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrNoRoute, resp.Code, resp.Message)
	}

	raw := resp.Routes[0]
	r := &route.Route{
		TotalDistance: raw.Distance,
		TotalDuration: raw.Duration,
	}
	for _, c := range raw.Geometry.Coordinates {
		if len(c) >= 2 {
			r.Geometry = append(r.Geometry, geo.Point{Lat: c[1], Lon: c[0]})
		}
	}
	for _, leg := range raw.Legs {
		for _, st := range leg.Steps {
			r.Steps = append(r.Steps, convertStep(st))
		}
	}

	o.logger.Debug("directions", "steps", len(r.Steps), "distance_m", r.TotalDistance)
	return r, nil
}

func convertStep(st osrmStep) route.Step {
	m := route.Maneuver{Type: st.Maneuver.Type, Modifier: st.Maneuver.Modifier}
	if len(st.Maneuver.Location) >= 2 {
		m.Location = geo.Point{Lat: st.Maneuver.Location[1], Lon: st.Maneuver.Location[0]}
	}

	text := route.Instruction(m, st.Name)
	if m.Type != "arrive" && st.Distance >= 1 {
		text += ", for " + geo.FormatDistance(st.Distance)
	}

	return route.Step{
		Instruction:     text,
		DistanceMeters:  st.Distance,
		DurationSeconds: st.Duration,
		Maneuver:        m,
		RoadName:        st.Name,
	}
}

var _ Directions = (*OSRM)(nil)
