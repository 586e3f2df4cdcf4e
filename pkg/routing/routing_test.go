package routing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/teslashibe/go-nain/pkg/geo"
	"github.com/teslashibe/go-nain/pkg/route"
)

const osrmBody = `{
  "code": "Ok",
  "routes": [{
    "distance": 250.5,
    "duration": 180,
    "geometry": {"type": "LineString", "coordinates": [[-74.0, 40.0], [-74.001, 40.001], [-74.002, 40.002]]},
    "legs": [{
      "steps": [
        {"distance": 120, "duration": 90, "name": "Elm Street", "maneuver": {"type": "depart", "location": [-74.0, 40.0]}},
        {"distance": 130.5, "duration": 90, "name": "Oak Avenue", "maneuver": {"type": "turn", "modifier": "left", "location": [-74.001, 40.001]}},
        {"distance": 0, "duration": 0, "name": "", "maneuver": {"type": "arrive", "location": [-74.002, 40.002]}}
      ]
    }]
  }]
}`

func TestOSRMDirections(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(osrmBody))
	}))
	defer srv.Close()

	o := NewOSRM(OSRMConfig{BaseURL: srv.URL})
	r, err := o.Directions(context.Background(), geo.Point{Lat: 40, Lon: -74}, geo.Point{Lat: 40.002, Lon: -74.002})
	if err != nil {
		t.Fatalf("Directions: %v", err)
	}

	if gotPath != "/route/v1/foot/-74.000000,40.000000;-74.002000,40.002000" {
		t.Errorf("path: got %q", gotPath)
	}
	if !strings.Contains(gotQuery, "steps=true") {
		t.Errorf("query missing steps=true: %q", gotQuery)
	}

	if r.Len() != 3 {
		t.Fatalf("steps: got %d, want 3", r.Len())
	}
	if r.TotalDistance != 250.5 {
		t.Errorf("distance: got %v, want 250.5", r.TotalDistance)
	}
	if len(r.Geometry) != 3 {
		t.Errorf("geometry: got %d points, want 3", len(r.Geometry))
	}

	tests := []struct {
		i    int
		want string
		loc  geo.Point
	}{
		{0, "Head out on Elm Street, for 120 meters", geo.Point{Lat: 40, Lon: -74}},
		{1, "Turn left onto Oak Avenue, for 131 meters", geo.Point{Lat: 40.001, Lon: -74.001}},
		{2, "You have arrived at your destination", geo.Point{Lat: 40.002, Lon: -74.002}},
	}
	for _, tt := range tests {
		st := r.Steps[tt.i]
		if st.Instruction != tt.want {
			t.Errorf("step %d instruction: got %q, want %q", tt.i, st.Instruction, tt.want)
		}
		if st.Maneuver.Location != tt.loc {
			t.Errorf("step %d location: got %v, want %v", tt.i, st.Maneuver.Location, tt.loc)
		}
	}
}

func TestOSRMNoRoute(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"code", http.StatusOK, `{"code":"NoRoute","message":"Impossible route","routes":[]}`},
		{"bad request", http.StatusBadRequest, `{"code":"NoSegment","message":"Could not find a matching segment"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			o := NewOSRM(OSRMConfig{BaseURL: srv.URL})
			_, err := o.Directions(context.Background(), geo.Point{Lat: 1, Lon: 1}, geo.Point{Lat: 2, Lon: 2})
			if !errors.Is(err, ErrNoRoute) {
				t.Errorf("got %v, want ErrNoRoute", err)
			}
		})
	}
}

func TestNominatimGeocode(t *testing.T) {
	var gotQ string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQ = r.URL.Query().Get("q")
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		w.Write([]byte(`[{"lat":"40.7812","lon":"-73.9665","name":"","display_name":"Central Park, Manhattan, New York"}]`))
	}))
	defer srv.Close()

	n := NewNominatim(NominatimConfig{BaseURL: srv.URL})
	p, err := n.Geocode(context.Background(), "central park", geo.Point{Lat: 40.78, Lon: -73.97})
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if gotQ != "central park" {
		t.Errorf("q: got %q", gotQ)
	}
	if p.Name != "Central Park" {
		t.Errorf("name: got %q, want Central Park", p.Name)
	}
	if p.Location != (geo.Point{Lat: 40.7812, Lon: -73.9665}) {
		t.Errorf("location: got %v", p.Location)
	}
}

func TestNominatimNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	n := NewNominatim(NominatimConfig{BaseURL: srv.URL})
	_, err := n.Geocode(context.Background(), "nowhere", geo.Point{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

type stubGeocoder struct {
	place Place
	err   error
	calls int
}

func (s *stubGeocoder) Geocode(ctx context.Context, query string, near geo.Point) (Place, error) {
	s.calls++
	return s.place, s.err
}

type stubDirections struct {
	r   *route.Route
	err error
}

func (s stubDirections) Directions(ctx context.Context, from, to geo.Point) (*route.Route, error) {
	return s.r, s.err
}

type stubInsights struct {
	text string
	err  error
}

func (s stubInsights) RouteInsights(ctx context.Context, destination string, r *route.Route) (string, error) {
	return s.text, s.err
}

func twoStepRoute() *route.Route {
	return &route.Route{
		TotalDistance: 200,
		TotalDuration: 150,
		Steps: []route.Step{
			{Instruction: "Head north", DistanceMeters: 200},
			{Instruction: "You have arrived at your destination"},
		},
	}
}

func TestServiceRoute(t *testing.T) {
	from := geo.Point{Lat: 40, Lon: -74}
	g := &stubGeocoder{place: Place{Name: "Library", Location: geo.Point{Lat: 40.001, Lon: -74}}}

	t.Run("with insights", func(t *testing.T) {
		s := NewService(g, stubDirections{r: twoStepRoute()}, WithInsights(stubInsights{text: " Busy crossing ahead. "}))
		res, err := s.Route(context.Background(), from, "the library")
		if err != nil {
			t.Fatalf("Route: %v", err)
		}
		if res.DestinationName != "Library" {
			t.Errorf("name: got %q", res.DestinationName)
		}
		want := "Starting navigation to Library. The route is 200 meters and takes about 3 minutes, with 2 steps."
		if res.Confirmation != want {
			t.Errorf("confirmation: got %q, want %q", res.Confirmation, want)
		}
		if res.Insights != "Busy crossing ahead." {
			t.Errorf("insights: got %q", res.Insights)
		}
	})

	t.Run("insights fail", func(t *testing.T) {
		s := NewService(g, stubDirections{r: twoStepRoute()}, WithInsights(stubInsights{err: errors.New("llm down")}))
		res, err := s.Route(context.Background(), from, "the library")
		if err != nil {
			t.Fatalf("Route: %v", err)
		}
		if res.Insights != "" {
			t.Errorf("insights: got %q, want empty", res.Insights)
		}
	})

	t.Run("empty route", func(t *testing.T) {
		s := NewService(g, stubDirections{r: &route.Route{}})
		_, err := s.Route(context.Background(), from, "the library")
		if !errors.Is(err, ErrNoRoute) {
			t.Errorf("got %v, want ErrNoRoute", err)
		}
	})

	t.Run("geocode fails", func(t *testing.T) {
		s := NewService(&stubGeocoder{err: ErrNotFound}, stubDirections{r: twoStepRoute()})
		_, err := s.Route(context.Background(), from, "atlantis")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("bad input", func(t *testing.T) {
		s := NewService(g, stubDirections{r: twoStepRoute()})
		if _, err := s.Route(context.Background(), from, "  "); !errors.Is(err, ErrDestination) {
			t.Errorf("got %v, want ErrDestination", err)
		}
		if _, err := s.Route(context.Background(), geo.Point{Lat: 200}, "x"); !errors.Is(err, ErrNoOrigin) {
			t.Errorf("got %v, want ErrNoOrigin", err)
		}
	})
}
