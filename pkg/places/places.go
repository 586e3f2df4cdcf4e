// Package places finds points of interest near the user and ranks them by
// walking distance as the crow flies.
package places

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/teslashibe/go-nain/internal/httpc"
	"github.com/teslashibe/go-nain/pkg/geo"
)

// Place is a nearby point of interest.
type Place struct {
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Location geo.Point `json:"location"`
	Distance float64   `json:"distance_meters"`
}

// Searcher finds places of a type around a location.
// An empty result is not an error.
type Searcher interface {
	Nearby(ctx context.Context, at geo.Point, placeType string) ([]Place, error)
}

// Tag is an OpenStreetMap key/value pair.
type Tag struct{ Key, Value string }

// tagAliases maps spoken place types to OSM tags.
var tagAliases = map[string]Tag{
	"coffee":        {"amenity", "cafe"},
	"coffee shop":   {"amenity", "cafe"},
	"cafe":          {"amenity", "cafe"},
	"restaurant":    {"amenity", "restaurant"},
	"pharmacy":      {"amenity", "pharmacy"},
	"drugstore":     {"amenity", "pharmacy"},
	"hospital":      {"amenity", "hospital"},
	"atm":           {"amenity", "atm"},
	"bank":          {"amenity", "bank"},
	"restroom":      {"amenity", "toilets"},
	"bathroom":      {"amenity", "toilets"},
	"toilet":        {"amenity", "toilets"},
	"gas station":   {"amenity", "fuel"},
	"police":        {"amenity", "police"},
	"library":       {"amenity", "library"},
	"bus stop":      {"highway", "bus_stop"},
	"grocery":       {"shop", "supermarket"},
	"grocery store": {"shop", "supermarket"},
	"supermarket":   {"shop", "supermarket"},
	"park":          {"leisure", "park"},
}

// TagFor maps a spoken place type to an OSM tag. Unknown types are tried as
// an amenity value.
func TagFor(placeType string) Tag {
	key := singular(strings.ToLower(strings.TrimSpace(placeType)))
	if t, ok := tagAliases[key]; ok {
		return t
	}
	return Tag{"amenity", strings.ReplaceAll(key, " ", "_")}
}

func singular(s string) string {
	if _, ok := tagAliases[s]; ok {
		return s
	}
	switch {
	case strings.HasSuffix(s, "ies"):
		return strings.TrimSuffix(s, "ies") + "y"
	case strings.HasSuffix(s, "ss"):
		return s
	case strings.HasSuffix(s, "s"):
		return strings.TrimSuffix(s, "s")
	}
	return s
}

// Rank sets each place's distance from at and sorts nearest first.
func Rank(at geo.Point, ps []Place) []Place {
	for i := range ps {
		ps[i].Distance = at.DistanceTo(ps[i].Location)
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Distance < ps[j].Distance })
	return ps
}

// OverpassConfig configures the Overpass client.
type OverpassConfig struct {
	URL     string
	Radius  float64 // meters
	Limit   int
	Timeout time.Duration
	Logger  *slog.Logger
}

// Overpass searches OpenStreetMap through the Overpass API.
type Overpass struct {
	cfg    OverpassConfig
	http   *http.Client
	logger *slog.Logger
}

// NewOverpass creates an Overpass client.
func NewOverpass(cfg OverpassConfig) *Overpass {
	if cfg.Radius <= 0 {
		cfg.Radius = 1500
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 25
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Overpass{
		cfg:    cfg,
		http:   httpc.NewClient(cfg.Timeout),
		logger: cfg.Logger.With("component", "places.overpass"),
	}
}

type overpassResponse struct {
	Elements []struct {
		Type   string            `json:"type"`
		Lat    float64           `json:"lat"`
		Lon    float64           `json:"lon"`
		Center *geo.Point        `json:"center"`
		Tags   map[string]string `json:"tags"`
	} `json:"elements"`
}

// Query builds the Overpass QL query for a tag around a point.
func (o *Overpass) Query(at geo.Point, tag Tag) string {
	filter := fmt.Sprintf(`["%s"="%s"](around:%.0f,%.6f,%.6f)`, tag.Key, tag.Value, o.cfg.Radius, at.Lat, at.Lon)
	return fmt.Sprintf("[out:json][timeout:10];(node%s;way%s;);out center %d;", filter, filter, o.cfg.Limit)
}

// Nearby returns places of placeType sorted by distance from at.
func (o *Overpass) Nearby(ctx context.Context, at geo.Point, placeType string) ([]Place, error) {
	tag := TagFor(placeType)
	u := o.cfg.URL + "?data=" + url.QueryEscape(o.Query(at, tag))

	var resp overpassResponse
	if err := httpc.GetJSON(ctx, o.http, u, &resp); err != nil {
		return nil, fmt.Errorf("places: overpass: %w", err)
	}

	out := make([]Place, 0, len(resp.Elements))
	for _, el := range resp.Elements {
		loc := geo.Point{Lat: el.Lat, Lon: el.Lon}
		if el.Center != nil {
			loc = *el.Center
		}
		if loc.Lat == 0 && loc.Lon == 0 {
			continue
		}
		name := el.Tags["name"]
		if name == "" {
			name = "an unnamed " + strings.ToLower(strings.TrimSpace(placeType))
		}
		out = append(out, Place{Name: name, Type: placeType, Location: loc})
	}

	o.logger.Debug("nearby search", "type", placeType, "tag", tag.Key+"="+tag.Value, "results", len(out))
	return Rank(at, out), nil
}

var _ Searcher = (*Overpass)(nil)
