package routing

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/teslashibe/go-nain/internal/httpc"
	"github.com/teslashibe/go-nain/pkg/geo"
)

// DefaultNominatimURL is the public OpenStreetMap geocoder.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// searchBox is the half-width in degrees of the area searched first.
const searchBox = 0.05

// NominatimConfig configures the Nominatim client.
type NominatimConfig struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Nominatim geocodes with a Nominatim server.
type Nominatim struct {
	cfg    NominatimConfig
	http   *http.Client
	logger *slog.Logger
}

// NewNominatim creates a Nominatim client.
func NewNominatim(cfg NominatimConfig) *Nominatim {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultNominatimURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Nominatim{
		cfg:    cfg,
		http:   httpc.NewClient(cfg.Timeout),
		logger: cfg.Logger.With("component", "routing.nominatim"),
	}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// URL builds the search URL. Results inside a box around near are preferred.
func (n *Nominatim) URL(query string, near geo.Point) string {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")
	if near.Valid() {
		q.Set("viewbox", fmt.Sprintf("%.4f,%.4f,%.4f,%.4f",
			near.Lon-searchBox, near.Lat+searchBox, near.Lon+searchBox, near.Lat-searchBox))
	}
	return n.cfg.BaseURL + "/search?" + q.Encode()
}

// Geocode returns the best match for query.
func (n *Nominatim) Geocode(ctx context.Context, query string, near geo.Point) (Place, error) {
	var results []nominatimResult
	if err := httpc.GetJSON(ctx, n.http, n.URL(query, near), &results); err != nil {
		return Place{}, fmt.Errorf("nominatim: %w", err)
	}
	if len(results) == 0 {
		return Place{}, ErrNotFound
	}

	r := results[0]
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return Place{}, fmt.Errorf("nominatim: bad lat %q: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return Place{}, fmt.Errorf("nominatim: bad lon %q: %w", r.Lon, err)
	}

	name := r.Name
	if name == "" {
		name, _, _ = strings.Cut(r.DisplayName, ",")
	}
	if name == "" {
		name = query
	}

	p := Place{Name: name, Location: geo.Point{Lat: lat, Lon: lon}}
	n.logger.Debug("geocoded", "query", query, "name", p.Name, "location", p.Location.String())
	return p, nil
}

var _ Geocoder = (*Nominatim)(nil)
