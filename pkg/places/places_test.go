package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/teslashibe/go-nain/pkg/geo"
)

func TestTagFor(t *testing.T) {
	tests := []struct {
		in   string
		want Tag
	}{
		{"pharmacy", Tag{"amenity", "pharmacy"}},
		{"Coffee Shop", Tag{"amenity", "cafe"}},
		{"pharmacies", Tag{"amenity", "pharmacy"}},
		{"ATMs", Tag{"amenity", "atm"}},
		{"restaurants", Tag{"amenity", "restaurant"}},
		{"bus stop", Tag{"highway", "bus_stop"}},
		{"post office", Tag{"amenity", "post_office"}},
	}
	for _, tt := range tests {
		if got := TagFor(tt.in); got != tt.want {
			t.Errorf("TagFor(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRank(t *testing.T) {
	at := geo.Point{Lat: 40.0, Lon: -74.0}
	ps := Rank(at, []Place{
		{Name: "far", Location: geo.Point{Lat: 40.01, Lon: -74.0}},
		{Name: "near", Location: geo.Point{Lat: 40.001, Lon: -74.0}},
	})
	if ps[0].Name != "near" {
		t.Errorf("first: got %q, want near", ps[0].Name)
	}
	if ps[0].Distance < 100 || ps[0].Distance > 125 {
		t.Errorf("Distance: got %.1f, want ~111", ps[0].Distance)
	}
}

func TestOverpassNearby(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("data")
		if !strings.Contains(q, `["amenity"="pharmacy"](around:1500,40.000000,-74.000000)`) {
			t.Errorf("query: got %q", q)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"elements": []map[string]any{
				{"type": "node", "lat": 40.005, "lon": -74.0, "tags": map[string]string{"name": "Far Drugs"}},
				{"type": "way", "center": map[string]float64{"lat": 40.0008, "lon": -74.0}, "tags": map[string]string{"name": "Corner Pharmacy"}},
				{"type": "node", "lat": 40.002, "lon": -74.0, "tags": map[string]string{}},
			},
		})
	}))
	defer srv.Close()

	o := NewOverpass(OverpassConfig{URL: srv.URL})
	got, err := o.Nearby(context.Background(), geo.Point{Lat: 40.0, Lon: -74.0}, "pharmacy")
	if err != nil {
		t.Fatalf("Nearby: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("results: got %d, want 3", len(got))
	}
	if got[0].Name != "Corner Pharmacy" {
		t.Errorf("nearest: got %q, want Corner Pharmacy", got[0].Name)
	}
	if got[1].Name != "an unnamed pharmacy" {
		t.Errorf("unnamed: got %q", got[1].Name)
	}
}

func TestOverpassEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"elements":[]}`))
	}))
	defer srv.Close()

	got, err := NewOverpass(OverpassConfig{URL: srv.URL}).Nearby(context.Background(), geo.Point{Lat: 1, Lon: 1}, "atm")
	if err != nil {
		t.Fatalf("empty result should not error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("results: got %d, want 0", len(got))
	}
}

func TestOverpassError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := NewOverpass(OverpassConfig{URL: srv.URL}).Nearby(context.Background(), geo.Point{Lat: 1, Lon: 1}, "atm"); err == nil {
		t.Error("expected error")
	}
}
