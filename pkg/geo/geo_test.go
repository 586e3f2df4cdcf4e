package geo

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tol                    float64
	}{
		{"same point", 40.0, -74.0, 40.0, -74.0, 0, 1e-9},
		{"one degree latitude", 0, 0, 1, 0, 111_194.93, 1},
		{"one degree longitude at equator", 0, 0, 0, 1, 111_194.93, 1},
		{"short hop north", 40.0000, -74.0, 40.0001, -74.0, 11.12, 0.05},
		{"antipodal", 0, 0, 0, 180, math.Pi * EarthRadius, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("Distance: got %.3f, want %.3f ± %.3f", got, tt.want, tt.tol)
			}
		})
	}
}

func TestDistanceSymmetric(t *testing.T) {
	a := Point{Lat: 51.5007, Lon: -0.1246}
	b := Point{Lat: 48.8584, Lon: 2.2945}
	if d1, d2 := a.DistanceTo(b), b.DistanceTo(a); math.Abs(d1-d2) > 1e-6 {
		t.Errorf("not symmetric: %f vs %f", d1, d2)
	}
}

func TestPointValid(t *testing.T) {
	if !(Point{Lat: 45, Lon: 120}).Valid() {
		t.Error("expected valid point")
	}
	if (Point{Lat: 91, Lon: 0}).Valid() {
		t.Error("latitude 91 should be invalid")
	}
	if (Point{Lat: math.NaN(), Lon: 0}).Valid() {
		t.Error("NaN should be invalid")
	}
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.6, "1 meter"},
		{12.4, "12 meters"},
		{999.4, "999 meters"},
		{1430, "1.4 kilometers"},
		{-3, "0 meters"},
	}
	for _, tt := range tests {
		if got := FormatDistance(tt.in); got != tt.want {
			t.Errorf("FormatDistance(%v): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{20, "less than a minute"},
		{60, "1 minute"},
		{720, "12 minutes"},
		{3600, "1 hour"},
		{5400, "1 hour 30 minutes"},
		{7200, "2 hours"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v): got %q, want %q", tt.in, got, tt.want)
		}
	}
}
