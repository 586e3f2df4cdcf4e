// Package geo provides great-circle distance helpers for walking navigation.
package geo

import (
	"fmt"
	"math"
)

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6_371_000.0

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Distance returns the haversine distance in meters between two coordinates.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadius * c
}

// DistanceTo returns the distance in meters from p to q.
func (p Point) DistanceTo(q Point) float64 {
	return Distance(p.Lat, p.Lon, q.Lat, q.Lon)
}

// Valid reports whether p lies within coordinate bounds.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180 &&
		!math.IsNaN(p.Lat) && !math.IsNaN(p.Lon)
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

// FormatDistance renders meters the way they are read aloud.
func FormatDistance(meters float64) string {
	switch {
	case meters < 0:
		meters = 0
		fallthrough
	case meters < 1000:
		m := int(math.Round(meters))
		if m == 1 {
			return "1 meter"
		}
		return fmt.Sprintf("%d meters", m)
	default:
		return fmt.Sprintf("%.1f kilometers", meters/1000)
	}
}

// FormatDuration renders seconds as spoken minutes.
func FormatDuration(seconds float64) string {
	minutes := int(math.Round(seconds / 60))
	if minutes < 1 {
		return "less than a minute"
	}
	if minutes < 60 {
		return plural(minutes, "minute")
	}
	h, m := minutes/60, minutes%60
	if m == 0 {
		return plural(h, "hour")
	}
	return plural(h, "hour") + " " + plural(m, "minute")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
