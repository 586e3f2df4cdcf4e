// Package detection finds obstacles in camera frames.
//
// Two backends implement Detector: Client talks to a YOLO detection
// service over HTTP, and YOLO runs a YOLOv8 ONNX model in-process with gocv.
package detection

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
)

// QualifyingConfidence is the confidence a detection must exceed to count
// as an obstacle.
const QualifyingConfidence = 0.5

// Box is a bounding box in frame pixels, top-left origin.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Area returns the box area in square pixels.
func (b Box) Area() float64 {
	if b.W <= 0 || b.H <= 0 {
		return 0
	}
	return b.W * b.H
}

// Center returns the center point of the box.
func (b Box) Center() (x, y float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Detection is one detected object.
type Detection struct {
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"bbox"`
}

// Qualifies reports whether d is confident enough and has a real box.
func (d Detection) Qualifies() bool {
	return d.Confidence > QualifyingConfidence && d.Box.Area() > 0
}

// Detector finds objects in a JPEG frame.
type Detector interface {
	// Detect returns all detections in the frame. It returns an error
	// wrapping ErrUnavailable when the backend cannot be reached.
	Detect(ctx context.Context, jpeg []byte) ([]Detection, error)

	// Close releases resources.
	Close() error
}

// DefaultObstacles are the classes worth telling a pedestrian about.
var DefaultObstacles = []string{
	"person", "bicycle", "car", "motorcycle", "bus", "truck", "train",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench",
	"dog", "horse", "chair", "couch", "potted plant", "suitcase", "dining table",
	"skateboard", "umbrella",
}

// Filter keeps qualifying detections whose class is in an allow-list.
type Filter struct {
	allowed map[string]struct{}
}

// NewFilter builds a filter. An empty list uses DefaultObstacles.
func NewFilter(classes []string) *Filter {
	if len(classes) == 0 {
		classes = DefaultObstacles
	}
	f := &Filter{allowed: make(map[string]struct{}, len(classes))}
	for _, c := range classes {
		f.allowed[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	return f
}

// Allows reports whether className is on the allow-list.
func (f *Filter) Allows(className string) bool {
	_, ok := f.allowed[strings.ToLower(className)]
	return ok
}

// Obstacles returns the qualifying, allow-listed detections, largest first.
func (f *Filter) Obstacles(dets []Detection) []Detection {
	var out []Detection
	for _, d := range dets {
		if d.Qualifies() && f.Allows(d.ClassName) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Box.Area() > out[j].Box.Area()
	})
	return out
}

// Camera geometry used for rough distance estimates.
const (
	FrameWidth        = 640.0
	FrameHeight       = 480.0
	HorizontalFOVDeg  = 62.0
	KnownObjectWidthM = 0.20
)

var focalLengthPixels = (FrameWidth / 2) / math.Tan((HorizontalFOVDeg/2)*math.Pi/180)

// EstimateDistance approximates the distance in meters to an object of
// KnownObjectWidthM whose box is boxWidth pixels wide. It returns 0 for
// degenerate boxes.
func EstimateDistance(boxWidth float64) float64 {
	if boxWidth <= 0 {
		return 0
	}
	return KnownObjectWidthM * focalLengthPixels / boxWidth
}

// Describe renders an obstacle for display, e.g. "person, about 2 meters".
func Describe(d Detection) string {
	dist := EstimateDistance(d.Box.W)
	if dist <= 0 {
		return d.ClassName
	}
	if dist < 1 {
		return fmt.Sprintf("%s, very close", d.ClassName)
	}
	return fmt.Sprintf("%s, about %.0f meters", d.ClassName, dist)
}
