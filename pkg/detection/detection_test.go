package detection

import (
	"math"
	"testing"
)

func TestQualifies(t *testing.T) {
	tests := []struct {
		name string
		d    Detection
		want bool
	}{
		{"confident with box", Detection{Confidence: 0.8, Box: Box{W: 10, H: 10}}, true},
		{"at threshold", Detection{Confidence: 0.5, Box: Box{W: 10, H: 10}}, false},
		{"zero width", Detection{Confidence: 0.9, Box: Box{W: 0, H: 10}}, false},
		{"negative height", Detection{Confidence: 0.9, Box: Box{W: 10, H: -4}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Qualifies(); got != tt.want {
				t.Errorf("Qualifies: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterObstacles(t *testing.T) {
	f := NewFilter(nil)
	dets := []Detection{
		{ClassName: "person", Confidence: 0.9, Box: Box{W: 20, H: 40}},
		{ClassName: "car", Confidence: 0.7, Box: Box{W: 100, H: 60}},
		{ClassName: "cup", Confidence: 0.95, Box: Box{W: 50, H: 50}},
		{ClassName: "dog", Confidence: 0.3, Box: Box{W: 50, H: 50}},
	}

	got := f.Obstacles(dets)
	if len(got) != 2 {
		t.Fatalf("Obstacles: got %d, want 2 (%v)", len(got), got)
	}
	if got[0].ClassName != "car" || got[1].ClassName != "person" {
		t.Errorf("order: got %s, %s; want car, person", got[0].ClassName, got[1].ClassName)
	}
}

func TestFilterCustomList(t *testing.T) {
	f := NewFilter([]string{" Cup "})
	if !f.Allows("cup") {
		t.Error("expected cup to be allowed")
	}
	if f.Allows("person") {
		t.Error("person should not be allowed by a custom list")
	}
}

func TestEstimateDistance(t *testing.T) {
	if EstimateDistance(0) != 0 {
		t.Error("zero width should give 0")
	}
	// focal length for 640 px at 62 degrees is about 532.6 px
	got := EstimateDistance(53.26)
	if math.Abs(got-2.0) > 0.01 {
		t.Errorf("EstimateDistance: got %.3f, want ~2.0", got)
	}
	if EstimateDistance(100) >= EstimateDistance(50) {
		t.Error("wider boxes should be closer")
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe(Detection{ClassName: "person", Box: Box{W: 53.26}}); got != "person, about 2 meters" {
		t.Errorf("Describe: got %q", got)
	}
	if got := Describe(Detection{ClassName: "car", Box: Box{W: 600}}); got != "car, very close" {
		t.Errorf("Describe: got %q", got)
	}
	if got := Describe(Detection{ClassName: "bench"}); got != "bench" {
		t.Errorf("Describe: got %q", got)
	}
}

func TestClassName(t *testing.T) {
	if ClassName(0) != "person" {
		t.Errorf("ClassName(0): got %q", ClassName(0))
	}
	if ClassName(79) != "toothbrush" {
		t.Errorf("ClassName(79): got %q", ClassName(79))
	}
	if ClassName(99) != "class_99" {
		t.Errorf("ClassName(99): got %q", ClassName(99))
	}
}
