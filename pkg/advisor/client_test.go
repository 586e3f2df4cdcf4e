package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/teslashibe/go-nain/pkg/detection"
	"github.com/teslashibe/go-nain/pkg/geo"
	"github.com/teslashibe/go-nain/pkg/inference"
	"github.com/teslashibe/go-nain/pkg/route"
)

func TestClientAssess(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    Assessment
		wantErr bool
	}{
		{
			name:  "plain json",
			reply: `{"should_alert": true, "guidance": " Bicycle approaching on your left ", "urgency": "high"}`,
			want:  Assessment{ShouldAlert: true, Guidance: "Bicycle approaching on your left", Urgency: UrgencyHigh},
		},
		{
			name:  "fenced with unknown urgency",
			reply: "```json\n{\"should_alert\": false, \"guidance\": \"\", \"urgency\": \"none\"}\n```",
			want:  Assessment{Urgency: UrgencyLow},
		},
		{
			name:    "empty reply",
			reply:   "",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := inference.NewMock(tt.reply)
			c := NewClient(llm, nil)
			got, err := c.Assess(context.Background(), Situation{
				Instruction: "Turn right",
				Detections:  []detection.Detection{{ClassName: "bicycle", Confidence: 0.9, Box: detection.Box{W: 100, H: 80}}},
				Progress:    route.Progress{StepNumber: 2, TotalSteps: 5, RemainingDistance: 400},
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err: got %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}

			req := llm.Requests()[0]
			if !req.JSON {
				t.Error("assessment should request JSON output")
			}
			user := req.Messages[len(req.Messages)-1].Content
			if !strings.Contains(user, "Turn right") || !strings.Contains(user, "bicycle") || !strings.Contains(user, "Step 2 of 5") {
				t.Errorf("prompt missing context: %q", user)
			}
		})
	}
}

func TestClientAdvise(t *testing.T) {
	llm := inference.NewMock("  It is about ten minutes away.  ")
	c := NewClient(llm, nil)

	loc := geo.Point{Lat: 1, Lon: 2}
	got, err := c.Advise(context.Background(), AdviceRequest{
		Question:    "how long will it take",
		Destination: "the library",
		Location:    &loc,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "It is about ten minutes away." {
		t.Errorf("Advise: got %q", got)
	}

	msgs := llm.Requests()[0].Messages
	if len(msgs) != 3 {
		t.Fatalf("messages: got %d, want 3", len(msgs))
	}
	if !strings.Contains(msgs[1].Content, "the library") {
		t.Errorf("context message: %q", msgs[1].Content)
	}
}

func TestClientAdviseError(t *testing.T) {
	c := NewClient(inference.WithError(errors.New("down")), nil)
	if _, err := c.Advise(context.Background(), AdviceRequest{Question: "hi"}); err == nil {
		t.Error("expected error")
	}
}

func TestClientRouteInsights(t *testing.T) {
	c := NewClient(inference.NewMock(`"Use the signalized crossing at Main Street."`), nil)

	got, err := c.RouteInsights(context.Background(), "library", &route.Route{
		Steps: []route.Step{{Instruction: "Head north", DistanceMeters: 100}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "Use the signalized crossing at Main Street." {
		t.Errorf("RouteInsights: got %q", got)
	}

	empty, err := c.RouteInsights(context.Background(), "x", nil)
	if err != nil || empty != "" {
		t.Errorf("nil route: got (%q, %v)", empty, err)
	}
}

func TestSituationSummary(t *testing.T) {
	s := Situation{Destination: "the park", Progress: route.Progress{StepNumber: 1, TotalSteps: 4, RemainingDistance: 1234}}
	want := "Step 1 of 4. About 1.2 kilometers remaining to the park."
	if got := s.Summary(); got != want {
		t.Errorf("Summary: got %q, want %q", got, want)
	}
}
