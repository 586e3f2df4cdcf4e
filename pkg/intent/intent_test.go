package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/teslashibe/go-nain/pkg/inference"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Intent
	}{
		{"navigate", `{"action":"navigate","destination":"Central Park","place":null,"response":null}`, Navigate{Destination: "Central Park"}},
		{"navigate no destination", `{"action":"navigate","destination":null}`, Navigate{}},
		{"locate", `{"action":"locate","place":"coffee shop","response":"Looking for coffee."}`, Locate{Place: "coffee shop", Response: "Looking for coffee."}},
		{"help", `{"action":"help"}`, Help{}},
		{"info with response", `{"action":"info","response":"I guide you."}`, Info{Response: "I guide you."}},
		{"emergency", `{"action":"Emergency","response":"Call 911."}`, Emergency{Response: "Call 911."}},
		{"unknown action", `{"action":"dance"}`, Unknown{}},
		{"null strings", `{"action":"locate","place":"null","response":"none"}`, Locate{}},
		{"fenced", "```json\n{\"action\":\"help\"}\n```", Help{}},
		{"empty", ``, Unknown{}},
		{"not an object", `[1, 2]`, Unknown{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse([]byte(tt.raw))
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestLLMRecognizer(t *testing.T) {
	llm := inference.NewMock(`{"action":"navigate","destination":"the library"}`)
	r := NewLLMRecognizer(llm, nil)

	got := r.Recognize(context.Background(), "take me to the library")
	if got != (Navigate{Destination: "the library"}) {
		t.Errorf("got %#v", got)
	}

	reqs := llm.Requests()
	if len(reqs) != 1 {
		t.Fatalf("got %d requests, want 1", len(reqs))
	}
	if !reqs[0].JSON {
		t.Error("request should ask for JSON output")
	}
	if reqs[0].Messages[1].Content != "take me to the library" {
		t.Errorf("user message: got %q", reqs[0].Messages[1].Content)
	}
}

func TestLLMRecognizerFailure(t *testing.T) {
	r := NewLLMRecognizer(inference.WithError(errors.New("boom")), nil)
	if got := r.Recognize(context.Background(), "hello"); got != (Unknown{}) {
		t.Errorf("got %#v, want Unknown{}", got)
	}
}

func TestLLMRecognizerEmptyText(t *testing.T) {
	llm := inference.NewMock(`{"action":"help"}`)
	r := NewLLMRecognizer(llm, nil)
	if got := r.Recognize(context.Background(), "   "); got != (Unknown{}) {
		t.Errorf("got %#v, want Unknown{}", got)
	}
	if llm.CallCount() != 0 {
		t.Errorf("got %d calls, want 0", llm.CallCount())
	}
}
