package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teslashibe/go-nain/internal/jsonx"
	"github.com/teslashibe/go-nain/pkg/inference"
	"github.com/teslashibe/go-nain/pkg/route"
)

const assessPrompt = `You are a safety assistant for a blind or low-vision pedestrian who is walking a route.
You receive the current navigation instruction, the objects the camera sees and the route progress.
Decide whether the walker needs a spoken heads-up right now. Alert only for something actionable:
an obstacle in the path, a crossing, a vehicle, or a confusing turn. Keep guidance under 25 words.
Reply with JSON only: {"should_alert": bool, "guidance": string, "urgency": "low"|"medium"|"high"}`

const advicePrompt = `You are a friendly voice assistant helping a blind or low-vision pedestrian.
Answer in one or two short spoken sentences. Do not use lists or markdown.`

const insightsPrompt = `You are a safety assistant for a blind or low-vision pedestrian.
Given a walking route, give one or two short spoken sentences of safety tips for it,
for example busy crossings or long stretches. If nothing stands out reply with an empty string.`

// Client implements Advisor with a chat model.
type Client struct {
	llm    inference.Provider
	logger *slog.Logger
}

// NewClient wraps an inference provider.
func NewClient(llm inference.Provider, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{llm: llm, logger: logger.With("component", "advisor")}
}

// Assess asks whether the walker should be alerted.
func (c *Client) Assess(ctx context.Context, s Situation) (Assessment, error) {
	user := fmt.Sprintf("Current instruction: %s\nCamera: %s\nProgress: %s",
		s.Instruction, DescribeDetections(s.Detections), s.Summary())

	resp, err := c.llm.Chat(ctx, &inference.ChatRequest{
		Messages: []inference.Message{
			inference.NewSystemMessage(assessPrompt),
			inference.NewUserMessage(user),
		},
		JSON: true,
	})
	if err != nil {
		return Assessment{}, fmt.Errorf("advisor: assess: %w", err)
	}

	var a Assessment
	if err := jsonx.Unmarshal([]byte(resp.Content()), &a); err != nil {
		return Assessment{}, fmt.Errorf("advisor: parse assessment: %w", err)
	}
	a.Guidance = strings.TrimSpace(a.Guidance)
	switch a.Urgency {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
	default:
		a.Urgency = UrgencyLow
	}
	return a, nil
}

// Advise answers a general question.
func (c *Client) Advise(ctx context.Context, req AdviceRequest) (string, error) {
	var ctxLines []string
	if req.Destination != "" {
		ctxLines = append(ctxLines, "The user is navigating to "+req.Destination+".")
	}
	if req.Instruction != "" {
		ctxLines = append(ctxLines, "Current instruction: "+req.Instruction+".")
	}
	if req.Location != nil {
		ctxLines = append(ctxLines, "User location: "+req.Location.String()+".")
	}

	msgs := []inference.Message{inference.NewSystemMessage(advicePrompt)}
	if len(ctxLines) > 0 {
		msgs = append(msgs, inference.NewSystemMessage(strings.Join(ctxLines, " ")))
	}
	msgs = append(msgs, inference.NewUserMessage(req.Question))

	resp, err := c.llm.Chat(ctx, &inference.ChatRequest{Messages: msgs})
	if err != nil {
		return "", fmt.Errorf("advisor: advise: %w", err)
	}
	return strings.TrimSpace(resp.Content()), nil
}

// RouteInsights returns optional safety tips for a freshly computed route.
func (c *Client) RouteInsights(ctx context.Context, destination string, r *route.Route) (string, error) {
	if r.Len() == 0 {
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Destination: %s\n%s\n", destination, r.Summary())
	for i, s := range r.Steps {
		fmt.Fprintf(&b, "%d. %s (%.0f m)\n", i+1, s.Instruction, s.DistanceMeters)
	}

	resp, err := c.llm.Chat(ctx, &inference.ChatRequest{
		Messages: []inference.Message{
			inference.NewSystemMessage(insightsPrompt),
			inference.NewUserMessage(b.String()),
		},
	})
	if err != nil {
		return "", fmt.Errorf("advisor: route insights: %w", err)
	}
	out := strings.Trim(strings.TrimSpace(resp.Content()), `"`)
	return out, nil
}

var _ Advisor = (*Client)(nil)
