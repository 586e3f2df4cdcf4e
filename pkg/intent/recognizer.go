package intent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/teslashibe/go-nain/pkg/inference"
)

const recognizePrompt = `You turn what a blind or low-vision pedestrian says into a command for a walking navigation assistant.
Reply with one JSON object: {"action": string, "destination": string|null, "place": string|null, "response": string|null}
Actions:
- "navigate": the user wants directions. destination is the place or address they named.
- "locate": the user wants the nearest place of a type. place is the type, e.g. "pharmacy" or "coffee shop".
- "help": the user asks what you can do.
- "info": the user asks who or what you are.
- "emergency": the user is hurt, lost and scared, or in danger. response tells them what to do.
- "unknown": anything else. If you can answer briefly, put the answer in response; otherwise use null.
Keep response to one short spoken sentence.`

// Recognizer turns a transcript into an Intent.
type Recognizer interface {
	Recognize(ctx context.Context, text string) Intent
}

// LLMRecognizer recognizes intents with a chat model.
type LLMRecognizer struct {
	llm    inference.Provider
	logger *slog.Logger
}

// NewLLMRecognizer wraps an inference provider.
func NewLLMRecognizer(llm inference.Provider, logger *slog.Logger) *LLMRecognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMRecognizer{llm: llm, logger: logger.With("component", "intent.recognizer")}
}

// Recognize returns Unknown when the model fails or answers nonsense.
func (r *LLMRecognizer) Recognize(ctx context.Context, text string) Intent {
	text = strings.TrimSpace(text)
	if text == "" {
		return Unknown{}
	}

	resp, err := r.llm.Chat(ctx, &inference.ChatRequest{
		Messages: []inference.Message{
			inference.NewSystemMessage(recognizePrompt),
			inference.NewUserMessage(text),
		},
		JSON:        true,
		Temperature: 0.1,
	})
	if err != nil {
		r.logger.Warn("intent recognition failed", "error", err)
		return Unknown{}
	}

	in := Parse([]byte(resp.Content()))
	r.logger.Debug("intent recognized", "action", in.Action(), "text", text)
	return in
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context, text string) Intent

// Recognize calls f.
func (f RecognizerFunc) Recognize(ctx context.Context, text string) Intent { return f(ctx, text) }

var _ Recognizer = (*LLMRecognizer)(nil)
