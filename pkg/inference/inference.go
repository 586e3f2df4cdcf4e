// Package inference is a small client for OpenAI-compatible chat completion
// APIs (OpenAI, Ollama, vLLM, Groq and similar).
//
// go-nain uses it for intent recognition, situational guidance and general
// questions. Callers that must not retry build the client with WithRetry(0, 0).
//
//	client, _ := inference.NewClient(
//	    inference.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    inference.WithModel("gpt-4o-mini"),
//	)
//	resp, _ := client.Chat(ctx, &inference.ChatRequest{
//	    Messages: []inference.Message{inference.NewUserMessage("Hello")},
//	})
package inference

import "context"

// Provider generates chat completions.
type Provider interface {
	// Chat generates a response from a sequence of messages.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// ChatRequest for chat completions.
type ChatRequest struct {
	Messages []Message

	// Model overrides the default model.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls randomness (0.0-2.0). Zero uses the client default.
	Temperature float64

	// JSON asks the model for a single JSON object.
	JSON bool
}

// ChatResponse from chat completion.
type ChatResponse struct {
	Message      Message
	FinishReason string
	Usage        Usage
	Model        string
	LatencyMs    int64
}

// Content returns the assistant text.
func (r *ChatResponse) Content() string {
	if r == nil {
		return ""
	}
	return r.Message.Content
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
