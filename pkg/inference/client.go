package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const providerName = "openai-compatible"

// Client talks to an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	baseURL string
	config  *Config
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a new inference client.
func NewClient(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		config:  cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger.With("component", "inference.client"),
	}, nil
}

type chatPayload struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	Temperature    float64           `json:"temperature,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Chat generates a chat completion.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	payload := chatPayload{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if payload.Model == "" {
		payload.Model = c.config.Model
	}
	if payload.MaxTokens == 0 {
		payload.MaxTokens = c.config.MaxTokens
	}
	if payload.Temperature == 0 {
		payload.Temperature = c.config.Temperature
	}
	if req.JSON {
		payload.ResponseFormat = map[string]string{"type": "json_object"}
	}
	for _, m := range req.Messages {
		payload.Messages = append(payload.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerName, fmt.Errorf("marshal payload: %w", err))
	}

	resp, err := c.doWithRetry(ctx, "/chat/completions", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, WrapError(providerName, fmt.Errorf("decode response: %w", err))
	}
	if len(result.Choices) == 0 {
		return nil, WrapError(providerName, ErrEmptyResponse)
	}

	choice := result.Choices[0]
	out := &ChatResponse{
		Message:      NewAssistantMessage(choice.Message.Content),
		FinishReason: choice.FinishReason,
		Usage: Usage{
			PromptTokens:     result.Usage.PromptTokens,
			CompletionTokens: result.Usage.CompletionTokens,
			TotalTokens:      result.Usage.TotalTokens,
		},
		Model:     result.Model,
		LatencyMs: time.Since(start).Milliseconds(),
	}

	c.logger.Debug("chat completed",
		"model", out.Model,
		"tokens", out.Usage.TotalTokens,
		"latency_ms", out.LatencyMs,
	)
	return out, nil
}

// Health checks API connectivity.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return WrapError(providerName, err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return WrapError(providerName, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	return nil
}

// Close releases resources.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
}

// doWithRetry posts body to path, retrying 429 and 5xx up to MaxRetries times.
func (c *Client) doWithRetry(ctx context.Context, path string, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, WrapError(providerName, fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		c.authorize(req)

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = WrapError(providerName, err)
			continue
		}

		if resp.StatusCode == http.StatusOK {
			return resp, nil
		}

		apiErr := c.parseError(resp)
		resp.Body.Close()
		if !apiErr.IsRetryable() {
			return nil, apiErr
		}
		lastErr = apiErr
		if attempt < c.config.MaxRetries {
			c.logger.Warn("retrying request", "attempt", attempt+1, "status", apiErr.StatusCode)
		}
	}

	return nil, lastErr
}

// parseError reads an OpenAI-style error body.
func (c *Client) parseError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
		Provider:   providerName,
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
		apiErr.Code = errResp.Error.Code
	}
	return apiErr
}

var _ Provider = (*Client)(nil)
