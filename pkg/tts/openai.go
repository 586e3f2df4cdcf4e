package tts

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

	"github.com/teslashibe/go-nain/internal/httpc"
)

const (
	openAITTSURL    = "https://api.openai.com/v1/audio/speech"
	openAIModelsURL = "https://api.openai.com/v1/models"
	providerOpenAI  = "openai"
)

// OpenAI voice options
const (
	VoiceAlloy   = "alloy"
	VoiceEcho    = "echo"
	VoiceFable   = "fable"
	VoiceNova    = "nova"
	VoiceShimmer = "shimmer"
)

// OpenAI model options
const (
	ModelTTS1   = "tts-1"    // lower latency
	ModelTTS1HD = "tts-1-hd" // higher quality
)

// OpenAI implements Provider for OpenAI TTS.
type OpenAI struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewOpenAI creates a new OpenAI TTS provider.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Voice == "" {
		cfg.Voice = VoiceNova
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openAITTSURL
	}

	return &OpenAI{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "tts.openai"),
		baseURL: baseURL,
	}, nil
}

type speechPayload struct {
	Model          string  `json:"model"`
	Voice          string  `json:"voice"`
	Input          string  `json:"input"`
	ResponseFormat Format  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

// Synthesize converts text to audio.
func (o *OpenAI) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	start := time.Now()

	body, err := json.Marshal(speechPayload{
		Model:          o.config.Model,
		Voice:          o.config.Voice,
		Input:          text,
		ResponseFormat: o.config.Format,
		Speed:          o.config.Speed,
	})
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("marshal payload: %w", err))
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+o.config.APIKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, o.parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("read response: %w", err))
	}
	latency := time.Since(start).Milliseconds()

	o.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", o.config.Voice,
	)

	return &AudioResult{
		Audio:     audio,
		Format:    o.config.Format,
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Health checks API connectivity.
func (o *OpenAI) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAIModelsURL, nil)
	if err != nil {
		return WrapError(providerOpenAI, err)
	}
	req.Header.Set("Authorization", "Bearer "+o.config.APIKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return WrapError(providerOpenAI, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return o.parseError(resp)
	}
	return nil
}

// Close releases resources.
func (o *OpenAI) Close() error {
	o.client.CloseIdleConnections()
	return nil
}

// Voice returns the configured voice.
func (o *OpenAI) Voice() string {
	return o.config.Voice
}

func (o *OpenAI) doWithRetry(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= o.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(o.config.RetryDelay * time.Duration(attempt)):
			}
		}

		req, err := build()
		if err != nil {
			return nil, WrapError(providerOpenAI, fmt.Errorf("create request: %w", err))
		}

		resp, err := o.client.Do(req)
		if err != nil {
			lastErr = WrapError(providerOpenAI, err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = o.parseError(resp)
			resp.Body.Close()
			o.logger.Warn("speech request failed",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

func (o *OpenAI) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	message := string(body)
	code := ""
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
		code = errResp.Error.Code
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Code:       code,
		Provider:   providerOpenAI,
	}
}

var _ Provider = (*OpenAI)(nil)
