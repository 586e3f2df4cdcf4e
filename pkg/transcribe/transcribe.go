// Package transcribe turns recorded speech into text with a Whisper server.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-nain/internal/httpc"
)

var (
	// ErrEmptyAudio is returned for an empty recording.
	ErrEmptyAudio = errors.New("transcribe: empty audio")

	// ErrNoSpeech is returned when the recording contains no words.
	ErrNoSpeech = errors.New("transcribe: no speech recognized")
)

// Transcriber converts audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// APIError is a non-success response from the transcription server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("transcribe: API error %d: %s", e.StatusCode, e.Message)
}

// Config configures the Whisper client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
}

// DefaultConfig returns defaults matching a local Whisper server.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:5001",
		Timeout: 30 * time.Second,
		Logger:  slog.Default(),
	}
}

// Whisper calls a Whisper transcription server.
type Whisper struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewWhisper creates a Whisper client.
func NewWhisper(cfg Config) *Whisper {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Whisper{
		cfg:    cfg,
		http:   httpc.NewClient(cfg.Timeout),
		logger: cfg.Logger.With("component", "transcribe.whisper"),
	}
}

type transcribeResponse struct {
	Transcription string `json:"transcription"`
	Language      string `json:"language"`
	Success       bool   `json:"success"`
	Error         string `json:"error"`
	Details       string `json:"details"`
}

// Transcribe uploads audio as multipart field "audio".
func (w *Whisper) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}
	if filename == "" {
		filename = "recording.webm"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", filename)
	if err != nil {
		return "", fmt.Errorf("transcribe: create form: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("transcribe: write form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("transcribe: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.BaseURL+"/transcribe", &body)
	if err != nil {
		return "", fmt.Errorf("transcribe: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	req.Header.Set("User-Agent", httpc.UserAgent)
	resp, err := w.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", parseError(resp)
	}

	var out transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("transcribe: decode response: %w", err)
	}

	text := strings.TrimSpace(out.Transcription)
	w.logger.Debug("transcribed",
		"bytes", len(audio),
		"chars", len(text),
		"language", out.Language,
		"latency_ms", time.Since(start).Milliseconds())

	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

// Health checks that the server is up.
func (w *Whisper) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.cfg.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("transcribe: create request: %w", err)
	}
	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return parseError(resp)
	}
	return nil
}

func parseError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	msg := strings.TrimSpace(string(b))
	var e transcribeResponse
	if json.Unmarshal(b, &e) == nil && e.Error != "" {
		msg = e.Error
		if e.Details != "" {
			msg += ": " + e.Details
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

var _ Transcriber = (*Whisper)(nil)
