package tts

import (
	"log/slog"
	"time"
)

// Config holds TTS provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	APIKey  string
	BaseURL string

	Voice  string
	Model  string
	Format Format

	// Speed is the playback rate, 0.25 to 4.0.
	Speed float64

	Timeout time.Duration

	MaxRetries int
	RetryDelay time.Duration

	Logger *slog.Logger
}

// Option is a functional option for configuring TTS providers.
type Option func(*Config)

// WithAPIKey sets the API key for the provider.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL overrides the default API URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithVoice sets the voice.
func WithVoice(voice string) Option {
	return func(c *Config) {
		c.Voice = voice
	}
}

// WithModel sets the model.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithFormat sets the audio container.
func WithFormat(f Format) Option {
	return func(c *Config) {
		c.Format = f
	}
}

// WithSpeed sets the speaking rate.
func WithSpeed(speed float64) Option {
	return func(c *Config) {
		c.Speed = speed
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithRetry configures retry behavior for failed requests.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithLogger sets the structured logger for the provider.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns the default configuration. Prompts are short and
// time sensitive, so failed requests are not retried.
func DefaultConfig() *Config {
	return &Config{
		Model:      ModelTTS1,
		Voice:      VoiceNova,
		Format:     FormatMP3,
		Speed:      1.0,
		Timeout:    15 * time.Second,
		MaxRetries: 0,
		RetryDelay: 200 * time.Millisecond,
		Logger:     slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	if c.Speed < 0.25 || c.Speed > 4.0 {
		return ErrBadSpeed
	}
	return nil
}
