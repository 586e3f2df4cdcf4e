// Package tts synthesizes spoken audio for navigation prompts.
//
// Providers implement a small interface so the speech channel can switch
// between server-side synthesis and browser speech without caller changes.
//
//	provider, _ := tts.NewOpenAI(
//	    tts.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    tts.WithVoice(tts.VoiceNova),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "Turn left onto Elm Street")
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to a complete audio clip.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and credentials.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult is a synthesized clip.
type AudioResult struct {
	Audio     []byte
	Format    Format
	CharCount int

	// LatencyMs is the time until the full clip was received.
	LatencyMs int64
}

// Format is an audio container the browser can play directly.
type Format string

const (
	FormatMP3  Format = "mp3"
	FormatOpus Format = "opus"
	FormatAAC  Format = "aac"
	FormatWAV  Format = "wav"
)

// MIME returns the content type for f.
func (f Format) MIME() string {
	switch f {
	case FormatOpus:
		return "audio/ogg"
	case FormatAAC:
		return "audio/aac"
	case FormatWAV:
		return "audio/wav"
	default:
		return "audio/mpeg"
	}
}

// EstimateDuration guesses playback length from text at a walking-pace
// speaking rate of about 150 words per minute.
func EstimateDuration(text string, speed float64) time.Duration {
	if speed <= 0 {
		speed = 1
	}
	words := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			inWord = false
			continue
		}
		if !inWord {
			words++
			inWord = true
		}
	}
	return time.Duration(float64(words) / 2.5 / speed * float64(time.Second))
}
