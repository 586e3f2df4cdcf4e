package speech

import (
	"context"
	"encoding/base64"
	"log/slog"
	"time"

	"github.com/teslashibe/go-nain/pkg/tts"
)

// Event types published to clients.
const (
	EventSpeech = "speech"
	EventAudio  = "audio"
	EventCancel = "speech_cancel"
)

// Publisher delivers events to connected clients.
type Publisher interface {
	Publish(eventType string, data any)
}

// AudioEvent carries synthesized audio to a client.
type AudioEvent struct {
	ID   uint64 `json:"id"`
	Text string `json:"text"`
	MIME string `json:"mime"`
	Data string `json:"data"` // base64
}

// CancelEvent tells a client to stop an utterance.
type CancelEvent struct {
	ID uint64 `json:"id"`
}

// BroadcastOutput sends text to clients, which speak it with their own
// speech synthesis. Speak holds the channel for the estimated playback
// time so a later utterance cancels this one on the client too.
type BroadcastOutput struct {
	pub   Publisher
	speed float64
}

// NewBroadcastOutput creates a text output.
func NewBroadcastOutput(pub Publisher) *BroadcastOutput {
	return &BroadcastOutput{pub: pub, speed: 1}
}

// Speak implements Output.
func (b *BroadcastOutput) Speak(ctx context.Context, u Utterance) error {
	b.pub.Publish(EventSpeech, u)
	return hold(ctx, b.pub, u, tts.EstimateDuration(u.Text, b.speed))
}

// TTSOutput synthesizes audio on the server and sends it to clients.
// When synthesis fails the text is sent instead.
type TTSOutput struct {
	provider tts.Provider
	pub      Publisher
	speed    float64
	logger   *slog.Logger
}

// NewTTSOutput creates an audio output.
func NewTTSOutput(provider tts.Provider, pub Publisher, logger *slog.Logger) *TTSOutput {
	if logger == nil {
		logger = slog.Default()
	}
	return &TTSOutput{
		provider: provider,
		pub:      pub,
		speed:    1,
		logger:   logger.With("component", "speech.tts"),
	}
}

// Speak implements Output.
func (o *TTSOutput) Speak(ctx context.Context, u Utterance) error {
	res, err := o.provider.Synthesize(ctx, u.Text)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		o.logger.Warn("synthesis failed, sending text", "id", u.ID, "error", err)
		o.pub.Publish(EventSpeech, u)
		return hold(ctx, o.pub, u, tts.EstimateDuration(u.Text, o.speed))
	}

	o.pub.Publish(EventAudio, AudioEvent{
		ID:   u.ID,
		Text: u.Text,
		MIME: res.Format.MIME(),
		Data: base64.StdEncoding.EncodeToString(res.Audio),
	})
	return hold(ctx, o.pub, u, tts.EstimateDuration(u.Text, o.speed))
}

// hold waits for playback to finish, telling clients to stop if ctx is
// cancelled first.
func hold(ctx context.Context, pub Publisher, u Utterance, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		pub.Publish(EventCancel, CancelEvent{ID: u.ID})
		return ctx.Err()
	}
}

var (
	_ Output = (*BroadcastOutput)(nil)
	_ Output = (*TTSOutput)(nil)
)
