// Package speech is the single spoken-output channel. At most one utterance
// plays at a time and a new one always interrupts the current one.
package speech

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Utterance is one thing to say.
type Utterance struct {
	ID   uint64 `json:"id"`
	Text string `json:"text"`
}

// Output performs one utterance. It must return promptly once ctx is
// cancelled.
type Output interface {
	Speak(ctx context.Context, u Utterance) error
}

// OutputFunc adapts a function to Output.
type OutputFunc func(ctx context.Context, u Utterance) error

// Speak calls f.
func (f OutputFunc) Speak(ctx context.Context, u Utterance) error { return f(ctx, u) }

// Speaker is a single-slot mailbox in front of an Output. Say replaces any
// pending utterance and cancels the one in flight.
type Speaker struct {
	out    Output
	logger *slog.Logger

	mu      sync.Mutex
	seq     uint64
	pending *Utterance
	current *Utterance
	cancel  context.CancelFunc
	last    string
	wake    chan struct{}
}

// NewSpeaker creates a speaker. Call Run to start playback.
func NewSpeaker(out Output, logger *slog.Logger) *Speaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Speaker{
		out:    out,
		logger: logger.With("component", "speech"),
		wake:   make(chan struct{}, 1),
	}
}

// Say interrupts whatever is playing and speaks text next.
func (s *Speaker) Say(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	s.mu.Lock()
	s.seq++
	s.pending = &Utterance{ID: s.seq, Text: text}
	s.last = text
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Silence cancels the current utterance and drops any pending one.
func (s *Speaker) Silence() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	if s.cancel != nil {
		s.cancel()
	}
}

// Speaking reports whether an utterance is in flight.
func (s *Speaker) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Last returns the most recently requested text.
func (s *Speaker) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Run plays utterances until ctx is done.
func (s *Speaker) Run(ctx context.Context) {
	s.logger.Debug("speaker started")
	defer s.logger.Debug("speaker stopped")

	for {
		for {
			u, uctx, done := s.next(ctx)
			if u == nil {
				break
			}
			if err := s.out.Speak(uctx, *u); err != nil && uctx.Err() == nil {
				s.logger.Warn("speech output failed", "id", u.ID, "error", err)
			}
			done()
		}

		select {
		case <-ctx.Done():
			s.Silence()
			return
		case <-s.wake:
		}
	}
}

// next takes the pending utterance and marks it current.
func (s *Speaker) next(ctx context.Context) (*Utterance, context.Context, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil || ctx.Err() != nil {
		return nil, nil, nil
	}
	u := s.pending
	s.pending = nil

	uctx, cancel := context.WithCancel(ctx)
	s.current = u
	s.cancel = cancel
	s.logger.Debug("speaking", "id", u.ID, "text", u.Text)

	return u, uctx, func() {
		cancel()
		s.mu.Lock()
		if s.current == u {
			s.current = nil
			s.cancel = nil
		}
		s.mu.Unlock()
	}
}
