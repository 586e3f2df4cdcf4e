package transcribe

import (
	"context"
	"sync"
)

// Mock implements Transcriber for testing.
type Mock struct {
	// TranscribeFunc is called when Transcribe is invoked.
	// If nil, returns ErrNoSpeech.
	TranscribeFunc func(ctx context.Context, audio []byte, filename string) (string, error)

	mu    sync.Mutex
	calls int
}

// NewMock returns a mock that always transcribes to text.
func NewMock(text string) *Mock {
	return &Mock{
		TranscribeFunc: func(ctx context.Context, audio []byte, filename string) (string, error) {
			return text, nil
		},
	}
}

// Transcribe calls TranscribeFunc and records the call.
func (m *Mock) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	m.mu.Lock()
	m.calls++
	fn := m.TranscribeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, audio, filename)
	}
	return "", ErrNoSpeech
}

// CallCount returns how many times Transcribe was called.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ Transcriber = (*Mock)(nil)
