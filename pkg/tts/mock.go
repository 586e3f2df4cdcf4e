package tts

import (
	"context"
	"sync"
	"time"
)

// Mock implements Provider for testing.
type Mock struct {
	// SynthesizeFunc is called when Synthesize is invoked.
	// If nil, returns a short fake MP3 clip.
	SynthesizeFunc func(ctx context.Context, text string) (*AudioResult, error)

	// HealthFunc is called when Health is invoked.
	// If nil, returns nil (healthy).
	HealthFunc func(ctx context.Context) error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Text   string
	Time   time.Time
}

// NewMock creates a mock that returns one fake byte per character.
func NewMock() *Mock {
	return &Mock{
		SynthesizeFunc: func(ctx context.Context, text string) (*AudioResult, error) {
			return &AudioResult{
				Audio:     make([]byte, len(text)),
				Format:    FormatMP3,
				CharCount: len(text),
				LatencyMs: 1,
			}, nil
		},
	}
}

// WithError returns a mock that always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		SynthesizeFunc: func(ctx context.Context, text string) (*AudioResult, error) {
			return nil, err
		},
		HealthFunc: func(ctx context.Context) error {
			return err
		},
	}
}

// Synthesize calls SynthesizeFunc and records the call.
func (m *Mock) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	m.record("Synthesize", text)
	m.mu.Lock()
	fn := m.SynthesizeFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, text)
	}
	return nil, WrapError("mock", ErrProviderUnavailable)
}

// Health calls HealthFunc and records the call.
func (m *Mock) Health(ctx context.Context) error {
	m.record("Health", "")
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Close records the call.
func (m *Mock) Close() error {
	m.record("Close", "")
	return nil
}

func (m *Mock) record(method, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Text: text, Time: time.Now()})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Texts returns the text of every Synthesize call in order.
func (m *Mock) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, c := range m.calls {
		if c.Method == "Synthesize" {
			out = append(out, c.Text)
		}
	}
	return out
}

var _ Provider = (*Mock)(nil)
