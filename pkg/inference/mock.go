package inference

import (
	"context"
	"sync"
)

// Mock implements Provider for testing.
type Mock struct {
	// ChatFunc is called when Chat is invoked.
	ChatFunc func(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// HealthFunc is called when Health is invoked. If nil, returns nil.
	HealthFunc func(ctx context.Context) error

	mu       sync.Mutex
	requests []*ChatRequest
}

// NewMock returns a mock whose Chat always answers with content.
func NewMock(content string) *Mock {
	return &Mock{
		ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			return &ChatResponse{Message: NewAssistantMessage(content), FinishReason: "stop"}, nil
		},
	}
}

// WithError returns a mock that always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			return nil, err
		},
		HealthFunc: func(ctx context.Context) error { return err },
	}
}

// Chat calls ChatFunc and records the request.
func (m *Mock) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	fn := m.ChatFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return nil, WrapError("mock", ErrProviderUnavailable)
}

// Health calls HealthFunc.
func (m *Mock) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Close is a no-op.
func (m *Mock) Close() error { return nil }

// Requests returns the recorded chat requests.
func (m *Mock) Requests() []*ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ChatRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount returns how many times Chat was called.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

var _ Provider = (*Mock)(nil)
