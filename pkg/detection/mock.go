package detection

import (
	"context"
	"sync"
)

// Mock implements Detector for testing.
type Mock struct {
	// DetectFunc is called when Detect is invoked.
	// If nil, returns no detections.
	DetectFunc func(ctx context.Context, jpeg []byte) ([]Detection, error)

	mu    sync.Mutex
	calls int
}

// NewMock returns a mock that always reports dets.
func NewMock(dets ...Detection) *Mock {
	return &Mock{
		DetectFunc: func(ctx context.Context, jpeg []byte) ([]Detection, error) {
			return dets, nil
		},
	}
}

// Detect calls DetectFunc and records the call.
func (m *Mock) Detect(ctx context.Context, jpeg []byte) ([]Detection, error) {
	m.mu.Lock()
	m.calls++
	fn := m.DetectFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, jpeg)
	}
	return nil, nil
}

// Close is a no-op.
func (m *Mock) Close() error { return nil }

// CallCount returns how many times Detect was called.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ Detector = (*Mock)(nil)
