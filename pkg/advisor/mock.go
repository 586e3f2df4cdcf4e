package advisor

import (
	"context"
	"sync"
)

// Mock implements Advisor for testing.
type Mock struct {
	// AssessFunc is called when Assess is invoked.
	// If nil, returns an assessment that does not alert.
	AssessFunc func(ctx context.Context, s Situation) (Assessment, error)

	mu    sync.Mutex
	calls []Situation
}

// Assess calls AssessFunc and records the situation.
func (m *Mock) Assess(ctx context.Context, s Situation) (Assessment, error) {
	m.mu.Lock()
	m.calls = append(m.calls, s)
	fn := m.AssessFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, s)
	}
	return Assessment{}, nil
}

// CallCount returns how many times Assess was called.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns the recorded situations.
func (m *Mock) Calls() []Situation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Situation, len(m.calls))
	copy(out, m.calls)
	return out
}

var _ Advisor = (*Mock)(nil)
