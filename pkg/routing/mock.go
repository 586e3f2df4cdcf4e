package routing

import (
	"context"
	"sync"

	"github.com/teslashibe/go-nain/pkg/geo"
)

// Mock implements Router for testing.
type Mock struct {
	// RouteFunc is called when Route is invoked.
	// If nil, Route returns ErrNoRoute.
	RouteFunc func(ctx context.Context, from geo.Point, destination string) (*Result, error)

	mu    sync.Mutex
	calls []string
}

// Route calls RouteFunc and records the destination.
func (m *Mock) Route(ctx context.Context, from geo.Point, destination string) (*Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, destination)
	fn := m.RouteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, from, destination)
	}
	return nil, ErrNoRoute
}

// Calls returns the requested destinations.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

var _ Router = (*Mock)(nil)
