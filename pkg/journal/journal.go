// Package journal keeps a log of navigation sessions: when they started,
// which steps were reached and how they ended.
package journal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies an entry.
type Kind string

const (
	KindStarted Kind = "started"
	KindStep    Kind = "step"
	KindArrived Kind = "arrived"
	KindEnded   Kind = "ended"
	KindFailed  Kind = "failed"
)

// Entry is one journal line.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	SessionID   uuid.UUID `json:"session_id"`
	Kind        Kind      `json:"kind"`
	Destination string    `json:"destination,omitempty"`
	StepIndex   int       `json:"step_index"`
	Detail      string    `json:"detail,omitempty"`
	At          time.Time `json:"at"`
}

// Journal stores entries.
type Journal interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Stamp fills in ID and At when unset.
func Stamp(e Entry) Entry {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	return e
}

// Memory is a bounded in-process journal used when no database is set.
type Memory struct {
	max int

	mu      sync.Mutex
	entries []Entry
}

// NewMemory keeps at most max entries.
func NewMemory(max int) *Memory {
	if max <= 0 {
		max = 500
	}
	return &Memory{max: max}
}

// Record appends e, dropping the oldest entry when full.
func (m *Memory) Record(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, Stamp(e))
	if over := len(m.entries) - m.max; over > 0 {
		m.entries = append(m.entries[:0:0], m.entries[over:]...)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (m *Memory) Recent(ctx context.Context, limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 || limit > len(m.entries) {
		limit = len(m.entries)
	}
	out := make([]Entry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

var _ Journal = (*Memory)(nil)
