// Package camera supplies the most recent camera frame for obstacle
// detection, either pushed by a web client or captured from a local device.
package camera

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoFrame is returned when no usable frame is available.
var ErrNoFrame = errors.New("camera: no frame available")

// Source returns the latest JPEG frame.
type Source interface {
	Frame(ctx context.Context) ([]byte, error)
}

// Latest holds the most recent frame pushed by a client. Frames older than
// MaxAge are treated as missing.
type Latest struct {
	MaxAge time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	frame []byte
	at    time.Time
	count uint64
}

// NewLatest creates an empty frame store.
func NewLatest(maxAge time.Duration) *Latest {
	return &Latest{MaxAge: maxAge, now: time.Now}
}

// Put replaces the stored frame.
func (l *Latest) Put(jpeg []byte) {
	if len(jpeg) == 0 {
		return
	}
	l.mu.Lock()
	l.frame = jpeg
	l.at = l.now()
	l.count++
	l.mu.Unlock()
}

// Frame returns the stored frame if it is fresh enough.
func (l *Latest) Frame(ctx context.Context) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.frame == nil {
		return nil, ErrNoFrame
	}
	if l.MaxAge > 0 && l.now().Sub(l.at) > l.MaxAge {
		return nil, ErrNoFrame
	}
	return l.frame, nil
}

// Count returns how many frames have been stored.
func (l *Latest) Count() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// Clear drops the stored frame.
func (l *Latest) Clear() {
	l.mu.Lock()
	l.frame = nil
	l.mu.Unlock()
}

var _ Source = (*Latest)(nil)
