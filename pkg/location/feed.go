package location

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// DefaultTimeout bounds how long Current waits for a first fix.
const DefaultTimeout = 10 * time.Second

// Feed is a push-fed Provider. Producers call Put or Fail; consumers read
// the latest fix with Current or follow updates with Watch.
type Feed struct {
	timeout time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	latest   Sample
	has      bool
	err      error
	changed  chan struct{}
	watchers map[int]chan Sample
	nextID   int
}

// NewFeed creates an empty feed.
func NewFeed(timeout time.Duration, logger *slog.Logger) *Feed {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		timeout:  timeout,
		logger:   logger.With("component", "location.feed"),
		changed:  make(chan struct{}),
		watchers: make(map[int]chan Sample),
	}
}

// Put records a new fix and hands it to every watcher.
func (f *Feed) Put(s Sample) {
	if s.Time.IsZero() {
		s.Time = time.Now()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.latest, f.has, f.err = s, true, nil
	f.signalLocked()

	for _, ch := range f.watchers {
		offer(ch, s)
	}
}

// Fail records a geolocation failure. Until the next Put, Current returns
// it when there is no fix to fall back on. A denied permission is returned
// even over a cached fix.
func (f *Feed) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err == nil {
		f.logger.Warn("geolocation failed", "error", err)
	}
	f.err = err
	f.signalLocked()
}

// Latest returns the last fix without waiting.
func (f *Feed) Latest() (Sample, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, f.has
}

// Current returns the latest fix. With no fix yet it waits up to the feed
// timeout and then returns ErrTimeout. A transient failure after a fix does
// not hide that fix.
func (f *Feed) Current(ctx context.Context) (Sample, error) {
	timer := time.NewTimer(f.timeout)
	defer timer.Stop()

	for {
		f.mu.Lock()
		s, has, err, changed := f.latest, f.has, f.err, f.changed
		f.mu.Unlock()

		if err != nil && (!has || errors.Is(err, ErrPermissionDenied)) {
			return Sample{}, err
		}
		if has {
			return s, nil
		}

		select {
		case <-changed:
		case <-timer.C:
			return Sample{}, ErrTimeout
		case <-ctx.Done():
			return Sample{}, ctx.Err()
		}
	}
}

// Watch subscribes to new fixes.
func (f *Feed) Watch() (<-chan Sample, func()) {
	ch := make(chan Sample, 1)

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.watchers[id] = ch
	f.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.watchers, id)
			f.mu.Unlock()
			close(ch)
		})
	}
	return ch, stop
}

// Watchers returns the number of active subscriptions.
func (f *Feed) Watchers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watchers)
}

func (f *Feed) signalLocked() {
	close(f.changed)
	f.changed = make(chan struct{})
}

// offer replaces whatever is pending in ch with s.
func offer(ch chan Sample, s Sample) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}

var _ Provider = (*Feed)(nil)
