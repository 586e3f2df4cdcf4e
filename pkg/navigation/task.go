package navigation

import (
	"context"
	"time"
)

// task is a cancellable per-session stream.
type task struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
}

func spawn(name string, fn func(ctx context.Context)) *task {
	ctx, cancel := context.WithCancel(context.Background())
	t := &task{name: name, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		fn(ctx)
	}()
	return t
}

// stop cancels the task and waits until it can no longer act.
func (t *task) stop() {
	t.cancel()
	<-t.done
}

// sleep waits for d and reports false when ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
