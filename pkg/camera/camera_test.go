package camera

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLatest(t *testing.T) {
	now := time.Unix(1000, 0)
	l := NewLatest(3 * time.Second)
	l.now = func() time.Time { return now }

	if _, err := l.Frame(context.Background()); !errors.Is(err, ErrNoFrame) {
		t.Fatalf("empty store: got %v, want ErrNoFrame", err)
	}

	l.Put([]byte{0xFF, 0xD8})
	l.Put(nil)
	got, err := l.Frame(context.Background())
	if err != nil || len(got) != 2 {
		t.Fatalf("got %v, %v", got, err)
	}
	if l.Count() != 1 {
		t.Errorf("count: got %d, want 1", l.Count())
	}

	now = now.Add(4 * time.Second)
	if _, err := l.Frame(context.Background()); !errors.Is(err, ErrNoFrame) {
		t.Errorf("stale frame: got %v, want ErrNoFrame", err)
	}

	l.Put([]byte{1})
	l.Clear()
	if _, err := l.Frame(context.Background()); !errors.Is(err, ErrNoFrame) {
		t.Errorf("cleared: got %v, want ErrNoFrame", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errs   int
	}{
		{"default", func(c *Config) {}, 0},
		{"negative device", func(c *Config) { c.Device = -1 }, 1},
		{"tiny", func(c *Config) { c.Width, c.Height = 10, 10 }, 2},
		{"quality", func(c *Config) { c.Quality = 0 }, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if got := cfg.Validate(); len(got) != tt.errs {
				t.Errorf("got %v, want %d errors", got, tt.errs)
			}
		})
	}
}
