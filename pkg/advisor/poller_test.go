package advisor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/teslashibe/go-nain/pkg/route"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = time.Unix(1_700_000_000, 0).Add(d)
}

type recordingSpeaker struct {
	mu   sync.Mutex
	said []string
}

func (s *recordingSpeaker) Say(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.said = append(s.said, text)
}

func (s *recordingSpeaker) Said() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.said...)
}

func activeSource() Source {
	return SourceFunc(func() (Situation, bool) {
		return Situation{
			Instruction: "Turn left onto Elm Street",
			Progress:    route.Progress{StepNumber: 1, TotalSteps: 3},
		}, true
	})
}

func alerting(text string) *Mock {
	return &Mock{AssessFunc: func(ctx context.Context, s Situation) (Assessment, error) {
		return Assessment{ShouldAlert: true, Guidance: text, Urgency: UrgencyMedium}, nil
	}}
}

func TestPollerCooldownAfterSpokenAlert(t *testing.T) {
	clock := &fakeClock{}
	adv := alerting("Crosswalk ahead")
	sp := &recordingSpeaker{}
	p := NewPoller(adv, activeSource(), sp, PollerConfig{Now: clock.Now})
	ctx := context.Background()

	clock.Set(0)
	if !p.Check(ctx) {
		t.Fatal("t=0: expected guidance to be spoken")
	}

	clock.Set(10 * time.Second)
	if p.Check(ctx) {
		t.Error("t=10s: manual trigger should be suppressed")
	}
	if adv.CallCount() != 1 {
		t.Errorf("advisor calls after suppressed trigger: got %d, want 1", adv.CallCount())
	}

	clock.Set(30 * time.Second)
	if !p.Check(ctx) {
		t.Error("t=30s: expected guidance to be spoken")
	}

	if got := len(sp.Said()); got != 2 {
		t.Errorf("spoken: got %d, want 2", got)
	}
}

func TestPollerCooldownOnlyCountsSpokenAlerts(t *testing.T) {
	clock := &fakeClock{}
	var alert atomic.Bool
	adv := &Mock{AssessFunc: func(ctx context.Context, s Situation) (Assessment, error) {
		return Assessment{ShouldAlert: alert.Load(), Guidance: "Watch the curb"}, nil
	}}
	sp := &recordingSpeaker{}
	p := NewPoller(adv, activeSource(), sp, PollerConfig{Now: clock.Now})

	clock.Set(0)
	if p.Check(context.Background()) {
		t.Fatal("t=0: advisor said no alert")
	}

	alert.Store(true)
	clock.Set(10 * time.Second)
	if !p.Check(context.Background()) {
		t.Error("t=10s: no alert was spoken at t=0, so the manual trigger should go through")
	}
}

func TestPollerNoSituation(t *testing.T) {
	adv := alerting("x")
	p := NewPoller(adv, SourceFunc(func() (Situation, bool) { return Situation{}, false }), &recordingSpeaker{}, PollerConfig{})
	if p.Check(context.Background()) {
		t.Error("expected no-op without a session")
	}
	if adv.CallCount() != 0 {
		t.Errorf("advisor should not be called, got %d", adv.CallCount())
	}
}

func TestPollerSwallowsFailures(t *testing.T) {
	tests := []struct {
		name string
		fn   func(ctx context.Context, s Situation) (Assessment, error)
	}{
		{"transport error", func(ctx context.Context, s Situation) (Assessment, error) {
			return Assessment{}, errors.New("connection refused")
		}},
		{"alert without text", func(ctx context.Context, s Situation) (Assessment, error) {
			return Assessment{ShouldAlert: true}, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp := &recordingSpeaker{}
			p := NewPoller(&Mock{AssessFunc: tt.fn}, activeSource(), sp, PollerConfig{})
			if p.Check(context.Background()) {
				t.Error("expected nothing spoken")
			}
			if len(sp.Said()) != 0 {
				t.Errorf("spoken: %v", sp.Said())
			}
			if !p.LastAlert().IsZero() {
				t.Error("last alert should not be recorded")
			}
		})
	}
}

func TestPollerDiscardsStaleResponse(t *testing.T) {
	var live atomic.Bool
	live.Store(true)
	src := SourceFunc(func() (Situation, bool) { return Situation{Instruction: "go"}, live.Load() })

	adv := &Mock{AssessFunc: func(ctx context.Context, s Situation) (Assessment, error) {
		live.Store(false) // session ends while the request is in flight
		return Assessment{ShouldAlert: true, Guidance: "late"}, nil
	}}
	sp := &recordingSpeaker{}
	p := NewPoller(adv, src, sp, PollerConfig{})

	if p.Check(context.Background()) {
		t.Error("stale response should be discarded")
	}
	if len(sp.Said()) != 0 {
		t.Errorf("spoken: %v", sp.Said())
	}
}

func TestPollerDiscardsResponseForReplacedSession(t *testing.T) {
	var session atomic.Value
	session.Store("a")
	src := SourceFunc(func() (Situation, bool) {
		return Situation{SessionID: session.Load().(string), Instruction: "go"}, true
	})

	adv := &Mock{AssessFunc: func(ctx context.Context, s Situation) (Assessment, error) {
		session.Store("b") // a new session starts while the request is in flight
		return Assessment{ShouldAlert: true, Guidance: "meant for a"}, nil
	}}
	sp := &recordingSpeaker{}
	p := NewPoller(adv, src, sp, PollerConfig{})

	if p.Check(context.Background()) {
		t.Error("guidance for a replaced session should be discarded")
	}
	if len(sp.Said()) != 0 {
		t.Errorf("spoken: %v", sp.Said())
	}
	if !p.LastAlert().IsZero() {
		t.Error("discarded guidance should not start the cooldown")
	}
}

func TestPollerRunFiresImmediately(t *testing.T) {
	adv := &Mock{}
	p := NewPoller(adv, activeSource(), &recordingSpeaker{}, PollerConfig{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for adv.CallCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if adv.CallCount() != 1 {
		t.Errorf("calls: got %d, want 1", adv.CallCount())
	}
}

func TestPollerRunRepeats(t *testing.T) {
	adv := &Mock{}
	p := NewPoller(adv, activeSource(), &recordingSpeaker{}, PollerConfig{Interval: 20 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	if adv.CallCount() < 3 {
		t.Errorf("calls: got %d, want at least 3", adv.CallCount())
	}
}
