package advisor

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultPollInterval is how often guidance is requested.
	DefaultPollInterval = 30 * time.Second

	// DefaultCooldown is the minimum gap between spoken guidance alerts.
	DefaultCooldown = 25 * time.Second
)

// Source reports the current situation. ok is false when there is no
// session or no valid current step.
type Source interface {
	Situation() (s Situation, ok bool)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (Situation, bool)

// Situation calls f.
func (f SourceFunc) Situation() (Situation, bool) { return f() }

// Speaker speaks guidance.
type Speaker interface {
	Say(text string)
}

// PollerConfig configures a Poller.
type PollerConfig struct {
	Interval time.Duration
	Cooldown time.Duration
	Now      func() time.Time
	Logger   *slog.Logger
}

// Poller periodically asks the advisor whether the walker needs a heads-up.
// Failures are logged and never interrupt navigation.
type Poller struct {
	advisor Advisor
	source  Source
	speaker Speaker
	cfg     PollerConfig
	logger  *slog.Logger

	mu        sync.Mutex
	lastAlert time.Time
}

// NewPoller creates a poller. Zero config values take the defaults.
func NewPoller(a Advisor, src Source, sp Speaker, cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Poller{
		advisor: a,
		source:  src,
		speaker: sp,
		cfg:     cfg,
		logger:  cfg.Logger.With("component", "advisor.poller"),
	}
}

// Run checks immediately and then every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	p.Check(ctx)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}

// Check runs one guidance cycle and reports whether guidance was spoken.
// It is safe to call out of cycle; the cooldown still applies.
func (p *Poller) Check(ctx context.Context) bool {
	sit, ok := p.source.Situation()
	if !ok {
		return false
	}
	if p.coolingDown() {
		p.logger.Debug("guidance suppressed by cooldown")
		return false
	}

	a, err := p.advisor.Assess(ctx, sit)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("guidance check failed", "error", err)
		}
		return false
	}

	if ctx.Err() != nil || !a.ShouldAlert || a.Guidance == "" {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// The session may have ended, or been replaced, while the advisor was thinking.
	if cur, ok := p.source.Situation(); !ok || cur.SessionID != sit.SessionID {
		p.logger.Debug("stale guidance discarded", "session", sit.SessionID)
		return false
	}
	now := p.cfg.Now()
	if !p.lastAlert.IsZero() && now.Sub(p.lastAlert) < p.cfg.Cooldown {
		return false
	}
	p.lastAlert = now
	p.speaker.Say(a.Guidance)
	p.logger.Info("guidance spoken", "urgency", a.Urgency)
	return true
}

// LastAlert returns when guidance was last spoken.
func (p *Poller) LastAlert() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastAlert
}

func (p *Poller) coolingDown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.lastAlert.IsZero() && p.cfg.Now().Sub(p.lastAlert) < p.cfg.Cooldown
}
