// Package throttle paces and retries outbound calls to rate-limited providers.
package throttle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// Pacer enforces the minimum interval between consecutive calls to one provider.
// The interval is counted from the end of the previous attempt; the limiter also
// keeps attempts started by concurrent requests one interval apart.
type Pacer struct {
	name     string
	interval time.Duration
	limiter  *rate.Limiter
	clock    clockwork.Clock

	mu      sync.Mutex
	readyAt time.Time
}

// NewPacer creates a pacer that hands out one slot per interval.
// A non-positive interval disables pacing.
func NewPacer(name string, interval time.Duration) *Pacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &Pacer{
		name:     name,
		interval: interval,
		limiter:  rate.NewLimiter(limit, 1),
		clock:    clockwork.NewRealClock(),
	}
}

// Acquire suspends the caller until the provider interval has elapsed since the
// previous attempt finished.
func (p *Pacer) Acquire(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for %s slot: %w", p.name, err)
	}

	p.mu.Lock()
	wait := p.readyAt.Sub(p.clock.Now())
	p.mu.Unlock()
	if wait <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait for %s slot: %w", p.name, ctx.Err())
	case <-p.clock.After(wait):
		return nil
	}
}

// Release marks the end of an attempt. The next slot opens one interval later.
func (p *Pacer) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.readyAt = p.clock.Now().Add(p.interval)
}

// Name returns the provider the pacer belongs to.
func (p *Pacer) Name() string { return p.name }

// Interval returns the configured spacing between calls.
func (p *Pacer) Interval() time.Duration { return p.interval }

// Pacers hands out one shared Pacer per provider so concurrent requests
// respect the same external quota.
type Pacers struct {
	mu     sync.Mutex
	pacers map[string]*Pacer
}

// NewPacers creates an empty registry.
func NewPacers() *Pacers {
	return &Pacers{pacers: make(map[string]*Pacer)}
}

// Get returns the pacer for name, creating it with interval on first use.
func (ps *Pacers) Get(name string, interval time.Duration) *Pacer {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if p, ok := ps.pacers[name]; ok {
		return p
	}
	p := NewPacer(name, interval)
	ps.pacers[name] = p

	return p
}
