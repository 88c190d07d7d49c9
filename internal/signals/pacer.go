package signals

import (
	"context"
	"sync"
	"time"
)

// Pacer enforces a per-key minimum interval between calls. It replaces the
// process-global rate-limit maps the providers otherwise tempt you into:
// constructor-injected, with explicit TTL semantics, so lifecycle and tests
// stay under control.
type Pacer struct {
	interval time.Duration
	ttl      time.Duration

	mu       sync.Mutex
	lastCall map[string]time.Time

	// now and sleep are test seams.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPacer creates a pacer enforcing interval between calls sharing a key.
// Entries idle longer than ttl are dropped on the next sweep.
func NewPacer(interval, ttl time.Duration) *Pacer {
	return &Pacer{
		interval: interval,
		ttl:      ttl,
		lastCall: make(map[string]time.Time),
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Wait blocks until the key's minimum interval has elapsed, then records the
// call. Returns early with the context error on cancellation.
func (p *Pacer) Wait(ctx context.Context, key string) error {
	p.mu.Lock()
	now := p.now()
	p.sweep(now)

	var wait time.Duration
	if last, ok := p.lastCall[key]; ok {
		if elapsed := now.Sub(last); elapsed < p.interval {
			wait = p.interval - elapsed
		}
	}
	p.lastCall[key] = now.Add(wait)
	p.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	return p.sleep(ctx, wait)
}

// sweep drops entries idle longer than ttl. Caller holds the lock.
func (p *Pacer) sweep(now time.Time) {
	if p.ttl <= 0 {
		return
	}
	for k, t := range p.lastCall {
		if now.Sub(t) > p.ttl {
			delete(p.lastCall, k)
		}
	}
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
