package signals

import (
	"context"
	"testing"
	"time"
)

// testPacer returns a pacer with a controllable clock and recorded sleeps.
func testPacer(interval, ttl time.Duration) (*Pacer, *time.Time, *[]time.Duration) {
	clock := time.Unix(1_700_000_000, 0)
	var sleeps []time.Duration
	p := NewPacer(interval, ttl)
	p.now = func() time.Time { return clock }
	p.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return p, &clock, &sleeps
}

func TestPacerFirstCallFree(t *testing.T) {
	p, _, sleeps := testPacer(time.Second, time.Minute)

	if err := p.Wait(context.Background(), "market"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(*sleeps) != 0 {
		t.Errorf("first call should not sleep, got %v", *sleeps)
	}
}

func TestPacerEnforcesInterval(t *testing.T) {
	p, clock, sleeps := testPacer(time.Second, time.Minute)
	ctx := context.Background()

	p.Wait(ctx, "market")

	*clock = clock.Add(300 * time.Millisecond)
	p.Wait(ctx, "market")

	if len(*sleeps) != 1 || (*sleeps)[0] != 700*time.Millisecond {
		t.Errorf("expected one 700ms sleep, got %v", *sleeps)
	}
}

func TestPacerKeysAreIndependent(t *testing.T) {
	p, _, sleeps := testPacer(time.Second, time.Minute)
	ctx := context.Background()

	p.Wait(ctx, "market")
	p.Wait(ctx, "security")

	if len(*sleeps) != 0 {
		t.Errorf("distinct keys should not pace each other, got %v", *sleeps)
	}
}

func TestPacerBackToBackCallsQueue(t *testing.T) {
	p, _, sleeps := testPacer(time.Second, time.Minute)
	ctx := context.Background()

	// Three calls at the same instant: the second waits one interval, the
	// third waits two.
	p.Wait(ctx, "market")
	p.Wait(ctx, "market")
	p.Wait(ctx, "market")

	if len(*sleeps) != 2 || (*sleeps)[0] != time.Second || (*sleeps)[1] != 2*time.Second {
		t.Errorf("expected sleeps [1s 2s], got %v", *sleeps)
	}
}

func TestPacerSweepsIdleKeys(t *testing.T) {
	p, clock, _ := testPacer(time.Second, time.Minute)
	ctx := context.Background()

	p.Wait(ctx, "market")
	p.Wait(ctx, "security")

	*clock = clock.Add(2 * time.Minute)
	p.Wait(ctx, "holders")

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.lastCall["market"]; ok {
		t.Error("expected idle market entry swept")
	}
	if _, ok := p.lastCall["security"]; ok {
		t.Error("expected idle security entry swept")
	}
	if _, ok := p.lastCall["holders"]; !ok {
		t.Error("expected fresh holders entry kept")
	}
}

func TestPacerCancelledContext(t *testing.T) {
	p := NewPacer(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	p.Wait(ctx, "market")
	cancel()

	if err := p.Wait(ctx, "market"); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
