package scoring

import (
	"context"
	"strings"
	"testing"
	"time"

	"token-sentinel/internal/domain"
	"token-sentinel/internal/storage/memory"
)

func TestTrackerWritesBaselineOnce(t *testing.T) {
	store := memory.NewTrackedTokenStore()
	tracker := NewTracker(store, nil)
	tracker.now = func() time.Time { return time.UnixMilli(1_000_000) }
	ctx := context.Background()

	signals := &domain.SignalSet{
		Market: &domain.MarketData{
			PriceUSD: 0.001,
			Pools:    []domain.Pool{{LiquidityUSD: 50_000}},
		},
	}
	report := Report{Score: 80}

	token, err := tracker.Track(ctx, "0xtoken", "TKN", "Token", domain.NetworkEthereum, report, signals)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if token.OriginalScore != 80 {
		t.Errorf("expected baseline score 80, got %d", token.OriginalScore)
	}
	if token.OriginalPrice != 0.001 || token.OriginalLiquidity != 50_000 {
		t.Errorf("baseline not captured: %+v", token)
	}
	if token.Status != domain.StatusActive {
		t.Errorf("expected active status, got %s", token.Status)
	}

	// Re-scoring must not move the baseline.
	tracker.now = func() time.Time { return time.UnixMilli(2_000_000) }
	again, err := tracker.Track(ctx, "0xtoken", "TKN", "Token", domain.NetworkEthereum, Report{Score: 10}, &domain.SignalSet{})
	if err != nil {
		t.Fatalf("second Track: %v", err)
	}
	if again.OriginalScore != 80 {
		t.Errorf("baseline overwritten: got score %d", again.OriginalScore)
	}
	if again.OriginalAnalyzedAt != 1_000_000 {
		t.Errorf("baseline timestamp overwritten: got %d", again.OriginalAnalyzedAt)
	}
}

func TestTrackerSeedsBaselineHoneypotIndicator(t *testing.T) {
	store := memory.NewTrackedTokenStore()
	tracker := NewTracker(store, nil)
	ctx := context.Background()

	signals := &domain.SignalSet{
		Simulation: &domain.TradeSimulation{IsHoneypot: true},
	}
	token, err := tracker.Track(ctx, "0xtrap", "TRAP", "Trap", domain.NetworkEthereum, Report{Score: 5}, signals)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}

	found := false
	for _, ind := range token.RugIndicators {
		if strings.Contains(ind, "honeypot") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a seeded honeypot indicator, got %v", token.RugIndicators)
	}

	// A clean baseline must not carry the indicator.
	clean, err := tracker.Track(ctx, "0xclean", "OK", "Clean", domain.NetworkEthereum, Report{Score: 80}, &domain.SignalSet{
		Simulation: &domain.TradeSimulation{IsHoneypot: false},
	})
	if err != nil {
		t.Fatalf("Track clean: %v", err)
	}
	if len(clean.RugIndicators) != 0 {
		t.Errorf("expected no indicators on clean baseline, got %v", clean.RugIndicators)
	}
}

func TestTrackerNoMarketSignal(t *testing.T) {
	store := memory.NewTrackedTokenStore()
	tracker := NewTracker(store, nil)

	token, err := tracker.Track(context.Background(), "0xtoken", "TKN", "Token", domain.NetworkBSC, Report{Score: 45}, &domain.SignalSet{})
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if token.OriginalPrice != 0 || token.OriginalLiquidity != 0 {
		t.Errorf("expected zero baseline without market signal, got %+v", token)
	}
}
