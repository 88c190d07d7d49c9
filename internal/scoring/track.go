package scoring

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"token-sentinel/internal/domain"
	"token-sentinel/internal/storage"
)

// baselineHoneypotIndicator marks a token whose very first simulation already
// failed the sell. The word "honeypot" is what the monitor's flip check keys
// on.
const baselineHoneypotIndicator = "honeypot: simulated sell failed at baseline scan"

// Tracker seeds the tracked-token registry from scoring results. The first
// scoring of a token writes its baseline; later scorings are no-ops so the
// baseline never shifts under the rug monitor.
type Tracker struct {
	tokens storage.TrackedTokenStore
	logger *log.Logger
	now    func() time.Time
}

// NewTracker creates a tracker writing to the given store.
func NewTracker(tokens storage.TrackedTokenStore, logger *log.Logger) *Tracker {
	return &Tracker{tokens: tokens, logger: logger, now: time.Now}
}

// Track records the token's first-scan baseline. Returns the stored token,
// which is the existing row when the token was already tracked.
func (t *Tracker) Track(ctx context.Context, address, symbol, name string, network domain.Network, report Report, signals *domain.SignalSet) (*domain.TrackedToken, error) {
	now := t.now().UnixMilli()

	token := &domain.TrackedToken{
		Address:            address,
		Symbol:             symbol,
		Name:               name,
		Network:            network,
		OriginalScore:      report.Score,
		OriginalAnalyzedAt: now,
		Status:             domain.StatusActive,
		CreatedAt:          now,
	}
	if m := signals.Market; m != nil {
		token.OriginalPrice = m.PriceUSD
		token.OriginalLiquidity = m.TotalLiquidityUSD()
	}
	// A token that is already a honeypot at first sight cannot "flip" later.
	// Seeding the indicator here is what tells the monitor the flag predates
	// its rechecks.
	if sim := signals.Simulation; sim != nil && sim.IsHoneypot {
		token.RugIndicators = append(token.RugIndicators, baselineHoneypotIndicator)
	}

	err := t.tokens.InsertIfAbsent(ctx, token)
	if errors.Is(err, storage.ErrDuplicateKey) {
		existing, getErr := t.tokens.Get(ctx, domain.TokenKey{Address: address, Network: network})
		if getErr != nil {
			return nil, fmt.Errorf("load existing tracked token: %w", getErr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("track token: %w", err)
	}

	if t.logger != nil {
		t.logger.Printf("tracking %s (%s) baseline score=%d price=%g liquidity=%g",
			symbol, network, report.Score, token.OriginalPrice, token.OriginalLiquidity)
	}
	return token, nil
}
