// Package monitor re-checks tracked tokens against their first-scan
// baseline and drives each token's status through the
// active -> {suspicious, rugged} state machine.
package monitor

import (
	"context"
	"fmt"
	"log"
	"time"

	"token-sentinel/internal/domain"
	"token-sentinel/internal/signals"
	"token-sentinel/internal/storage"
)

// interTokenDelay paces the sequential scan. The batch trades throughput
// for staying inside third-party provider rate limits.
const interTokenDelay = 200 * time.Millisecond

// DefaultStaleAfter is how long a token stays fresh between checks.
const DefaultStaleAfter = 6 * time.Hour

// Observer receives per-run outcomes for metrics. Optional.
type Observer interface {
	TokenChecked(status domain.TokenStatus)
	IncidentDetected(rugType domain.RugType, severity domain.Severity)
	RunCompleted(checked, failed int, elapsed time.Duration)
}

// Monitor owns the paced sequential scan over stale tracked tokens.
type Monitor struct {
	tokens    storage.TrackedTokenStore
	snapshots storage.CheckSnapshotStore // optional analytic history
	gatherer  *signals.Gatherer
	logger    *log.Logger
	observer  Observer

	// test seams
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a monitor. The gatherer should carry the reduced recheck
// sources (market, simulation, security); snapshots and observer may be nil.
func New(tokens storage.TrackedTokenStore, snapshots storage.CheckSnapshotStore, gatherer *signals.Gatherer, logger *log.Logger, observer Observer) *Monitor {
	return &Monitor{
		tokens:    tokens,
		snapshots: snapshots,
		gatherer:  gatherer,
		logger:    logger,
		observer:  observer,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// RunResult summarizes one monitor pass.
type RunResult struct {
	Checked   int
	Failed    int
	Incidents []*domain.RugIncident
}

// Run evaluates up to maxTokens stale active tokens sequentially. A failed
// check is logged and skipped; it never blocks the rest of the batch.
// Returned incidents all carry severity above warning and are ready for the
// incident publisher.
func (m *Monitor) Run(ctx context.Context, maxTokens int, staleAfter time.Duration) (*RunResult, error) {
	start := m.now()
	cutoff := start.Add(-staleAfter).UnixMilli()

	batch, err := m.tokens.SelectStale(ctx, cutoff, maxTokens)
	if err != nil {
		return nil, fmt.Errorf("select stale tokens: %w", err)
	}

	res := &RunResult{}
	for i, token := range batch {
		if i > 0 {
			if err := m.sleep(ctx, interTokenDelay); err != nil {
				return res, err
			}
		}

		incident, err := m.checkToken(ctx, token)
		if err != nil {
			res.Failed++
			m.logf("check %s (%s) failed: %v", token.Symbol, token.Network, err)
			continue
		}
		res.Checked++
		if incident != nil {
			res.Incidents = append(res.Incidents, incident)
		}
	}

	if m.observer != nil {
		m.observer.RunCompleted(res.Checked, res.Failed, m.now().Sub(start))
	}
	m.logf("pass done: %d checked, %d failed, %d incidents", res.Checked, res.Failed, len(res.Incidents))
	return res, nil
}

// checkToken re-collects the reduced signal set for one token, applies the
// ordered rug checks, and persists the updated state. Detection state is
// saved regardless of whether an incident fires.
func (m *Monitor) checkToken(ctx context.Context, token *domain.TrackedToken) (*domain.RugIncident, error) {
	set := m.gatherer.Gather(ctx, token.Address, token.Network, token.Symbol)
	res := evaluateChecks(token, set)
	now := m.now().UnixMilli()

	token.CurrentPrice = res.currentPrice
	token.CurrentLiquidity = res.currentLiq
	if set.Market != nil {
		token.PriceChange24h = set.Market.PriceChange24h
	}
	token.LastCheckedAt = &now
	token.RugIndicators = mergeIndicators(token.RugIndicators, res.indicators)
	token.Status = nextStatus(token.Status, res)

	if err := m.tokens.Update(ctx, token); err != nil {
		return nil, fmt.Errorf("persist check state: %w", err)
	}
	if m.observer != nil {
		m.observer.TokenChecked(token.Status)
	}

	m.appendSnapshot(ctx, token, res, now)

	if res.rugType == "" || res.severity.Rank() <= domain.SeverityWarning.Rank() {
		return nil, nil
	}

	incident := buildIncident(token, res, now)
	if m.observer != nil {
		m.observer.IncidentDetected(incident.RugType, incident.Severity)
	}
	m.logf("incident: %s (%s) %s severity=%s price_drop=%.1f%% liq_drop=%.1f%%",
		token.Symbol, token.Network, incident.RugType, incident.Severity,
		incident.PriceDropPct, incident.LiqDropPct)
	return incident, nil
}

// appendSnapshot writes the analytic history row. Snapshot failures are
// logged, never propagated: history must not break detection.
func (m *Monitor) appendSnapshot(ctx context.Context, token *domain.TrackedToken, res checkResult, checkedAt int64) {
	if m.snapshots == nil {
		return
	}
	snap := &domain.CheckSnapshot{
		TokenAddress: token.Address,
		Network:      token.Network,
		CheckedAt:    checkedAt,
		PriceUSD:     res.currentPrice,
		LiquidityUSD: res.currentLiq,
		IsHoneypot:   res.isHoneypot,
		RugType:      res.rugType,
		Severity:     res.severity,
		StatusAfter:  token.Status,
	}
	if err := m.snapshots.Insert(ctx, snap); err != nil {
		m.logf("snapshot %s (%s): %v", token.Symbol, token.Network, err)
	}
}

// mergeIndicators appends new evidence strings, preserving order and
// skipping exact repeats from earlier passes.
func mergeIndicators(existing, fresh []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, ind := range existing {
		seen[ind] = true
	}
	out := existing
	for _, ind := range fresh {
		if seen[ind] {
			continue
		}
		seen[ind] = true
		out = append(out, ind)
	}
	return out
}

func (m *Monitor) logf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
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
