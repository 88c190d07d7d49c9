package monitor

import (
	"fmt"
	"strings"

	"token-sentinel/internal/domain"
	"token-sentinel/internal/idhash"
)

// Detection thresholds. These are percentages of the first-scan baseline.
const (
	priceCrashPct         = 80
	priceCrashCriticalPct = 95
	liquidityPullPct      = 90
	priceWorryPct         = 50
)

const honeypotIndicator = "honeypot: simulated sell failed on recheck"

// checkResult is the outcome of evaluating one token's deltas.
type checkResult struct {
	rugType    domain.RugType // empty when no check fired
	severity   domain.Severity
	indicators []string

	priceDropPct float64
	liqDropPct   float64
	currentPrice float64
	currentLiq   float64
	isHoneypot   bool
}

// fire records a triggered check. The first rug type wins; severity only
// ever escalates.
func (c *checkResult) fire(t domain.RugType, s domain.Severity) {
	if c.rugType == "" {
		c.rugType = t
	}
	if c.severity == "" {
		c.severity = s
		return
	}
	c.severity = c.severity.Max(s)
}

func (c *checkResult) note(format string, args ...any) {
	c.indicators = append(c.indicators, fmt.Sprintf(format, args...))
}

// dropPercent computes (baseline-current)/baseline*100, clamping to 0 when
// the baseline is 0 so a token that never had a price cannot divide by zero.
func dropPercent(baseline, current float64) float64 {
	if baseline == 0 {
		return 0
	}
	return (baseline - current) / baseline * 100
}

// evaluateChecks runs the ordered rug checks for one token against freshly
// collected signals.
func evaluateChecks(token *domain.TrackedToken, signals *domain.SignalSet) checkResult {
	var res checkResult

	// Delta checks need a measured market. A missing market signal is not a
	// measured zero price; it is handled as data absence below.
	if m := signals.Market; m != nil {
		res.currentPrice = m.PriceUSD
		res.currentLiq = m.TotalLiquidityUSD()
		res.priceDropPct = dropPercent(token.OriginalPrice, res.currentPrice)
		res.liqDropPct = dropPercent(token.OriginalLiquidity, res.currentLiq)

		if res.priceDropPct >= priceCrashPct {
			sev := domain.SeverityConfirmed
			if res.priceDropPct >= priceCrashCriticalPct {
				sev = domain.SeverityCritical
			}
			res.fire(domain.RugPriceCrash, sev)
			res.note("price crashed %.1f%% from baseline $%g", res.priceDropPct, token.OriginalPrice)
		} else if res.priceDropPct >= priceWorryPct {
			// Below the crash threshold: recorded as evidence, no transition.
			res.note("price down %.1f%% from baseline", res.priceDropPct)
		}

		if res.liqDropPct >= liquidityPullPct {
			res.fire(domain.RugLiquidityPull, domain.SeverityCritical)
			res.note("liquidity pulled: %.1f%% gone from baseline $%g", res.liqDropPct, token.OriginalLiquidity)
		}
	}

	if sim := signals.Simulation; sim != nil {
		if sim.IsHoneypot {
			res.isHoneypot = true
			if !hasHoneypotIndicator(token.RugIndicators) {
				res.fire(domain.RugHoneypotFlip, domain.SeverityCritical)
			}
			res.note(honeypotIndicator)
		}
		if sim.TradingDisabled {
			res.fire(domain.RugTradingDisabled, domain.SeverityConfirmed)
			res.note("trading disabled by contract")
		}
	}

	if sec := signals.Security; sec != nil && sec.Risk == domain.SecurityRiskCritical {
		res.note("security provider now grades token critical: %s", strings.Join(sec.Findings, ", "))
	}

	// The token used to trade and now has no market at all. Weaker evidence
	// than a measured liquidity drop, so confirmed rather than critical.
	if signals.Market == nil && token.OriginalLiquidity > 0 {
		res.fire(domain.RugLiquidityPull, domain.SeverityConfirmed)
		res.note("no tradeable market data where token was previously active")
	}

	return res
}

// hasHoneypotIndicator reports whether a previous pass already flagged the
// token as a honeypot, so the flip only fires once.
func hasHoneypotIndicator(indicators []string) bool {
	for _, ind := range indicators {
		if strings.Contains(ind, "honeypot") {
			return true
		}
	}
	return false
}

// nextStatus derives the token's new status from the evaluation. Terminal
// states never move.
func nextStatus(current domain.TokenStatus, res checkResult) domain.TokenStatus {
	if current.Terminal() {
		return current
	}
	if res.rugType == "" {
		return current
	}
	if res.severity == domain.SeverityCritical {
		return domain.StatusRugged
	}
	return domain.StatusSuspicious
}

// buildIncident turns a fired check into the append-only incident record.
func buildIncident(token *domain.TrackedToken, res checkResult, detectedAt int64) *domain.RugIncident {
	return &domain.RugIncident{
		IncidentID:    idhash.ComputeIncidentID(token.Address, token.Network, res.rugType, detectedAt),
		TokenAddress:  token.Address,
		TokenSymbol:   token.Symbol,
		TokenName:     token.Name,
		Network:       token.Network,
		RugType:       res.rugType,
		Severity:      res.severity,
		PriceBefore:   token.OriginalPrice,
		PriceAfter:    res.currentPrice,
		PriceDropPct:  res.priceDropPct,
		LiqBefore:     token.OriginalLiquidity,
		LiqAfter:      res.currentLiq,
		LiqDropPct:    res.liqDropPct,
		Indicators:    res.indicators,
		OriginalScore: token.OriginalScore,
		WePredictedIt: token.OriginalScore < 50,
		DetectedAt:    detectedAt,
	}
}
