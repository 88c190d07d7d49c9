// Package scoring reduces one token's collected signals to a bounded risk
// score. The weights are a fixed, documented heuristic: identical inputs
// always produce an identical report.
package scoring

import (
	"fmt"

	"token-sentinel/internal/domain"
)

// RiskLevel classifies a scored token for human consumption.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
	// RiskUnknown means no collector contributed a signal at all.
	RiskUnknown RiskLevel = "unknown"
)

// Report is the scorer's output for one token.
type Report struct {
	Score     int
	RiskLevel RiskLevel
	Warnings  []string
	Positives []string

	// SignalsUsed is how many collectors contributed.
	SignalsUsed int
}

const (
	neutralBaseline = 50

	scoreMin = 0
	scoreMax = 100
)

// Score combines all collected signals into a bounded [0,100] score, a risk
// level, and the union of every signal's textual findings.
func Score(signals *domain.SignalSet) Report {
	r := Report{SignalsUsed: signals.CollectedCount()}
	score := neutralBaseline
	honeypot := false

	if sim := signals.Simulation; sim != nil {
		if sim.IsHoneypot {
			honeypot = true
			score -= 50
			r.warn("honeypot: simulated sell failed")
		} else if sim.SimulationOK {
			score += 10
			r.praise("simulated buy and sell both succeeded")
		}
		switch {
		case sim.SellTaxPct > 20:
			score -= 20
			r.warn(fmt.Sprintf("sell tax %.1f%%", sim.SellTaxPct))
		case sim.SellTaxPct > 10:
			score -= 10
			r.warn(fmt.Sprintf("elevated sell tax %.1f%%", sim.SellTaxPct))
		}
		if sim.Mintable {
			score -= 10
			r.warn("supply is mintable")
		}
		if sim.OwnershipReclaimable {
			score -= 25
			r.warn("ownership can be reclaimed")
		}
		if sim.TradingDisabled {
			r.warn("trading appears disabled")
		}
	}

	if v := signals.Verification; v != nil {
		if v.Verified {
			score += 10
			r.praise("contract source verified")
		} else {
			score -= 15
			r.warn("contract source not verified")
		}
	}

	if scan := signals.SourceScan; scan != nil {
		switch {
		case scan.Score >= 90:
			score += 10
			r.praise(fmt.Sprintf("source scan clean (%d/100)", scan.Score))
		case scan.Score >= 70:
			score += 5
			r.praise(fmt.Sprintf("source scan mostly clean (%d/100)", scan.Score))
		case scan.Score < 30:
			score -= 30
		case scan.Score < 50:
			score -= 20
		}
		for _, issue := range scan.Issues {
			r.warn(fmt.Sprintf("source pattern %s: %s", issue.Pattern, issue.Detail))
		}
	}

	if m := signals.Market; m != nil {
		liq := m.TotalLiquidityUSD()
		switch {
		case liq > 100_000:
			score += 5
			r.praise(fmt.Sprintf("deep liquidity $%.0f", liq))
		case liq < 10_000:
			score -= 10
			r.warn(fmt.Sprintf("thin liquidity $%.0f", liq))
		}
		if m.Trending {
			r.praise("trending by 24h volume")
		}
	}

	if s := signals.Sentiment; s != nil {
		switch s.Direction {
		case domain.SentimentBullish:
			score += 5
			r.praise("social sentiment bullish")
		case domain.SentimentBearish:
			score -= 5
			r.warn("social sentiment bearish")
		}
		score += 3 * s.PositiveMentions
		score -= 5 * s.WarningMentions
		if s.WarningMentions > 0 {
			r.warn(fmt.Sprintf("%d community rug warnings", s.WarningMentions))
		}
		if s.PositiveMentions > 0 {
			r.praise(fmt.Sprintf("%d corroborating mentions", s.PositiveMentions))
		}
	}

	if d := signals.Deployer; d != nil {
		switch d.Risk {
		case domain.DeployerRiskCritical:
			score -= 30
			r.warn(fmt.Sprintf("deployer has %d prior rugs", d.PriorRugs))
		case domain.DeployerRiskHigh:
			score -= 15
			r.warn("deployer history is high risk")
		case domain.DeployerRiskLow:
			score += 10
			r.praise("deployer has a clean track record")
		}
		if d.LaunchPlatform != "" {
			score += 5
			r.praise("launched through " + d.LaunchPlatform)
			if d.PlatformVerified {
				score += 5
			}
		}
	}

	if h := signals.Holders; h != nil {
		switch h.Concentration {
		case domain.ConcentrationCritical:
			score -= 20
			r.warn(fmt.Sprintf("top wallets hold %.1f%% of supply", h.WalletTopPct))
		case domain.ConcentrationHigh:
			score -= 10
			r.warn(fmt.Sprintf("high whale concentration %.1f%%", h.WalletTopPct))
		case domain.ConcentrationLow:
			score += 5
			r.praise("supply widely distributed")
		}
		if h.HolderCount >= 500 {
			score += 5
			r.praise(fmt.Sprintf("%d distinct holders", h.HolderCount))
		}
	}

	if sec := signals.Security; sec != nil {
		switch sec.Risk {
		case domain.SecurityRiskCritical:
			score -= 25
		case domain.SecurityRiskHigh:
			score -= 15
		case domain.SecurityRiskMedium:
			score -= 5
		case domain.SecurityRiskLow:
			score += 5
			r.praise("third-party security score is low risk")
		}
		for _, f := range sec.Findings {
			r.warn("security flag: " + f)
		}
		if sec.Trusted {
			score += 5
			r.praise("on security provider trust list")
		}
	}

	if p := signals.Protocol; p != nil {
		if p.Listed {
			switch {
			case p.TVLUSD > 10_000_000:
				score += 5
				r.praise(fmt.Sprintf("protocol TVL $%.0f", p.TVLUSD))
			case p.TVLUSD > 1_000_000:
				score += 3
				r.praise(fmt.Sprintf("protocol TVL $%.0f", p.TVLUSD))
			}
			if p.Audited {
				score += 3
				r.praise("protocol has audits on record")
			}
		} else {
			score -= 3
		}
	}

	if score < scoreMin {
		score = scoreMin
	}
	if score > scoreMax {
		score = scoreMax
	}
	r.Score = score
	r.RiskLevel = classify(score, honeypot, r.SignalsUsed)
	return r
}

// classify maps the final score to a risk level. A confirmed honeypot is
// critical no matter what the other signals added.
func classify(score int, honeypot bool, signalsUsed int) RiskLevel {
	if honeypot {
		return RiskCritical
	}
	if signalsUsed == 0 {
		return RiskUnknown
	}
	switch {
	case score >= 70:
		return RiskLow
	case score >= 50:
		return RiskMedium
	case score >= 30:
		return RiskHigh
	default:
		return RiskCritical
	}
}

func (r *Report) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

func (r *Report) praise(msg string) {
	r.Positives = append(r.Positives, msg)
}
