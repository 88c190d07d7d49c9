package scoring

import (
	"testing"

	"token-sentinel/internal/domain"
)

func TestScoreAllSignalsMissing(t *testing.T) {
	r := Score(&domain.SignalSet{})

	if r.Score != 50 {
		t.Errorf("expected neutral 50 with no signals, got %d", r.Score)
	}
	if r.RiskLevel != RiskUnknown {
		t.Errorf("expected unknown risk level, got %s", r.RiskLevel)
	}
	if len(r.Warnings) != 0 || len(r.Positives) != 0 {
		t.Errorf("expected no findings, got %v / %v", r.Warnings, r.Positives)
	}
}

func TestScoreClampsLow(t *testing.T) {
	signals := &domain.SignalSet{
		Simulation: &domain.TradeSimulation{
			IsHoneypot:           true,
			SellTaxPct:           99,
			Mintable:             true,
			OwnershipReclaimable: true,
		},
		Verification: &domain.Verification{Verified: false},
		SourceScan:   &domain.SourceScanReport{Score: 10},
		Holders:      &domain.HolderAnalysis{Concentration: domain.ConcentrationCritical},
		Security:     &domain.SecurityScore{Risk: domain.SecurityRiskCritical},
		Deployer:     &domain.DeployerProfile{Risk: domain.DeployerRiskCritical, PriorRugs: 5},
	}
	r := Score(signals)

	if r.Score != 0 {
		t.Errorf("expected score clamped to 0, got %d", r.Score)
	}
	if r.RiskLevel != RiskCritical {
		t.Errorf("expected critical, got %s", r.RiskLevel)
	}
}

func TestScoreClampsHigh(t *testing.T) {
	signals := &domain.SignalSet{
		Simulation:   &domain.TradeSimulation{SimulationOK: true},
		Verification: &domain.Verification{Verified: true},
		SourceScan:   &domain.SourceScanReport{Score: 100},
		Market: &domain.MarketData{
			Pools: []domain.Pool{{LiquidityUSD: 500_000}},
		},
		Sentiment: &domain.SentimentSnapshot{
			Direction:        domain.SentimentBullish,
			PositiveMentions: 10,
		},
		Deployer: &domain.DeployerProfile{
			Risk:             domain.DeployerRiskLow,
			LaunchPlatform:   "pump.fun",
			PlatformVerified: true,
		},
		Holders: &domain.HolderAnalysis{
			Concentration: domain.ConcentrationLow,
			HolderCount:   5000,
		},
		Security: &domain.SecurityScore{Risk: domain.SecurityRiskLow, Trusted: true},
		Protocol: &domain.ProtocolInfo{Listed: true, TVLUSD: 50_000_000, Audited: true},
	}
	r := Score(signals)

	if r.Score != 100 {
		t.Errorf("expected score clamped to 100, got %d", r.Score)
	}
	if r.RiskLevel != RiskLow {
		t.Errorf("expected low risk, got %s", r.RiskLevel)
	}
}

func TestScoreHoneypotAlwaysCritical(t *testing.T) {
	// Every other signal is glowing, but a confirmed honeypot overrides.
	signals := &domain.SignalSet{
		Simulation:   &domain.TradeSimulation{IsHoneypot: true},
		Verification: &domain.Verification{Verified: true},
		SourceScan:   &domain.SourceScanReport{Score: 100},
		Market: &domain.MarketData{
			Pools: []domain.Pool{{LiquidityUSD: 1_000_000}},
		},
		Holders:  &domain.HolderAnalysis{Concentration: domain.ConcentrationLow, HolderCount: 10_000},
		Security: &domain.SecurityScore{Risk: domain.SecurityRiskLow, Trusted: true},
		Protocol: &domain.ProtocolInfo{Listed: true, TVLUSD: 100_000_000, Audited: true},
	}
	r := Score(signals)

	if r.RiskLevel != RiskCritical {
		t.Errorf("honeypot must force critical, got %s with score %d", r.RiskLevel, r.Score)
	}
}

func TestScoreDeterministic(t *testing.T) {
	signals := &domain.SignalSet{
		Simulation: &domain.TradeSimulation{SimulationOK: true, SellTaxPct: 12},
		Market:     &domain.MarketData{Pools: []domain.Pool{{LiquidityUSD: 5000}}},
		Sentiment:  &domain.SentimentSnapshot{Direction: domain.SentimentBearish, WarningMentions: 2},
	}

	first := Score(signals)
	for i := 0; i < 10; i++ {
		again := Score(signals)
		if again.Score != first.Score || again.RiskLevel != first.RiskLevel {
			t.Fatalf("scoring is not deterministic: %d/%s vs %d/%s",
				first.Score, first.RiskLevel, again.Score, again.RiskLevel)
		}
	}
}

func TestScoreTiers(t *testing.T) {
	cases := []struct {
		name    string
		signals *domain.SignalSet
		want    RiskLevel
	}{
		{
			name: "low",
			signals: &domain.SignalSet{
				Simulation:   &domain.TradeSimulation{SimulationOK: true},
				Verification: &domain.Verification{Verified: true},
			},
			want: RiskLow, // 50+10+10 = 70
		},
		{
			name: "medium",
			signals: &domain.SignalSet{
				Simulation: &domain.TradeSimulation{SimulationOK: true},
			},
			want: RiskMedium, // 60
		},
		{
			name: "high",
			signals: &domain.SignalSet{
				Verification: &domain.Verification{Verified: false},
			},
			want: RiskHigh, // 35
		},
		{
			name: "critical",
			signals: &domain.SignalSet{
				Verification: &domain.Verification{Verified: false},
				Security:     &domain.SecurityScore{Risk: domain.SecurityRiskHigh},
			},
			want: RiskCritical, // 20
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Score(tc.signals)
			if r.RiskLevel != tc.want {
				t.Errorf("expected %s, got %s (score %d)", tc.want, r.RiskLevel, r.Score)
			}
		})
	}
}

func TestScoreAdjustments(t *testing.T) {
	cases := []struct {
		name    string
		signals *domain.SignalSet
		want    int
	}{
		{
			name:    "sell tax above 20",
			signals: &domain.SignalSet{Simulation: &domain.TradeSimulation{SimulationOK: true, SellTaxPct: 25}},
			want:    40, // 50+10-20
		},
		{
			name:    "sell tax above 10",
			signals: &domain.SignalSet{Simulation: &domain.TradeSimulation{SimulationOK: true, SellTaxPct: 15}},
			want:    50, // 50+10-10
		},
		{
			name:    "mintable and reclaimable",
			signals: &domain.SignalSet{Simulation: &domain.TradeSimulation{SimulationOK: true, Mintable: true, OwnershipReclaimable: true}},
			want:    25, // 50+10-10-25
		},
		{
			name:    "thin liquidity",
			signals: &domain.SignalSet{Market: &domain.MarketData{Pools: []domain.Pool{{LiquidityUSD: 500}}}},
			want:    40,
		},
		{
			name:    "unlisted protocol penalty",
			signals: &domain.SignalSet{Protocol: &domain.ProtocolInfo{Listed: false}},
			want:    47,
		},
		{
			name: "mention arithmetic",
			signals: &domain.SignalSet{Sentiment: &domain.SentimentSnapshot{
				Direction:        domain.SentimentBearish,
				PositiveMentions: 2,
				WarningMentions:  3,
			}},
			want: 36, // 50-5+6-15
		},
		{
			name:    "source scan mid tier",
			signals: &domain.SignalSet{SourceScan: &domain.SourceScanReport{Score: 40}},
			want:    30, // 50-20
		},
		{
			name:    "source scan worst tier",
			signals: &domain.SignalSet{SourceScan: &domain.SourceScanReport{Score: 20}},
			want:    20, // 50-30
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Score(tc.signals)
			if r.Score != tc.want {
				t.Errorf("expected score %d, got %d", tc.want, r.Score)
			}
		})
	}
}

func TestScoreFindingsAttributed(t *testing.T) {
	signals := &domain.SignalSet{
		SourceScan: &domain.SourceScanReport{
			Score: 60,
			Issues: []domain.SourceIssue{
				{Pattern: "blacklist", Severity: "high", Detail: "owner can block sells"},
			},
		},
		Security: &domain.SecurityScore{
			Risk:     domain.SecurityRiskHigh,
			Findings: []string{"hidden_owner"},
		},
	}
	r := Score(signals)

	wantWarnings := map[string]bool{
		"source pattern blacklist: owner can block sells": false,
		"security flag: hidden_owner":                     false,
	}
	for _, w := range r.Warnings {
		if _, ok := wantWarnings[w]; ok {
			wantWarnings[w] = true
		}
	}
	for msg, seen := range wantWarnings {
		if !seen {
			t.Errorf("expected warning %q, got %v", msg, r.Warnings)
		}
	}
}
