package signals

import (
	"context"
	"regexp"
	"strings"

	"token-sentinel/internal/domain"
)

// riskPattern is one source-code pattern with its severity and score
// penalty.
type riskPattern struct {
	name     string
	severity string
	penalty  int
	re       *regexp.Regexp
	detail   string
}

var riskPatterns = []riskPattern{
	{
		name:     "selfdestruct",
		severity: "critical",
		penalty:  40,
		re:       regexp.MustCompile(`\bselfdestruct\s*\(`),
		detail:   "contract can destroy itself and sweep funds",
	},
	{
		name:     "delegatecall",
		severity: "critical",
		penalty:  30,
		re:       regexp.MustCompile(`\.delegatecall\s*\(`),
		detail:   "arbitrary delegatecall can replace contract logic",
	},
	{
		name:     "hidden-mint",
		severity: "critical",
		penalty:  30,
		re:       regexp.MustCompile(`function\s+_?mint\w*\s*\([^)]*\)\s+(?:internal|private)`),
		detail:   "non-public mint path can inflate supply",
	},
	{
		name:     "owner-set-tax",
		severity: "high",
		penalty:  20,
		re:       regexp.MustCompile(`function\s+set\w*(?:Tax|Fee)\w*\s*\(`),
		detail:   "owner can change trade taxes after launch",
	},
	{
		name:     "blacklist",
		severity: "high",
		penalty:  20,
		re:       regexp.MustCompile(`(?i)\b(?:blacklist|_isBlacklisted|botList)\b`),
		detail:   "owner can block individual addresses from selling",
	},
	{
		name:     "trading-toggle",
		severity: "high",
		penalty:  20,
		re:       regexp.MustCompile(`(?i)\b(?:tradingEnabled|tradingActive|enableTrading|setTrading)\b`),
		detail:   "owner can pause trading",
	},
	{
		name:     "max-tx-control",
		severity: "medium",
		penalty:  10,
		re:       regexp.MustCompile(`(?i)\bset(?:MaxTx|MaxTransaction|MaxWallet)\w*\s*\(`),
		detail:   "owner can shrink transaction limits to trap holders",
	},
	{
		name:     "proxy-upgrade",
		severity: "medium",
		penalty:  10,
		re:       regexp.MustCompile(`(?i)\bupgradeTo(?:AndCall)?\s*\(`),
		detail:   "implementation can be swapped after review",
	},
	{
		name:     "assembly-block",
		severity: "low",
		penalty:  5,
		re:       regexp.MustCompile(`\bassembly\s*\{`),
		detail:   "inline assembly evades static review",
	},
}

// PatternScanner implements SourceScanner with a pure regex pass over
// verified source. It makes no network calls.
type PatternScanner struct{}

// NewPatternScanner creates a source pattern scanner.
func NewPatternScanner() *PatternScanner {
	return &PatternScanner{}
}

var _ SourceScanner = (*PatternScanner)(nil)

// ScanSource scans verified source code for known risk patterns. The score
// starts at 100 and each matched pattern subtracts its penalty, floored at
// zero.
func (s *PatternScanner) ScanSource(_ context.Context, source string) (*domain.SourceScanReport, error) {
	report := &domain.SourceScanReport{Score: 100}
	if strings.TrimSpace(source) == "" {
		return report, nil
	}

	for _, p := range riskPatterns {
		if !p.re.MatchString(source) {
			continue
		}
		report.Issues = append(report.Issues, domain.SourceIssue{
			Pattern:  p.name,
			Severity: p.severity,
			Detail:   p.detail,
		})
		report.Score -= p.penalty
	}
	if report.Score < 0 {
		report.Score = 0
	}
	return report, nil
}
