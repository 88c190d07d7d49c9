package domain

// RugType classifies the mechanism behind a detected incident.
type RugType string

const (
	RugPriceCrash      RugType = "price_crash"
	RugLiquidityPull   RugType = "liquidity_pull"
	RugHoneypotFlip    RugType = "honeypot_flip"
	RugOwnerDump       RugType = "owner_dump"
	RugTradingDisabled RugType = "trading_disabled"
)

// Valid reports whether r is a known rug type.
func (r RugType) Valid() bool {
	switch r {
	case RugPriceCrash, RugLiquidityPull, RugHoneypotFlip, RugOwnerDump, RugTradingDisabled:
		return true
	}
	return false
}

// Severity grades an incident. Within one evaluation severity only ever
// escalates, never downgrades.
type Severity string

const (
	SeverityWarning   Severity = "warning"
	SeverityConfirmed Severity = "confirmed"
	SeverityCritical  Severity = "critical"
)

// Rank returns the ordering of severities for escalation comparisons.
func (s Severity) Rank() int {
	switch s {
	case SeverityWarning:
		return 1
	case SeverityConfirmed:
		return 2
	case SeverityCritical:
		return 3
	}
	return 0
}

// Max returns the more severe of s and other.
func (s Severity) Max(other Severity) Severity {
	if other.Rank() > s.Rank() {
		return other
	}
	return s
}

// RugIncident is an append-only record created when a monitor transition
// fires. Keyed by (token_address, network, detected_at); there is no update
// path.
type RugIncident struct {
	IncidentID   string // deterministic hash, see internal/idhash
	TokenAddress string
	TokenSymbol  string
	TokenName    string
	Network      Network

	RugType  RugType
	Severity Severity

	PriceBefore  float64
	PriceAfter   float64
	PriceDropPct float64
	LiqBefore    float64
	LiqAfter     float64
	LiqDropPct   float64

	Indicators    []string // evidence strings, ordered as detected
	OriginalScore int
	WePredictedIt bool // original score already classified the token as risky

	DetectedAt int64  // Unix timestamp in milliseconds
	PostedAt   *int64 // nil until published
	PostHash   *string
}
