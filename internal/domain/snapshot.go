package domain

// CheckSnapshot is one row per monitor evaluation of one token.
// Append-only analytic history, stored in ClickHouse.
type CheckSnapshot struct {
	TokenAddress string
	Network      Network
	CheckedAt    int64 // Unix timestamp in milliseconds

	PriceUSD     float64
	LiquidityUSD float64
	IsHoneypot   bool

	// Fired check, if any. Empty when the evaluation was clean.
	RugType  RugType
	Severity Severity

	StatusAfter TokenStatus
}
