package domain

// TokenStatus is the lifecycle state of a tracked token.
// Status only ever advances active -> {suspicious, rugged}; rugged and
// delisted are terminal, there is no automatic recovery.
type TokenStatus string

const (
	StatusActive     TokenStatus = "active"
	StatusSuspicious TokenStatus = "suspicious"
	StatusRugged     TokenStatus = "rugged"
	StatusDelisted   TokenStatus = "delisted"
)

// Valid reports whether s is a known status.
func (s TokenStatus) Valid() bool {
	switch s {
	case StatusActive, StatusSuspicious, StatusRugged, StatusDelisted:
		return true
	}
	return false
}

// Terminal reports whether the monitor may still move the token forward.
func (s TokenStatus) Terminal() bool {
	return s == StatusRugged || s == StatusDelisted
}

// TrackedToken is one row per (address, network).
// Corresponds to tracked_tokens table in PostgreSQL.
//
// The original* fields are the first-scan baseline and are written exactly
// once. The current* fields are rewritten by every monitor pass.
// IncidentPostedAt is the de-duplication latch: set at most once, and only
// after an alert was actually delivered.
type TrackedToken struct {
	Address string
	Symbol  string
	Name    string
	Network Network

	OriginalScore      int     // 0-100 composite score at first scan
	OriginalPrice      float64 // USD
	OriginalLiquidity  float64 // USD across known pools
	OriginalAnalyzedAt int64   // Unix timestamp in milliseconds

	CurrentPrice     float64
	CurrentLiquidity float64
	PriceChange24h   float64
	LastCheckedAt    *int64 // nil until the first monitor pass

	Status        TokenStatus
	RugIndicators []string // ordered, human readable

	IncidentPostedAt *int64  // nil until an alert was published
	IncidentHash     *string // deterministic incident id, set with the latch

	CreatedAt int64
}

// Key returns the primary key of the row.
func (t *TrackedToken) Key() TokenKey {
	return TokenKey{Address: t.Address, Network: t.Network}
}

// TokenKey is the (address, network) primary key of a tracked token.
type TokenKey struct {
	Address string
	Network Network
}
