package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"token-sentinel/internal/domain"
)

// ComputeIncidentID computes a deterministic incident id using SHA256.
// Formula: SHA256(address|network|rug_type|detected_at)
// Returns hex-encoded hash (64 characters).
func ComputeIncidentID(
	address string,
	network domain.Network,
	rugType domain.RugType,
	detectedAt int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d",
		address,
		string(network),
		string(rugType),
		detectedAt,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputePostHash computes a deterministic hash of a published alert body.
// Used as the idempotency marker stored next to the incident latch.
func ComputePostHash(message string) string {
	hash := sha256.Sum256([]byte(message))
	return hex.EncodeToString(hash[:])
}
