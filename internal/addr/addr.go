// Package addr validates and formats token addresses per network.
package addr

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"

	"token-sentinel/internal/domain"
)

// Validate checks that address is well formed for the given network.
// Validation failures are non-retryable by definition.
func Validate(address string, network domain.Network) error {
	if !network.Valid() {
		return fmt.Errorf("unknown network %q", network)
	}
	if network.IsEVM() {
		if !common.IsHexAddress(address) {
			return fmt.Errorf("invalid %s address %q", network, address)
		}
		return nil
	}
	return validateSolana(address)
}

// Normalize returns the canonical form of a valid address: EIP-55 checksum
// casing for EVM networks, the input unchanged for Solana.
func Normalize(address string, network domain.Network) (string, error) {
	if err := Validate(address, network); err != nil {
		return "", err
	}
	if network.IsEVM() {
		return common.HexToAddress(address).Hex(), nil
	}
	return address, nil
}

// Shorten renders an address for display: first 6 and last 4 characters.
func Shorten(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

// SolanaOnCurve reports whether a valid Solana address decodes to a point on
// the ed25519 curve. On-curve accounts are keypair wallets; off-curve
// accounts are program derived (pools, vaults) and count as infrastructure
// for holder classification.
func SolanaOnCurve(address string) bool {
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}

// validateSolana checks base58 encoding and the 32-byte length. Off-curve
// addresses are still valid mints (program derived accounts), so no curve
// check here.
func validateSolana(address string) error {
	raw, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("invalid solana address %q: %w", address, err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("invalid solana address %q: %d bytes", address, len(raw))
	}
	return nil
}
