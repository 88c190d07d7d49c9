package clickhouse

import (
	"context"
	"fmt"

	"token-sentinel/internal/domain"
	"token-sentinel/internal/storage"
)

// CheckSnapshotStore implements storage.CheckSnapshotStore using ClickHouse.
// MergeTree does not enforce uniqueness, which suits the append-only history.
type CheckSnapshotStore struct {
	conn *Conn
}

// NewCheckSnapshotStore creates a new CheckSnapshotStore.
func NewCheckSnapshotStore(conn *Conn) *CheckSnapshotStore {
	return &CheckSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CheckSnapshotStore = (*CheckSnapshotStore)(nil)

// Insert adds one snapshot row.
func (s *CheckSnapshotStore) Insert(ctx context.Context, snap *domain.CheckSnapshot) error {
	if snap == nil || snap.TokenAddress == "" || !snap.Network.Valid() {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO check_snapshots (
			token_address, network, checked_at,
			price_usd, liquidity_usd, is_honeypot,
			rug_type, severity, status_after
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare snapshot batch: %w", err)
	}

	honeypot := uint8(0)
	if snap.IsHoneypot {
		honeypot = 1
	}

	if err := batch.Append(
		snap.TokenAddress,
		string(snap.Network),
		snap.CheckedAt,
		snap.PriceUSD,
		snap.LiquidityUSD,
		honeypot,
		string(snap.RugType),
		string(snap.Severity),
		string(snap.StatusAfter),
	); err != nil {
		return fmt.Errorf("append snapshot row: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send snapshot batch: %w", err)
	}
	return nil
}

// GetByToken retrieves all snapshots for a token, ordered by checked_at ASC.
func (s *CheckSnapshotStore) GetByToken(ctx context.Context, key domain.TokenKey) ([]*domain.CheckSnapshot, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT token_address, network, checked_at,
		       price_usd, liquidity_usd, is_honeypot,
		       rug_type, severity, status_after
		FROM check_snapshots
		WHERE token_address = ? AND network = ?
		ORDER BY checked_at ASC
	`, key.Address, string(key.Network))
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var result []*domain.CheckSnapshot
	for rows.Next() {
		var snap domain.CheckSnapshot
		var network, rugType, severity, statusAfter string
		var honeypot uint8

		if err := rows.Scan(
			&snap.TokenAddress,
			&network,
			&snap.CheckedAt,
			&snap.PriceUSD,
			&snap.LiquidityUSD,
			&honeypot,
			&rugType,
			&severity,
			&statusAfter,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		snap.Network = domain.Network(network)
		snap.IsHoneypot = honeypot == 1
		snap.RugType = domain.RugType(rugType)
		snap.Severity = domain.Severity(severity)
		snap.StatusAfter = domain.TokenStatus(statusAfter)
		result = append(result, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return result, nil
}
