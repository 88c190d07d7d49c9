package storage

import (
	"context"

	"token-sentinel/internal/domain"
)

// TrackedTokenStore provides access to tracked_tokens storage.
type TrackedTokenStore interface {
	// InsertIfAbsent records the first-scan baseline. Returns ErrDuplicateKey
	// if the (address, network) row already exists; the baseline is written
	// exactly once and never overwritten by re-scoring.
	InsertIfAbsent(ctx context.Context, t *domain.TrackedToken) error

	// Update rewrites the mutable fields (current values, status, indicators,
	// last checked). Returns ErrNotFound if the row does not exist.
	Update(ctx context.Context, t *domain.TrackedToken) error

	// Get retrieves a token by key. Returns ErrNotFound if not exists.
	Get(ctx context.Context, key domain.TokenKey) (*domain.TrackedToken, error)

	// SelectStale retrieves up to limit active tokens not checked since
	// cutoff (ms), never-checked tokens first, then oldest check first.
	SelectStale(ctx context.Context, cutoff int64, limit int) ([]*domain.TrackedToken, error)

	// SetIncidentPosted sets the de-duplication latch. Returns
	// ErrAlreadyPosted if the latch is already set, ErrNotFound if the row
	// does not exist. Compare-and-set: concurrent monitor runs cannot both
	// succeed.
	SetIncidentPosted(ctx context.Context, key domain.TokenKey, postedAt int64, incidentHash string) error

	// CountByStatus returns the number of tracked tokens per status.
	CountByStatus(ctx context.Context) (map[domain.TokenStatus]int, error)
}

// IncidentStore provides access to rug_incidents storage. Append-only.
type IncidentStore interface {
	// Insert adds a new incident. Returns ErrDuplicateKey if
	// (token_address, network, detected_at) exists.
	Insert(ctx context.Context, inc *domain.RugIncident) error

	// GetByToken retrieves all incidents for a token, ordered by
	// detected_at ASC.
	GetByToken(ctx context.Context, key domain.TokenKey) ([]*domain.RugIncident, error)

	// CountSince returns how many incidents were detected at or after the
	// given timestamp (ms).
	CountSince(ctx context.Context, since int64) (int, error)
}

// CheckSnapshotStore provides access to check_snapshots storage.
// Append-only analytic history of monitor evaluations.
type CheckSnapshotStore interface {
	// Insert adds one snapshot row.
	Insert(ctx context.Context, s *domain.CheckSnapshot) error

	// GetByToken retrieves all snapshots for a token, ordered by
	// checked_at ASC.
	GetByToken(ctx context.Context, key domain.TokenKey) ([]*domain.CheckSnapshot, error)
}
