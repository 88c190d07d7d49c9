package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"token-sentinel/internal/domain"
	"token-sentinel/internal/storage"
)

// TrackedTokenStore implements storage.TrackedTokenStore using PostgreSQL.
type TrackedTokenStore struct {
	pool *Pool
}

// NewTrackedTokenStore creates a new TrackedTokenStore.
func NewTrackedTokenStore(pool *Pool) *TrackedTokenStore {
	return &TrackedTokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TrackedTokenStore = (*TrackedTokenStore)(nil)

const trackedTokenColumns = `
	address, network, symbol, name,
	original_score, original_price, original_liquidity, original_analyzed_at,
	current_price, current_liquidity, price_change_24h, last_checked_at,
	status, rug_indicators, incident_posted_at, incident_hash, created_at
`

// InsertIfAbsent records the first-scan baseline. The ON CONFLICT DO NOTHING
// keeps re-scoring from ever touching an existing baseline.
func (s *TrackedTokenStore) InsertIfAbsent(ctx context.Context, t *domain.TrackedToken) error {
	if t == nil || t.Address == "" || !t.Network.Valid() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO tracked_tokens (` + trackedTokenColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (address, network) DO NOTHING
	`

	tag, err := s.pool.Exec(ctx, query,
		t.Address,
		string(t.Network),
		t.Symbol,
		t.Name,
		t.OriginalScore,
		t.OriginalPrice,
		t.OriginalLiquidity,
		t.OriginalAnalyzedAt,
		t.CurrentPrice,
		t.CurrentLiquidity,
		t.PriceChange24h,
		t.LastCheckedAt,
		string(t.Status),
		t.RugIndicators,
		t.IncidentPostedAt,
		t.IncidentHash,
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert tracked token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrDuplicateKey
	}
	return nil
}

// Update rewrites the mutable fields of the row. Baseline columns are
// deliberately not in the SET list.
func (s *TrackedTokenStore) Update(ctx context.Context, t *domain.TrackedToken) error {
	if t == nil || t.Address == "" || !t.Network.Valid() {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE tracked_tokens
		SET symbol = $3, name = $4,
		    current_price = $5, current_liquidity = $6, price_change_24h = $7,
		    last_checked_at = $8, status = $9, rug_indicators = $10
		WHERE address = $1 AND network = $2
	`

	tag, err := s.pool.Exec(ctx, query,
		t.Address,
		string(t.Network),
		t.Symbol,
		t.Name,
		t.CurrentPrice,
		t.CurrentLiquidity,
		t.PriceChange24h,
		t.LastCheckedAt,
		string(t.Status),
		t.RugIndicators,
	)
	if err != nil {
		return fmt.Errorf("update tracked token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Get retrieves a token by key. Returns ErrNotFound if not exists.
func (s *TrackedTokenStore) Get(ctx context.Context, key domain.TokenKey) (*domain.TrackedToken, error) {
	query := `
		SELECT ` + trackedTokenColumns + `
		FROM tracked_tokens
		WHERE address = $1 AND network = $2
	`

	row := s.pool.QueryRow(ctx, query, key.Address, string(key.Network))
	t, err := scanTrackedToken(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get tracked token: %w", err)
	}
	return t, nil
}

// SelectStale retrieves up to limit active tokens with last_checked_at null
// or older than cutoff, nulls first, then oldest first.
func (s *TrackedTokenStore) SelectStale(ctx context.Context, cutoff int64, limit int) ([]*domain.TrackedToken, error) {
	query := `
		SELECT ` + trackedTokenColumns + `
		FROM tracked_tokens
		WHERE status = $1 AND (last_checked_at IS NULL OR last_checked_at < $2)
		ORDER BY last_checked_at ASC NULLS FIRST, address ASC
		LIMIT $3
	`

	rows, err := s.pool.Query(ctx, query, string(domain.StatusActive), cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("select stale tokens: %w", err)
	}
	defer rows.Close()

	return scanTrackedTokens(rows)
}

// SetIncidentPosted sets the latch iff it is still unset. Compare-and-set in
// a single statement so concurrent monitor runs cannot both win.
func (s *TrackedTokenStore) SetIncidentPosted(ctx context.Context, key domain.TokenKey, postedAt int64, incidentHash string) error {
	query := `
		UPDATE tracked_tokens
		SET incident_posted_at = $3, incident_hash = $4
		WHERE address = $1 AND network = $2 AND incident_posted_at IS NULL
	`

	tag, err := s.pool.Exec(ctx, query, key.Address, string(key.Network), postedAt, incidentHash)
	if err != nil {
		return fmt.Errorf("set incident posted: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Distinguish missing row from already-set latch.
	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tracked_tokens WHERE address = $1 AND network = $2)`,
		key.Address, string(key.Network),
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check tracked token exists: %w", err)
	}
	if !exists {
		return storage.ErrNotFound
	}
	return storage.ErrAlreadyPosted
}

// CountByStatus returns the number of tracked tokens per status.
func (s *TrackedTokenStore) CountByStatus(ctx context.Context) (map[domain.TokenStatus]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM tracked_tokens GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count tokens by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.TokenStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[domain.TokenStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}
	return counts, nil
}

// scanTrackedToken scans a single row into a TrackedToken.
func scanTrackedToken(row pgx.Row) (*domain.TrackedToken, error) {
	var t domain.TrackedToken
	var network, status string

	err := row.Scan(
		&t.Address,
		&network,
		&t.Symbol,
		&t.Name,
		&t.OriginalScore,
		&t.OriginalPrice,
		&t.OriginalLiquidity,
		&t.OriginalAnalyzedAt,
		&t.CurrentPrice,
		&t.CurrentLiquidity,
		&t.PriceChange24h,
		&t.LastCheckedAt,
		&status,
		&t.RugIndicators,
		&t.IncidentPostedAt,
		&t.IncidentHash,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Network = domain.Network(network)
	t.Status = domain.TokenStatus(status)
	return &t, nil
}

// scanTrackedTokens scans multiple rows into a slice of TrackedToken.
func scanTrackedTokens(rows pgx.Rows) ([]*domain.TrackedToken, error) {
	var tokens []*domain.TrackedToken
	for rows.Next() {
		t, err := scanTrackedToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tracked token row: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracked token rows: %w", err)
	}
	return tokens, nil
}
