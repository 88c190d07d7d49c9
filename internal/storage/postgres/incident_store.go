package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"token-sentinel/internal/domain"
	"token-sentinel/internal/storage"
)

// IncidentStore implements storage.IncidentStore using PostgreSQL.
// rug_incidents is append-only; there is no update path.
type IncidentStore struct {
	pool *Pool
}

// NewIncidentStore creates a new IncidentStore.
func NewIncidentStore(pool *Pool) *IncidentStore {
	return &IncidentStore{pool: pool}
}

// Compile-time interface check.
var _ storage.IncidentStore = (*IncidentStore)(nil)

const incidentColumns = `
	incident_id, token_address, token_symbol, token_name, network,
	rug_type, severity,
	price_before, price_after, price_drop_pct,
	liq_before, liq_after, liq_drop_pct,
	indicators, original_score, we_predicted_it,
	detected_at, posted_at, post_hash
`

// Insert adds a new incident. Returns ErrDuplicateKey if
// (token_address, network, detected_at) exists.
func (s *IncidentStore) Insert(ctx context.Context, inc *domain.RugIncident) error {
	if inc == nil || inc.TokenAddress == "" || !inc.Network.Valid() || !inc.RugType.Valid() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO rug_incidents (` + incidentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := s.pool.Exec(ctx, query,
		inc.IncidentID,
		inc.TokenAddress,
		inc.TokenSymbol,
		inc.TokenName,
		string(inc.Network),
		string(inc.RugType),
		string(inc.Severity),
		inc.PriceBefore,
		inc.PriceAfter,
		inc.PriceDropPct,
		inc.LiqBefore,
		inc.LiqAfter,
		inc.LiqDropPct,
		inc.Indicators,
		inc.OriginalScore,
		inc.WePredictedIt,
		inc.DetectedAt,
		inc.PostedAt,
		inc.PostHash,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}

// GetByToken retrieves all incidents for a token, ordered by detected_at ASC.
func (s *IncidentStore) GetByToken(ctx context.Context, key domain.TokenKey) ([]*domain.RugIncident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM rug_incidents
		WHERE token_address = $1 AND network = $2
		ORDER BY detected_at ASC
	`

	rows, err := s.pool.Query(ctx, query, key.Address, string(key.Network))
	if err != nil {
		return nil, fmt.Errorf("get incidents by token: %w", err)
	}
	defer rows.Close()

	var incidents []*domain.RugIncident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident row: %w", err)
		}
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incident rows: %w", err)
	}
	return incidents, nil
}

// CountSince returns how many incidents were detected at or after since.
func (s *IncidentStore) CountSince(ctx context.Context, since int64) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM rug_incidents WHERE detected_at >= $1`, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count incidents since: %w", err)
	}
	return n, nil
}

// scanIncident scans a single row into a RugIncident.
func scanIncident(row pgx.Row) (*domain.RugIncident, error) {
	var inc domain.RugIncident
	var network, rugType, severity string

	err := row.Scan(
		&inc.IncidentID,
		&inc.TokenAddress,
		&inc.TokenSymbol,
		&inc.TokenName,
		&network,
		&rugType,
		&severity,
		&inc.PriceBefore,
		&inc.PriceAfter,
		&inc.PriceDropPct,
		&inc.LiqBefore,
		&inc.LiqAfter,
		&inc.LiqDropPct,
		&inc.Indicators,
		&inc.OriginalScore,
		&inc.WePredictedIt,
		&inc.DetectedAt,
		&inc.PostedAt,
		&inc.PostHash,
	)
	if err != nil {
		return nil, err
	}

	inc.Network = domain.Network(network)
	inc.RugType = domain.RugType(rugType)
	inc.Severity = domain.Severity(severity)
	return &inc, nil
}
