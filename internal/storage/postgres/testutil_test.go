package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL container for testing and applies the
// schema. Returns a cleanup function that must be called after tests
// complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	applySchema(t, ctx, pool)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// applySchema creates the tables the stores expect. Mirrors the embedded
// migrations; kept inline so the store tests do not import the migrations
// package (which imports this one).
func applySchema(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS tracked_tokens (
			address              TEXT NOT NULL,
			network              TEXT NOT NULL,
			symbol               TEXT NOT NULL DEFAULT '',
			name                 TEXT NOT NULL DEFAULT '',
			original_score       INTEGER NOT NULL,
			original_price       DOUBLE PRECISION NOT NULL DEFAULT 0,
			original_liquidity   DOUBLE PRECISION NOT NULL DEFAULT 0,
			original_analyzed_at BIGINT NOT NULL,
			current_price        DOUBLE PRECISION NOT NULL DEFAULT 0,
			current_liquidity    DOUBLE PRECISION NOT NULL DEFAULT 0,
			price_change_24h     DOUBLE PRECISION NOT NULL DEFAULT 0,
			last_checked_at      BIGINT,
			status               TEXT NOT NULL DEFAULT 'active',
			rug_indicators       TEXT[] NOT NULL DEFAULT '{}',
			incident_posted_at   BIGINT,
			incident_hash        TEXT,
			created_at           BIGINT NOT NULL,
			PRIMARY KEY (address, network)
		)`,
		`CREATE TABLE IF NOT EXISTS rug_incidents (
			incident_id     TEXT NOT NULL,
			token_address   TEXT NOT NULL,
			token_symbol    TEXT NOT NULL DEFAULT '',
			token_name      TEXT NOT NULL DEFAULT '',
			network         TEXT NOT NULL,
			rug_type        TEXT NOT NULL,
			severity        TEXT NOT NULL,
			price_before    DOUBLE PRECISION NOT NULL DEFAULT 0,
			price_after     DOUBLE PRECISION NOT NULL DEFAULT 0,
			price_drop_pct  DOUBLE PRECISION NOT NULL DEFAULT 0,
			liq_before      DOUBLE PRECISION NOT NULL DEFAULT 0,
			liq_after       DOUBLE PRECISION NOT NULL DEFAULT 0,
			liq_drop_pct    DOUBLE PRECISION NOT NULL DEFAULT 0,
			indicators      TEXT[] NOT NULL DEFAULT '{}',
			original_score  INTEGER NOT NULL,
			we_predicted_it BOOLEAN NOT NULL DEFAULT FALSE,
			detected_at     BIGINT NOT NULL,
			posted_at       BIGINT,
			post_hash       TEXT,
			PRIMARY KEY (token_address, network, detected_at)
		)`,
	}

	for _, stmt := range statements {
		_, err := pool.Exec(ctx, stmt)
		require.NoError(t, err, "failed to apply schema")
	}
}

// ptr is a helper to create pointers to values.
func ptr[T any](v T) *T {
	return &v
}
