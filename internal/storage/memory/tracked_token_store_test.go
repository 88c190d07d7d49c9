package memory

import (
	"context"
	"errors"
	"testing"

	"token-sentinel/internal/domain"
	"token-sentinel/internal/storage"
)

func newToken(address string, status domain.TokenStatus, lastChecked *int64) *domain.TrackedToken {
	return &domain.TrackedToken{
		Address:            address,
		Symbol:             "TST",
		Name:               "Test Token",
		Network:            domain.NetworkEthereum,
		OriginalScore:      80,
		OriginalPrice:      0.001,
		OriginalLiquidity:  50000,
		OriginalAnalyzedAt: 1704067200000,
		Status:             status,
		LastCheckedAt:      lastChecked,
	}
}

func ptr[T any](v T) *T { return &v }

func TestTrackedTokenStore_InsertAndGet(t *testing.T) {
	store := NewTrackedTokenStore()
	ctx := context.Background()

	tok := newToken("0xabc", domain.StatusActive, nil)
	if err := store.InsertIfAbsent(ctx, tok); err != nil {
		t.Fatalf("InsertIfAbsent failed: %v", err)
	}

	got, err := store.Get(ctx, tok.Key())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Address != "0xabc" || got.OriginalScore != 80 {
		t.Errorf("unexpected row: %+v", got)
	}
}

func TestTrackedTokenStore_BaselineWrittenOnce(t *testing.T) {
	store := NewTrackedTokenStore()
	ctx := context.Background()

	if err := store.InsertIfAbsent(ctx, newToken("0xabc", domain.StatusActive, nil)); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	again := newToken("0xabc", domain.StatusActive, nil)
	again.OriginalScore = 10
	err := store.InsertIfAbsent(ctx, again)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	got, _ := store.Get(ctx, again.Key())
	if got.OriginalScore != 80 {
		t.Errorf("baseline was overwritten: score = %d", got.OriginalScore)
	}
}

func TestTrackedTokenStore_UpdateMissing(t *testing.T) {
	store := NewTrackedTokenStore()
	err := store.Update(context.Background(), newToken("0xmissing", domain.StatusActive, nil))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTrackedTokenStore_SelectStale(t *testing.T) {
	store := NewTrackedTokenStore()
	ctx := context.Background()

	// Never checked, should come first.
	a := newToken("0xaaa", domain.StatusActive, nil)
	// Checked long ago.
	b := newToken("0xbbb", domain.StatusActive, ptr(int64(1000)))
	// Checked recently, above cutoff.
	c := newToken("0xccc", domain.StatusActive, ptr(int64(90000)))
	// Stale but not active.
	d := newToken("0xddd", domain.StatusRugged, ptr(int64(1000)))

	for _, tok := range []*domain.TrackedToken{a, b, c, d} {
		if err := store.InsertIfAbsent(ctx, tok); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	got, err := store.SelectStale(ctx, 50000, 10)
	if err != nil {
		t.Fatalf("SelectStale failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d tokens, want 2", len(got))
	}
	if got[0].Address != "0xaaa" {
		t.Errorf("never-checked token should be first, got %s", got[0].Address)
	}
	if got[1].Address != "0xbbb" {
		t.Errorf("second should be oldest checked, got %s", got[1].Address)
	}
}

func TestTrackedTokenStore_SelectStaleLimit(t *testing.T) {
	store := NewTrackedTokenStore()
	ctx := context.Background()

	for _, addr := range []string{"0xaaa", "0xbbb", "0xccc"} {
		if err := store.InsertIfAbsent(ctx, newToken(addr, domain.StatusActive, nil)); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	got, err := store.SelectStale(ctx, 50000, 2)
	if err != nil {
		t.Fatalf("SelectStale failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("limit not applied: got %d tokens", len(got))
	}
}

func TestTrackedTokenStore_SetIncidentPostedLatch(t *testing.T) {
	store := NewTrackedTokenStore()
	ctx := context.Background()

	tok := newToken("0xabc", domain.StatusRugged, nil)
	if err := store.InsertIfAbsent(ctx, tok); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := store.SetIncidentPosted(ctx, tok.Key(), 1704067200000, "hash1"); err != nil {
		t.Fatalf("first SetIncidentPosted failed: %v", err)
	}

	err := store.SetIncidentPosted(ctx, tok.Key(), 1704067300000, "hash2")
	if !errors.Is(err, storage.ErrAlreadyPosted) {
		t.Fatalf("expected ErrAlreadyPosted, got %v", err)
	}

	got, _ := store.Get(ctx, tok.Key())
	if got.IncidentHash == nil || *got.IncidentHash != "hash1" {
		t.Errorf("latch value changed: %+v", got.IncidentHash)
	}
}

func TestTrackedTokenStore_CopySemantics(t *testing.T) {
	store := NewTrackedTokenStore()
	ctx := context.Background()

	tok := newToken("0xabc", domain.StatusActive, nil)
	tok.RugIndicators = []string{"initial"}
	if err := store.InsertIfAbsent(ctx, tok); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// Mutating the caller's slice must not affect the stored row.
	tok.RugIndicators[0] = "mutated"

	got, _ := store.Get(ctx, tok.Key())
	if got.RugIndicators[0] != "initial" {
		t.Error("store did not copy indicator slice")
	}
}

func TestTrackedTokenStore_CountByStatus(t *testing.T) {
	store := NewTrackedTokenStore()
	ctx := context.Background()

	_ = store.InsertIfAbsent(ctx, newToken("0xaaa", domain.StatusActive, nil))
	_ = store.InsertIfAbsent(ctx, newToken("0xbbb", domain.StatusActive, nil))
	_ = store.InsertIfAbsent(ctx, newToken("0xccc", domain.StatusRugged, nil))

	counts, err := store.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if counts[domain.StatusActive] != 2 || counts[domain.StatusRugged] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
