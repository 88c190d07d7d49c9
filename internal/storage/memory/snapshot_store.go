package memory

import (
	"context"
	"sort"
	"sync"

	"token-sentinel/internal/domain"
	"token-sentinel/internal/storage"
)

// CheckSnapshotStore is an in-memory implementation of storage.CheckSnapshotStore.
type CheckSnapshotStore struct {
	mu   sync.RWMutex
	data []*domain.CheckSnapshot
}

// NewCheckSnapshotStore creates a new in-memory snapshot store.
func NewCheckSnapshotStore() *CheckSnapshotStore {
	return &CheckSnapshotStore{}
}

// Insert adds one snapshot row. Append-only, no uniqueness enforced.
func (s *CheckSnapshotStore) Insert(_ context.Context, snap *domain.CheckSnapshot) error {
	if snap == nil || snap.TokenAddress == "" || !snap.Network.Valid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := *snap
	s.data = append(s.data, &c)
	return nil
}

// GetByToken retrieves all snapshots for a token, ordered by checked_at ASC.
func (s *CheckSnapshotStore) GetByToken(_ context.Context, key domain.TokenKey) ([]*domain.CheckSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CheckSnapshot
	for _, snap := range s.data {
		if snap.TokenAddress == key.Address && snap.Network == key.Network {
			c := *snap
			result = append(result, &c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CheckedAt < result[j].CheckedAt
	})
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.CheckSnapshotStore = (*CheckSnapshotStore)(nil)
