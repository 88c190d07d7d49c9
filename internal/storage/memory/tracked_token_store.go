package memory

import (
	"context"
	"sort"
	"sync"

	"token-sentinel/internal/domain"
	"token-sentinel/internal/storage"
)

// TrackedTokenStore is an in-memory implementation of storage.TrackedTokenStore.
type TrackedTokenStore struct {
	mu   sync.RWMutex
	data map[domain.TokenKey]*domain.TrackedToken
}

// NewTrackedTokenStore creates a new in-memory tracked token store.
func NewTrackedTokenStore() *TrackedTokenStore {
	return &TrackedTokenStore{
		data: make(map[domain.TokenKey]*domain.TrackedToken),
	}
}

// InsertIfAbsent records the first-scan baseline exactly once.
func (s *TrackedTokenStore) InsertIfAbsent(_ context.Context, t *domain.TrackedToken) error {
	if t == nil || t.Address == "" || !t.Network.Valid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := t.Key()
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[key] = copyToken(t)
	return nil
}

// Update rewrites the mutable fields of an existing row.
func (s *TrackedTokenStore) Update(_ context.Context, t *domain.TrackedToken) error {
	if t == nil || t.Address == "" || !t.Network.Valid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := t.Key()
	if _, exists := s.data[key]; !exists {
		return storage.ErrNotFound
	}

	s.data[key] = copyToken(t)
	return nil
}

// Get retrieves a token by key.
func (s *TrackedTokenStore) Get(_ context.Context, key domain.TokenKey) (*domain.TrackedToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[key]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyToken(t), nil
}

// SelectStale retrieves up to limit active tokens not checked since cutoff,
// never-checked first, then oldest check first.
func (s *TrackedTokenStore) SelectStale(_ context.Context, cutoff int64, limit int) ([]*domain.TrackedToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TrackedToken
	for _, t := range s.data {
		if t.Status != domain.StatusActive {
			continue
		}
		if t.LastCheckedAt != nil && *t.LastCheckedAt >= cutoff {
			continue
		}
		result = append(result, copyToken(t))
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].LastCheckedAt, result[j].LastCheckedAt
		if a == nil && b == nil {
			return result[i].Address < result[j].Address
		}
		if a == nil {
			return true
		}
		if b == nil {
			return false
		}
		if *a != *b {
			return *a < *b
		}
		return result[i].Address < result[j].Address
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// SetIncidentPosted sets the de-duplication latch once.
func (s *TrackedTokenStore) SetIncidentPosted(_ context.Context, key domain.TokenKey, postedAt int64, incidentHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.data[key]
	if !exists {
		return storage.ErrNotFound
	}
	if t.IncidentPostedAt != nil {
		return storage.ErrAlreadyPosted
	}

	t.IncidentPostedAt = &postedAt
	t.IncidentHash = &incidentHash
	return nil
}

// CountByStatus returns the number of tracked tokens per status.
func (s *TrackedTokenStore) CountByStatus(_ context.Context) (map[domain.TokenStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.TokenStatus]int)
	for _, t := range s.data {
		counts[t.Status]++
	}
	return counts, nil
}

// copyToken deep-copies a token to prevent external mutation.
func copyToken(t *domain.TrackedToken) *domain.TrackedToken {
	c := *t
	if t.LastCheckedAt != nil {
		v := *t.LastCheckedAt
		c.LastCheckedAt = &v
	}
	if t.IncidentPostedAt != nil {
		v := *t.IncidentPostedAt
		c.IncidentPostedAt = &v
	}
	if t.IncidentHash != nil {
		v := *t.IncidentHash
		c.IncidentHash = &v
	}
	c.RugIndicators = append([]string(nil), t.RugIndicators...)
	return &c
}

// Verify interface compliance at compile time.
var _ storage.TrackedTokenStore = (*TrackedTokenStore)(nil)
