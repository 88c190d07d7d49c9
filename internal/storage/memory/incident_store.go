package memory

import (
	"context"
	"sort"
	"sync"

	"token-sentinel/internal/domain"
	"token-sentinel/internal/storage"
)

// incidentKey identifies one incident row.
type incidentKey struct {
	address    string
	network    domain.Network
	detectedAt int64
}

// IncidentStore is an in-memory implementation of storage.IncidentStore.
type IncidentStore struct {
	mu   sync.RWMutex
	data map[incidentKey]*domain.RugIncident
}

// NewIncidentStore creates a new in-memory incident store.
func NewIncidentStore() *IncidentStore {
	return &IncidentStore{
		data: make(map[incidentKey]*domain.RugIncident),
	}
}

// Insert adds a new incident. Append-only.
func (s *IncidentStore) Insert(_ context.Context, inc *domain.RugIncident) error {
	if inc == nil || inc.TokenAddress == "" || !inc.Network.Valid() || !inc.RugType.Valid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := incidentKey{address: inc.TokenAddress, network: inc.Network, detectedAt: inc.DetectedAt}
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[key] = copyIncident(inc)
	return nil
}

// GetByToken retrieves all incidents for a token, ordered by detected_at ASC.
func (s *IncidentStore) GetByToken(_ context.Context, key domain.TokenKey) ([]*domain.RugIncident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RugIncident
	for _, inc := range s.data {
		if inc.TokenAddress == key.Address && inc.Network == key.Network {
			result = append(result, copyIncident(inc))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DetectedAt < result[j].DetectedAt
	})
	return result, nil
}

// CountSince returns how many incidents were detected at or after since.
func (s *IncidentStore) CountSince(_ context.Context, since int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, inc := range s.data {
		if inc.DetectedAt >= since {
			n++
		}
	}
	return n, nil
}

// copyIncident deep-copies an incident row.
func copyIncident(inc *domain.RugIncident) *domain.RugIncident {
	c := *inc
	c.Indicators = append([]string(nil), inc.Indicators...)
	if inc.PostedAt != nil {
		v := *inc.PostedAt
		c.PostedAt = &v
	}
	if inc.PostHash != nil {
		v := *inc.PostHash
		c.PostHash = &v
	}
	return &c
}

// Verify interface compliance at compile time.
var _ storage.IncidentStore = (*IncidentStore)(nil)
