package name

import (
	"context"
	"sync"

	"namedeed/internal/registry/models"
	"namedeed/pkg/platform/sentinel"
)

// MemoryStore keeps the name map in process memory. The mutex makes
// check-and-insert atomic, so concurrent purchases of the same key
// resolve to a single winner.
type MemoryStore struct {
	mu    sync.RWMutex
	names map[string]models.NameRecord
}

// NewMemoryStore builds an empty name map.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{names: make(map[string]models.NameRecord)}
}

func (s *MemoryStore) CreateIfAvailable(_ context.Context, record models.NameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.names[record.Name]; exists {
		return sentinel.ErrConflict
	}
	s.names[record.Name] = record
	return nil
}

func (s *MemoryStore) FindByName(_ context.Context, name string) (models.NameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.names[name]; ok {
		return record, nil
	}
	return models.NameRecord{}, sentinel.ErrNotFound
}
