package state

import (
	"context"
	"math/big"
	"sync"

	id "namedeed/pkg/domain"
	"namedeed/pkg/platform/sentinel"
)

// MemoryStore keeps registry configuration in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	price *big.Int
	admin id.Account
}

// NewMemoryStore builds an unseeded configuration store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Price(_ context.Context) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.price == nil {
		return nil, sentinel.ErrNotFound
	}
	return new(big.Int).Set(s.price), nil
}

func (s *MemoryStore) SetPrice(_ context.Context, price *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.price = new(big.Int).Set(price)
	return nil
}

func (s *MemoryStore) Admin(_ context.Context) (id.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.admin.IsZero() {
		return "", sentinel.ErrNotFound
	}
	return s.admin, nil
}

func (s *MemoryStore) SetAdmin(_ context.Context, admin id.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admin = admin
	return nil
}

func (s *MemoryStore) Seed(_ context.Context, admin id.Account, price *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.admin.IsZero() {
		s.admin = admin
	}
	if s.price == nil {
		s.price = new(big.Int).Set(price)
	}
	return nil
}
