package ledger

import (
	"context"
	"math/big"
	"sync"

	id "namedeed/pkg/domain"
	"namedeed/pkg/platform/sentinel"
)

// MemoryStore keeps the ledger in process memory. Entries carry their own
// lock so one account's withdrawal (which holds its entry across the
// outbound transfer) never blocks credits or withdrawals for other
// accounts.
//
// Lock order is always entry.mu before s.mu; s.mu alone guards the maps
// and the frozen aggregates.
type MemoryStore struct {
	mu     sync.Mutex
	funds  map[id.Currency]map[id.Account]*entry
	frozen map[id.Currency]*big.Int
}

type entry struct {
	mu     sync.Mutex
	amount *big.Int
}

// NewMemoryStore builds an empty ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		funds:  make(map[id.Currency]map[id.Account]*entry),
		frozen: make(map[id.Currency]*big.Int),
	}
}

func (s *MemoryStore) getOrCreateEntry(currency id.Currency, account id.Account) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	byAccount, ok := s.funds[currency]
	if !ok {
		byAccount = make(map[id.Account]*entry)
		s.funds[currency] = byAccount
	}
	e, ok := byAccount[account]
	if !ok {
		e = &entry{amount: new(big.Int)}
		byAccount[account] = e
	}
	return e
}

func (s *MemoryStore) Credit(_ context.Context, currency id.Currency, account id.Account, amount *big.Int) error {
	e := s.getOrCreateEntry(currency, account)
	e.mu.Lock()
	defer e.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	e.amount.Add(e.amount, amount)
	frozen, ok := s.frozen[currency]
	if !ok {
		frozen = new(big.Int)
		s.frozen[currency] = frozen
	}
	frozen.Add(frozen, amount)
	return nil
}

func (s *MemoryStore) WithdrawAll(_ context.Context, currency id.Currency, account id.Account, send func(amount *big.Int) error) (*big.Int, error) {
	e := s.getOrCreateEntry(currency, account)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.amount.Sign() == 0 {
		return nil, sentinel.ErrNotFound
	}

	// Send against the pre-mutation amount; the entry lock keeps
	// re-entrant or concurrent attempts from observing a half-done
	// withdrawal.
	amount := new(big.Int).Set(e.amount)
	if err := send(amount); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e.amount.SetInt64(0)
	s.frozen[currency].Sub(s.frozen[currency], amount)
	return amount, nil
}

func (s *MemoryStore) FrozenBalance(_ context.Context, currency id.Currency) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if frozen, ok := s.frozen[currency]; ok {
		return new(big.Int).Set(frozen), nil
	}
	return new(big.Int), nil
}

func (s *MemoryStore) Claimable(_ context.Context, currency id.Currency, account id.Account) (*big.Int, error) {
	e := s.getOrCreateEntry(currency, account)
	e.mu.Lock()
	defer e.mu.Unlock()
	return new(big.Int).Set(e.amount), nil
}
