package store

import (
	"context"
	"math/big"
	"sync"

	id "carefund/pkg/domain"
	"carefund/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	balances map[id.Principal]*big.Int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{balances: make(map[id.Principal]*big.Int)}
}

func (s *InMemoryStore) Credit(_ context.Context, principal id.Principal, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.balances[principal]
	if !ok {
		balance = new(big.Int)
		s.balances[principal] = balance
	}
	balance.Add(balance, amount)
	return nil
}

func (s *InMemoryStore) Debit(_ context.Context, principal id.Principal, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.balances[principal]
	if !ok || balance.Cmp(amount) < 0 {
		return sentinel.ErrConflict
	}
	balance.Sub(balance, amount)
	return nil
}

func (s *InMemoryStore) Balance(_ context.Context, principal id.Principal) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	balance, ok := s.balances[principal]
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(balance), nil
}
