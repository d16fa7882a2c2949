package bank

import (
	"context"
	"math/big"
	"sync"

	id "carefund/pkg/domain"
	"carefund/pkg/platform/sentinel"
)

// InMemoryBank records credited balances per principal and supports failure
// injection so tests can exercise the all-or-nothing transfer contract.
type InMemoryBank struct {
	mu       sync.Mutex
	balances map[id.Principal]*big.Int
	failFor  map[id.Principal]bool
}

func NewInMemoryBank() *InMemoryBank {
	return &InMemoryBank{
		balances: make(map[id.Principal]*big.Int),
		failFor:  make(map[id.Principal]bool),
	}
}

// FailTransfersTo makes every transfer to the principal fail until cleared.
func (b *InMemoryBank) FailTransfersTo(p id.Principal, fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failFor[p] = fail
}

func (b *InMemoryBank) Transfer(_ context.Context, to id.Principal, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failFor[to] {
		return sentinel.ErrTransferFailed
	}
	cur, ok := b.balances[to]
	if !ok {
		cur = new(big.Int)
		b.balances[to] = cur
	}
	cur.Add(cur, amount)
	return nil
}

// BalanceOf returns the total value transferred to the principal.
func (b *InMemoryBank) BalanceOf(p id.Principal) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	cur, ok := b.balances[p]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(cur)
}
