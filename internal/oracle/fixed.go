package oracle

import (
	"context"
	"math/big"
	"sync"
)

// Fixed serves a static price; used in development and tests.
type Fixed struct {
	mu       sync.RWMutex
	price    *big.Int
	decimals uint8
}

func NewFixed(price *big.Int, decimals uint8) *Fixed {
	return &Fixed{price: new(big.Int).Set(price), decimals: decimals}
}

// SetPrice swaps the served price, e.g. to simulate feed movement in tests.
func (f *Fixed) SetPrice(price *big.Int, decimals uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.price = new(big.Int).Set(price)
	f.decimals = decimals
}

func (f *Fixed) GetLatestPrice(context.Context) (*big.Int, uint8, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return new(big.Int).Set(f.price), f.decimals, nil
}
