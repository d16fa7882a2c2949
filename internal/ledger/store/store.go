// Package store persists per-principal withdrawable fee balances.
package store

import (
	"context"
	"math/big"

	id "carefund/pkg/domain"
)

// Store is the fee-account balance ledger. Balances are 18-decimal native
// units and never go negative; Debit returns sentinel.ErrConflict when the
// balance is insufficient. A missing account reads as zero.
type Store interface {
	Credit(ctx context.Context, principal id.Principal, amount *big.Int) error
	Debit(ctx context.Context, principal id.Principal, amount *big.Int) error
	Balance(ctx context.Context, principal id.Principal) (*big.Int, error)
}
