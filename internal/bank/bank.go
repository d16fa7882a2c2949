// Package bank abstracts outbound value transfers. The core never holds
// custody logic; it only instructs the outer system to move native value and
// treats any failure as fatal to the enclosing operation.
package bank

import (
	"context"
	"math/big"

	id "carefund/pkg/domain"
)

// Transferer moves native value to a principal. Implementations must be
// all-or-nothing per call; a returned error means no value moved.
type Transferer interface {
	Transfer(ctx context.Context, to id.Principal, amount *big.Int) error
}
