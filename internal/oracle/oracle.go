// Package oracle is the price-conversion collaborator boundary. The core
// treats the feed as a black box returning a signed price with a decimal
// scale; conversion produces 18-decimal fixed-point USD amounts.
package oracle

import (
	"context"
	"math/big"

	dErrors "carefund/pkg/domain-errors"
)

// PriceSource returns the latest native/USD price and its decimal scale.
type PriceSource interface {
	GetLatestPrice(ctx context.Context) (price *big.Int, decimals uint8, err error)
}

// ConvertToUSD scales an 18-decimal native amount into an 18-decimal USD
// amount: native * price / 10^decimals, truncating.
//
// Errors: a non-positive price is a feed fault and surfaces as CodeInternal.
func ConvertToUSD(native, price *big.Int, decimals uint8) (*big.Int, error) {
	if price == nil || price.Sign() <= 0 {
		return nil, dErrors.New(dErrors.CodeInternal, "invalid oracle price")
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	usd := new(big.Int).Mul(native, price)
	return usd.Quo(usd, scale), nil
}
