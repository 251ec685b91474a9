// Package deposits converts on-chain deposits observed through external
// indexer feeds into account credits, exactly once per transaction.
package deposits

import (
	"context"

	"github.com/shopspring/decimal"
)

// Deposit is the uniform shape every feed adapter reduces its transactions
// to: an identifier unique within the feed and the creditable amount already
// filtered to the account's address and scaled to whole currency units.
type Deposit struct {
	ID     string
	Amount decimal.Decimal
}

// Source is one external transaction feed tracked per account.
type Source interface {
	Name() string
	Deposits(ctx context.Context, address string) ([]Deposit, error)
}

// scaleAmount converts a fixed-point integer amount to currency units using
// the feed's configured exponent.
func scaleAmount(raw int64, decimals int32) decimal.Decimal {
	return decimal.New(raw, -decimals)
}
