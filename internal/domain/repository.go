package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// AccountRepository defines persistence for accounts, the credit balance and
// the deposit ledger. All balance mutations are atomic conditional updates
// executed at the store layer; callers must never read-modify-write credits.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByAddress(ctx context.Context, address string) (*Account, error)
	ListAddresses(ctx context.Context) ([]string, error)

	Credits(ctx context.Context, address string) (decimal.Decimal, error)

	// DebitCredits decrements the balance only when it covers amount.
	// Returns false without mutating anything when the balance is short.
	DebitCredits(ctx context.Context, address string, amount decimal.Decimal) (bool, error)

	// RefundCredits is the compensating increment for a failed job after a
	// successful debit.
	RefundCredits(ctx context.Context, address string, amount decimal.Decimal) error

	// RecordDeposit appends a ledger entry and increments the balance as one
	// atomic unit. A tx id already present in the ledger applies nothing and
	// returns false.
	RecordDeposit(ctx context.Context, address string, tx ProcessedTx) (bool, error)

	// ProcessedTxIDs returns the set of ledger tx ids for an account so a
	// reconciliation pass can skip known transactions before attempting writes.
	ProcessedTxIDs(ctx context.Context, address string) (map[string]struct{}, error)

	AppendGeneratedFile(ctx context.Context, address string, file GeneratedFile) error
	History(ctx context.Context, address string, limit int) ([]GeneratedFile, error)
}
