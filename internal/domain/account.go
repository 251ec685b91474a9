package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a custodial wallet with its credit balance.
type Account struct {
	WalletAddress string
	PasswordHash  string
	WalletSecret  string // sealed mnemonic, never stored in clear
	Credits       decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DepositSourceToken and DepositSourceChain tag ledger entries with the feed
// that produced them.
const (
	DepositSourceToken = "token"
	DepositSourceChain = "chain"
)

// ProcessedTx is one append-only ledger entry. TxID is unique per account and
// is the deduplication boundary for deposit crediting.
type ProcessedTx struct {
	TxID         string
	Source       string
	RawAmount    decimal.Decimal
	CreditsAdded decimal.Decimal
	ObservedAt   time.Time
}

// GeneratedFile records one completed generation for an account. Content is
// the redacted artifact (inline image payloads replaced with a marker).
type GeneratedFile struct {
	JobID     string
	Content   string
	CreatedAt time.Time
}
