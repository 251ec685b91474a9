package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"coinforge/internal/domain"
)

// AccountRepositoryPG implements domain.AccountRepository backed by PostgreSQL.
// Credit mutations are expressed server side as conditional updates so two
// concurrent job starts can never double-spend a balance.
type AccountRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepositoryPG.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepositoryPG {
	return &AccountRepositoryPG{pool: pool}
}

// Create inserts a new account with a zero balance.
func (r *AccountRepositoryPG) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO accounts (wallet_address, password_hash, wallet_secret, credits)
VALUES ($1, $2, $3, 0);
`, account.WalletAddress, account.PasswordHash, account.WalletSecret)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateAccount
		}
		return err
	}
	return nil
}

// GetByAddress fetches an account by wallet address.
func (r *AccountRepositoryPG) GetByAddress(ctx context.Context, address string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `
SELECT wallet_address, password_hash, wallet_secret, credits, created_at, updated_at
FROM accounts WHERE wallet_address = $1;
`, address)
	return scanAccount(row)
}

// ListAddresses returns every known wallet address for reconciliation sweeps.
func (r *AccountRepositoryPG) ListAddresses(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT wallet_address FROM accounts ORDER BY created_at;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var addresses []string
	for rows.Next() {
		var address string
		if err := rows.Scan(&address); err != nil {
			return nil, err
		}
		addresses = append(addresses, address)
	}
	return addresses, rows.Err()
}

// Credits returns the current balance.
func (r *AccountRepositoryPG) Credits(ctx context.Context, address string) (decimal.Decimal, error) {
	row := r.pool.QueryRow(ctx, `SELECT credits FROM accounts WHERE wallet_address = $1;`, address)
	var credits decimal.Decimal
	if err := row.Scan(&credits); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrNotFound
		}
		return decimal.Zero, err
	}
	return credits, nil
}

// DebitCredits decrements the balance only when it covers amount. The guard
// lives in the WHERE clause, so concurrent debits serialize at the row.
func (r *AccountRepositoryPG) DebitCredits(ctx context.Context, address string, amount decimal.Decimal) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE accounts
SET credits = credits - $2, updated_at = NOW()
WHERE wallet_address = $1 AND credits >= $2;
`, address, amount)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// RefundCredits adds amount back after a failed job.
func (r *AccountRepositoryPG) RefundCredits(ctx context.Context, address string, amount decimal.Decimal) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE accounts
SET credits = credits + $2, updated_at = NOW()
WHERE wallet_address = $1;
`, address, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RecordDeposit appends a ledger entry and increments the balance in one
// database transaction. The unique index on (wallet_address, tx_id) makes a
// replayed transaction a no-op, which keeps crediting idempotent across
// crashes and repeated scans.
func (r *AccountRepositoryPG) RecordDeposit(ctx context.Context, address string, entry domain.ProcessedTx) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, `
INSERT INTO processed_transactions (wallet_address, tx_id, source, raw_amount, credits_added, observed_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (wallet_address, tx_id) DO NOTHING;
`, address, entry.TxID, entry.Source, entry.RawAmount, entry.CreditsAdded, entry.ObservedAt)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		// Already in the ledger; nothing to credit.
		return false, tx.Commit(ctx)
	}

	credited, err := tx.Exec(ctx, `
UPDATE accounts
SET credits = credits + $2, updated_at = NOW()
WHERE wallet_address = $1;
`, address, entry.CreditsAdded)
	if err != nil {
		return false, err
	}
	if credited.RowsAffected() == 0 {
		return false, domain.ErrNotFound
	}
	return true, tx.Commit(ctx)
}

// ProcessedTxIDs returns the ledger's transaction id set for one account.
func (r *AccountRepositoryPG) ProcessedTxIDs(ctx context.Context, address string) (map[string]struct{}, error) {
	rows, err := r.pool.Query(ctx, `
SELECT tx_id FROM processed_transactions WHERE wallet_address = $1;
`, address)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seen := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		seen[id] = struct{}{}
	}
	return seen, rows.Err()
}

// AppendGeneratedFile stores one redacted artifact in the account's history.
func (r *AccountRepositoryPG) AppendGeneratedFile(ctx context.Context, address string, file domain.GeneratedFile) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO generated_files (wallet_address, job_id, content, created_at)
VALUES ($1, $2, $3, $4);
`, address, file.JobID, file.Content, file.CreatedAt)
	return err
}

// History lists the most recent generated files for an account.
func (r *AccountRepositoryPG) History(ctx context.Context, address string, limit int) ([]domain.GeneratedFile, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
SELECT job_id, content, created_at
FROM generated_files
WHERE wallet_address = $1
ORDER BY created_at DESC
LIMIT $2;
`, address, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var files []domain.GeneratedFile
	for rows.Next() {
		var f domain.GeneratedFile
		if err := rows.Scan(&f.JobID, &f.Content, &f.CreatedAt); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	if err := row.Scan(&a.WalletAddress, &a.PasswordHash, &a.WalletSecret, &a.Credits, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

var _ domain.AccountRepository = (*AccountRepositoryPG)(nil)
