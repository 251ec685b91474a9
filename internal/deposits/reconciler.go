package deposits

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"coinforge/internal/domain"
	"coinforge/internal/infra"
)

// reconcileAllConcurrency bounds how many accounts a sweep touches at once.
const reconcileAllConcurrency = 4

// Reconciler observes every configured deposit source and converts newly
// seen deposits into credits, exactly once per external transaction. The
// per-transaction atomic unit is AccountRepository.RecordDeposit; the only
// deduplication mechanism is the processed-transaction ledger.
type Reconciler struct {
	accounts domain.AccountRepository
	sources  []Source
	rates    map[string]decimal.Decimal
	logger   infra.Logger

	group singleflight.Group
}

func NewReconciler(accounts domain.AccountRepository, sources []Source, rates map[string]decimal.Decimal, logger infra.Logger) *Reconciler {
	return &Reconciler{
		accounts: accounts,
		sources:  sources,
		rates:    rates,
		logger:   logger,
	}
}

// ReconcileOne scans all sources for one wallet address and credits anything
// new, returning the resulting balance. Concurrent calls for the same
// address collapse into a single scan.
func (r *Reconciler) ReconcileOne(ctx context.Context, address string) (decimal.Decimal, error) {
	v, err, _ := r.group.Do(address, func() (any, error) {
		return r.reconcile(ctx, address)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return v.(decimal.Decimal), nil
}

func (r *Reconciler) reconcile(ctx context.Context, address string) (decimal.Decimal, error) {
	if _, err := r.accounts.GetByAddress(ctx, address); err != nil {
		return decimal.Zero, fmt.Errorf("load account: %w", err)
	}
	seen, err := r.accounts.ProcessedTxIDs(ctx, address)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load ledger: %w", err)
	}

	for _, source := range r.sources {
		rate, ok := r.rates[source.Name()]
		if !ok || !rate.IsPositive() {
			r.logger.Warn().Str("source", source.Name()).Msg("reconciler: no conversion rate configured, skipping source")
			continue
		}
		deposits, err := source.Deposits(ctx, address)
		if err != nil {
			// One unreachable source must not block the other.
			r.logger.Warn().Err(err).
				Str("source", source.Name()).
				Str("wallet", address).
				Msg("reconciler: source fetch failed, skipping this cycle")
			continue
		}
		for _, dep := range deposits {
			if _, done := seen[dep.ID]; done {
				continue
			}
			if !dep.Amount.IsPositive() {
				continue
			}
			entry := domain.ProcessedTx{
				TxID:         dep.ID,
				Source:       source.Name(),
				RawAmount:    dep.Amount,
				CreditsAdded: dep.Amount.Mul(rate),
				ObservedAt:   time.Now().UTC(),
			}
			applied, err := r.accounts.RecordDeposit(ctx, address, entry)
			if err != nil {
				return decimal.Zero, fmt.Errorf("record deposit %s: %w", dep.ID, err)
			}
			if applied {
				seen[dep.ID] = struct{}{}
				r.logger.Info().
					Str("wallet", address).
					Str("source", source.Name()).
					Str("tx_id", dep.ID).
					Str("credits", entry.CreditsAdded.String()).
					Msg("reconciler: deposit credited")
			}
		}
	}

	return r.accounts.Credits(ctx, address)
}

// ReconcileAll sweeps every known account. A failing account is logged and
// never aborts the rest of the sweep.
func (r *Reconciler) ReconcileAll(ctx context.Context) error {
	addresses, err := r.accounts.ListAddresses(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileAllConcurrency)
	for _, address := range addresses {
		address := address
		g.Go(func() error {
			if _, err := r.ReconcileOne(ctx, address); err != nil {
				r.logger.Error().Err(err).Str("wallet", address).Msg("reconciler: account sweep failed")
			}
			return nil
		})
	}
	return g.Wait()
}
