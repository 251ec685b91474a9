package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"coinforge/internal/deposits"
	"coinforge/internal/domain"
	"coinforge/internal/pipeline"
	"coinforge/internal/providers/image"
	"coinforge/internal/tracker"
	"coinforge/internal/wallet"
)

// fakeRepo is an in-memory AccountRepository. DebitCredits mirrors the store
// contract: check-and-decrement is one atomic step, so concurrent debits can
// never overdraw an account.
type fakeRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	ledgers  map[string]map[string]domain.ProcessedTx
	history  map[string][]domain.GeneratedFile
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		accounts: map[string]*domain.Account{},
		ledgers:  map[string]map[string]domain.ProcessedTx{},
		history:  map[string][]domain.GeneratedFile{},
	}
}

func (r *fakeRepo) seed(address string, credits int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[address] = &domain.Account{
		WalletAddress: address,
		Credits:       decimal.NewFromInt(credits),
	}
	r.ledgers[address] = map[string]domain.ProcessedTx{}
}

func (r *fakeRepo) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.WalletAddress]; ok {
		return domain.ErrDuplicateAccount
	}
	clone := *account
	r.accounts[account.WalletAddress] = &clone
	r.ledgers[account.WalletAddress] = map[string]domain.ProcessedTx{}
	return nil
}

func (r *fakeRepo) GetByAddress(ctx context.Context, address string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[address]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *account
	return &clone, nil
}

func (r *fakeRepo) ListAddresses(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for a := range r.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeRepo) Credits(ctx context.Context, address string) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[address]
	if !ok {
		return decimal.Zero, domain.ErrNotFound
	}
	return account.Credits, nil
}

func (r *fakeRepo) DebitCredits(ctx context.Context, address string, amount decimal.Decimal) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[address]
	if !ok {
		return false, domain.ErrNotFound
	}
	if account.Credits.LessThan(amount) {
		return false, nil
	}
	account.Credits = account.Credits.Sub(amount)
	return true, nil
}

func (r *fakeRepo) RefundCredits(ctx context.Context, address string, amount decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[address]
	if !ok {
		return domain.ErrNotFound
	}
	account.Credits = account.Credits.Add(amount)
	return nil
}

func (r *fakeRepo) RecordDeposit(ctx context.Context, address string, tx domain.ProcessedTx) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[address]
	if !ok {
		return false, domain.ErrNotFound
	}
	if _, seen := r.ledgers[address][tx.TxID]; seen {
		return false, nil
	}
	r.ledgers[address][tx.TxID] = tx
	account.Credits = account.Credits.Add(tx.CreditsAdded)
	return true, nil
}

func (r *fakeRepo) ProcessedTxIDs(ctx context.Context, address string) (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]struct{}{}
	for id := range r.ledgers[address] {
		seen[id] = struct{}{}
	}
	return seen, nil
}

func (r *fakeRepo) AppendGeneratedFile(ctx context.Context, address string, file domain.GeneratedFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[address]; !ok {
		return domain.ErrNotFound
	}
	r.history[address] = append([]domain.GeneratedFile{file}, r.history[address]...)
	return nil
}

func (r *fakeRepo) History(ctx context.Context, address string, limit int) ([]domain.GeneratedFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[address]; !ok {
		return nil, domain.ErrNotFound
	}
	files := r.history[address]
	if len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

type stubText struct {
	doc string
	err error
}

func (s stubText) Generate(ctx context.Context, prompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.doc, nil
}

type stubImages struct{}

func (stubImages) Generate(ctx context.Context, req image.Request) (image.Asset, error) {
	return image.Asset{Data: []byte{1}, MIME: "image/png"}, nil
}

type stubWallets struct {
	wallet wallet.Wallet
	err    error
}

func (s stubWallets) CreateWallet(ctx context.Context) (wallet.Wallet, error) {
	if s.err != nil {
		return wallet.Wallet{}, s.err
	}
	return s.wallet, nil
}

const testDoc = "<!DOCTYPE html><html><body><img src=\"{{COIN_LOGO}}\"></body></html>"

// newTestApp wires an App over in-memory collaborators. The text generator is
// swappable so individual tests can force a pipeline failure.
func newTestApp(t *testing.T, repo *fakeRepo, texts stubText) *App {
	t.Helper()
	jobs := tracker.New()
	p := pipeline.New(pipeline.Options{
		Texts:    texts,
		Images:   stubImages{},
		Jobs:     jobs,
		Accounts: repo,
		Logger:   zerolog.Nop(),
		Slots:    []pipeline.Slot{{Name: "logo", Token: "{{COIN_LOGO}}", Width: 512, Height: 512}},
	})
	sealer, err := wallet.NewSealer("0000000000000000000000000000000000000000000000000000000000000001")
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}
	return &App{
		Logger:   zerolog.Nop(),
		Accounts: repo,
		Jobs:     jobs,
		Pipeline: p,
		Wallets:  stubWallets{wallet: wallet.Wallet{Address: "new-addr", Mnemonic: "word word"}},
		Sealer:   sealer,
	}
}

// waitFor polls until the condition holds or the deadline passes. Background
// jobs finish in microseconds with stub providers, so the deadline is generous.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func jobStatus(jobs *tracker.Tracker, id string) tracker.Status {
	snap, err := jobs.Get(id)
	if err != nil {
		return ""
	}
	return snap.Status
}

var errProviderDown = errors.New("provider down")

func newScanApp(t *testing.T, repo *fakeRepo, sources []deposits.Source, rates map[string]decimal.Decimal) *App {
	t.Helper()
	app := newTestApp(t, repo, stubText{doc: testDoc})
	app.Reconciler = deposits.NewReconciler(repo, sources, rates, zerolog.Nop())
	return app
}
