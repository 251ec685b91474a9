package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"coinforge/internal/deposits"
	"coinforge/internal/domain"
)

type fixedSource struct {
	name     string
	deposits []deposits.Deposit
}

func (s fixedSource) Name() string { return s.name }

func (s fixedSource) Deposits(ctx context.Context, address string) ([]deposits.Deposit, error) {
	return s.deposits, nil
}

func TestScanDepositsCreditsAccount(t *testing.T) {
	repo := newFakeRepo()
	repo.seed("addr-1", 0)
	source := fixedSource{
		name:     domain.DepositSourceToken,
		deposits: []deposits.Deposit{{ID: "tx-1", Amount: decimal.NewFromInt(3)}},
	}
	rates := map[string]decimal.Decimal{domain.DepositSourceToken: decimal.NewFromInt(2)}
	app := newScanApp(t, repo, []deposits.Source{source}, rates)

	rec := postJSON(app.ScanDeposits, `{"walletAddress":"addr-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody(t, rec)["credits"]; got != "6" {
		t.Fatalf("credits = %v, want 6", got)
	}

	// A second scan of the same feed is a no-op.
	rec = postJSON(app.ScanDeposits, `{"walletAddress":"addr-1"}`)
	if got := decodeBody(t, rec)["credits"]; got != "6" {
		t.Fatalf("credits after rescan = %v, want 6", got)
	}
}

func TestScanDepositsUnknownAccount(t *testing.T) {
	app := newScanApp(t, newFakeRepo(), nil, nil)
	rec := postJSON(app.ScanDeposits, `{"walletAddress":"ghost"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "unknown_account" {
		t.Fatalf("error = %v", got)
	}
}

func TestScanDepositsValidation(t *testing.T) {
	app := newScanApp(t, newFakeRepo(), nil, nil)
	for _, body := range []string{`{`, `{"walletAddress":"  "}`} {
		rec := postJSON(app.ScanDeposits, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d for body %q", rec.Code, body)
		}
	}
}

func TestGetCredits(t *testing.T) {
	repo := newFakeRepo()
	repo.seed("addr-1", 7)
	app := newTestApp(t, repo, stubText{doc: testDoc})

	req := httptest.NewRequest(http.MethodGet, "/?walletAddress=addr-1", nil)
	rec := httptest.NewRecorder()
	app.GetCredits(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeBody(t, rec)["credits"]; got != "7" {
		t.Fatalf("credits = %v", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/?walletAddress=ghost", nil)
	rec = httptest.NewRecorder()
	app.GetCredits(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHistoryListsRedactedFiles(t *testing.T) {
	repo := newFakeRepo()
	repo.seed("addr-1", 0)
	_ = repo.AppendGeneratedFile(context.Background(), "addr-1", domain.GeneratedFile{
		JobID:     "job-1",
		Content:   "<img src=\"[inline-image]\">",
		CreatedAt: time.Now().UTC(),
	})
	app := newTestApp(t, repo, stubText{doc: testDoc})

	req := httptest.NewRequest(http.MethodGet, "/?walletAddress=addr-1", nil)
	rec := httptest.NewRecorder()
	app.History(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	items, _ := decodeBody(t, rec)["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	item, _ := items[0].(map[string]any)
	if item["jobId"] != "job-1" {
		t.Fatalf("item = %+v", item)
	}
}
