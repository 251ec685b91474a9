package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"coinforge/internal/domain"
)

type scanDepositsRequest struct {
	WalletAddress string `json:"walletAddress"`
}

// ScanDeposits triggers a synchronous reconciliation of one wallet. This is
// the on-demand top-up path a client calls before starting a job.
func (a *App) ScanDeposits(w http.ResponseWriter, r *http.Request) {
	var req scanDepositsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	address := strings.TrimSpace(req.WalletAddress)
	if address == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "walletAddress is required")
		return
	}
	credits, err := a.Reconciler.ReconcileOne(r.Context(), address)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusBadRequest, "unknown_account", "account not found")
			return
		}
		a.Logger.Error().Err(err).Str("wallet", address).Msg("deposits: scan failed")
		a.error(w, http.StatusInternalServerError, "internal", "deposit scan failed")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"credits": credits})
}

// GetCredits returns the current balance for a wallet.
func (a *App) GetCredits(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("walletAddress"))
	if address == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "walletAddress is required")
		return
	}
	credits, err := a.Accounts.Credits(r.Context(), address)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusBadRequest, "unknown_account", "account not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load credits")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"credits": credits})
}

// History lists an account's redacted generated files, newest first.
func (a *App) History(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("walletAddress"))
	if address == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "walletAddress is required")
		return
	}
	files, err := a.Accounts.History(r.Context(), address, 20)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusBadRequest, "unknown_account", "account not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load history")
		return
	}
	items := make([]map[string]any, 0, len(files))
	for _, f := range files {
		items = append(items, map[string]any{
			"jobId":     f.JobID,
			"content":   f.Content,
			"createdAt": f.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
