package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"coinforge/internal/domain"
)

type registerRequest struct {
	WalletPassword string `json:"walletPassword"`
}

type loginRequest struct {
	WalletAddress  string `json:"walletAddress"`
	WalletPassword string `json:"walletPassword"`
}

const minPasswordLength = 8

// Register creates a custodial wallet through the external wallet service
// and stores the account with a sealed secret and hashed password.
func (a *App) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if len(req.WalletPassword) < minPasswordLength {
		a.error(w, http.StatusBadRequest, "bad_request", "walletPassword must be at least 8 characters")
		return
	}

	created, err := a.Wallets.CreateWallet(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("auth: wallet creation failed")
		a.error(w, http.StatusBadGateway, "wallet_service", "wallet creation failed")
		return
	}
	sealed, err := a.Sealer.Seal(created.Mnemonic)
	if err != nil {
		a.Logger.Error().Err(err).Msg("auth: sealing wallet secret failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to protect wallet secret")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.WalletPassword), bcrypt.DefaultCost)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to hash password")
		return
	}

	account := &domain.Account{
		WalletAddress: created.Address,
		PasswordHash:  string(hash),
		WalletSecret:  sealed,
	}
	if err := a.Accounts.Create(r.Context(), account); err != nil {
		if errors.Is(err, domain.ErrDuplicateAccount) {
			a.error(w, http.StatusConflict, "duplicate_account", "account already exists")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to store account")
		return
	}
	a.json(w, http.StatusCreated, map[string]any{"walletAddress": created.Address})
}

// Login verifies the wallet password and returns the current balance.
func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	address := strings.TrimSpace(req.WalletAddress)
	if address == "" || req.WalletPassword == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "walletAddress and walletPassword are required")
		return
	}
	account, err := a.Accounts.GetByAddress(r.Context(), address)
	if err != nil {
		// Unknown account and wrong password are indistinguishable on purpose.
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.WalletPassword)) != nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"walletAddress": account.WalletAddress,
		"credits":       account.Credits,
	})
}
