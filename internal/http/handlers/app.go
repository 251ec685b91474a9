package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"coinforge/internal/deposits"
	"coinforge/internal/domain"
	"coinforge/internal/infra"
	"coinforge/internal/pipeline"
	"coinforge/internal/tracker"
	"coinforge/internal/wallet"
)

// jobCost is the number of credits one generation consumes.
var jobCost = decimal.NewFromInt(1)

// App bundles the collaborators every handler needs.
type App struct {
	Config     *infra.Config
	Logger     infra.Logger
	Accounts   domain.AccountRepository
	Jobs       *tracker.Tracker
	Pipeline   *pipeline.Pipeline
	Reconciler *deposits.Reconciler
	Wallets    wallet.Creator
	Sealer     *wallet.Sealer
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, slug, message string) {
	a.json(w, code, map[string]any{
		"error":   slug,
		"message": message,
	})
}
